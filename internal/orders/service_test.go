package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modoo_back_end/internal/models"
	"modoo_back_end/internal/payments"
)

// --- fakes ---

type fakeStore struct {
	orders map[string]*models.Order
	items  map[string][]models.OrderItem

	failInsertItems bool
	failMarkPaid    bool
	markPaidLoses   bool // simule une confirmation concurrente qui gagne le CAS

	deleteCalls   int
	markPaidCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders: map[string]*models.Order{},
		items:  map[string][]models.OrderItem{},
	}
}

func (f *fakeStore) InsertOrder(_ context.Context, o *models.Order) error {
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeStore) InsertItems(_ context.Context, orderID string, items []models.OrderItem) error {
	if f.failInsertItems {
		return errors.New("écriture items refusée")
	}
	f.items[orderID] = items
	return nil
}

func (f *fakeStore) DeleteOrder(_ context.Context, orderID string) error {
	f.deleteCalls++
	delete(f.orders, orderID)
	delete(f.items, orderID)
	return nil
}

func (f *fakeStore) GetOrder(_ context.Context, orderID string) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) GetItems(_ context.Context, orderID string) ([]models.OrderItem, error) {
	return f.items[orderID], nil
}

func (f *fakeStore) MarkPaid(_ context.Context, orderID, paymentKey string, at time.Time) (bool, error) {
	f.markPaidCalls++
	if f.failMarkPaid {
		return false, errors.New("scylla indisponible")
	}
	o := f.orders[orderID]
	if f.markPaidLoses || o.PaymentStatus != models.PaymentPending {
		return false, nil
	}
	o.PaymentStatus = models.PaymentCompleted
	o.Status = models.StatusProcessing
	o.PaymentKey = &paymentKey
	o.UpdatedAt = at
	return true, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, orderID, status string, at time.Time) error {
	o, ok := f.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = at
	return nil
}

func (f *fakeStore) ListRecent(_ context.Context, limit int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		out = append(out, *o)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakeInventory struct {
	deductions map[string]int // variantID -> quantité totale déduite
	calls      int
	err        error
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{deductions: map[string]int{}}
}

func (f *fakeInventory) Deduct(_ context.Context, variantID string, quantity int, _ string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.deductions[variantID] += quantity
	return nil
}

type fakeProvider struct {
	record   *payments.Record
	err      error
	calls    int
	lastKey  string
	lastAmnt int64
}

func (f *fakeProvider) Name() string { return "toss" }

func (f *fakeProvider) Confirm(_ context.Context, paymentKey, orderID string, amount int64) (*payments.Record, error) {
	f.calls++
	f.lastKey = paymentKey
	f.lastAmnt = amount
	if f.err != nil {
		return nil, f.err
	}
	if f.record != nil {
		return f.record, nil
	}
	return &payments.Record{
		PaymentKey: paymentKey,
		OrderID:    orderID,
		Amount:     amount,
		Status:     "DONE",
		Method:     "카드",
		ApprovedAt: "2024-01-01T12:00:00+09:00",
	}, nil
}

type fakeLocker struct {
	denied   bool
	err      error
	acquired int
	released int
}

func (f *fakeLocker) Acquire(_ context.Context, _ string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.denied {
		return false, nil
	}
	f.acquired++
	return true, nil
}

func (f *fakeLocker) Release(_ context.Context, _ string) { f.released++ }

type fakeNotifier struct{ calls int }

func (f *fakeNotifier) OrderConfirmed(_ *models.Order, _ []models.OrderItem, _ *payments.Record) {
	f.calls++
}

// --- helpers ---

func strPtr(s string) *string { return &s }

func newTestService(store *fakeStore, inv *fakeInventory, provider payments.Provider, locker Locker, notifier Notifier) *Service {
	svc := NewService(store, inv, map[string]payments.Provider{"toss": provider, "paypal": provider}, locker, notifier)
	svc.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func validCreateRequest() CreateOrderRequest {
	return CreateOrderRequest{
		OrderID:       "ORD-20240101-ABCDEF",
		OrderName:     "스니커즈 외 1건",
		Total:         23000,
		PaymentMethod: models.MethodToss,
		CustomerName:  "김민수",
		CustomerEmail: "minsu@example.com",
		Items: []ItemInput{
			{ProductID: "p1", VariantID: strPtr("v1"), Quantity: 2, PriceAtTime: 9000, Size: strPtr("260")},
			{ProductID: "p2", Quantity: 1, PriceAtTime: 5000},
		},
	}
}

// --- CreateOrder ---

func TestCreateOrderPersistsPendingOrder(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, newFakeInventory(), &fakeProvider{}, &fakeLocker{}, &fakeNotifier{})

	order, err := svc.CreateOrder(context.Background(), validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, "ORD-20240101-ABCDEF", order.ID)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Len(t, order.Items, 2)

	stored, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(23000), stored.Total)
	assert.Len(t, store.items[order.ID], 2)
}

func TestCreateOrderValidationWritesNothing(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateOrderRequest)
	}{
		{"orderId manquant", func(r *CreateOrderRequest) { r.OrderID = "" }},
		{"total nul", func(r *CreateOrderRequest) { r.Total = 0 }},
		{"total négatif", func(r *CreateOrderRequest) { r.Total = -100 }},
		{"méthode inconnue", func(r *CreateOrderRequest) { r.PaymentMethod = "stripe" }},
		{"email manquant", func(r *CreateOrderRequest) { r.CustomerEmail = "" }},
		{"panier vide", func(r *CreateOrderRequest) { r.Items = nil }},
		{"quantité nulle", func(r *CreateOrderRequest) { r.Items[0].Quantity = 0 }},
		{"prix négatif", func(r *CreateOrderRequest) { r.Items[0].PriceAtTime = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			svc := newTestService(store, newFakeInventory(), &fakeProvider{}, &fakeLocker{}, &fakeNotifier{})

			req := validCreateRequest()
			tc.mutate(&req)

			_, err := svc.CreateOrder(context.Background(), req)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Empty(t, store.orders)
			assert.Empty(t, store.items)
		})
	}
}

func TestCreateOrderCompensatesWhenItemsFail(t *testing.T) {
	store := newFakeStore()
	store.failInsertItems = true
	svc := newTestService(store, newFakeInventory(), &fakeProvider{}, &fakeLocker{}, &fakeNotifier{})

	_, err := svc.CreateOrder(context.Background(), validCreateRequest())

	var pErr *PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, 1, store.deleteCalls)

	// La commande orpheline a bien été supprimée : un lookup la traite
	// comme inexistante
	_, err = svc.GetOrder(context.Background(), "ORD-20240101-ABCDEF")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

// --- ConfirmPayment ---

func confirmReq() ConfirmRequest {
	return ConfirmRequest{PaymentKey: "tk_abc123", OrderID: "ORD-20240101-ABCDEF", Amount: 23000}
}

func TestConfirmPaymentHappyPath(t *testing.T) {
	store := newFakeStore()
	inv := newFakeInventory()
	provider := &fakeProvider{}
	locker := &fakeLocker{}
	notifier := &fakeNotifier{}
	svc := newTestService(store, inv, provider, locker, notifier)

	_, err := svc.CreateOrder(context.Background(), validCreateRequest())
	require.NoError(t, err)

	result, err := svc.ConfirmPayment(context.Background(), confirmReq())
	require.NoError(t, err)

	assert.False(t, result.Replay)
	assert.Equal(t, "tk_abc123", result.Payment.PaymentKey)
	assert.Equal(t, int64(23000), result.Payment.Amount)

	stored, _ := store.GetOrder(context.Background(), "ORD-20240101-ABCDEF")
	assert.Equal(t, models.PaymentCompleted, stored.PaymentStatus)
	assert.Equal(t, models.StatusProcessing, stored.Status)
	require.NotNil(t, stored.PaymentKey)
	assert.Equal(t, "tk_abc123", *stored.PaymentKey)

	// Seul l'item à variante déclenche une déduction, avec sa quantité
	assert.Equal(t, 1, inv.calls)
	assert.Equal(t, 2, inv.deductions["v1"])

	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, 1, locker.acquired)
	assert.Equal(t, 1, locker.released)
}

func TestConfirmPaymentReplayIsIdempotent(t *testing.T) {
	store := newFakeStore()
	inv := newFakeInventory()
	provider := &fakeProvider{}
	svc := newTestService(store, inv, provider, &fakeLocker{}, &fakeNotifier{})

	_, err := svc.CreateOrder(context.Background(), validCreateRequest())
	require.NoError(t, err)

	first, err := svc.ConfirmPayment(context.Background(), confirmReq())
	require.NoError(t, err)
	require.False(t, first.Replay)

	second, err := svc.ConfirmPayment(context.Background(), confirmReq())
	require.NoError(t, err)

	assert.True(t, second.Replay)
	assert.Equal(t, first.Payment.PaymentKey, second.Payment.PaymentKey)
	assert.Equal(t, first.Payment.Amount, second.Payment.Amount)

	// Pas de second appel provider, pas de seconde déduction de stock
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, 2, inv.deductions["v1"])
	assert.Equal(t, 1, inv.calls)
}

func TestConfirmPaymentOrderNotFound(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{}
	svc := newTestService(store, newFakeInventory(), provider, &fakeLocker{}, &fakeNotifier{})

	_, err := svc.ConfirmPayment(context.Background(), confirmReq())

	assert.ErrorIs(t, err, ErrOrderNotFound)
	// Jamais d'appel provider pour une commande inconnue
	assert.Equal(t, 0, provider.calls)
}

func TestConfirmPaymentAmountMismatchFailsClosed(t *testing.T) {
	store := newFakeStore()
	inv := newFakeInventory()
	provider := &fakeProvider{}
	svc := newTestService(store, inv, provider, &fakeLocker{}, &fakeNotifier{})

	_, err := svc.CreateOrder(context.Background(), validCreateRequest())
	require.NoError(t, err)

	req := confirmReq()
	req.Amount = 22000

	_, err = svc.ConfirmPayment(context.Background(), req)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	// Rien n'a été capturé ni déduit, la commande reste pending
	assert.Equal(t, 0, provider.calls)
	assert.Equal(t, 0, inv.calls)
	stored, _ := store.GetOrder(context.Background(), req.OrderID)
	assert.Equal(t, models.PaymentPending, stored.PaymentStatus)
}

func TestConfirmPaymentProviderRejectionLeavesPending(t *testing.T) {
	store := newFakeStore()
	inv := newFakeInventory()
	provider := &fakeProvider{err: &payments.ProviderError{
		Provider: "toss", Code: "INVALID_CARD", Message: "유효하지 않은 카드입니다", HTTPStatus: 400,
	}}
	svc := newTestService(store, inv, provider, &fakeLocker{}, &fakeNotifier{})

	_, err := svc.CreateOrder(context.Background(), validCreateRequest())
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(context.Background(), confirmReq())

	var provErr *payments.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "INVALID_CARD", provErr.Code)

	stored, _ := store.GetOrder(context.Background(), "ORD-20240101-ABCDEF")
	assert.Equal(t, models.PaymentPending, stored.PaymentStatus)
	assert.Equal(t, 0, inv.calls)

	// Rejouable après rejet : le provider est bien rappelé
	provider.err = nil
	result, err := svc.ConfirmPayment(context.Background(), confirmReq())
	require.NoError(t, err)
	assert.False(t, result.Replay)
	assert.Equal(t, 2, provider.calls)
}

func TestConfirmPaymentLockDeniedReturnsConflict(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{}
	svc := newTestService(store, newFakeInventory(), provider, &fakeLocker{denied: true}, &fakeNotifier{})

	_, err := svc.CreateOrder(context.Background(), validCreateRequest())
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(context.Background(), confirmReq())

	assert.ErrorIs(t, err, ErrConfirmInProgress)
	assert.Equal(t, 0, provider.calls)
}

func TestConfirmPaymentLockerUnavailableContinues(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{}
	svc := newTestService(store, newFakeInventory(), provider, &fakeLocker{err: errors.New("redis down")}, &fakeNotifier{})

	_, err := svc.CreateOrder(context.Background(), validCreateRequest())
	require.NoError(t, err)

	// Verrou indisponible ≠ verrou refusé : la confirmation passe quand même
	result, err := svc.ConfirmPayment(context.Background(), confirmReq())
	require.NoError(t, err)
	assert.False(t, result.Replay)
	assert.Equal(t, 1, provider.calls)
}

func TestConfirmPaymentCASLostTreatedAsReplay(t *testing.T) {
	store := newFakeStore()
	store.markPaidLoses = true
	inv := newFakeInventory()
	svc := newTestService(store, inv, &fakeProvider{}, &fakeLocker{}, &fakeNotifier{})

	_, err := svc.CreateOrder(context.Background(), validCreateRequest())
	require.NoError(t, err)

	result, err := svc.ConfirmPayment(context.Background(), confirmReq())
	require.NoError(t, err)

	// CAS perdu = une confirmation concurrente est passée : rejeu, et
	// surtout pas de déduction de stock en double
	assert.True(t, result.Replay)
	assert.Equal(t, 0, inv.calls)
}

func TestConfirmPaymentMarkPaidFailureIsReconciliationNotError(t *testing.T) {
	store := newFakeStore()
	store.failMarkPaid = true
	notifier := &fakeNotifier{}
	svc := newTestService(store, newFakeInventory(), &fakeProvider{}, &fakeLocker{}, notifier)

	_, err := svc.CreateOrder(context.Background(), validCreateRequest())
	require.NoError(t, err)

	// Capture provider réussie + update local échoué : jamais présenté
	// comme un échec au client
	result, err := svc.ConfirmPayment(context.Background(), confirmReq())
	require.NoError(t, err)
	assert.False(t, result.Replay)
	assert.Equal(t, "tk_abc123", result.Payment.PaymentKey)
	assert.Equal(t, 1, notifier.calls)
}

func TestConfirmPaymentValidatesInput(t *testing.T) {
	svc := newTestService(newFakeStore(), newFakeInventory(), &fakeProvider{}, &fakeLocker{}, &fakeNotifier{})

	for _, req := range []ConfirmRequest{
		{OrderID: "ORD-X", Amount: 1000},
		{PaymentKey: "tk", Amount: 1000},
		{PaymentKey: "tk", OrderID: "ORD-X"},
		{PaymentKey: "tk", OrderID: "ORD-X", Amount: -5},
	} {
		_, err := svc.ConfirmPayment(context.Background(), req)
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	}
}

// --- UpdateStatus ---

func TestUpdateStatusRejectsInvalidStatus(t *testing.T) {
	svc := newTestService(newFakeStore(), newFakeInventory(), &fakeProvider{}, &fakeLocker{}, &fakeNotifier{})

	_, err := svc.UpdateStatus(context.Background(), "ORD-X", "teleported")

	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestUpdateStatusRequiresCompletedPayment(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, newFakeInventory(), &fakeProvider{}, &fakeLocker{}, &fakeNotifier{})

	_, err := svc.CreateOrder(context.Background(), validCreateRequest())
	require.NoError(t, err)

	// Expédier une commande impayée : refusé
	_, err = svc.UpdateStatus(context.Background(), "ORD-20240101-ABCDEF", models.StatusShipped)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	// Annuler une commande impayée : autorisé
	order, err := svc.UpdateStatus(context.Background(), "ORD-20240101-ABCDEF", models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, order.Status)
}

func TestUpdateStatusAfterPayment(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, newFakeInventory(), &fakeProvider{}, &fakeLocker{}, &fakeNotifier{})

	_, err := svc.CreateOrder(context.Background(), validCreateRequest())
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(context.Background(), confirmReq())
	require.NoError(t, err)

	order, err := svc.UpdateStatus(context.Background(), "ORD-20240101-ABCDEF", models.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, order.Status)
}

// --- MethodLabel ---

func TestMethodLabel(t *testing.T) {
	assert.Equal(t, "Toss", MethodLabel(models.MethodToss))
	assert.Equal(t, "PayPal", MethodLabel(models.MethodPayPal))
	assert.Equal(t, "virement", MethodLabel("virement"))
}
