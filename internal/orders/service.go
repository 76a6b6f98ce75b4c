package orders

import (
	"context"
	"log"
	"time"

	"modoo_back_end/internal/models"
	"modoo_back_end/internal/payments"
)

// Inventory — décrément de stock atomique côté store
type Inventory interface {
	Deduct(ctx context.Context, variantID string, quantity int, orderID string) error
}

// Notifier — envois best-effort après confirmation ; ne bloque jamais la
// réponse client et n'échoue jamais vers le caller
type Notifier interface {
	OrderConfirmed(order *models.Order, items []models.OrderItem, record *payments.Record)
}

// Service orchestre la création de commande, la confirmation de paiement,
// la déduction de stock et les notifications
type Service struct {
	store     Store
	inventory Inventory
	providers map[string]payments.Provider
	locker    Locker
	notifier  Notifier
	now       func() time.Time
}

func NewService(store Store, inv Inventory, providers map[string]payments.Provider, locker Locker, notifier Notifier) *Service {
	return &Service{
		store:     store,
		inventory: inv,
		providers: providers,
		locker:    locker,
		notifier:  notifier,
		now:       time.Now,
	}
}

type ItemInput struct {
	ProductID   string  `json:"productId"`
	VariantID   *string `json:"variantId,omitempty"`
	Quantity    int     `json:"quantity"`
	PriceAtTime int64   `json:"priceAtTime"`
	Size        *string `json:"size,omitempty"`
}

type CreateOrderRequest struct {
	OrderID         string      `json:"orderId"`
	OrderName       string      `json:"orderName"`
	Total           int64       `json:"total"`
	PaymentMethod   string      `json:"paymentMethod"`
	CustomerName    string      `json:"customerName"`
	CustomerEmail   string      `json:"customerEmail"`
	CustomerPhone   string      `json:"customerPhone"`
	ShippingStreet  string      `json:"shippingStreet"`
	ShippingCity    string      `json:"shippingCity"`
	ShippingState   string      `json:"shippingState"`
	ShippingZipCode string      `json:"shippingZipCode"`
	ShippingCountry string      `json:"shippingCountry"`
	Items           []ItemInput `json:"items"`
	UserID          *string     `json:"userId,omitempty"`
}

// CreateOrder valide puis persiste la commande et ses items,
// payment_status=pending. Aucun effet de bord paiement à ce stade.
// Si l'insertion des items échoue après la ligne commande, la commande
// est supprimée (delete compensatoire) avant de remonter l'erreur.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if req.OrderID == "" {
		return nil, validationf("orderId manquant")
	}
	if req.Total <= 0 {
		return nil, validationf("total invalide")
	}
	if req.PaymentMethod != models.MethodToss && req.PaymentMethod != models.MethodPayPal {
		return nil, validationf("moyen de paiement non supporté: %s", req.PaymentMethod)
	}
	if req.CustomerName == "" || req.CustomerEmail == "" {
		return nil, validationf("nom et email client requis")
	}
	if len(req.Items) == 0 {
		return nil, validationf("panier vide")
	}
	for _, item := range req.Items {
		if item.ProductID == "" {
			return nil, validationf("productId manquant sur un item")
		}
		if item.Quantity <= 0 {
			return nil, validationf("quantité invalide pour le produit %s", item.ProductID)
		}
		if item.PriceAtTime < 0 {
			return nil, validationf("prix invalide pour le produit %s", item.ProductID)
		}
	}

	now := s.now()
	order := &models.Order{
		ID:              req.OrderID,
		UserID:          req.UserID,
		OrderName:       req.OrderName,
		Total:           req.Total,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   models.PaymentPending,
		Status:          models.StatusPending,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ShippingStreet:  req.ShippingStreet,
		ShippingCity:    req.ShippingCity,
		ShippingState:   req.ShippingState,
		ShippingZipCode: req.ShippingZipCode,
		ShippingCountry: req.ShippingCountry,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.InsertOrder(ctx, order); err != nil {
		log.Printf("❌ Erreur insertion commande %s: %v", req.OrderID, err)
		return nil, &PersistenceError{Op: "insert commande", Err: err}
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, in := range req.Items {
		items = append(items, models.OrderItem{
			OrderID:     req.OrderID,
			ProductID:   in.ProductID,
			VariantID:   in.VariantID,
			Quantity:    in.Quantity,
			PriceAtTime: in.PriceAtTime,
			Size:        in.Size,
		})
	}

	if err := s.store.InsertItems(ctx, req.OrderID, items); err != nil {
		log.Printf("❌ Erreur insertion items pour %s, rollback de la commande: %v", req.OrderID, err)
		// Delete compensatoire : pas de transaction multi-tables ici
		if delErr := s.store.DeleteOrder(ctx, req.OrderID); delErr != nil {
			log.Printf("⚠️ Rollback échoué pour %s: %v — commande orpheline à nettoyer", req.OrderID, delErr)
		}
		return nil, &PersistenceError{Op: "insert items", Err: err}
	}

	order.Items = items
	log.Printf("🧾 Commande créée: %s (%d₩, %s)", order.ID, order.Total, order.PaymentMethod)
	return order, nil
}

// GetOrder retourne la commande et ses items
func (s *Service) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	if orderID == "" {
		return nil, validationf("orderId manquant")
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.store.GetItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

type ConfirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

type ConfirmResult struct {
	Payment *payments.Record
	Replay  bool // rejeu idempotent : aucun effet de bord ré-exécuté
}

// ConfirmPayment — la machine à états de confirmation.
// pending → (verrou + lecture) → appel provider → CAS completed →
// déduction stock par item → notifications. Une commande déjà complétée
// renvoie le paiement enregistré sans rappeler le provider ni retoucher
// le stock.
func (s *Service) ConfirmPayment(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error) {
	if req.PaymentKey == "" || req.OrderID == "" || req.Amount <= 0 {
		return nil, validationf("paramètres requis: paymentKey, orderId, amount")
	}

	// Lecture d'abord, toujours : c'est elle qui permet le rejeu idempotent
	order, err := s.store.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus == models.PaymentCompleted {
		log.Printf("🔁 Confirmation rejouée pour %s, paiement déjà complété", order.ID)
		return &ConfirmResult{Payment: s.recordFromOrder(order), Replay: true}, nil
	}

	// Le montant annoncé par le client doit coller au total stocké.
	// On échoue fermé ici : rien n'a encore été capturé, le rejet est sans risque.
	if req.Amount != order.Total {
		return nil, validationf("montant annoncé (%d) différent du total de la commande (%d)", req.Amount, order.Total)
	}

	provider, ok := s.providers[order.PaymentMethod]
	if !ok {
		return nil, validationf("moyen de paiement non supporté: %s", order.PaymentMethod)
	}

	// Verrou consultatif : évite deux appels provider simultanés pour la
	// même commande. Le portail atomique reste le CAS plus bas.
	if s.locker != nil {
		acquired, lockErr := s.locker.Acquire(ctx, order.ID)
		if lockErr != nil {
			log.Printf("⚠️ Verrou Redis indisponible pour %s: %v — on continue sans", order.ID, lockErr)
		} else if !acquired {
			return nil, ErrConfirmInProgress
		} else {
			defer s.locker.Release(ctx, order.ID)
		}
	}

	record, err := provider.Confirm(ctx, req.PaymentKey, order.ID, order.Total)
	if err != nil {
		// Provider a refusé (ou issue inconnue) : aucun état local ne bouge,
		// la commande reste payment_status=pending et le client peut réessayer
		return nil, err
	}

	if record.OrderName == "" {
		record.OrderName = order.OrderName
	}

	now := s.now()
	applied, err := s.store.MarkPaid(ctx, order.ID, record.PaymentKey, now)
	if err != nil {
		// Le paiement a réussi chez le provider : on ne présente jamais ça
		// comme un échec au client. Journal pour réconciliation manuelle.
		log.Printf("⚠️ RÉCONCILIATION %s: paiement %s capturé mais update local échoué: %v",
			order.ID, record.PaymentKey, err)
	} else if !applied {
		// Une confirmation concurrente a gagné le CAS entre la lecture et
		// ici : mêmes effets qu'un rejeu, le stock a déjà été déduit ailleurs
		log.Printf("🔁 CAS perdu pour %s, confirmation concurrente déjà passée", order.ID)
		if fresh, readErr := s.store.GetOrder(ctx, order.ID); readErr == nil {
			return &ConfirmResult{Payment: s.recordFromOrder(fresh), Replay: true}, nil
		}
		return &ConfirmResult{Payment: record, Replay: true}, nil
	}

	// Déduction du stock, item par item, uniquement pour les items à
	// variante. Chaque décrément est indépendant : un échec est journalisé
	// et n'annule ni les autres ni le paiement (survente acceptée, corrigée
	// à la main).
	items, err := s.store.GetItems(ctx, order.ID)
	if err != nil {
		log.Printf("⚠️ RÉCONCILIATION %s: items illisibles pour la déduction de stock: %v", order.ID, err)
	} else {
		for _, item := range items {
			if item.VariantID == nil {
				continue
			}
			if err := s.inventory.Deduct(ctx, *item.VariantID, item.Quantity, order.ID); err != nil {
				log.Printf("⚠️ RÉCONCILIATION %s: déduction stock échouée pour la variante %s: %v",
					order.ID, *item.VariantID, err)
			}
		}
	}

	order.PaymentStatus = models.PaymentCompleted
	order.Status = models.StatusProcessing
	order.PaymentKey = &record.PaymentKey
	order.UpdatedAt = now
	order.Items = items

	// Fire-and-forget : l'échec d'un envoi ne change jamais la réponse
	if s.notifier != nil {
		s.notifier.OrderConfirmed(order, items, record)
	}

	log.Printf("✅ Paiement confirmé pour %s: %s (%d₩)", order.ID, record.PaymentKey, record.Amount)
	return &ConfirmResult{Payment: record}, nil
}

// recordFromOrder reconstruit le payload de paiement depuis la ligne
// commande, pour les rejeux idempotents
func (s *Service) recordFromOrder(order *models.Order) *payments.Record {
	paymentKey := ""
	if order.PaymentKey != nil {
		paymentKey = *order.PaymentKey
	}
	return &payments.Record{
		PaymentKey: paymentKey,
		OrderID:    order.ID,
		OrderName:  order.OrderName,
		Amount:     order.Total,
		Status:     "DONE",
		Method:     MethodLabel(order.PaymentMethod),
		ApprovedAt: order.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// MethodLabel — libellé lisible du moyen de paiement
func MethodLabel(method string) string {
	switch method {
	case models.MethodToss:
		return "Toss"
	case models.MethodPayPal:
		return "PayPal"
	default:
		return method
	}
}

// ListRecent — commandes récentes pour le panel admin
func (s *Service) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListRecent(ctx, limit)
}

// UpdateStatus — transition de fulfillment côté admin. Le statut ne peut
// pas avancer au-delà de pending tant que le paiement n'est pas complété.
func (s *Service) UpdateStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	if !models.ValidStatuses[status] {
		return nil, validationf("statut invalide: %s", status)
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus != models.PaymentCompleted &&
		status != models.StatusPending && status != models.StatusCancelled {
		return nil, validationf("paiement non complété, transition vers %s refusée", status)
	}

	now := s.now()
	if err := s.store.UpdateStatus(ctx, orderID, status, now); err != nil {
		return nil, &PersistenceError{Op: "update statut", Err: err}
	}

	order.Status = status
	order.UpdatedAt = now
	log.Printf("📦 Statut de %s mis à jour: %s", orderID, status)
	return order, nil
}
