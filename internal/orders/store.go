package orders

import (
	"context"
	"errors"
	"time"

	"github.com/gocql/gocql"

	"modoo_back_end/internal/database"
	"modoo_back_end/internal/models"
)

// Store — accès au store de commandes. Le store ne propose pas de
// transaction multi-tables : la création compense à la main (delete de la
// commande si l'insertion des items échoue), et le passage en "payé" est
// un update conditionnel (CAS) qui sert de portail atomique.
type Store interface {
	InsertOrder(ctx context.Context, o *models.Order) error
	InsertItems(ctx context.Context, orderID string, items []models.OrderItem) error
	DeleteOrder(ctx context.Context, orderID string) error
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	GetItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
	// MarkPaid applique payment_status=completed + status=processing
	// seulement si payment_status vaut encore 'pending'. Retourne false
	// si une autre confirmation est passée avant.
	MarkPaid(ctx context.Context, orderID, paymentKey string, at time.Time) (bool, error)
	UpdateStatus(ctx context.Context, orderID, status string, at time.Time) error
	ListRecent(ctx context.Context, limit int) ([]models.Order, error)
}

// ScyllaStore implémente Store sur le keyspace ks_orders
type ScyllaStore struct{}

func NewScyllaStore() *ScyllaStore { return &ScyllaStore{} }

func (s *ScyllaStore) InsertOrder(ctx context.Context, o *models.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	query := `INSERT INTO orders (
		id, user_id, order_name, total, payment_method, payment_status, status,
		payment_key, customer_name, customer_email, customer_phone,
		shipping_street, shipping_city, shipping_state, shipping_zip_code, shipping_country,
		created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return session.Query(query,
		o.ID, o.UserID, o.OrderName, o.Total, o.PaymentMethod, o.PaymentStatus, o.Status,
		o.PaymentKey, o.CustomerName, o.CustomerEmail, o.CustomerPhone,
		o.ShippingStreet, o.ShippingCity, o.ShippingState, o.ShippingZipCode, o.ShippingCountry,
		o.CreatedAt, o.UpdatedAt,
	).WithContext(ctx).Exec()
}

func (s *ScyllaStore) InsertItems(ctx context.Context, orderID string, items []models.OrderItem) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	query := `INSERT INTO order_items (order_id, item_id, product_id, variant_id, quantity, price_at_time, size)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	for i, item := range items {
		if err := session.Query(query,
			orderID, i, item.ProductID, item.VariantID, item.Quantity, item.PriceAtTime, item.Size,
		).WithContext(ctx).Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (s *ScyllaStore) DeleteOrder(ctx context.Context, orderID string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	// Les items d'abord, la ligne commande ensuite
	if err := session.Query(`DELETE FROM order_items WHERE order_id = ?`, orderID).WithContext(ctx).Exec(); err != nil {
		return err
	}
	return session.Query(`DELETE FROM orders WHERE id = ?`, orderID).WithContext(ctx).Exec()
}

func (s *ScyllaStore) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	var o models.Order
	query := `SELECT id, user_id, order_name, total, payment_method, payment_status, status,
		payment_key, customer_name, customer_email, customer_phone,
		shipping_street, shipping_city, shipping_state, shipping_zip_code, shipping_country,
		created_at, updated_at
		FROM orders WHERE id = ?`

	err = session.Query(query, orderID).WithContext(ctx).Scan(
		&o.ID, &o.UserID, &o.OrderName, &o.Total, &o.PaymentMethod, &o.PaymentStatus, &o.Status,
		&o.PaymentKey, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.ShippingStreet, &o.ShippingCity, &o.ShippingState, &o.ShippingZipCode, &o.ShippingCountry,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *ScyllaStore) GetItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT order_id, product_id, variant_id, quantity, price_at_time, size
		FROM order_items WHERE order_id = ?`, orderID).WithContext(ctx).Iter()

	var items []models.OrderItem
	var item models.OrderItem
	for iter.Scan(&item.OrderID, &item.ProductID, &item.VariantID, &item.Quantity, &item.PriceAtTime, &item.Size) {
		items = append(items, item)
		item = models.OrderItem{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *ScyllaStore) MarkPaid(ctx context.Context, orderID, paymentKey string, at time.Time) (bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, err
	}

	query := `UPDATE orders SET payment_status = ?, status = ?, payment_key = ?, updated_at = ?
		WHERE id = ? IF payment_status = ?`

	var prev string
	applied, err := session.Query(query,
		models.PaymentCompleted, models.StatusProcessing, paymentKey, at,
		orderID, models.PaymentPending,
	).WithContext(ctx).ScanCAS(&prev)
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (s *ScyllaStore) UpdateStatus(ctx context.Context, orderID, status string, at time.Time) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		status, at, orderID).WithContext(ctx).Exec()
}

func (s *ScyllaStore) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT id, user_id, order_name, total, payment_method, payment_status, status,
		payment_key, customer_name, customer_email, customer_phone,
		shipping_street, shipping_city, shipping_state, shipping_zip_code, shipping_country,
		created_at, updated_at
		FROM orders LIMIT ?`, limit).WithContext(ctx).Iter()

	var list []models.Order
	var o models.Order
	for iter.Scan(
		&o.ID, &o.UserID, &o.OrderName, &o.Total, &o.PaymentMethod, &o.PaymentStatus, &o.Status,
		&o.PaymentKey, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.ShippingStreet, &o.ShippingCity, &o.ShippingState, &o.ShippingZipCode, &o.ShippingCountry,
		&o.CreatedAt, &o.UpdatedAt,
	) {
		list = append(list, o)
		o = models.Order{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return list, nil
}
