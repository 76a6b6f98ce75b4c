package inventory

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gocql/gocql"

	"modoo_back_end/internal/database"
	"modoo_back_end/internal/models"
)

var (
	ErrInsufficientStock = errors.New("stock insuffisant")
	ErrVariantNotFound   = errors.New("variante introuvable")
	ErrContention        = errors.New("trop de contention sur la variante")
)

// Nombre d'essais de la boucle CAS avant d'abandonner
const maxCASAttempts = 5

// Scylla — mouvements de stock sur ks_products. Le stock d'une variante
// est l'unique ressource partagée mutable du cœur : il n'est modifié que
// par update conditionnel (LWT), jamais par lecture-puis-écriture simple.
type Scylla struct{}

func NewScylla() *Scylla { return &Scylla{} }

// Deduct décrémente le stock d'une variante, en refusant de passer sous
// zéro. Boucle CAS : lecture du stock courant puis
// UPDATE ... IF stock = ? ; si une confirmation concurrente est passée
// entre les deux, le CAS échoue et on relit.
func (s *Scylla) Deduct(ctx context.Context, variantID string, quantity int, orderID string) error {
	if quantity <= 0 {
		return errors.New("quantité invalide")
	}

	uid, err := gocql.ParseUUID(variantID)
	if err != nil {
		return ErrVariantNotFound
	}

	session, err := database.GetProductsSession()
	if err != nil {
		return err
	}

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		var stock int
		err := session.Query(`SELECT stock FROM product_variants WHERE id = ?`, uid).
			WithContext(ctx).Scan(&stock)
		if errors.Is(err, gocql.ErrNotFound) {
			return ErrVariantNotFound
		}
		if err != nil {
			return err
		}

		if stock < quantity {
			// No-op : le paiement est déjà capturé à ce stade, la survente
			// se règle à la main, pas en annulant la commande
			log.Printf("⚠️ Stock insuffisant pour la variante %s: %d demandés, %d restants", variantID, quantity, stock)
			return ErrInsufficientStock
		}

		newStock := stock - quantity
		var prev int
		applied, err := session.Query(
			`UPDATE product_variants SET stock = ?, updated_at = ? WHERE id = ? IF stock = ?`,
			newStock, time.Now(), uid, stock,
		).WithContext(ctx).ScanCAS(&prev)
		if err != nil {
			return err
		}
		if applied {
			s.recordMovement(ctx, session, uid, "sale", quantity, stock, newStock, &orderID)
			log.Printf("📦 Stock déduit pour la variante %s: %d → %d (commande %s)", variantID, stock, newStock, orderID)
			return nil
		}
		// CAS perdu, une autre commande a touché la variante : on relit
	}

	return ErrContention
}

// Restock ajoute du stock (admin), même mécanique CAS
func (s *Scylla) Restock(ctx context.Context, variantID string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, errors.New("quantité invalide")
	}

	uid, err := gocql.ParseUUID(variantID)
	if err != nil {
		return 0, ErrVariantNotFound
	}

	session, err := database.GetProductsSession()
	if err != nil {
		return 0, err
	}

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		var stock int
		err := session.Query(`SELECT stock FROM product_variants WHERE id = ?`, uid).
			WithContext(ctx).Scan(&stock)
		if errors.Is(err, gocql.ErrNotFound) {
			return 0, ErrVariantNotFound
		}
		if err != nil {
			return 0, err
		}

		newStock := stock + quantity
		var prev int
		applied, err := session.Query(
			`UPDATE product_variants SET stock = ?, updated_at = ? WHERE id = ? IF stock = ?`,
			newStock, time.Now(), uid, stock,
		).WithContext(ctx).ScanCAS(&prev)
		if err != nil {
			return 0, err
		}
		if applied {
			s.recordMovement(ctx, session, uid, "restock", quantity, stock, newStock, nil)
			log.Printf("📦 Restock variante %s: %d → %d", variantID, stock, newStock)
			return newStock, nil
		}
	}

	return 0, ErrContention
}

// recordMovement trace le mouvement, best-effort
func (s *Scylla) recordMovement(ctx context.Context, session *gocql.Session, variantID gocql.UUID,
	movType string, quantity, prevStock, newStock int, orderID *string) {

	movement := models.StockMovement{
		ID:        gocql.TimeUUID(),
		VariantID: variantID,
		Type:      movType,
		Quantity:  quantity,
		PrevStock: prevStock,
		NewStock:  newStock,
		OrderID:   orderID,
		CreatedAt: time.Now(),
	}

	err := session.Query(`INSERT INTO stock_movements (id, variant_id, type, quantity, prev_stock, new_stock, order_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		movement.ID, movement.VariantID, movement.Type, movement.Quantity,
		movement.PrevStock, movement.NewStock, movement.OrderID, movement.CreatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		log.Printf("⚠️ Erreur enregistrement mouvement stock: %v", err)
	}
}
