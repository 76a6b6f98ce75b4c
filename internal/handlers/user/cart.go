package user

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"modoo_back_end/internal/database"
	"modoo_back_end/internal/models"
)

const cartTTL = 30 * 24 * time.Hour

func cartKey(sessionID string) string { return "cart:" + sessionID }

// sessionID lit X-Session-ID ou en génère un nouveau (renvoyé dans la réponse)
func sessionID(c *gin.Context) (string, bool) {
	if sid := c.GetHeader("X-Session-ID"); sid != "" {
		return sid, false
	}
	return uuid.New().String(), true
}

func loadCart(ctx context.Context, sid string) (*models.Cart, error) {
	cart := &models.Cart{SessionID: sid, Items: []models.CartItem{}}

	data, err := database.Redis.Get(ctx, cartKey(sid)).Bytes()
	if err != nil {
		// Pas de panier = panier vide
		return cart, nil
	}
	if err := json.Unmarshal(data, &cart.Items); err != nil {
		log.Printf("⚠️ Panier corrompu pour session %s, réinitialisation: %v", sid, err)
		database.Redis.Del(ctx, cartKey(sid))
		cart.Items = []models.CartItem{}
	}
	return cart, nil
}

func saveCart(ctx context.Context, cart *models.Cart) error {
	data, err := json.Marshal(cart.Items)
	if err != nil {
		return err
	}
	return database.Redis.Set(ctx, cartKey(cart.SessionID), data, cartTTL).Err()
}

func respondCart(c *gin.Context, cart *models.Cart, newSession bool) {
	resp := gin.H{
		"cart":  cart.Items,
		"total": cart.Total(),
		"count": cart.Count(),
	}
	if newSession {
		resp["sessionId"] = cart.SessionID
	}
	c.JSON(http.StatusOK, resp)
}

// GetCart — GET /api/cart
func GetCart(c *gin.Context) {
	sid, fresh := sessionID(c)
	cart, _ := loadCart(c.Request.Context(), sid)
	respondCart(c, cart, fresh)
}

// AddToCart — POST /api/cart/add
// La quantité est plafonnée au stock courant de la variante
func AddToCart(c *gin.Context) {
	var req struct {
		ProductID string  `json:"productId" binding:"required"`
		VariantID *string `json:"variantId"`
		Size      *string `json:"size"`
		Quantity  int     `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	productID, err := gocql.ParseUUID(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var name string
	var price int64
	var images []string
	if err := session.Query(`SELECT name, price, images FROM products WHERE id = ?`, productID).
		Scan(&name, &price, &images); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	// Stock disponible de la variante demandée
	maxStock := -1 // -1 = produit sans variante, pas de plafond côté panier
	if req.VariantID != nil && *req.VariantID != "" {
		variantID, err := gocql.ParseUUID(*req.VariantID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID variante invalide"})
			return
		}
		if err := session.Query(`SELECT stock FROM product_variants WHERE id = ?`, variantID).
			Scan(&maxStock); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Variante introuvable"})
			return
		}
		if maxStock <= 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Rupture de stock pour cette taille"})
			return
		}
	}

	ctx := c.Request.Context()
	sid, fresh := sessionID(c)
	cart, _ := loadCart(ctx, sid)

	imageURL := ""
	if len(images) > 0 {
		imageURL = images[0]
	}

	found := false
	for i := range cart.Items {
		it := &cart.Items[i]
		if it.ProductID == req.ProductID && equalVariant(it.VariantID, req.VariantID) {
			it.Quantity += req.Quantity
			if maxStock >= 0 && it.Quantity > maxStock {
				it.Quantity = maxStock
			}
			found = true
			break
		}
	}
	if !found {
		qty := req.Quantity
		if maxStock >= 0 && qty > maxStock {
			qty = maxStock
		}
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: req.ProductID,
			VariantID: req.VariantID,
			Name:      name,
			Size:      req.Size,
			Price:     price,
			Quantity:  qty,
			ImageURL:  imageURL,
		})
	}

	if err := saveCart(ctx, cart); err != nil {
		log.Printf("❌ Erreur sauvegarde panier %s: %v", sid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	respondCart(c, cart, fresh)
}

// UpdateCartItem — PUT /api/cart/update
// quantity 0 supprime la ligne
func UpdateCartItem(c *gin.Context) {
	var req struct {
		ProductID string  `json:"productId" binding:"required"`
		VariantID *string `json:"variantId"`
		Quantity  int     `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	ctx := c.Request.Context()
	sid, fresh := sessionID(c)
	cart, _ := loadCart(ctx, sid)

	kept := cart.Items[:0]
	for _, it := range cart.Items {
		if it.ProductID == req.ProductID && equalVariant(it.VariantID, req.VariantID) {
			if req.Quantity == 0 {
				continue
			}
			it.Quantity = req.Quantity
		}
		kept = append(kept, it)
	}
	cart.Items = kept

	if err := saveCart(ctx, cart); err != nil {
		log.Printf("❌ Erreur sauvegarde panier %s: %v", sid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	respondCart(c, cart, fresh)
}

// RemoveFromCart — DELETE /api/cart/remove
func RemoveFromCart(c *gin.Context) {
	var req struct {
		ProductID string  `json:"productId" binding:"required"`
		VariantID *string `json:"variantId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	ctx := c.Request.Context()
	sid, fresh := sessionID(c)
	cart, _ := loadCart(ctx, sid)

	kept := cart.Items[:0]
	for _, it := range cart.Items {
		if it.ProductID == req.ProductID && equalVariant(it.VariantID, req.VariantID) {
			continue
		}
		kept = append(kept, it)
	}
	cart.Items = kept

	if err := saveCart(ctx, cart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	respondCart(c, cart, fresh)
}

// ClearCart — DELETE /api/cart/clear
func ClearCart(c *gin.Context) {
	sid, _ := sessionID(c)
	database.Redis.Del(c.Request.Context(), cartKey(sid))
	c.JSON(http.StatusOK, gin.H{"message": "Panier vidé"})
}

func equalVariant(a, b *string) bool {
	if a == nil || *a == "" {
		return b == nil || *b == ""
	}
	if b == nil {
		return false
	}
	return *a == *b
}
