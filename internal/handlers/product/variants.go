package product

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"modoo_back_end/internal/database"
	"modoo_back_end/internal/inventory"
)

// GetProductVariants — GET /api/products/:id/variants
func GetProductVariants(c *gin.Context) {
	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	variants, err := fetchVariants(session, productID)
	if err != nil {
		log.Printf("❌ Erreur lecture variantes %s: %v", productID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération variantes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"variants": variants, "count": len(variants)})
}

// RestockVariant — POST /api/admin/variants/:id/restock
// Réapprovisionnement avec la même mécanique CAS que la déduction :
// pas d'écrasement aveugle du stock sous trafic concurrent.
func RestockVariant(inv *inventory.Scylla) gin.HandlerFunc {
	return func(c *gin.Context) {
		variantID := c.Param("id")

		var req struct {
			Quantity int `json:"quantity"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Quantity <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity doit être > 0"})
			return
		}

		newStock, err := inv.Restock(c.Request.Context(), variantID, req.Quantity)
		if err != nil {
			if errors.Is(err, inventory.ErrVariantNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Variante introuvable"})
				return
			}
			if errors.Is(err, inventory.ErrContention) {
				c.JSON(http.StatusConflict, gin.H{"error": "Stock en cours de modification, réessayez"})
				return
			}
			log.Printf("❌ Erreur restock variante %s: %v", variantID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour stock"})
			return
		}

		log.Printf("📦 Restock variante %s: +%d (nouveau stock: %d)", variantID, req.Quantity, newStock)
		c.JSON(http.StatusOK, gin.H{"message": "Stock mis à jour", "stock": newStock})
	}
}
