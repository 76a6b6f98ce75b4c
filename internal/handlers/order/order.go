package order

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"modoo_back_end/internal/cache"
	"modoo_back_end/internal/orders"
)

// CreateOrder — POST /api/orders
// Crée la commande en pending avant la remise au provider de paiement
func CreateOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req orders.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
			return
		}

		order, err := svc.CreateOrder(c.Request.Context(), req)
		if err != nil {
			var vErr *orders.ValidationError
			if errors.As(err, &vErr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message})
				return
			}
			var pErr *orders.PersistenceError
			if errors.As(err, &pErr) {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Échec création commande", "details": pErr.Error()})
				return
			}
			log.Printf("❌ Erreur création commande: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"order": gin.H{
				"id":            order.ID,
				"total":         order.Total,
				"status":        order.Status,
				"paymentStatus": order.PaymentStatus,
			},
		})
	}
}

// GetOrder — GET /api/orders/:id
// Commande + items, enrichis avec les noms produits (cache Redis)
func GetOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("id")

		order, err := svc.GetOrder(c.Request.Context(), orderID)
		if err != nil {
			if errors.Is(err, orders.ErrOrderNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
				return
			}
			log.Printf("❌ Erreur lecture commande %s: %v", orderID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commande"})
			return
		}

		// Enrichir les items avec les noms produits
		productIDs := make([]string, 0, len(order.Items))
		for _, item := range order.Items {
			productIDs = append(productIDs, item.ProductID)
		}
		names := cache.GetProductNames(productIDs)
		for i := range order.Items {
			order.Items[i].ProductName = names[order.Items[i].ProductID]
		}

		c.JSON(http.StatusOK, gin.H{"order": order})
	}
}
