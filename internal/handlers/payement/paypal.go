package pa

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"modoo_back_end/internal/orders"
	"modoo_back_end/internal/payments"
)

// CreatePayPalOrder — POST /api/paypal/create-order
// Crée l'ordre côté PayPal (conversion KRW→USD incluse) avant l'ouverture
// du flux de paiement. L'order id interne sert de clé d'idempotence
// provider : un create rejoué ne crée pas de doublon.
func CreatePayPalOrder(svc *orders.Service, paypal *payments.PayPalClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			OrderID string `json:"orderId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "orderId requis"})
			return
		}

		// Le montant autoritaire est le total stocké, jamais celui du client
		order, err := svc.GetOrder(c.Request.Context(), req.OrderID)
		if err != nil {
			if errors.Is(err, orders.ErrOrderNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commande"})
			return
		}

		ref, err := paypal.Prepare(c.Request.Context(), order.ID, order.Total)
		if err != nil {
			var provErr *payments.ProviderError
			if errors.As(err, &provErr) {
				c.JSON(http.StatusBadGateway, gin.H{"error": provErr.Message, "code": provErr.Code})
				return
			}
			log.Printf("❌ Erreur création ordre PayPal pour %s: %v", order.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Échec création ordre PayPal"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": ref.ID, "status": ref.Status})
	}
}

// CapturePayPalOrder — POST /api/paypal/capture-order
// Capture puis déroule la même machine à états que la confirmation Toss
// (idempotence, CAS, stock, notifications).
func CapturePayPalOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PayPalOrderID string `json:"paypalOrderId"`
			OrderID       string `json:"orderId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.PayPalOrderID == "" || req.OrderID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "paypalOrderId et orderId requis"})
			return
		}

		order, err := svc.GetOrder(c.Request.Context(), req.OrderID)
		if err != nil {
			if errors.Is(err, orders.ErrOrderNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commande"})
			return
		}

		result, err := svc.ConfirmPayment(c.Request.Context(), orders.ConfirmRequest{
			PaymentKey: req.PayPalOrderID,
			OrderID:    order.ID,
			Amount:     order.Total,
		})
		if err != nil {
			respondConfirmError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":             true,
			"paypalTransactionId": result.Payment.PaymentKey,
			"captureStatus":       result.Payment.Status,
			"payment": gin.H{
				"paymentKey": result.Payment.PaymentKey,
				"orderId":    result.Payment.OrderID,
				"orderName":  result.Payment.OrderName,
				"amount":     result.Payment.Amount,
				"method":     result.Payment.Method,
				"approvedAt": result.Payment.ApprovedAt,
			},
		})
	}
}
