package pa

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"modoo_back_end/internal/orders"
	"modoo_back_end/internal/payments"
)

// ConfirmPayment — POST /api/payment/confirm
// Le retour du widget Toss (paymentKey, orderId, amount) est échangé
// côté serveur contre un paiement capturé. Rejouable sans risque : une
// commande déjà complétée renvoie le même payload sans effets de bord.
func ConfirmPayment(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req orders.ConfirmRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
			return
		}

		result, err := svc.ConfirmPayment(c.Request.Context(), req)
		if err != nil {
			respondConfirmError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"payment": gin.H{
				"paymentKey": result.Payment.PaymentKey,
				"orderId":    result.Payment.OrderID,
				"orderName":  result.Payment.OrderName,
				"amount":     result.Payment.Amount,
				"status":     result.Payment.Status,
				"method":     result.Payment.Method,
				"approvedAt": result.Payment.ApprovedAt,
				"receipt":    result.Payment.ReceiptURL,
			},
		})
	}
}

// respondConfirmError mappe la taxonomie d'erreurs du service sur HTTP.
// Les erreurs provider repartent avec leur code et message verbatim.
func respondConfirmError(c *gin.Context, err error) {
	var vErr *orders.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message})
		return
	}

	if errors.Is(err, orders.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	if errors.Is(err, orders.ErrConfirmInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "Confirmation déjà en cours, réessayez dans un instant"})
		return
	}

	var provErr *payments.ProviderError
	if errors.As(err, &provErr) {
		status := provErr.HTTPStatus
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": provErr.Message, "code": provErr.Code})
		return
	}

	log.Printf("❌ Erreur confirmation paiement: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur pendant la confirmation du paiement"})
}
