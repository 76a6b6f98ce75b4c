package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"modoo_back_end/internal/database"
	"modoo_back_end/internal/models"
	"modoo_back_end/internal/notify"
	"modoo_back_end/internal/orders"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Autoriser toutes les origines (à ajuster en production)
		return true
	},
}

// ListOrders — GET /api/admin/orders?limit=
func ListOrders(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

		list, err := svc.ListRecent(c.Request.Context(), limit)
		if err != nil {
			log.Printf("❌ Erreur liste commandes: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commandes"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"orders": list, "count": len(list)})
	}
}

// UpdateOrderStatus — PUT /api/admin/orders/:id/status
// Le client est notifié par email du changement (fire-and-forget)
func UpdateOrderStatus(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("id")

		var req struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status requis"})
			return
		}

		order, err := svc.UpdateStatus(c.Request.Context(), orderID, req.Status)
		if err != nil {
			var vErr *orders.ValidationError
			if errors.As(err, &vErr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message})
				return
			}
			if errors.Is(err, orders.ErrOrderNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
				return
			}
			log.Printf("❌ Erreur changement statut %s: %v", orderID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour statut"})
			return
		}

		go func(o models.Order, status string) {
			if err := notify.SendOrderStatusEmail(&o, status); err != nil {
				log.Printf("⚠️ Email statut non envoyé pour %s: %v", o.ID, err)
			}
		}(*order, req.Status)

		c.JSON(http.StatusOK, gin.H{"message": "Statut mis à jour", "order": order})
	}
}

// OrdersWebSocket — GET /api/admin/orders/ws
// Flux temps réel des confirmations de paiement pour le back-office.
// Relaye le canal Redis orders:events vers la connexion WebSocket.
func OrdersWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	ctx := context.Background()

	pubsub := database.Redis.Subscribe(ctx, notify.OrdersChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	conn.WriteJSON(map[string]interface{}{
		"type":    "connected",
		"message": "Flux commandes activé",
	})

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event map[string]interface{}
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("⚠️ Événement commande illisible: %v", err)
				continue
			}

			if err := conn.WriteJSON(event); err != nil {
				log.Printf("❌ Erreur envoi WebSocket: %v", err)
				return
			}
		case <-time.After(30 * time.Second):
			// Ping pour garder la connexion active
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
