package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"modoo_back_end/internal/models"
)

var discordHTTP = &http.Client{Timeout: 10 * time.Second}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbed struct {
	Title     string         `json:"title"`
	Color     int            `json:"color"`
	Fields    []discordField `json:"fields"`
	Timestamp string         `json:"timestamp"`
	Footer    *struct {
		Text string `json:"text"`
	} `json:"footer,omitempty"`
}

// SendDiscordOrderAlert poste l'alerte interne de nouvelle commande sur le
// webhook Discord. Best-effort : toute erreur est journalisée et avalée
// par le caller.
func SendDiscordOrderAlert(order *models.Order, items []models.OrderItem) error {
	webhookURL := os.Getenv("DISCORD_WEBHOOK_URL")
	if webhookURL == "" {
		log.Println("⚠️ DISCORD_WEBHOOK_URL absent — alerte commande ignorée")
		return nil
	}

	var lines []string
	for _, item := range items {
		name := item.ProductName
		if name == "" {
			name = item.ProductID
		}
		size := ""
		if item.Size != nil && *item.Size != "" {
			size = " (" + *item.Size + ")"
		}
		lines = append(lines, fmt.Sprintf("• %s%s x%d - %d₩", name, size, item.Quantity, item.PriceAtTime))
	}
	itemsList := strings.Join(lines, "\n")
	if itemsList == "" {
		itemsList = "Aucun détail d'article"
	}

	address := strings.TrimSpace(strings.Join([]string{
		order.ShippingStreet, order.ShippingCity, order.ShippingState,
		order.ShippingZipCode, order.ShippingCountry,
	}, " "))
	if address == "" {
		address = "Adresse non renseignée"
	}

	embed := discordEmbed{
		Title:     "🎉 Nouvelle commande !",
		Color:     0x4f46e5,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Fields: []discordField{
			{Name: "📦 Commande", Value: order.ID, Inline: true},
			{Name: "💳 Paiement", Value: order.PaymentMethod, Inline: true},
			{Name: "💰 Total", Value: fmt.Sprintf("%d₩", order.Total), Inline: true},
			{Name: "👤 Client", Value: order.CustomerName + "\n" + order.CustomerEmail},
			{Name: "🛍️ Articles", Value: itemsList},
			{Name: "📍 Livraison", Value: address},
		},
	}
	embed.Footer = &struct {
		Text string `json:"text"`
	}{Text: "Modoo Shop"}

	payload, err := json.Marshal(map[string]interface{}{
		"embeds": []discordEmbed{embed},
	})
	if err != nil {
		return err
	}

	resp, err := discordHTTP.Post(webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook Discord a répondu %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
