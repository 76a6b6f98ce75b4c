package notify

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/skip2/go-qrcode"
	"github.com/wneessen/go-mail"

	"modoo_back_end/internal/models"
)

// SendEmail envoie un email HTML via SMTP
func SendEmail(to, subject, htmlBody string) error {
	from := os.Getenv("MAIL_FROM")
	if from == "" {
		from = "noreply@modoo.shop"
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	port := 587
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			port = parsed
		}
	}

	client, err := mail.NewClient(os.Getenv("SMTP_HOST"),
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// orderTrackingQR génère un QR vers la page de suivi, en base64 prêt
// pour un <img src="...">
func orderTrackingQR(orderID string) string {
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	png, err := qrcode.Encode(baseURL+"/orders?orderId="+orderID, qrcode.Medium, 192)
	if err != nil {
		log.Printf("⚠️ Erreur génération QR pour %s: %v", orderID, err)
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

// GenerateOrderConfirmationHTML génère le HTML de confirmation de commande
func GenerateOrderConfirmationHTML(order *models.Order, items []models.OrderItem, receiptURL string) string {
	itemsHTML := ""
	var subtotal int64
	for _, item := range items {
		size := ""
		if item.Size != nil && *item.Size != "" {
			size = " (" + *item.Size + ")"
		}
		name := item.ProductName
		if name == "" {
			name = item.ProductID
		}
		lineTotal := item.PriceAtTime * int64(item.Quantity)
		subtotal += lineTotal
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td style="padding: 10px; border: 1px solid #ddd;">%s%s</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%d</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%d₩</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%d₩</td>
			</tr>`, name, size, item.Quantity, item.PriceAtTime, lineTotal)
	}

	shipping := order.Total - subtotal
	if shipping < 0 {
		shipping = 0
	}

	receiptHTML := ""
	if receiptURL != "" {
		receiptHTML = fmt.Sprintf(`<p style="margin: 20px 0;"><a href="%s" style="color: #4f46e5;">Voir le reçu de paiement</a></p>`, receiptURL)
	}

	qrHTML := ""
	if qr := orderTrackingQR(order.ID); qr != "" {
		qrHTML = fmt.Sprintf(`
		<div style="text-align: center; margin: 20px 0;">
			<img src="%s" alt="QR suivi commande" width="160" height="160" />
			<p style="color: #666; font-size: 12px;">Scannez pour suivre votre commande</p>
		</div>`, qr)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Confirmation de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Modoo Shop — Confirmation de votre commande</h2>
		<p>Bonjour %s,</p>
		<p>Votre paiement a été confirmé avec succès. Merci pour votre commande !</p>

		<div style="background-color: #f8f9fa; border-radius: 8px; padding: 15px; margin: 20px 0;">
			<p style="margin: 0; color: #666;">Numéro de commande</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold;">%s</p>
		</div>

		<h3>Détails de la commande</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Produit</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Quantité</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Prix unitaire</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Total</th>
				</tr>
			</thead>
			<tbody>%s</tbody>
		</table>

		<table style="width: 100%%; margin: 10px 0;">
			<tr><td style="color: #666;">Sous-total</td><td style="text-align: right;">%d₩</td></tr>
			<tr><td style="color: #666;">Livraison</td><td style="text-align: right;">%d₩</td></tr>
			<tr><td style="font-weight: bold;">Total payé (%s)</td><td style="text-align: right; font-weight: bold;">%d₩</td></tr>
		</table>
		%s
		%s
		<p style="color: #999; font-size: 12px; margin-top: 30px;">
			Cet email a été envoyé automatiquement, merci de ne pas y répondre.
		</p>
	</div>
</body>
</html>`,
		order.CustomerName, order.ID, itemsHTML, subtotal, shipping,
		order.PaymentMethod, order.Total, receiptHTML, qrHTML)
}

// SendOrderStatusEmail — email de changement de statut de commande
func SendOrderStatusEmail(order *models.Order, newStatus string) error {
	subject := statusEmailSubject(newStatus)
	html := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Modoo Shop</h2>
		<p>Bonjour %s,</p>
		<p>%s</p>
		<div style="background-color: #f8f9fa; border-radius: 8px; padding: 15px; margin: 20px 0;">
			<p style="margin: 0; color: #666;">Commande</p>
			<p style="margin: 5px 0 0 0; font-weight: bold;">%s — %d₩</p>
		</div>
	</div>
</body>
</html>`, order.CustomerName, statusMessage(newStatus), order.ID, order.Total)

	err := SendEmail(order.CustomerEmail, subject, html)
	if err != nil {
		log.Printf("❌ Erreur envoi email statut: %v", err)
		return err
	}

	log.Printf("📧 Email de statut envoyé: %s → %s", newStatus, order.CustomerEmail)
	return nil
}

func statusEmailSubject(status string) string {
	switch status {
	case models.StatusProcessing:
		return "✅ Paiement confirmé - Modoo Shop"
	case models.StatusShipped:
		return "📦 Votre commande a été expédiée - Modoo Shop"
	case models.StatusDelivered:
		return "🎉 Votre commande a été livrée - Modoo Shop"
	case models.StatusCancelled:
		return "❌ Commande annulée - Modoo Shop"
	default:
		return "📋 Mise à jour de votre commande - Modoo Shop"
	}
}

func statusMessage(status string) string {
	switch status {
	case models.StatusProcessing:
		return "Votre paiement a été confirmé. Nous préparons votre commande."
	case models.StatusShipped:
		return "Bonne nouvelle ! Votre commande a été expédiée et est en route vers vous."
	case models.StatusDelivered:
		return "Votre commande a été livrée. Nous espérons qu'elle vous plaît !"
	case models.StatusCancelled:
		return "Votre commande a été annulée. Contactez-nous pour toute question."
	default:
		return "Le statut de votre commande a été mis à jour."
	}
}
