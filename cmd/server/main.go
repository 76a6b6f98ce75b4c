package main

import (
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"modoo_back_end/internal/config"
	"modoo_back_end/internal/database"
	"modoo_back_end/internal/inventory"
	"modoo_back_end/internal/notify"
	"modoo_back_end/internal/orders"
	"modoo_back_end/internal/payments"
	"modoo_back_end/internal/routes"
)

func main() {
	config.Load()

	if os.Getenv("TOSS_SECRET_KEY") == "" {
		log.Fatal("❌ TOSS_SECRET_KEY manquant dans .env")
	}
	if os.Getenv("PAYPAL_CLIENT_ID") == "" || os.Getenv("PAYPAL_CLIENT_SECRET") == "" {
		log.Println("⚠️ Identifiants PayPal manquants, paiement PayPal indisponible")
	}

	database.ConnectDatabases()

	toss := payments.NewTossClient()
	paypal := payments.NewPayPalClient()
	inv := inventory.NewScylla()

	svc := orders.NewService(
		orders.NewScyllaStore(),
		inv,
		map[string]payments.Provider{
			"toss":   toss,
			"paypal": paypal,
		},
		orders.NewRedisLocker(),
		notify.NewDispatcher(),
	)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Session-ID"},
		AllowCredentials: true,
	}))

	routes.RegisterRoutes(r, svc, inv, paypal)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur Modoo lancé sur le port", port)
	r.Run(":" + port)
}

func corsOrigins() []string {
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		return []string{origins}
	}
	return []string{"http://localhost:3000"}
}
