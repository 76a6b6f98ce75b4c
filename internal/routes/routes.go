package routes

import (
	"github.com/gin-gonic/gin"

	"modoo_back_end/internal/handlers/admin"
	"modoo_back_end/internal/handlers/order"
	pa "modoo_back_end/internal/handlers/payement"
	"modoo_back_end/internal/handlers/product"
	"modoo_back_end/internal/handlers/user"
	"modoo_back_end/internal/inventory"
	"modoo_back_end/internal/middleware"
	"modoo_back_end/internal/orders"
	"modoo_back_end/internal/payments"
)

func RegisterRoutes(r *gin.Engine, svc *orders.Service, inv *inventory.Scylla, paypal *payments.PayPalClient) {
	api := r.Group("/api")
	api.Use(middleware.APIRateLimit())

	// Catalogue (public)
	api.GET("/products", product.GetProducts)
	api.GET("/products/:id", product.GetProductByID)
	api.GET("/products/:id/variants", product.GetProductVariants)
	api.GET("/brands", product.GetBrands)
	api.GET("/brands/:slug", product.GetBrandBySlug)
	api.GET("/search", middleware.SearchRateLimit(), product.SearchProducts)

	// Panier (session via X-Session-ID)
	api.GET("/cart", user.GetCart)
	api.POST("/cart/add", middleware.CartRateLimit(), user.AddToCart)
	api.PUT("/cart/update", user.UpdateCartItem)
	api.DELETE("/cart/remove", user.RemoveFromCart)
	api.DELETE("/cart/clear", user.ClearCart)

	// Commandes et paiement
	api.POST("/orders", order.CreateOrder(svc))
	api.GET("/orders/:id", order.GetOrder(svc))
	api.POST("/payment/confirm", middleware.ConfirmRateLimit(), pa.ConfirmPayment(svc))
	api.POST("/paypal/create-order", pa.CreatePayPalOrder(svc, paypal))
	api.POST("/paypal/capture-order", middleware.ConfirmRateLimit(), pa.CapturePayPalOrder(svc))

	// Auth back-office
	api.POST("/auth/login", middleware.LoginRateLimit(), user.Login)
	api.GET("/auth/me", middleware.AuthRequired(), user.Me)

	// Back-office (admin uniquement)
	adm := api.Group("/admin")
	adm.Use(middleware.AuthRequired(), middleware.RequireAdmin())
	{
		adm.GET("/orders", admin.ListOrders(svc))
		adm.PUT("/orders/:id/status", admin.UpdateOrderStatus(svc))
		adm.GET("/orders/ws", admin.OrdersWebSocket)
		adm.POST("/products", product.UpsertProduct)
		adm.POST("/variants/:id/restock", product.RestockVariant(inv))
	}
}
