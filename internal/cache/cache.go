package cache

import (
	"context"
	"time"

	"github.com/gocql/gocql"

	"modoo_back_end/internal/database"
)

const ProductCacheTTL = 10 * time.Minute

// GetProductNames récupère les noms de plusieurs produits, Redis d'abord,
// ScyllaDB pour les manquants
func GetProductNames(productIDs []string) map[string]string {
	ctx := context.Background()
	result := make(map[string]string)
	missingIDs := []string{}

	// 1. Essayer Redis
	for _, productID := range productIDs {
		key := "product_name:" + productID
		name, err := database.Redis.Get(ctx, key).Result()
		if err == nil {
			result[productID] = name
		} else {
			missingIDs = append(missingIDs, productID)
		}
	}

	// 2. Récupérer les manquants depuis ScyllaDB
	if len(missingIDs) > 0 {
		session, err := database.GetProductsSession()
		if err == nil {
			for _, productID := range missingIDs {
				uid, err := gocql.ParseUUID(productID)
				if err != nil {
					continue
				}
				var name string
				if err := session.Query("SELECT name FROM products WHERE id = ?", uid).Scan(&name); err == nil {
					result[productID] = name
					database.Redis.Set(ctx, "product_name:"+productID, name, ProductCacheTTL)
				}
			}
		}
	}

	return result
}

// InvalidateProduct invalide le cache d'un produit
func InvalidateProduct(productID string) {
	database.Redis.Del(context.Background(), "product_name:"+productID)
}
