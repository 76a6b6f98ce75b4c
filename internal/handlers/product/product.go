package product

import (
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"modoo_back_end/internal/cache"
	"modoo_back_end/internal/database"
	"modoo_back_end/internal/models"
	"modoo_back_end/internal/services"
)

const productColumns = `id, name, description, price, original_price, images, brand_id, category, tags, featured, has_variants, created_at, updated_at`

func scanProducts(iter *gocql.Iter) ([]models.Product, error) {
	var list []models.Product
	var p models.Product
	for iter.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.OriginalPrice, &p.Images,
		&p.BrandID, &p.Category, &p.Tags, &p.Featured, &p.HasVariants, &p.CreatedAt, &p.UpdatedAt) {
		list = append(list, p)
		p = models.Product{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return list, nil
}

// GetProducts — GET /api/products?brand=&category=&featured=
func GetProducts(c *gin.Context) {
	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT ` + productColumns + ` FROM products LIMIT 500`).Iter()
	products, err := scanProducts(iter)
	if err != nil {
		log.Printf("❌ Erreur lecture produits: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération produits"})
		return
	}

	brand := c.Query("brand")
	category := c.Query("category")
	featuredOnly := c.Query("featured") == "true"

	filtered := make([]models.Product, 0, len(products))
	for _, p := range products {
		if brand != "" && p.BrandID != brand {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		if featuredOnly && !p.Featured {
			continue
		}
		filtered = append(filtered, p)
	}

	c.JSON(http.StatusOK, gin.H{"products": filtered, "count": len(filtered)})
}

// GetProductByID — GET /api/products/:id (avec ses variantes)
func GetProductByID(c *gin.Context) {
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

	var p models.Product
	err = session.Query(`SELECT `+productColumns+` FROM products WHERE id = ?`, productID).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.OriginalPrice, &p.Images,
		&p.BrandID, &p.Category, &p.Tags, &p.Featured, &p.HasVariants, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	if p.HasVariants {
		variants, err := fetchVariants(session, productID)
		if err != nil {
			log.Printf("⚠️ Erreur lecture variantes pour %s: %v", productID, err)
		} else {
			p.Variants = variants
		}
	}

	c.JSON(http.StatusOK, gin.H{"product": p})
}

// SearchProducts — GET /api/search?q=
func SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre q requis"})
		return
	}

	results, err := services.SearchProducts(query)
	if err != nil {
		log.Printf("❌ Erreur recherche '%s': %v", query, err)
		c.JSON(http.StatusOK, gin.H{"products": []interface{}{}, "count": 0})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": results, "count": len(results)})
}

// UpsertProduct — POST /api/admin/products
// Crée ou met à jour un produit, puis l'indexe dans Elasticsearch
func UpsertProduct(c *gin.Context) {
	var req struct {
		ID            string   `json:"id"` // vide = création
		Name          string   `json:"name" binding:"required"`
		Description   string   `json:"description"`
		Price         int64    `json:"price" binding:"required"`
		OriginalPrice *int64   `json:"originalPrice"`
		Images        []string `json:"images"`
		BrandID       string   `json:"brandId" binding:"required"`
		Category      string   `json:"category"`
		Tags          []string `json:"tags"`
		Featured      bool     `json:"featured"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}
	if req.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prix invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	now := time.Now()
	p := models.Product{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Images:        req.Images,
		BrandID:       req.BrandID,
		Category:      req.Category,
		Tags:          req.Tags,
		Featured:      req.Featured,
		UpdatedAt:     now,
	}

	created := req.ID == ""
	if created {
		p.ID = gocql.TimeUUID()
		p.CreatedAt = now
	} else {
		uid, err := gocql.ParseUUID(req.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
			return
		}
		p.ID = uid
		var hasVariants bool
		if err := session.Query(`SELECT created_at, has_variants FROM products WHERE id = ?`, uid).
			Scan(&p.CreatedAt, &hasVariants); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
			return
		}
		p.HasVariants = hasVariants
	}

	err = session.Query(`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.OriginalPrice, p.Images,
		p.BrandID, p.Category, p.Tags, p.Featured, p.HasVariants, p.CreatedAt, p.UpdatedAt,
	).Exec()
	if err != nil {
		log.Printf("❌ Erreur upsert produit %s: %v", p.Name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement produit"})
		return
	}

	cache.InvalidateProduct(p.ID.String())
	go services.IndexProduct(p)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"message": "Produit enregistré", "product": p})
}

func fetchVariants(session *gocql.Session, productID gocql.UUID) ([]models.ProductVariant, error) {
	iter := session.Query(`SELECT id, product_id, size, stock, sort_order, created_at, updated_at
		FROM product_variants WHERE product_id = ?`, productID).Iter()

	var variants []models.ProductVariant
	var v models.ProductVariant
	for iter.Scan(&v.ID, &v.ProductID, &v.Size, &v.Stock, &v.SortOrder, &v.CreatedAt, &v.UpdatedAt) {
		variants = append(variants, v)
		v = models.ProductVariant{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	sort.Slice(variants, func(i, j int) bool { return variants[i].SortOrder < variants[j].SortOrder })
	return variants, nil
}
