package product

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"modoo_back_end/internal/database"
	"modoo_back_end/internal/models"
)

func scanBrands(iter *gocql.Iter) ([]models.Brand, error) {
	var brands []models.Brand
	var b models.Brand
	for iter.Scan(&b.ID, &b.Name, &b.EngName, &b.Slug, &b.Logo, &b.Banner, &b.Description, &b.Featured) {
		brands = append(brands, b)
		b = models.Brand{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return brands, nil
}

// GetBrands — GET /api/brands
func GetBrands(c *gin.Context) {
	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT id, name, eng_name, slug, logo, banner, description, featured FROM brands`).Iter()
	brands, err := scanBrands(iter)
	if err != nil {
		log.Printf("❌ Erreur lecture marques: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération marques"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"brands": brands, "count": len(brands)})
}

// GetBrandBySlug — GET /api/brands/:slug (marque + ses produits)
func GetBrandBySlug(c *gin.Context) {
	slug := c.Param("slug")

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// Le catalogue de marques est petit : scan complet puis filtre,
	// pas besoin d'index secondaire sur slug
	iter := session.Query(`SELECT id, name, eng_name, slug, logo, banner, description, featured FROM brands`).Iter()
	brands, err := scanBrands(iter)
	if err != nil {
		log.Printf("❌ Erreur lecture marques: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération marque"})
		return
	}

	var brand *models.Brand
	for i := range brands {
		if brands[i].Slug == slug {
			brand = &brands[i]
			break
		}
	}
	if brand == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Marque introuvable"})
		return
	}

	prodIter := session.Query(`SELECT `+productColumns+` FROM products WHERE brand_id = ? ALLOW FILTERING`, brand.ID).Iter()
	products, err := scanProducts(prodIter)
	if err != nil {
		log.Printf("⚠️ Erreur lecture produits de la marque %s: %v", brand.ID, err)
		products = []models.Product{}
	}

	c.JSON(http.StatusOK, gin.H{"brand": brand, "products": products, "count": len(products)})
}
