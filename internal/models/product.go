package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Product struct {
	ID            gocql.UUID       `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         int64            `json:"price"` // en wons
	OriginalPrice *int64           `json:"original_price,omitempty"`
	Images        []string         `json:"images"`
	BrandID       string           `json:"brand_id"`
	Category      string           `json:"category"`
	Tags          []string         `json:"tags"`
	Featured      bool             `json:"featured"`
	HasVariants   bool             `json:"has_variants"`
	Variants      []ProductVariant `json:"variants,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ProductVariant — unité de stock d'un produit (taille/option)
type ProductVariant struct {
	ID        gocql.UUID `json:"id"`
	ProductID gocql.UUID `json:"product_id"`
	Size      string     `json:"size"`
	Stock     int        `json:"stock"` // jamais négatif, décrément conditionnel uniquement
	SortOrder int        `json:"sort_order"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Brand struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	EngName     string `json:"eng_name,omitempty"`
	Slug        string `json:"slug"`
	Logo        string `json:"logo"`
	Banner      string `json:"banner"`
	Description string `json:"description"`
	Featured    bool   `json:"featured"`
}

type StockMovement struct {
	ID        gocql.UUID `json:"id"`
	VariantID gocql.UUID `json:"variant_id"`
	Type      string     `json:"type"` // "sale", "restock"
	Quantity  int        `json:"quantity"`
	PrevStock int        `json:"prev_stock"`
	NewStock  int        `json:"new_stock"`
	OrderID   *string    `json:"order_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
