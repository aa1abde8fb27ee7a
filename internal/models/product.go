// internal/models/product.go
package models

import (
	"time"

	"github.com/lib/pq"
)

// Product's SKU embeds its generated id, so creation writes the row
// first and the SKU in a second statement; default:null keeps the
// transient unset state out of the unique index.
type Product struct {
	BaseModel
	Title           string  `json:"title" gorm:"size:200;not null"`
	Slug            string  `json:"slug" gorm:"uniqueIndex;size:255;not null"`
	SKU             string  `json:"sku" gorm:"column:sku;uniqueIndex;size:64;default:null"`
	Description     string  `json:"description" gorm:"type:text"`
	BasePrice       float64 `json:"base_price" gorm:"type:decimal(10,2);not null"`
	DiscountPercent float64 `json:"discount_percent" gorm:"type:decimal(5,2);default:0"`
	CategoryID      uint    `json:"category_id" gorm:"not null;index"`
	SoldCount       int64   `json:"sold_count" gorm:"default:0"`
	ViewCount       int64   `json:"view_count" gorm:"default:0"`

	// Relationships
	Category Category         `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Variants []ProductVariant `json:"variants,omitempty" gorm:"foreignKey:ProductID"`
	Images   []ProductImage   `json:"images,omitempty" gorm:"foreignKey:ProductID"`
}

// ProductVariant SKUs share the product SKU as a prefix. A variant
// with no options reuses the product SKU unchanged, so the column is
// deliberately not unique.
type ProductVariant struct {
	BaseModel
	ProductID     uint    `json:"product_id" gorm:"not null;index"`
	PriceModifier float64 `json:"price_modifier" gorm:"type:decimal(10,2);default:0"`
	SKU           string  `json:"sku" gorm:"column:sku;size:80;not null"`

	// Relationships
	Options   []VariantOption `json:"options,omitempty" gorm:"foreignKey:ProductVariantID"`
	Inventory *Inventory      `json:"inventory,omitempty" gorm:"foreignKey:ProductVariantID"`
}

type VariantOption struct {
	ID               uint   `json:"id" gorm:"primaryKey"`
	ProductVariantID uint   `json:"product_variant_id" gorm:"not null;uniqueIndex:idx_variant_option_name"`
	OptionName       string `json:"option_name" gorm:"size:50;not null;uniqueIndex:idx_variant_option_name"`
	OptionValue      string `json:"option_value" gorm:"size:100;not null"`
}

// Inventory is one-to-one with a variant and mutable independently of
// the variant's other data.
type Inventory struct {
	ID               uint `json:"id" gorm:"primaryKey"`
	ProductVariantID uint `json:"product_variant_id" gorm:"not null;uniqueIndex"`
	Quantity         int  `json:"quantity" gorm:"not null;default:0;check:quantity >= 0"`
}

func (Inventory) TableName() string {
	return "inventory"
}

// ProductImage references an object in external blob storage.
// StorageKey is the opaque identifier the store needs for deletion.
// At most one image per product carries IsMain.
type ProductImage struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	ProductID  uint   `json:"product_id" gorm:"not null;index"`
	ImageURL   string `json:"image_url" gorm:"size:512;not null"`
	StorageKey string `json:"storage_key" gorm:"size:255;not null"`
	IsMain     bool   `json:"is_main" gorm:"default:false"`
}

// CleanupLog records external assets whose best-effort deletion failed
// after the database state was already settled. There is no automatic
// reconciliation job; these rows make orphaned blobs queryable for
// manual cleanup.
type CleanupLog struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Operation string         `json:"operation" gorm:"size:50;not null;index"`
	ProductID *uint          `json:"product_id" gorm:"index"`
	AssetKeys pq.StringArray `json:"asset_keys" gorm:"type:text[]"`
	Reason    string         `json:"reason" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
}
