// internal/models/common.go
package models

import (
	"time"
)

// Base model with common fields
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Variant option names. The order here is fixed: variant SKUs append
// option values in this order no matter how the request arranges them.
type OptionName string

const (
	OptionColor OptionName = "color"
	OptionSize  OptionName = "size"
)

// VariantOptionNames is the recognized option key set. New options are
// added here and flow through SKU composition and persistence without
// further changes.
var VariantOptionNames = []OptionName{OptionColor, OptionSize}
