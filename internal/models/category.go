// internal/models/category.go
package models

// Category is a tree: ParentID is nil for root ("main") categories.
// Products are assigned to leaf categories.
type Category struct {
	BaseModel
	Name     string `json:"name" gorm:"size:100;not null"`
	Slug     string `json:"slug" gorm:"uniqueIndex;size:120;not null"`
	ParentID *uint  `json:"parent_id" gorm:"index"`

	// Relationships
	Parent   *Category  `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Children []Category `json:"children,omitempty" gorm:"foreignKey:ParentID"`
}
