package models

import "github.com/google/uuid"

// Category is self-referential: top-level categories have a nil ParentID,
// subcategories reference their parent.
type Category struct {
	BaseModel
	Name     string     `json:"name"`
	Slug     string     `gorm:"uniqueIndex" json:"slug"`
	ParentID *uuid.UUID `gorm:"type:uuid;index" json:"parent_id"`
	Parent   *Category  `json:"parent,omitempty"`
}

// Product belongs to a store. Slug is unique per store; the composite index
// backs the retry-on-conflict suffix probing in the merchant handlers.
type Product struct {
	BaseModel
	StoreID       uuid.UUID      `gorm:"type:uuid;index;uniqueIndex:idx_store_slug" json:"store_id"`
	Store         *Store         `json:"store,omitempty"`
	Name          string         `json:"name"`
	Slug          string         `gorm:"uniqueIndex:idx_store_slug" json:"slug"`
	Description   *string        `json:"description,omitempty"`
	Price         int64          `json:"price"`
	Stock         int            `json:"stock"`
	CategoryID    uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	Category      *Category      `json:"category,omitempty"`
	CategoryName  string         `json:"category_name"`
	SubcategoryID *uuid.UUID     `gorm:"type:uuid" json:"subcategory_id"`
	Subcategory   *Category      `gorm:"foreignKey:SubcategoryID" json:"subcategory,omitempty"`
	Images        []ProductImage `json:"images,omitempty"`
}

// ProductImage is an attached image; the earliest by creation time is the
// cover shown in listings.
type ProductImage struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	URL       string    `json:"url"`
	Alt       *string   `json:"alt,omitempty"`
}
