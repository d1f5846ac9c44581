package models

import "github.com/google/uuid"

// Store is a merchant's shop. One store per merchant in the current flows.
type Store struct {
	BaseModel
	MerchantID   uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"merchant_id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	StoreImage   *string   `json:"store_image,omitempty"`
	AddressLine1 string    `json:"address_line1"`
	AddressLine2 *string   `json:"address_line2,omitempty"`
	AreaID       uuid.UUID `gorm:"type:uuid;index" json:"area_id"`
	Area         *Area     `json:"area,omitempty"`
	// City keeps the display name as a plain string, denormalized at creation.
	City    string   `json:"city"`
	Pincode string   `json:"pincode"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}
