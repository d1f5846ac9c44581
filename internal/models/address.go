package models

import "github.com/google/uuid"

// Address is a user's delivery address. At most one address per user has
// IsDefault set; writers clear the others inside the same transaction.
type Address struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	StateID   uuid.UUID `gorm:"type:uuid" json:"state_id"`
	CityID    uuid.UUID `gorm:"type:uuid" json:"city_id"`
	AreaID    uuid.UUID `gorm:"type:uuid;index" json:"area_id"`
	Line1     string    `json:"line1"`
	Line2     *string   `json:"line2,omitempty"`
	Pincode   string    `json:"pincode"`
	IsDefault bool      `json:"is_default"`
}
