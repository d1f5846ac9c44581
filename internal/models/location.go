package models

import "github.com/google/uuid"

// State is the top level of the delivery-location hierarchy.
type State struct {
	BaseModel
	Name string `gorm:"uniqueIndex" json:"name"`
	Code string `json:"code"`
}

// City belongs to a state.
type City struct {
	BaseModel
	Name    string    `gorm:"uniqueIndex:idx_city_state" json:"name"`
	StateID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_city_state" json:"state_id"`
	State   *State    `json:"state,omitempty"`
}

// Area belongs to a city and optionally carries a default pincode used to
// pre-fill store and address forms.
type Area struct {
	BaseModel
	Name    string    `gorm:"uniqueIndex:idx_area_city" json:"name"`
	CityID  uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_area_city" json:"city_id"`
	City    *City     `json:"city,omitempty"`
	Pincode string    `json:"pincode"`
}
