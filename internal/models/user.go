package models

import (
	"time"
)

// Account roles. Merchants use the dashboard app, users the shop.
const (
	RoleUser     = "USER"
	RoleMerchant = "MERCHANT"
)

// User represents an account created after OTP verification.
type User struct {
	BaseModel
	Phone         string    `gorm:"uniqueIndex" json:"phone"`
	Email         *string   `json:"email,omitempty"`
	Name          string    `json:"name"`
	PasswordHash  string    `json:"-"`
	Role          string    `gorm:"default:USER" json:"role"`
	PhoneVerified bool      `json:"phone_verified"`
	Addresses     []Address `json:"addresses,omitempty"`
}

// OtpSession is a single-use record binding a phone, a pre-hashed password
// and a one-time code, pending verification before the account is created.
type OtpSession struct {
	BaseModel
	Token        string    `gorm:"uniqueIndex" json:"-"`
	Phone        string    `gorm:"index" json:"phone"`
	PasswordHash string    `json:"-"`
	Otp          string    `json:"-"`
	Role         string    `gorm:"default:USER" json:"role"`
	ExpiresAt    time.Time `json:"expires_at"`
	AttemptCount int       `json:"attempt_count"`
	Consumed     bool      `json:"consumed"`
}
