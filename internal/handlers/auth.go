package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/localmart/internal/config"
	"github.com/example/localmart/internal/models"
	"github.com/example/localmart/internal/services"
	"github.com/example/localmart/internal/utils"
	"github.com/example/localmart/internal/validation"
)

const (
	otpSessionTTL  = 10 * time.Minute
	maxOtpAttempts = 5
)

// AuthHandler bundles dependencies for the registration and sign-in endpoints.
type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
	sms *services.SMSService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, sms *services.SMSService) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, sms: sms}
}

type registerStartRequest struct {
	Phone    string `json:"phone" validate:"required,phone"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"omitempty,oneof=USER MERCHANT"`
}

// RegisterStart captures phone+password and opens an OTP session.
func (h *AuthHandler) RegisterStart(c *fiber.Ctx) error {
	var req registerStartRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "INVALID_BODY")
	}
	if err := validation.Struct(&req); err != nil {
		return err
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}

	var existing models.User
	if err := h.db.Where("phone = ?", req.Phone).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "PHONE_ALREADY_REGISTERED")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	// Hash the password now; it lives in the session until the OTP clears.
	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "SERVER_ERROR")
	}

	otp, err := utils.GenerateOTP()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "SERVER_ERROR")
	}

	token, err := utils.GenerateOpaqueToken()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "SERVER_ERROR")
	}

	session := models.OtpSession{
		Token:        token,
		Phone:        req.Phone,
		PasswordHash: passwordHash,
		Otp:          otp,
		Role:         req.Role,
		ExpiresAt:    time.Now().Add(otpSessionTTL),
		AttemptCount: 0,
		Consumed:     false,
	}

	if err := h.db.Create(&session).Error; err != nil {
		return err
	}

	resp := fiber.Map{
		"ok":         true,
		"otp_token":  token,
		"expires_at": session.ExpiresAt,
	}

	if h.cfg.SimulateOTP {
		// Development convenience: surface the code in the response so the
		// form can display it below the input.
		resp["otp"] = otp
	} else if err := h.sms.SendOTP(req.Phone, otp); err != nil {
		log.Printf("otp delivery failed for %s: %v", req.Phone, err)
	}

	return c.JSON(resp)
}

type registerVerifyRequest struct {
	OtpToken string `json:"otp_token" validate:"required"`
	Otp      string `json:"otp" validate:"required,otp"`
}

// RegisterVerify checks the submitted code and creates the account.
func (h *AuthHandler) RegisterVerify(c *fiber.Ctx) error {
	var req registerVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "INVALID_BODY")
	}
	if err := validation.Struct(&req); err != nil {
		return err
	}

	var session models.OtpSession
	if err := h.db.Where("token = ?", req.OtpToken).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "SESSION_NOT_FOUND")
		}
		return err
	}

	if session.Consumed {
		return fiber.NewError(fiber.StatusBadRequest, "SESSION_CONSUMED")
	}

	if session.ExpiresAt.Before(time.Now()) {
		return fiber.NewError(fiber.StatusBadRequest, "OTP_EXPIRED")
	}

	// Lockout is checked before comparing, so a correct code after five
	// failures is still rejected.
	if session.AttemptCount >= maxOtpAttempts {
		return fiber.NewError(fiber.StatusTooManyRequests, "OTP_TOO_MANY_ATTEMPTS")
	}

	if session.Otp != req.Otp {
		if err := h.db.Model(&session).
			Update("attempt_count", gorm.Expr("attempt_count + 1")).Error; err != nil {
			return err
		}
		return fiber.NewError(fiber.StatusBadRequest, "OTP_INVALID")
	}

	// Create the user atomically; if the phone got registered by a parallel
	// flow in the meantime, reuse that row instead of failing.
	var user models.User
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("phone = ?", session.Phone).First(&user).Error; err == nil {
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		user = models.User{
			Phone:         session.Phone,
			PasswordHash:  session.PasswordHash,
			Role:          session.Role,
			PhoneVerified: true,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return err
	}

	if err := h.db.Model(&session).Update("consumed", true).Error; err != nil {
		return err
	}

	next := "/login"
	if session.Role == models.RoleMerchant {
		next = "/merchant/register/profile"
	}

	return c.JSON(fiber.Map{
		"ok":      true,
		"user_id": user.ID,
		"next":    next,
	})
}

type loginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login is the credential sign-in the client calls after verification,
// exchanging the remembered password for a session token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "INVALID_BODY")
	}
	if err := validation.Struct(&req); err != nil {
		return err
	}

	var user models.User
	if err := h.db.Where("phone = ?", req.Phone).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "INVALID_CREDENTIALS")
		}
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "INVALID_CREDENTIALS")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, user.PhoneVerified, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "SERVER_ERROR")
	}

	return c.JSON(fiber.Map{
		"ok":    true,
		"token": token,
		"user": fiber.Map{
			"id":             user.ID,
			"phone":          user.Phone,
			"name":           user.Name,
			"role":           user.Role,
			"phone_verified": user.PhoneVerified,
		},
	})
}
