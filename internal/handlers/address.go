package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/localmart/internal/middleware"
	"github.com/example/localmart/internal/models"
	"github.com/example/localmart/internal/utils"
	"github.com/example/localmart/internal/validation"
)

// AddressHandler manages a user's delivery addresses.
type AddressHandler struct {
	db *gorm.DB
}

// NewAddressHandler constructs AddressHandler.
func NewAddressHandler(db *gorm.DB) *AddressHandler {
	return &AddressHandler{db: db}
}

// ListAddresses returns the caller's addresses, default first, then newest.
func (h *AddressHandler) ListAddresses(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "UNAUTHENTICATED")
	}

	var addresses []models.Address
	if err := h.db.Where("user_id = ?", session.UserID).
		Order("is_default desc").
		Order("created_at desc").
		Find(&addresses).Error; err != nil {
		return err
	}

	return utils.OK(c, addresses)
}

type createAddressRequest struct {
	StateID   string  `json:"state_id" validate:"required,uuid"`
	CityID    string  `json:"city_id" validate:"required,uuid"`
	AreaID    string  `json:"area_id" validate:"required,uuid"`
	Line1     string  `json:"line1" validate:"required,min=3,max=200"`
	Line2     *string `json:"line2" validate:"omitempty,max=200"`
	Pincode   string  `json:"pincode" validate:"required,pincode"`
	IsDefault bool    `json:"is_default"`
}

// CreateAddress inserts an address. The user's first address becomes the
// default regardless of the submitted flag; a new default clears the old one
// inside the same transaction.
func (h *AddressHandler) CreateAddress(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "UNAUTHENTICATED")
	}

	var req createAddressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "INVALID_BODY")
	}
	if err := validation.Struct(&req); err != nil {
		return err
	}

	var count int64
	if err := h.db.Model(&models.Address{}).
		Where("user_id = ?", session.UserID).
		Count(&count).Error; err != nil {
		return err
	}

	isDefault := req.IsDefault
	if count == 0 {
		isDefault = true
	}

	address := models.Address{
		UserID:    session.UserID,
		StateID:   uuid.MustParse(req.StateID),
		CityID:    uuid.MustParse(req.CityID),
		AreaID:    uuid.MustParse(req.AreaID),
		Line1:     req.Line1,
		Line2:     req.Line2,
		Pincode:   req.Pincode,
		IsDefault: isDefault,
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if isDefault {
			if err := tx.Model(&models.Address{}).
				Where("user_id = ? AND is_default = ?", session.UserID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&address).Error
	}); err != nil {
		return err
	}

	return utils.Created(c, address)
}

type updateAddressRequest struct {
	StateID   *string `json:"state_id" validate:"omitempty,uuid"`
	CityID    *string `json:"city_id" validate:"omitempty,uuid"`
	AreaID    *string `json:"area_id" validate:"omitempty,uuid"`
	Line1     *string `json:"line1" validate:"omitempty,min=3,max=200"`
	Line2     *string `json:"line2" validate:"omitempty,max=200"`
	Pincode   *string `json:"pincode" validate:"omitempty,pincode"`
	IsDefault *bool   `json:"is_default"`
}

// UpdateAddress applies a partial update; setting is_default true clears the
// previous default in the same transaction.
func (h *AddressHandler) UpdateAddress(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "UNAUTHENTICATED")
	}

	addrID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "INVALID_ID")
	}

	var req updateAddressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "INVALID_BODY")
	}
	if err := validation.Struct(&req); err != nil {
		return err
	}

	var address models.Address
	if err := h.db.Where("id = ? AND user_id = ?", addrID, session.UserID).
		First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "NOT_FOUND")
		}
		return err
	}

	updates := map[string]interface{}{}
	if req.StateID != nil {
		updates["state_id"] = uuid.MustParse(*req.StateID)
	}
	if req.CityID != nil {
		updates["city_id"] = uuid.MustParse(*req.CityID)
	}
	if req.AreaID != nil {
		updates["area_id"] = uuid.MustParse(*req.AreaID)
	}
	if req.Line1 != nil {
		updates["line1"] = *req.Line1
	}
	if req.Line2 != nil {
		updates["line2"] = *req.Line2
	}
	if req.Pincode != nil {
		updates["pincode"] = *req.Pincode
	}
	if req.IsDefault != nil {
		updates["is_default"] = *req.IsDefault
	}

	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "NO_FIELDS")
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault != nil && *req.IsDefault {
			if err := tx.Model(&models.Address{}).
				Where("user_id = ? AND is_default = ?", session.UserID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Model(&address).Updates(updates).Error
	}); err != nil {
		return err
	}

	return utils.OK(c, address)
}

// SetDefaultAddress atomically makes the target the user's only default.
func (h *AddressHandler) SetDefaultAddress(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "UNAUTHENTICATED")
	}

	addrID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "INVALID_ID")
	}

	var target models.Address
	if err := h.db.Where("id = ? AND user_id = ?", addrID, session.UserID).
		First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "NOT_FOUND")
		}
		return err
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Address{}).
			Where("user_id = ? AND is_default = ?", session.UserID, true).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&target).Update("is_default", true).Error
	}); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"ok": true})
}

// DeleteAddress removes an owned address. Deleting the current default does
// not promote another address; the next default is whatever the user picks.
func (h *AddressHandler) DeleteAddress(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "UNAUTHENTICATED")
	}

	addrID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "INVALID_ID")
	}

	var address models.Address
	if err := h.db.Where("id = ? AND user_id = ?", addrID, session.UserID).
		First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "NOT_FOUND")
		}
		return err
	}

	if err := h.db.Delete(&address).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"ok": true})
}
