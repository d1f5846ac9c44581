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

// StoreHandler manages merchant onboarding and the merchant profile.
type StoreHandler struct {
	db *gorm.DB
}

// NewStoreHandler constructs StoreHandler.
func NewStoreHandler(db *gorm.DB) *StoreHandler {
	return &StoreHandler{db: db}
}

type geoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type createStoreRequest struct {
	Name         string    `json:"name" validate:"required,min=2,max=120"`
	CityID       string    `json:"city_id" validate:"required,uuid"`
	AreaID       string    `json:"area_id" validate:"required,uuid"`
	AddressLine1 string    `json:"address_line1" validate:"required,min=3,max=200"`
	AddressLine2 *string   `json:"address_line2" validate:"omitempty,max=200"`
	Pincode      *string   `json:"pincode" validate:"omitempty,pincode"`
	Phone        *string   `json:"phone" validate:"omitempty,phone"`
	Description  *string   `json:"description" validate:"omitempty,max=300"`
	StoreImage   *string   `json:"store_image" validate:"omitempty,url"`
	Geo          *geoPoint `json:"geo"`
}

// CreateStore onboards the caller's store. The city name is denormalized onto
// the store row and a missing pincode falls back to the area's default.
func (h *StoreHandler) CreateStore(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "UNAUTHENTICATED")
	}

	var req createStoreRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "INVALID_BODY")
	}
	if err := validation.Struct(&req); err != nil {
		return err
	}

	var existing models.Store
	if err := h.db.Where("merchant_id = ?", session.UserID).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "STORE_EXISTS")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var city models.City
	if err := h.db.First(&city, "id = ?", uuid.MustParse(req.CityID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "CITY_NOT_FOUND")
		}
		return err
	}

	var area models.Area
	if err := h.db.First(&area, "id = ?", uuid.MustParse(req.AreaID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "AREA_NOT_FOUND")
		}
		return err
	}

	if area.CityID != city.ID {
		return fiber.NewError(fiber.StatusBadRequest, "AREA_NOT_IN_CITY")
	}

	// Prefer the submitted pincode, fall back to the area default.
	pincode := ""
	if req.Pincode != nil {
		pincode = *req.Pincode
	} else if area.Pincode != "" {
		pincode = area.Pincode
	}
	if pincode == "" {
		return fiber.NewError(fiber.StatusBadRequest, "PINCODE_REQUIRED")
	}

	store := models.Store{
		MerchantID:   session.UserID,
		Name:         req.Name,
		Description:  req.Description,
		Phone:        req.Phone,
		StoreImage:   req.StoreImage,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		AreaID:       area.ID,
		City:         city.Name,
		Pincode:      pincode,
	}
	if req.Geo != nil {
		store.Lat = &req.Geo.Lat
		store.Lng = &req.Geo.Lng
	}

	if err := h.db.Create(&store).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ok":       true,
		"store_id": store.ID,
		"next":     "/merchant/register/done",
	})
}

// GetProfile returns the merchant's account profile.
func (h *StoreHandler) GetProfile(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "UNAUTHENTICATED")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", session.UserID).Error; err != nil {
		return err
	}

	return utils.OK(c, fiber.Map{
		"name":  user.Name,
		"email": user.Email,
		"phone": user.Phone,
		"role":  user.Role,
	})
}

type updateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=50"`
	Email *string `json:"email" validate:"omitempty,email,max=254"`
}

// UpdateProfile updates the merchant's name and email.
func (h *StoreHandler) UpdateProfile(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "UNAUTHENTICATED")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "INVALID_BODY")
	}
	if err := validation.Struct(&req); err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "NO_FIELDS")
	}

	if err := h.db.Model(&models.User{}).
		Where("id = ?", session.UserID).
		Updates(updates).Error; err != nil {
		return err
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", session.UserID).Error; err != nil {
		return err
	}

	return utils.OK(c, fiber.Map{
		"name":  user.Name,
		"email": user.Email,
	})
}
