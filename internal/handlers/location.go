package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/localmart/internal/models"
	"github.com/example/localmart/internal/utils"
)

// LocationHandler serves the state/city/area lookup hierarchy backing the
// cascading selectors in address and store forms.
type LocationHandler struct {
	db *gorm.DB
}

// NewLocationHandler constructs LocationHandler.
func NewLocationHandler(db *gorm.DB) *LocationHandler {
	return &LocationHandler{db: db}
}

// ListStates returns all states ordered alphabetically.
func (h *LocationHandler) ListStates(c *fiber.Ctx) error {
	var states []models.State
	if err := h.db.Order("name asc").Find(&states).Error; err != nil {
		return err
	}
	return utils.OK(c, states)
}

// ListCities returns the cities of a state.
func (h *LocationHandler) ListCities(c *fiber.Ctx) error {
	stateID, err := uuid.Parse(c.Query("stateId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "STATE_ID_REQUIRED")
	}

	var cities []models.City
	if err := h.db.Where("state_id = ?", stateID).
		Order("name asc").
		Find(&cities).Error; err != nil {
		return err
	}
	return utils.OK(c, cities)
}

// ListAreas returns the areas of a city, each with its default pincode.
func (h *LocationHandler) ListAreas(c *fiber.Ctx) error {
	cityID, err := uuid.Parse(c.Query("cityId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "CITY_ID_REQUIRED")
	}

	var areas []models.Area
	if err := h.db.Where("city_id = ?", cityID).
		Order("name asc").
		Find(&areas).Error; err != nil {
		return err
	}
	return utils.OK(c, areas)
}
