package handlers

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/localmart/internal/middleware"
	"github.com/example/localmart/internal/models"
	"github.com/example/localmart/internal/utils"
	"github.com/example/localmart/internal/validation"
)

// CatalogHandler serves the public product listing and its filter metadata.
type CatalogHandler struct {
	db *gorm.DB
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

type catalogQuery struct {
	Q           string `query:"q"`
	Category    string `query:"category"`
	Subcategory string `query:"subcategory"`
	MinPrice    *int64 `query:"minPrice" validate:"omitempty,gte=0"`
	MaxPrice    *int64 `query:"maxPrice" validate:"omitempty,gte=0"`
	AreaID      string `query:"areaId" validate:"omitempty,uuid"`
	Sort        string `query:"sort"`
}

// ListProducts turns the URL parameters into a filtered, sorted, paginated
// listing. The delivery area comes from the URL when present, otherwise from
// the caller's default address — in which case the request is redirected once
// to the canonical URL carrying the resolved areaId.
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	var params catalogQuery
	if err := c.QueryParser(&params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "INVALID_QUERY")
	}
	if err := validation.Struct(&params); err != nil {
		return err
	}

	if params.AreaID == "" {
		if areaID, ok := h.defaultAreaForCaller(c); ok {
			return h.redirectWithArea(c, areaID)
		}

		// No area in the URL and none on file: the shop renders an
		// area-selection prompt instead of a listing.
		return c.JSON(fiber.Map{
			"ok":            true,
			"area_required": true,
			"data":          []models.Product{},
		})
	}

	query := h.db.Model(&models.Product{})

	if params.Category != "" {
		query = query.Where("category_id IN (?)",
			h.db.Model(&models.Category{}).Select("id").Where("slug = ?", params.Category))
	}
	if params.Subcategory != "" {
		query = query.Where("subcategory_id IN (?)",
			h.db.Model(&models.Category{}).Select("id").Where("slug = ?", params.Subcategory))
	}
	if params.MinPrice != nil {
		query = query.Where("price >= ?", *params.MinPrice)
	}
	if params.MaxPrice != nil {
		query = query.Where("price <= ?", *params.MaxPrice)
	}
	if q := strings.TrimSpace(params.Q); q != "" {
		needle := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", needle, needle)
	}
	query = query.Where("store_id IN (?)",
		h.db.Model(&models.Store{}).Select("id").Where("area_id = ?", params.AreaID))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	switch params.Sort {
	case "price-asc":
		query = query.Order("price asc")
	case "price-desc":
		query = query.Order("price desc")
	default:
		query = query.Order("created_at desc")
	}

	pg := utils.ParsePagination(c)
	var products []models.Product
	if err := query.
		Preload("Category").
		Preload("Subcategory").
		Preload("Store").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		Limit(pg.PerPage).Offset(pg.Offset).
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"ok":         true,
		"data":       products,
		"pagination": pg.Envelope(len(products), total),
	})
}

// defaultAreaForCaller looks up the authenticated user's default address.
func (h *CatalogHandler) defaultAreaForCaller(c *fiber.Ctx) (uuid.UUID, bool) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return uuid.Nil, false
	}

	var address models.Address
	err := h.db.Where("user_id = ? AND is_default = ?", session.UserID, true).
		First(&address).Error
	if err != nil {
		return uuid.Nil, false
	}

	return address.AreaID, true
}

// redirectWithArea canonicalizes the URL: same path and filters, areaId
// injected, page reset to 1. Redirecting only when the URL lacked areaId
// keeps the loop bounded to a single hop.
func (h *CatalogHandler) redirectWithArea(c *fiber.Ctx, areaID uuid.UUID) error {
	values := url.Values{}
	for key, vals := range c.Queries() {
		if key == "areaId" || key == "page" || vals == "" {
			continue
		}
		values.Set(key, vals)
	}
	values.Set("areaId", areaID.String())
	values.Set("page", "1")

	return c.Redirect(c.Path()+"?"+values.Encode(), fiber.StatusTemporaryRedirect)
}

type categorySummary struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	ParentID *uuid.UUID `json:"parent_id"`
}

type categoryNode struct {
	categorySummary
	Children []categorySummary `json:"children"`
}

// CatalogMeta loads all categories and returns three shapes at once: the
// top-level list, a parent-slug keyed map of children, and a nested tree.
func (h *CatalogHandler) CatalogMeta(c *fiber.Ctx) error {
	var rows []models.Category
	if err := h.db.Order("name asc").Find(&rows).Error; err != nil {
		return err
	}

	var parents []categorySummary
	parentByID := make(map[uuid.UUID]categorySummary)
	for _, row := range rows {
		if row.ParentID != nil {
			continue
		}
		summary := categorySummary{ID: row.ID, Name: row.Name, Slug: row.Slug}
		parents = append(parents, summary)
		parentByID[row.ID] = summary
	}

	children := make(map[string][]categorySummary)
	for _, row := range rows {
		if row.ParentID == nil {
			continue
		}
		parent, ok := parentByID[*row.ParentID]
		if !ok {
			// Orphan safety: skip rows whose parent is missing.
			continue
		}
		children[parent.Slug] = append(children[parent.Slug], categorySummary{
			ID:       row.ID,
			Name:     row.Name,
			Slug:     row.Slug,
			ParentID: row.ParentID,
		})
	}

	tree := make([]categoryNode, 0, len(parents))
	for _, parent := range parents {
		kids := children[parent.Slug]
		if kids == nil {
			kids = []categorySummary{}
		}
		tree = append(tree, categoryNode{categorySummary: parent, Children: kids})
	}

	if parents == nil {
		parents = []categorySummary{}
	}

	return c.JSON(fiber.Map{
		"ok":          true,
		"category":    parents,
		"subcategory": children,
		"tree":        tree,
	})
}

// GetProduct loads one product with its relations, by id or by store-scoped
// slug lookup when the id is not a UUID.
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	param := c.Params("id")

	query := h.db.
		Preload("Category").
		Preload("Subcategory").
		Preload("Store").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		})

	var product models.Product
	var err error
	if id, parseErr := uuid.Parse(param); parseErr == nil {
		err = query.First(&product, "id = ?", id).Error
	} else if storeID := c.Query("storeId"); storeID != "" {
		err = query.First(&product, "store_id = ? AND slug = ?", storeID, param).Error
	} else {
		return fiber.NewError(fiber.StatusBadRequest, "INVALID_ID")
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "NOT_FOUND")
		}
		return err
	}

	return utils.OK(c, product)
}
