package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/localmart/internal/middleware"
	"github.com/example/localmart/internal/models"
	"github.com/example/localmart/internal/utils"
	"github.com/example/localmart/internal/validation"
)

// slugRetryLimit bounds the create/update retries when a concurrent write
// grabs the probed slug first and the (store_id, slug) index rejects ours.
const slugRetryLimit = 3

// MerchantProductHandler manages store-scoped product CRUD for merchants.
type MerchantProductHandler struct {
	db *gorm.DB
}

// NewMerchantProductHandler constructs MerchantProductHandler.
func NewMerchantProductHandler(db *gorm.DB) *MerchantProductHandler {
	return &MerchantProductHandler{db: db}
}

// productForm is accepted both as JSON and as form-encoded fields, matching
// the dashboard's plain form submits.
type productForm struct {
	Name          string  `json:"name" form:"name" validate:"required,min=1,max=200"`
	Description   *string `json:"description" form:"description" validate:"omitempty,max=2000"`
	Price         int64   `json:"price" form:"price" validate:"required,gt=0"`
	Stock         int     `json:"stock" form:"stock" validate:"gte=0"`
	CategoryID    string  `json:"category_id" form:"categoryId" validate:"required,uuid"`
	SubcategoryID *string `json:"subcategory_id" form:"subcategoryId" validate:"omitempty,uuid"`
	NewImageURL   *string `json:"new_image_url" form:"newImageUrl" validate:"omitempty,url"`
	NewImageAlt   *string `json:"new_image_alt" form:"newImageAlt" validate:"omitempty,max=120"`
}

// CreateProduct inserts a product for the caller's store, deriving a slug
// from the name and disambiguating it against the store's existing slugs.
func (h *MerchantProductHandler) CreateProduct(c *fiber.Ctx) error {
	store, err := h.storeForCaller(c)
	if err != nil {
		return err
	}

	var form productForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "INVALID_BODY")
	}
	if err := validation.Struct(&form); err != nil {
		return err
	}

	var product models.Product
	for attempt := 0; attempt < slugRetryLimit; attempt++ {
		err = h.db.Transaction(func(tx *gorm.DB) error {
			category, err := h.resolveCategory(tx, form)
			if err != nil {
				return err
			}

			slug, err := uniqueSlugForStore(tx, store.ID, utils.Slugify(form.Name), nil)
			if err != nil {
				return err
			}

			product = models.Product{
				StoreID:      store.ID,
				Name:         form.Name,
				Slug:         slug,
				Description:  form.Description,
				Price:        form.Price,
				Stock:        form.Stock,
				CategoryID:   category.ID,
				CategoryName: category.Name,
			}
			if form.SubcategoryID != nil && *form.SubcategoryID != "" {
				id := uuid.MustParse(*form.SubcategoryID)
				product.SubcategoryID = &id
			}

			if err := tx.Create(&product).Error; err != nil {
				return err
			}

			if form.NewImageURL != nil && *form.NewImageURL != "" {
				image := models.ProductImage{
					ProductID: product.ID,
					URL:       *form.NewImageURL,
					Alt:       form.NewImageAlt,
				}
				if err := tx.Create(&image).Error; err != nil {
					return err
				}
				product.Images = []models.ProductImage{image}
			}

			return nil
		})

		// A concurrent create can win the probed slug; re-probe and retry.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return err
		}
		return utils.Created(c, product)
	}

	return fiber.NewError(fiber.StatusConflict, "SLUG_CONFLICT")
}

// UpdateProduct re-validates ownership and category integrity, re-derives the
// slug (skipping the product's own row) and optionally appends one image.
// Existing images are never removed or reordered here.
func (h *MerchantProductHandler) UpdateProduct(c *fiber.Ctx) error {
	store, err := h.storeForCaller(c)
	if err != nil {
		return err
	}

	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "INVALID_ID")
	}

	var form productForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "INVALID_BODY")
	}
	if err := validation.Struct(&form); err != nil {
		return err
	}

	for attempt := 0; attempt < slugRetryLimit; attempt++ {
		err = h.db.Transaction(func(tx *gorm.DB) error {
			var existing models.Product
			if err := tx.Where("id = ? AND store_id = ?", productID, store.ID).
				First(&existing).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "NOT_FOUND")
				}
				return err
			}

			category, err := h.resolveCategory(tx, form)
			if err != nil {
				return err
			}

			slug, err := uniqueSlugForStore(tx, store.ID, utils.Slugify(form.Name), &productID)
			if err != nil {
				return err
			}

			updates := map[string]interface{}{
				"name":          form.Name,
				"slug":          slug,
				"description":   form.Description,
				"price":         form.Price,
				"stock":         form.Stock,
				"category_id":   category.ID,
				"category_name": category.Name,
				"subcategory_id": func() interface{} {
					if form.SubcategoryID != nil && *form.SubcategoryID != "" {
						return uuid.MustParse(*form.SubcategoryID)
					}
					return nil
				}(),
			}

			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return err
			}

			if form.NewImageURL != nil && *form.NewImageURL != "" {
				image := models.ProductImage{
					ProductID: existing.ID,
					URL:       *form.NewImageURL,
					Alt:       form.NewImageAlt,
				}
				if err := tx.Create(&image).Error; err != nil {
					return err
				}
			}

			return nil
		})

		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"ok": true})
	}

	return fiber.NewError(fiber.StatusConflict, "SLUG_CONFLICT")
}

// ListProducts returns the caller's store products, newest first, each with
// its cover image.
func (h *MerchantProductHandler) ListProducts(c *fiber.Ctx) error {
	store, err := h.storeForCaller(c)
	if err != nil {
		return err
	}

	query := h.db.Model(&models.Product{}).Where("store_id = ?", store.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	pg := utils.ParsePagination(c)
	var products []models.Product
	if err := query.
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		Order("created_at desc").
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

// GetProduct loads one of the caller's products.
func (h *MerchantProductHandler) GetProduct(c *fiber.Ctx) error {
	store, err := h.storeForCaller(c)
	if err != nil {
		return err
	}

	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "INVALID_ID")
	}

	var product models.Product
	if err := h.db.
		Preload("Category").
		Preload("Subcategory").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		Where("id = ? AND store_id = ?", productID, store.ID).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "NOT_FOUND")
		}
		return err
	}

	return utils.OK(c, product)
}

// storeForCaller resolves the merchant's single store.
func (h *MerchantProductHandler) storeForCaller(c *fiber.Ctx) (*models.Store, error) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "UNAUTHENTICATED")
	}

	var store models.Store
	if err := h.db.Where("merchant_id = ?", session.UserID).First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Products cannot exist without a store; registration comes first.
			return nil, fiber.NewError(fiber.StatusNotFound, "STORE_NOT_FOUND")
		}
		return nil, err
	}

	return &store, nil
}

// resolveCategory checks the category exists and, when a subcategory is
// given, that it genuinely belongs to the chosen category.
func (h *MerchantProductHandler) resolveCategory(tx *gorm.DB, form productForm) (*models.Category, error) {
	var category models.Category
	if err := tx.First(&category, "id = ?", uuid.MustParse(form.CategoryID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "INVALID_CATEGORY")
		}
		return nil, err
	}

	if form.SubcategoryID != nil && *form.SubcategoryID != "" {
		var sub models.Category
		err := tx.Where("id = ? AND parent_id = ?", uuid.MustParse(*form.SubcategoryID), category.ID).
			First(&sub).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fiber.NewError(fiber.StatusBadRequest, "INVALID_SUBCATEGORY")
			}
			return nil, err
		}
	}

	return &category, nil
}

// uniqueSlugForStore probes base, base-2, base-3, ... against the store's
// existing slugs, optionally excluding the row being updated.
func uniqueSlugForStore(tx *gorm.DB, storeID uuid.UUID, base string, exclude *uuid.UUID) (string, error) {
	query := tx.Model(&models.Product{}).
		Where("store_id = ? AND slug LIKE ?", storeID, base+"%")
	if exclude != nil {
		query = query.Where("id <> ?", *exclude)
	}

	var slugs []string
	if err := query.Pluck("slug", &slugs).Error; err != nil {
		return "", err
	}

	if len(slugs) == 0 {
		return base, nil
	}

	used := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		used[strings.ToLower(s)] = struct{}{}
	}

	if _, taken := used[base]; !taken {
		return base, nil
	}

	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if _, taken := used[candidate]; !taken {
			return candidate, nil
		}
	}
}
