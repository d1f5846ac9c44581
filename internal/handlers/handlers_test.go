package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/localmart/internal/config"
	"github.com/example/localmart/internal/database"
	"github.com/example/localmart/internal/models"
	"github.com/example/localmart/internal/routes"
	"github.com/example/localmart/internal/utils"
)

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB, *config.Config) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		AppPort:      "0",
		JWTSecret:    "test-secret",
		TokenExpires: time.Hour,
		SimulateOTP:  true,
	}

	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	routes.Register(app, db, cfg)

	return app, db, cfg
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}

	return resp, decoded
}

func createUser(t *testing.T, db *gorm.DB, cfg *config.Config, phone, role string) (models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword("password-1")
	require.NoError(t, err)

	user := models.User{
		Phone:         phone,
		PasswordHash:  hash,
		Role:          role,
		PhoneVerified: true,
	}
	require.NoError(t, db.Create(&user).Error)

	token, err := utils.GenerateToken(cfg.JWTSecret, user.ID, role, true, time.Hour)
	require.NoError(t, err)

	return user, token
}

type testLocation struct {
	State models.State
	City  models.City
	Area  models.Area
}

func seedLocation(t *testing.T, db *gorm.DB, stateName, cityName, areaName, pincode string) testLocation {
	t.Helper()

	state := models.State{Name: stateName, Code: "TS"}
	require.NoError(t, db.Create(&state).Error)

	city := models.City{Name: cityName, StateID: state.ID}
	require.NoError(t, db.Create(&city).Error)

	area := models.Area{Name: areaName, CityID: city.ID, Pincode: pincode}
	require.NoError(t, db.Create(&area).Error)

	return testLocation{State: state, City: city, Area: area}
}

func seedCategory(t *testing.T, db *gorm.DB, name string, parentID *uuid.UUID) models.Category {
	t.Helper()

	category := models.Category{Name: name, Slug: utils.Slugify(name), ParentID: parentID}
	require.NoError(t, db.Create(&category).Error)
	return category
}

func seedStore(t *testing.T, db *gorm.DB, merchantID uuid.UUID, loc testLocation, name string) models.Store {
	t.Helper()

	store := models.Store{
		MerchantID:   merchantID,
		Name:         name,
		AddressLine1: "12 Market Road",
		AreaID:       loc.Area.ID,
		City:         loc.City.Name,
		Pincode:      loc.Area.Pincode,
	}
	require.NoError(t, db.Create(&store).Error)
	return store
}

func seedProduct(t *testing.T, db *gorm.DB, store models.Store, category models.Category, name string, price int64) models.Product {
	t.Helper()

	product := models.Product{
		StoreID:      store.ID,
		Name:         name,
		Slug:         utils.Slugify(name),
		Price:        price,
		Stock:        10,
		CategoryID:   category.ID,
		CategoryName: category.Name,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}
