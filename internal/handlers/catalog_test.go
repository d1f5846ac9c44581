package handlers_test

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/localmart/internal/config"
	"github.com/example/localmart/internal/models"
)

type catalogFixture struct {
	loc      testLocation
	otherLoc testLocation
	store    models.Store
	other    models.Store
	fashion  models.Category
	shoes    models.Category
	gadgets  models.Category
}

func seedCatalog(t *testing.T, db *gorm.DB, cfg *config.Config) catalogFixture {
	t.Helper()

	loc := seedLocation(t, db, "Telangana", "Hyderabad", "Uppal", "500039")

	otherState := models.State{Name: "Karnataka", Code: "KA"}
	require.NoError(t, db.Create(&otherState).Error)
	otherCity := models.City{Name: "Bengaluru", StateID: otherState.ID}
	require.NoError(t, db.Create(&otherCity).Error)
	otherArea := models.Area{Name: "Indiranagar", CityID: otherCity.ID, Pincode: "560038"}
	require.NoError(t, db.Create(&otherArea).Error)
	otherLoc := testLocation{State: otherState, City: otherCity, Area: otherArea}

	merchant, _ := createUser(t, db, cfg, "+919000000001", models.RoleMerchant)
	otherMerchant, _ := createUser(t, db, cfg, "+919000000002", models.RoleMerchant)

	store := seedStore(t, db, merchant.ID, loc, "Uppal Mart")
	other := seedStore(t, db, otherMerchant.ID, otherLoc, "Indiranagar Mart")

	fashion := seedCategory(t, db, "Fashion", nil)
	shoes := seedCategory(t, db, "Shoes", &fashion.ID)
	gadgets := seedCategory(t, db, "Electronics", nil)

	return catalogFixture{
		loc:      loc,
		otherLoc: otherLoc,
		store:    store,
		other:    other,
		fashion:  fashion,
		shoes:    shoes,
		gadgets:  gadgets,
	}
}

func TestCatalogRequiresAreaSelection(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp, body := doRequest(t, app, http.MethodGet, "/api/products", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["area_required"])
	assert.Empty(t, body["data"])
}

func TestCatalogCanonicalRedirect(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	fx := seedCatalog(t, db, cfg)
	user, token := createUser(t, db, cfg, "+919876543210", models.RoleUser)

	require.NoError(t, db.Create(&models.Address{
		UserID:    user.ID,
		StateID:   fx.loc.State.ID,
		CityID:    fx.loc.City.ID,
		AreaID:    fx.loc.Area.ID,
		Line1:     "14 Rose Street",
		Pincode:   "500039",
		IsDefault: true,
	}).Error)

	resp, _ := doRequest(t, app, http.MethodGet, "/api/products?q=shoe&page=3", nil, token)
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	query := location.Query()
	assert.Equal(t, fx.loc.Area.ID.String(), query.Get("areaId"))
	assert.Equal(t, "1", query.Get("page"), "canonicalization resets the page")
	assert.Equal(t, "shoe", query.Get("q"), "other filters survive the redirect")

	// Following the canonical URL is idempotent: no further redirect.
	resp, body := doRequest(t, app, http.MethodGet, resp.Header.Get("Location"), nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Nil(t, body["area_required"])
}

func TestCatalogNoRedirectWithoutDefaultAddress(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	_, token := createUser(t, db, cfg, "+919876543210", models.RoleUser)

	resp, body := doRequest(t, app, http.MethodGet, "/api/products", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["area_required"])
}

func TestCatalogFiltersByArea(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	fx := seedCatalog(t, db, cfg)

	seedProduct(t, db, fx.store, fx.fashion, "Local Lamp", 300)
	seedProduct(t, db, fx.other, fx.fashion, "Faraway Lamp", 300)

	resp, body := doRequest(t, app, http.MethodGet, "/api/products?areaId="+fx.loc.Area.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items := body["data"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Local Lamp", items[0].(map[string]interface{})["name"])
}

func TestCatalogPriceRange(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	fx := seedCatalog(t, db, cfg)

	prices := []int64{50, 100, 250, 500, 900}
	for i, price := range prices {
		seedProduct(t, db, fx.store, fx.fashion, fmt.Sprintf("Item %d", i), price)
	}
	base := "/api/products?areaId=" + fx.loc.Area.ID.String()

	resp, body := doRequest(t, app, http.MethodGet, base+"&minPrice=100&maxPrice=500", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["data"].([]interface{})
	require.Len(t, items, 3)
	for _, item := range items {
		price := item.(map[string]interface{})["price"].(float64)
		assert.GreaterOrEqual(t, price, float64(100))
		assert.LessOrEqual(t, price, float64(500))
	}

	// Open upper bound.
	_, body = doRequest(t, app, http.MethodGet, base+"&minPrice=100", nil, "")
	assert.Len(t, body["data"].([]interface{}), 4)
}

func TestCatalogTextSearch(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	fx := seedCatalog(t, db, cfg)

	desc := "Handmade leather boots"
	boots := models.Product{
		StoreID:      fx.store.ID,
		Name:         "Winter Boots",
		Slug:         "winter-boots",
		Description:  &desc,
		Price:        1200,
		Stock:        4,
		CategoryID:   fx.fashion.ID,
		CategoryName: fx.fashion.Name,
	}
	require.NoError(t, db.Create(&boots).Error)
	seedProduct(t, db, fx.store, fx.fashion, "Desk Fan", 800)

	base := "/api/products?areaId=" + fx.loc.Area.ID.String()

	// Matches the name case-insensitively.
	_, body := doRequest(t, app, http.MethodGet, base+"&q=WINTER", nil, "")
	require.Len(t, body["data"].([]interface{}), 1)

	// Matches the description too.
	_, body = doRequest(t, app, http.MethodGet, base+"&q=leather", nil, "")
	require.Len(t, body["data"].([]interface{}), 1)

	_, body = doRequest(t, app, http.MethodGet, base+"&q=nomatch", nil, "")
	assert.Empty(t, body["data"])
}

func TestCatalogCategoryFilter(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	fx := seedCatalog(t, db, cfg)

	sneakers := models.Product{
		StoreID:       fx.store.ID,
		Name:          "Sneakers",
		Slug:          "sneakers",
		Price:         700,
		Stock:         3,
		CategoryID:    fx.fashion.ID,
		CategoryName:  fx.fashion.Name,
		SubcategoryID: &fx.shoes.ID,
	}
	require.NoError(t, db.Create(&sneakers).Error)
	seedProduct(t, db, fx.store, fx.gadgets, "Headphones", 1500)

	base := "/api/products?areaId=" + fx.loc.Area.ID.String()

	_, body := doRequest(t, app, http.MethodGet, base+"&category=fashion", nil, "")
	require.Len(t, body["data"].([]interface{}), 1)

	_, body = doRequest(t, app, http.MethodGet, base+"&category=fashion&subcategory=shoes", nil, "")
	require.Len(t, body["data"].([]interface{}), 1)

	_, body = doRequest(t, app, http.MethodGet, base+"&subcategory=no-such-slug", nil, "")
	assert.Empty(t, body["data"])
}

func TestCatalogSortByPrice(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	fx := seedCatalog(t, db, cfg)

	for i, price := range []int64{500, 100, 900, 300} {
		seedProduct(t, db, fx.store, fx.fashion, fmt.Sprintf("Item %d", i), price)
	}
	base := "/api/products?areaId=" + fx.loc.Area.ID.String()

	_, body := doRequest(t, app, http.MethodGet, base+"&sort=price-desc", nil, "")
	items := body["data"].([]interface{})
	require.Len(t, items, 4)
	last := math.Inf(1)
	for _, item := range items {
		price := item.(map[string]interface{})["price"].(float64)
		assert.LessOrEqual(t, price, last, "price-desc must be non-increasing")
		last = price
	}

	_, body = doRequest(t, app, http.MethodGet, base+"&sort=price-asc", nil, "")
	items = body["data"].([]interface{})
	first := items[0].(map[string]interface{})["price"].(float64)
	assert.EqualValues(t, 100, first)

	// Unknown sort values fall back to newest without erroring.
	resp, _ := doRequest(t, app, http.MethodGet, base+"&sort=bogus", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCatalogPaginationIdentity(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	fx := seedCatalog(t, db, cfg)

	const totalProducts = 5
	for i := 0; i < totalProducts; i++ {
		seedProduct(t, db, fx.store, fx.fashion, fmt.Sprintf("Item %d", i), int64(100+i))
	}
	base := "/api/products?areaId=" + fx.loc.Area.ID.String() + "&perPage=2"

	seen := 0
	page := 1
	for {
		_, body := doRequest(t, app, http.MethodGet, fmt.Sprintf("%s&page=%d", base, page), nil, "")
		pagination := body["pagination"].(map[string]interface{})
		items := body["data"].([]interface{})
		seen += len(items)

		assert.EqualValues(t, totalProducts, pagination["total"])
		assert.EqualValues(t, math.Ceil(float64(totalProducts)/2), pagination["totalPages"])

		if pagination["hasMore"] == true {
			page++
			continue
		}
		break
	}

	assert.Equal(t, totalProducts, seen, "total must equal the sum of items across pages")
}

func TestCatalogEmptyPageKeepsFloor(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	fx := seedCatalog(t, db, cfg)

	_, body := doRequest(t, app, http.MethodGet, "/api/products?areaId="+fx.loc.Area.ID.String(), nil, "")
	pagination := body["pagination"].(map[string]interface{})
	assert.EqualValues(t, 0, pagination["total"])
	assert.EqualValues(t, 1, pagination["totalPages"], "totalPages floors at 1 even when empty")
	assert.Equal(t, false, pagination["hasMore"])
}

func TestCatalogMetaShapes(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	seedCatalog(t, db, cfg)

	resp, body := doRequest(t, app, http.MethodGet, "/api/products/catalog/meta", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	parents := body["category"].([]interface{})
	require.Len(t, parents, 2)
	// Alphabetical: Electronics before Fashion.
	assert.Equal(t, "Electronics", parents[0].(map[string]interface{})["name"])
	assert.Equal(t, "Fashion", parents[1].(map[string]interface{})["name"])

	children := body["subcategory"].(map[string]interface{})
	require.Contains(t, children, "fashion")
	shoes := children["fashion"].([]interface{})
	require.Len(t, shoes, 1)
	assert.Equal(t, "shoes", shoes[0].(map[string]interface{})["slug"])

	tree := body["tree"].([]interface{})
	require.Len(t, tree, 2)
	fashionNode := tree[1].(map[string]interface{})
	assert.Equal(t, "fashion", fashionNode["slug"])
	assert.Len(t, fashionNode["children"].([]interface{}), 1)
}

func TestGetProductBySlugAndID(t *testing.T) {
	app, db, cfg := setupTestApp(t)
	fx := seedCatalog(t, db, cfg)
	product := seedProduct(t, db, fx.store, fx.fashion, "Red Shoe", 450)

	resp, body := doRequest(t, app, http.MethodGet, "/api/products/"+product.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Red Shoe", body["data"].(map[string]interface{})["name"])

	resp, body = doRequest(t, app, http.MethodGet,
		"/api/products/red-shoe?storeId="+fx.store.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "red-shoe", body["data"].(map[string]interface{})["slug"])

	resp, _ = doRequest(t, app, http.MethodGet, "/api/products/"+fx.store.ID.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
