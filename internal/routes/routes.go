package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/localmart/internal/config"
	"github.com/example/localmart/internal/handlers"
	"github.com/example/localmart/internal/middleware"
	"github.com/example/localmart/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	smsService := services.NewSMSService(cfg.SMSGatewayURL, cfg.SMSGatewayToken)

	authHandler := handlers.NewAuthHandler(db, cfg, smsService)
	addressHandler := handlers.NewAddressHandler(db)
	locationHandler := handlers.NewLocationHandler(db)
	catalogHandler := handlers.NewCatalogHandler(db)
	storeHandler := handlers.NewStoreHandler(db)
	productHandler := handlers.NewMerchantProductHandler(db)

	api := app.Group("/api")

	// Registration and sign-in
	auth := api.Group("/auth")
	auth.Post("/register/start", authHandler.RegisterStart)
	auth.Post("/register/verify", authHandler.RegisterVerify)
	auth.Post("/login", authHandler.Login)

	// Location lookups feeding the cascading selectors
	locations := api.Group("/locations")
	locations.Get("/states", locationHandler.ListStates)
	locations.Get("/cities", locationHandler.ListCities)
	locations.Get("/areas", locationHandler.ListAreas)

	// Public catalog; auth is optional and only used to resolve the
	// caller's default delivery area
	products := api.Group("/products", middleware.OptionalAuth(cfg))
	products.Get("/", catalogHandler.ListProducts)
	products.Get("/catalog/meta", catalogHandler.CatalogMeta)
	products.Get("/:id", catalogHandler.GetProduct)

	// Address book
	user := api.Group("/user", middleware.Auth(cfg))
	user.Get("/addresses", addressHandler.ListAddresses)
	user.Post("/addresses", addressHandler.CreateAddress)
	user.Patch("/addresses/:id", addressHandler.UpdateAddress)
	user.Delete("/addresses/:id", addressHandler.DeleteAddress)
	user.Post("/addresses/:id/set-default", addressHandler.SetDefaultAddress)

	// Merchant dashboard
	merchant := api.Group("/merchant", middleware.Auth(cfg), middleware.RequireMerchant())
	merchant.Post("/stores", storeHandler.CreateStore)
	merchant.Get("/me", storeHandler.GetProfile)
	merchant.Patch("/me", storeHandler.UpdateProfile)
	merchant.Get("/products", productHandler.ListProducts)
	merchant.Post("/products", productHandler.CreateProduct)
	merchant.Get("/products/:id", productHandler.GetProduct)
	merchant.Patch("/products/:id", productHandler.UpdateProduct)
}
