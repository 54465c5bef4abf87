package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-storefront-api/internal/apperr"
	"go-storefront-api/internal/handler"
	"go-storefront-api/internal/middleware"
	"go-storefront-api/internal/model"
	"go-storefront-api/internal/repository"
	"go-storefront-api/internal/service"
	"go-storefront-api/internal/ws"
	"go-storefront-api/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	db.AutoMigrate(
		&model.Category{},
		&model.Product{},
		&model.Variant{},
		&model.User{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.PromoCode{},
	)

	// 3. Seed default admin user
	seedAdmin(db)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	ids := repository.NewIDAllocator(db)
	productRepo := repository.NewProductRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	promoRepo := repository.NewPromoRepo(db)
	userRepo := repository.NewUserRepo(db)

	orderService := service.NewOrderService(orderRepo, productRepo, userRepo, promoRepo, ids, wsHub)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, orderRepo, ids, wsHub)
	cartService := service.NewCartService(userRepo, productRepo)
	promoService := service.NewPromoService(promoRepo, ids)
	authService := service.NewAuthService(userRepo, ids)
	userService := service.NewUserService(userRepo)
	dashService := service.NewDashboardService(orderRepo)

	orderHandler := handler.NewOrderHandler(orderService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	cartHandler := handler.NewCartHandler(cartService)
	promoHandler := handler.NewPromoHandler(promoService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	dashHandler := handler.NewDashboardHandler(dashService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Storefront API v1.0",
		ErrorHandler: apperr.Handler,
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	api.Get("/products", catalogHandler.ListProducts)
	api.Get("/products/slug/:slug", catalogHandler.GetProductBySlug)
	api.Get("/products/:id", catalogHandler.GetProduct)
	api.Get("/categories", catalogHandler.ListCategories)
	api.Get("/promos/validate/:code", promoHandler.Validate)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))
	staffOnly := middleware.RequireRole(model.RoleAdmin, model.RoleEditor)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	// Orders
	protected.Post("/orders", orderHandler.Create)
	protected.Get("/orders", orderHandler.List)
	protected.Get("/orders/:id", orderHandler.Get)
	protected.Patch("/orders/:id", adminOnly, orderHandler.AdminUpdate)
	protected.Patch("/orders/:id/customer", orderHandler.CustomerUpdate)
	protected.Post("/orders/:id/customer/cancel", orderHandler.CustomerCancel)
	protected.Delete("/orders/:id", adminOnly, orderHandler.Delete)

	// Cart
	protected.Get("/cart", cartHandler.Get)
	protected.Put("/cart", cartHandler.Replace)
	protected.Post("/cart/merge", cartHandler.Merge)
	protected.Post("/cart/revalidate", cartHandler.Revalidate)

	// Catalog management
	protected.Post("/products", staffOnly, catalogHandler.CreateProduct)
	protected.Put("/products/:id", staffOnly, catalogHandler.UpdateProduct)
	protected.Delete("/products/:id", adminOnly, catalogHandler.DeleteProduct)
	protected.Post("/categories", staffOnly, catalogHandler.CreateCategory)
	protected.Post("/discounts", adminOnly, catalogHandler.ApplyDiscount)

	// Promo codes
	protected.Post("/promos", adminOnly, promoHandler.Create)
	protected.Get("/promos", adminOnly, promoHandler.List)
	protected.Delete("/promos/:id", adminOnly, promoHandler.Delete)

	// Profile & user management
	protected.Get("/me", userHandler.GetMe)
	protected.Put("/me", userHandler.UpdateMe)
	protected.Get("/users", adminOnly, userHandler.List)
	protected.Get("/users/:id", adminOnly, userHandler.Get)
	protected.Put("/users/:id", adminOnly, userHandler.Update)
	protected.Delete("/users/:id", adminOnly, userHandler.Delete)

	// Dashboard
	protected.Get("/dashboard/stats", staffOnly, dashHandler.GetStats)
	protected.Get("/dashboard/sales", staffOnly, dashHandler.GetSales)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedAdmin creates the default back-office account if it doesn't exist
func seedAdmin(db *gorm.DB) {
	userRepo := repository.NewUserRepo(db)
	ids := repository.NewIDAllocator(db)

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@example.com"
	}

	if _, err := userRepo.FindByEmail(email); err == nil {
		return
	}

	id, err := ids.Allocate(&model.User{})
	if err != nil {
		log.Printf("Warning: Failed to allocate admin user id: %v", err)
		return
	}

	admin := &model.User{
		BaseModel: model.BaseModel{ID: id},
		Email:     email,
		FullName:  "Store Administrator",
		Phone:     "0000000000",
		Role:      model.RoleAdmin,
		IsActive:  true,
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	if err := admin.SetPassword(password); err != nil {
		log.Printf("Warning: Failed to hash admin password: %v", err)
		return
	}

	if err := userRepo.Create(admin); err != nil {
		log.Printf("Warning: Failed to create admin user: %v", err)
	} else {
		log.Printf("✅ Admin user created: %s", email)
	}
}
