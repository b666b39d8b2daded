package main

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/MantasDr/frontas/database"
	"github.com/MantasDr/frontas/handlers"
	"github.com/MantasDr/frontas/handlers/admin"
	"github.com/MantasDr/frontas/middleware"
	"github.com/MantasDr/frontas/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	validateEnvironment()

	// Initialize database
	database.InitDB()
	defer database.CloseDB()

	// Start the progression sweep worker
	services.InitProgressionService()
	services.GetProgressionService().Start()
	defer services.GetProgressionService().Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    4 * 1024 * 1024, // 4MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	app.Use(middleware.RateLimitMiddleware())

	// API Routes
	api := app.Group("/api")

	// Auth routes with stricter rate limiting
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.AuthRateLimitMiddleware())
	authGroup.Post("/register", handlers.Register)
	authGroup.Post("/login", handlers.Login)

	// Catalog routes
	api.Get("/lakes", handlers.GetLakes)
	api.Get("/lakes/:id", handlers.GetLake)
	api.Get("/fish-species", handlers.GetFishSpecies)

	// Feed
	api.Get("/posts", handlers.GetPosts)
	api.Post("/posts", middleware.AuthMiddleware, handlers.CreatePost)
	api.Delete("/posts/:id", middleware.AuthMiddleware, handlers.DeletePost)

	// Leaderboard
	api.Get("/leaderboard", handlers.GetLeaderboard)

	// User routes (require authentication)
	userGroup := api.Group("/users")
	userGroup.Use(middleware.AuthMiddleware)
	userGroup.Get("/me", handlers.GetCurrentUser)
	userGroup.Put("/me", handlers.UpdateCurrentUser)
	userGroup.Get("/:id", handlers.GetUserProfile)

	// Progression routes
	progressionGroup := api.Group("/progression")
	progressionGroup.Use(middleware.AuthMiddleware)
	progressionGroup.Get("/", handlers.GetProgression)
	progressionGroup.Get("/achievements", handlers.GetUserAchievements)

	// Admin routes
	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AdminAuthMiddleware)
	adminGroup.Get("/users", admin.GetUsers)
	adminGroup.Delete("/users/:id", admin.DeleteUser)
	adminGroup.Get("/ranks", admin.GetRanks)
	adminGroup.Post("/ranks", admin.CreateRank)
	adminGroup.Put("/ranks/:id", admin.UpdateRank)
	adminGroup.Delete("/ranks/:id", admin.DeleteRank)
	adminGroup.Get("/achievements", admin.GetAchievements)
	adminGroup.Post("/achievements", admin.CreateAchievement)
	adminGroup.Put("/achievements/:id", admin.UpdateAchievement)
	adminGroup.Delete("/achievements/:id", admin.DeleteAchievement)
	adminGroup.Post("/lakes", admin.CreateLake)
	adminGroup.Put("/lakes/:id", admin.UpdateLake)
	adminGroup.Delete("/lakes/:id", admin.DeleteLake)
	adminGroup.Post("/fish-species", admin.CreateFishSpecies)
	adminGroup.Put("/fish-species/:id", admin.UpdateFishSpecies)
	adminGroup.Delete("/fish-species/:id", admin.DeleteFishSpecies)
	adminGroup.Post("/progression/sweep", admin.TriggerSweep)

	// Live progression events
	app.Get("/ws", handlers.LiveEventsUpgrade, handlers.LiveEvents)

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"version":   "1.0.0",
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	log.Printf("🚀 HTTP server starting on port %s", port)
	log.Printf("📊 Environment: %s", getEnv("APP_ENV", "development"))

	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start HTTP server:", err)
	}
}

// validateEnvironment checks for required environment variables
func validateEnvironment() {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("FATAL: JWT_SECRET environment variable must be set. Generate one with: openssl rand -base64 64")
	}
	if len(jwtSecret) < 32 {
		log.Fatal("FATAL: JWT_SECRET must be at least 32 characters long")
	}

	if os.Getenv("APP_ENV") == "production" {
		corsOrigins := os.Getenv("CORS_ORIGINS")
		if corsOrigins == "" || corsOrigins == "http://localhost:5173" {
			log.Println("WARNING: CORS_ORIGINS not properly configured for production")
		}
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Don't expose internal errors in production
	if os.Getenv("APP_ENV") == "production" && code == 500 {
		message = "An error occurred. Please try again later."
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
