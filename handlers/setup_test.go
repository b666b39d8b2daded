package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MantasDr/frontas/database"
	"github.com/MantasDr/frontas/middleware"
	"github.com/MantasDr/frontas/models"
	"github.com/MantasDr/frontas/services"
)

// setupTestApp wires an in-memory database and the API routes under test.
func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-test-secret-test-secret-test")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Design{},
		&models.Rank{},
		&models.User{},
		&models.Lake{},
		&models.FishSpecies{},
		&models.Post{},
		&models.Fish{},
		&models.Achievement{},
		&models.UserAchievement{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if err := db.Create(&models.Design{Name: "Classic"}).Error; err != nil {
		t.Fatalf("seed design: %v", err)
	}
	ranks := []models.Rank{
		{Name: "Beginner", MinExp: 0},
		{Name: "Intermediate", MinExp: 100},
	}
	if err := db.Create(&ranks).Error; err != nil {
		t.Fatalf("seed ranks: %v", err)
	}

	database.SetDB(db)
	services.InitProgressionService()

	app := fiber.New()
	api := app.Group("/api")
	api.Post("/auth/register", Register)
	api.Post("/auth/login", Login)
	api.Get("/posts", GetPosts)
	api.Post("/posts", middleware.AuthMiddleware, CreatePost)
	api.Get("/users/me", middleware.AuthMiddleware, GetCurrentUser)
	api.Put("/users/me", middleware.AuthMiddleware, UpdateCurrentUser)
	api.Get("/progression", middleware.AuthMiddleware, GetProgression)
	api.Get("/progression/achievements", middleware.AuthMiddleware, GetUserAchievements)

	return app, db
}

func jsonRequest(t *testing.T, method, target, token string, payload any) *http.Request {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// registerAndLogin creates an account and returns a bearer token.
func registerAndLogin(t *testing.T, app *fiber.App, username string) string {
	t.Helper()

	resp, err := app.Test(jsonRequest(t, "POST", "/api/auth/register", "", fiber.Map{
		"username": username,
		"password": "hunter22",
	}))
	if err != nil {
		t.Fatalf("register request: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("register status = %d, want 201", resp.StatusCode)
	}

	var auth AuthResponse
	decodeBody(t, resp, &auth)
	if auth.Token == "" {
		t.Fatal("register returned no token")
	}
	return auth.Token
}
