package handlers

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/MantasDr/frontas/models"
)

func TestUpdateProfile(t *testing.T) {
	app, db := setupTestApp(t)
	token := registerAndLogin(t, app, "editor")

	var user models.User
	if err := db.Where("username = ?", "editor").First(&user).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}

	t.Run("updates the requested fields", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, "PUT", "/api/users/me", token, fiber.Map{
			"city": "Vilnius",
		}))
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != 200 {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}

		var reloaded models.User
		if err := db.First(&reloaded, user.ID).Error; err != nil {
			t.Fatalf("reload user: %v", err)
		}
		if reloaded.City != "Vilnius" {
			t.Errorf("city = %q, want Vilnius", reloaded.City)
		}
		if reloaded.Name != "Default Name" {
			t.Errorf("name = %q, want the untouched default", reloaded.Name)
		}
	})

	t.Run("does not revert a concurrent exp award", func(t *testing.T) {
		// An exp award landing between the handler's read and write must
		// survive: the profile write may touch profile columns only. The
		// callback interleaves the award right before the handler's UPDATE.
		awarded := false
		err := db.Callback().Update().Before("gorm:update").Register("interleave_award", func(tx *gorm.DB) {
			if awarded || tx.Statement.Table != "users" {
				return
			}
			awarded = true
			db.Model(&models.User{}).
				Where("id = ?", user.ID).
				UpdateColumn("exp", gorm.Expr("exp + ?", 20))
		})
		if err != nil {
			t.Fatalf("register callback: %v", err)
		}
		defer db.Callback().Update().Remove("interleave_award")

		resp, err := app.Test(jsonRequest(t, "PUT", "/api/users/me", token, fiber.Map{
			"name": "Jonas",
		}))
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != 200 {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if !awarded {
			t.Fatal("interleaved award never ran")
		}

		var reloaded models.User
		if err := db.First(&reloaded, user.ID).Error; err != nil {
			t.Fatalf("reload user: %v", err)
		}
		if reloaded.Exp != 20 {
			t.Errorf("exp = %d, want 20: profile update overwrote the award", reloaded.Exp)
		}
		if reloaded.Name != "Jonas" {
			t.Errorf("name = %q, want Jonas", reloaded.Name)
		}
	})
}
