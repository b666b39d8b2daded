// handlers/users.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MantasDr/frontas/database"
	"github.com/MantasDr/frontas/middleware"
	"github.com/MantasDr/frontas/models"
)

type UpdateProfileRequest struct {
	Name    string `json:"name" validate:"max=64"`
	Surname string `json:"surname" validate:"max=64"`
	City    string `json:"city" validate:"max=64"`
}

// GetCurrentUser returns the authenticated user's profile.
func GetCurrentUser(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()

	var user models.User
	if err := db.Preload("Rank").Preload("Design").First(&user, userID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}
	user.Password = ""

	return c.JSON(fiber.Map{"success": true, "user": user})
}

// UpdateCurrentUser updates profile fields only. Experience and rank are owned
// by the progression engine and cannot be edited here.
func UpdateCurrentUser(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid profile data"})
	}

	db := database.GetDB()

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}

	// Write only the profile columns. A full-row save would write back the
	// exp and rank_id read above and silently revert a concurrent exp award
	// or promotion.
	updates := map[string]any{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Surname != "" {
		updates["surname"] = req.Surname
	}
	if req.City != "" {
		updates["city"] = req.City
	}

	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to update profile"})
		}
	}

	if err := db.Preload("Rank").First(&user, userID).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update profile"})
	}
	user.Password = ""

	return c.JSON(fiber.Map{"success": true, "user": user})
}

// GetUserProfile returns a public view of another user.
func GetUserProfile(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	db := database.GetDB()

	var user models.User
	if err := db.Preload("Rank").First(&user, id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}

	var postCount int64
	db.Model(&models.Post{}).Where("user_id = ?", user.ID).Count(&postCount)

	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"city":     user.City,
			"exp":      user.Exp,
			"rank":     user.Rank,
		},
		"post_count": postCount,
	})
}
