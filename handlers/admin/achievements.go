// handlers/admin/achievements.go - Achievement definition administration
package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/MantasDr/frontas/database"
	"github.com/MantasDr/frontas/models"
)

type AchievementRequest struct {
	Name      string          `json:"name" validate:"required,min=2,max=64"`
	Prize     string          `json:"prize" validate:"max=200"`
	MinPosts  int             `json:"min_posts" validate:"min=0"`
	MinFish   int             `json:"min_fish" validate:"min=0"`
	MinWeight decimal.Decimal `json:"min_weight"`
}

// GetAchievements returns all achievement definitions.
func GetAchievements(c *fiber.Ctx) error {
	db := database.GetDB()

	var achievements []models.Achievement
	if err := db.Find(&achievements).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch achievements"})
	}

	return c.JSON(fiber.Map{"success": true, "achievements": achievements})
}

// CreateAchievement creates a definition. At least one threshold must be
// configured; a definition with none could never unlock.
func CreateAchievement(c *fiber.Ctx) error {
	var req AchievementRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid achievement data"})
	}

	achievement := models.Achievement{
		Name:      req.Name,
		Prize:     req.Prize,
		MinPosts:  req.MinPosts,
		MinFish:   req.MinFish,
		MinWeight: req.MinWeight,
	}
	if !achievement.HasConditions() {
		return c.Status(400).JSON(fiber.Map{"error": "At least one threshold must be set"})
	}

	db := database.GetDB()
	if err := db.Create(&achievement).Error; err != nil {
		return c.Status(409).JSON(fiber.Map{"error": "An achievement with this name already exists"})
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "achievement": achievement})
}

// UpdateAchievement edits a definition.
func UpdateAchievement(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid achievement ID"})
	}

	var req AchievementRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid achievement data"})
	}

	db := database.GetDB()

	var achievement models.Achievement
	if err := db.First(&achievement, id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Achievement not found"})
	}

	achievement.Name = req.Name
	achievement.Prize = req.Prize
	achievement.MinPosts = req.MinPosts
	achievement.MinFish = req.MinFish
	achievement.MinWeight = req.MinWeight

	if !achievement.HasConditions() {
		return c.Status(400).JSON(fiber.Map{"error": "At least one threshold must be set"})
	}

	if err := db.Save(&achievement).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update achievement"})
	}

	return c.JSON(fiber.Map{"success": true, "achievement": achievement})
}

// DeleteAchievement removes a definition and its unlock records. Removing
// unlock records here is an administrative operation; the engine itself never
// deletes them.
func DeleteAchievement(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid achievement ID"})
	}

	db := database.GetDB()

	if err := db.Where("achievement_id = ?", id).Delete(&models.UserAchievement{}).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete achievement"})
	}
	if err := db.Delete(&models.Achievement{}, id).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete achievement"})
	}

	return c.JSON(fiber.Map{"success": true})
}
