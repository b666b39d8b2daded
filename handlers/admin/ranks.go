// handlers/admin/ranks.go - Rank ladder administration
package admin

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MantasDr/frontas/database"
	"github.com/MantasDr/frontas/models"
)

type RankRequest struct {
	Name   string `json:"name" validate:"required,min=2,max=64"`
	MinExp *int   `json:"min_exp" validate:"required,min=0"`
}

// GetRanks returns the full ladder ordered by threshold.
func GetRanks(c *fiber.Ctx) error {
	db := database.GetDB()

	var ranks []models.Rank
	if err := db.Order("min_exp").Find(&ranks).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch ranks"})
	}

	return c.JSON(fiber.Map{"success": true, "ranks": ranks})
}

// CreateRank adds a rank. The unique threshold index rejects duplicates.
func CreateRank(c *fiber.Ctx) error {
	var req RankRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Name and a non-negative min_exp are required"})
	}

	db := database.GetDB()

	rank := models.Rank{Name: req.Name, MinExp: *req.MinExp}
	if err := db.Create(&rank).Error; err != nil {
		return c.Status(409).JSON(fiber.Map{"error": "A rank with this threshold already exists"})
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "rank": rank})
}

// UpdateRank edits a rank's name or threshold.
func UpdateRank(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid rank ID"})
	}

	var req RankRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Name and a non-negative min_exp are required"})
	}

	db := database.GetDB()

	var rank models.Rank
	if err := db.First(&rank, id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Rank not found"})
	}

	rank.Name = req.Name
	rank.MinExp = *req.MinExp

	if err := db.Save(&rank).Error; err != nil {
		return c.Status(409).JSON(fiber.Map{"error": "A rank with this threshold already exists"})
	}

	return c.JSON(fiber.Map{"success": true, "rank": rank})
}

// DeleteRank removes a rank. Deletion is refused while users still hold the
// rank: the users.rank_id foreign key would reject it anyway, and the engine
// never demotes, so the rank must be vacated by promotions first.
func DeleteRank(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid rank ID"})
	}

	db := database.GetDB()

	var rank models.Rank
	if err := db.First(&rank, id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Rank not found"})
	}

	var holders int64
	if err := db.Model(&models.User{}).Where("rank_id = ?", rank.ID).Count(&holders).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete rank"})
	}
	if holders > 0 {
		return c.Status(409).JSON(fiber.Map{"error": "Rank is still assigned to users"})
	}

	if err := db.Delete(&rank).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete rank"})
	}

	return c.JSON(fiber.Map{"success": true})
}
