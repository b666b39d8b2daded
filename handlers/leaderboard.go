// handlers/leaderboard.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MantasDr/frontas/database"
	"github.com/MantasDr/frontas/models"
)

// GetLeaderboard returns users ordered by experience.
// GET /api/leaderboard?limit=100&offset=0
func GetLeaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit < 1 || limit > 100 {
		limit = 100
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	db := database.GetDB()

	var users []models.User
	if err := db.Preload("Rank").
		Order("exp DESC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch leaderboard"})
	}

	for i := range users {
		users[i].Password = ""
	}

	var total int64
	db.Model(&models.User{}).Count(&total)

	return c.JSON(fiber.Map{
		"success": true,
		"users":   users,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}
