// handlers/lakes.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MantasDr/frontas/database"
	"github.com/MantasDr/frontas/models"
)

// GetLakes returns the lake catalog with coordinates for the map view.
func GetLakes(c *fiber.Ctx) error {
	db := database.GetDB()

	var lakes []models.Lake
	if err := db.Order("name").Find(&lakes).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch lakes"})
	}

	return c.JSON(fiber.Map{"success": true, "lakes": lakes})
}

// GetLake returns one lake with its recent posts.
func GetLake(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid lake ID"})
	}

	db := database.GetDB()

	var lake models.Lake
	if err := db.First(&lake, id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Lake not found"})
	}

	var posts []models.Post
	db.Preload("Fish.Species").
		Where("lake_id = ?", lake.ID).
		Order("created_at DESC").
		Limit(10).
		Find(&posts)

	return c.JSON(fiber.Map{
		"success": true,
		"lake":    lake,
		"posts":   posts,
	})
}

// GetFishSpecies returns the fish species catalog.
func GetFishSpecies(c *fiber.Ctx) error {
	db := database.GetDB()

	var species []models.FishSpecies
	if err := db.Order("name").Find(&species).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch fish species"})
	}

	return c.JSON(fiber.Map{"success": true, "species": species})
}
