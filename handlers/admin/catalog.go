// handlers/admin/catalog.go - Lake and fish species administration
package admin

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MantasDr/frontas/database"
	"github.com/MantasDr/frontas/models"
)

type LakeRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Description string  `json:"description" validate:"max=2000"`
	Latitude    float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude   float64 `json:"longitude" validate:"min=-180,max=180"`
}

type FishSpeciesRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

// CreateLake adds a lake to the catalog.
func CreateLake(c *fiber.Ctx) error {
	var req LakeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid lake data"})
	}

	lake := models.Lake{
		Name:        req.Name,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}

	db := database.GetDB()
	if err := db.Create(&lake).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to create lake"})
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "lake": lake})
}

// UpdateLake edits a lake.
func UpdateLake(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid lake ID"})
	}

	var req LakeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid lake data"})
	}

	db := database.GetDB()

	var lake models.Lake
	if err := db.First(&lake, id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Lake not found"})
	}

	lake.Name = req.Name
	lake.Description = req.Description
	lake.Latitude = req.Latitude
	lake.Longitude = req.Longitude

	if err := db.Save(&lake).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update lake"})
	}

	return c.JSON(fiber.Map{"success": true, "lake": lake})
}

// DeleteLake removes a lake that has no posts.
func DeleteLake(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid lake ID"})
	}

	db := database.GetDB()

	var postCount int64
	db.Model(&models.Post{}).Where("lake_id = ?", id).Count(&postCount)
	if postCount > 0 {
		return c.Status(409).JSON(fiber.Map{"error": "Lake has posts and cannot be removed"})
	}

	if err := db.Delete(&models.Lake{}, id).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete lake"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// CreateFishSpecies adds a species to the catalog.
func CreateFishSpecies(c *fiber.Ctx) error {
	var req FishSpeciesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid species data"})
	}

	species := models.FishSpecies{Name: req.Name, Description: req.Description}

	db := database.GetDB()
	if err := db.Create(&species).Error; err != nil {
		return c.Status(409).JSON(fiber.Map{"error": "A species with this name already exists"})
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "species": species})
}

// UpdateFishSpecies edits a species.
func UpdateFishSpecies(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid species ID"})
	}

	var req FishSpeciesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid species data"})
	}

	db := database.GetDB()

	var species models.FishSpecies
	if err := db.First(&species, id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Species not found"})
	}

	species.Name = req.Name
	species.Description = req.Description

	if err := db.Save(&species).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update species"})
	}

	return c.JSON(fiber.Map{"success": true, "species": species})
}

// DeleteFishSpecies removes a species with no recorded catches.
func DeleteFishSpecies(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid species ID"})
	}

	db := database.GetDB()

	var caught int64
	db.Model(&models.Fish{}).Where("species_id = ?", id).Count(&caught)
	if caught > 0 {
		return c.Status(409).JSON(fiber.Map{"error": "Species has recorded catches and cannot be removed"})
	}

	if err := db.Delete(&models.FishSpecies{}, id).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete species"})
	}

	return c.JSON(fiber.Map{"success": true})
}
