// handlers/admin/users.go - User administration
package admin

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MantasDr/frontas/database"
	"github.com/MantasDr/frontas/models"
)

// GetUsers lists users with their ranks.
// GET /api/admin/users?limit=50&offset=0
func GetUsers(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	db := database.GetDB()

	var users []models.User
	if err := db.Preload("Rank").
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch users"})
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

// DeleteUser removes a user and everything they own.
func DeleteUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	db := database.GetDB()

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Exec("DELETE FROM fish WHERE post_id IN (SELECT id FROM posts WHERE user_id = ?)", user.ID).Error; err != nil {
		tx.Rollback()
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete user"})
	}
	if err := tx.Where("user_id = ?", user.ID).Delete(&models.Post{}).Error; err != nil {
		tx.Rollback()
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete user"})
	}
	if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserAchievement{}).Error; err != nil {
		tx.Rollback()
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete user"})
	}
	if err := tx.Delete(&user).Error; err != nil {
		tx.Rollback()
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete user"})
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to commit transaction"})
	}

	return c.JSON(fiber.Map{"success": true})
}
