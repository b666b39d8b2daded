// handlers/progression.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MantasDr/frontas/database"
	"github.com/MantasDr/frontas/middleware"
	"github.com/MantasDr/frontas/models"
	"github.com/MantasDr/frontas/services"
)

// GetProgression returns the caller's activity aggregates, current rank and
// distance to the next rank.
func GetProgression(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	svc := services.GetProgressionService()
	if svc == nil {
		return c.Status(500).JSON(fiber.Map{"error": "Progression service unavailable"})
	}

	agg, err := svc.Aggregate(userID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to compute progression"})
	}

	db := database.GetDB()

	var user models.User
	if err := db.Preload("Rank").First(&user, userID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}

	response := fiber.Map{
		"success":     true,
		"exp":         agg.Exp,
		"post_count":  agg.PostCount,
		"fish_count":  agg.FishCount,
		"fish_weight": agg.FishWeight,
		"rank":        user.Rank,
	}

	// Next rank on the ladder, if any
	var next models.Rank
	if err := db.Where("min_exp > ?", agg.Exp).Order("min_exp").First(&next).Error; err == nil {
		response["next_rank"] = next
		response["exp_to_next_rank"] = next.MinExp - agg.Exp
	}

	return c.JSON(response)
}

// GetUserAchievements returns every achievement definition with the caller's
// unlocked state.
func GetUserAchievements(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()

	var unlocked []models.UserAchievement
	if err := db.Where("user_id = ?", userID).Order("unlocked_at DESC").Find(&unlocked).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch achievements"})
	}

	var all []models.Achievement
	if err := db.Find(&all).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch achievements"})
	}

	unlockedMap := make(map[uint]models.UserAchievement, len(unlocked))
	for _, ua := range unlocked {
		unlockedMap[ua.AchievementID] = ua
	}

	achievements := make([]fiber.Map, 0, len(all))
	for _, a := range all {
		entry := fiber.Map{
			"id":         a.ID,
			"name":       a.Name,
			"prize":      a.Prize,
			"min_posts":  a.MinPosts,
			"min_fish":   a.MinFish,
			"min_weight": a.MinWeight,
			"unlocked":   false,
		}
		if ua, ok := unlockedMap[a.ID]; ok {
			entry["unlocked"] = true
			entry["unlocked_at"] = ua.UnlockedAt
		}
		achievements = append(achievements, entry)
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"achievements": achievements,
		"total":        len(all),
		"unlocked":     len(unlocked),
	})
}
