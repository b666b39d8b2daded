// handlers/posts.go
package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MantasDr/frontas/database"
	"github.com/MantasDr/frontas/middleware"
	"github.com/MantasDr/frontas/models"
	"github.com/MantasDr/frontas/services"
)

// Experience awarded for activity; the progression engine only reads the
// resulting total, it never writes experience itself.
const (
	expPerPost = 10
	expPerFish = 5
)

type CaughtFishRequest struct {
	SpeciesID uint            `json:"species_id" validate:"required"`
	Weight    decimal.Decimal `json:"weight"`
}

type CreatePostRequest struct {
	LakeID uint                `json:"lake_id" validate:"required"`
	Title  string              `json:"title" validate:"required,min=3,max=200"`
	Body   string              `json:"body" validate:"max=5000"`
	Fish   []CaughtFishRequest `json:"fish" validate:"dive"`
}

// GetPosts returns the feed, newest first.
// GET /api/posts?limit=20&offset=0
func GetPosts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	db := database.GetDB()

	var posts []models.Post
	if err := db.Preload("User").Preload("Lake").Preload("Fish.Species").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch posts"})
	}

	// Don't leak credentials through the preloaded author
	for i := range posts {
		if posts[i].User != nil {
			posts[i].User.Password = ""
		}
	}

	var total int64
	db.Model(&models.Post{}).Count(&total)

	return c.JSON(fiber.Map{
		"success": true,
		"posts":   posts,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// CreatePost records a catch report, awards experience and synchronously
// re-evaluates the author's rank and achievements (the event-triggered
// progression path).
func CreatePost(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid post data"})
	}
	for _, f := range req.Fish {
		if !f.Weight.IsPositive() {
			return c.Status(400).JSON(fiber.Map{"error": "Fish weight must be positive"})
		}
	}

	db := database.GetDB()

	var lake models.Lake
	if err := db.First(&lake, req.LakeID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Lake not found"})
	}

	post := models.Post{
		UserID:    userID,
		LakeID:    req.LakeID,
		Title:     req.Title,
		Body:      req.Body,
		CreatedAt: time.Now(),
	}
	for _, f := range req.Fish {
		post.Fish = append(post.Fish, models.Fish{
			SpeciesID: f.SpeciesID,
			Weight:    f.Weight,
		})
	}

	expGained := expPerPost + expPerFish*len(req.Fish)

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&post).Error; err != nil {
		tx.Rollback()
		return c.Status(500).JSON(fiber.Map{"error": "Failed to create post"})
	}

	if err := tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("exp", gorm.Expr("exp + ?", expGained)).Error; err != nil {
		tx.Rollback()
		return c.Status(500).JSON(fiber.Map{"error": "Failed to award experience"})
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to commit transaction"})
	}

	// Event-triggered progression run. A failure here is not the poster's
	// problem: the periodic sweep reconciles on the next tick.
	if svc := services.GetProgressionService(); svc != nil {
		if err := svc.RunForUser(userID); err != nil {
			log.Printf("progression run after post %d failed: %v", post.ID, err)
		}
	}

	return c.Status(201).JSON(fiber.Map{
		"success":    true,
		"post":       post,
		"exp_gained": expGained,
	})
}

// DeletePost removes the caller's own post (admins may remove any).
func DeletePost(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	postID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid post ID"})
	}

	db := database.GetDB()

	var post models.Post
	if err := db.First(&post, postID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Post not found"})
	}

	if post.UserID != userID && middleware.GetRole(c) != "admin" {
		return c.Status(403).JSON(fiber.Map{"error": "Not your post"})
	}

	if err := db.Where("post_id = ?", post.ID).Delete(&models.Fish{}).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete post"})
	}
	if err := db.Delete(&post).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete post"})
	}

	return c.JSON(fiber.Map{"success": true})
}
