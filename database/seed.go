// database/seed.go - Default rows required by registration and progression
package database

import (
	"log"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MantasDr/frontas/models"
)

// Seed inserts the default design, rank ladder and starter achievements.
// Inserts are idempotent: existing rows are left untouched.
func Seed() {
	db := GetDB()

	if err := seedDesigns(db); err != nil {
		log.Fatalf("❌ Failed to seed designs: %v", err)
	}
	if err := seedRanks(db); err != nil {
		log.Fatalf("❌ Failed to seed ranks: %v", err)
	}
	if err := seedAchievements(db); err != nil {
		log.Fatalf("❌ Failed to seed achievements: %v", err)
	}

	log.Println("✅ Seed data in place")
}

func seedDesigns(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Design{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	// Registration assigns design ID 1 as the default
	return db.Create(&models.Design{Name: "Classic", Color: "#1f6feb"}).Error
}

func seedRanks(db *gorm.DB) error {
	ranks := []models.Rank{
		{Name: "Beginner", MinExp: 0},
		{Name: "Intermediate", MinExp: 100},
		{Name: "Pro", MinExp: 500},
		{Name: "Expert", MinExp: 1000},
		{Name: "Master", MinExp: 2000},
	}

	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&ranks).Error
}

func seedAchievements(db *gorm.DB) error {
	achievements := []models.Achievement{
		{Name: "First Catch", Prize: "Bronze hook pin", MinPosts: 1},
		{Name: "Post Master", Prize: "Silver hook pin", MinPosts: 5},
		{Name: "Fisherman", Prize: "Landing net", MinFish: 10},
		{Name: "Heavy Hauler", Prize: "Boga grip", MinWeight: decimal.NewFromInt(25)},
		{Name: "Lake Legend", Prize: "Golden lure", MinPosts: 50, MinFish: 200},
	}

	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&achievements).Error
}
