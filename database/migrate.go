// database/migrate.go - Database Migration Runner
package database

import (
	"log"

	"github.com/MantasDr/frontas/models"
)

// RunMigrations runs all database migrations
func RunMigrations() {
	db := GetDB()
	log.Println("🔄 Running database migrations...")

	if err := db.AutoMigrate(
		&models.Design{},
		&models.Rank{},
		&models.User{},
		&models.Lake{},
		&models.FishSpecies{},
		&models.Post{},
		&models.Fish{},
		&models.Achievement{},
		&models.UserAchievement{},
	); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}

	createIndexes()

	log.Println("✅ Migrations completed")
}

// createIndexes creates indexes AutoMigrate does not cover
func createIndexes() {
	db := GetDB()

	// Leaderboard and sweep ordering
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_exp ON users(exp DESC)")

	// Feed ordering
	db.Exec("CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_at DESC)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_posts_user ON posts(user_id)")

	// Aggregation joins
	db.Exec("CREATE INDEX IF NOT EXISTS idx_fish_post ON fish(post_id)")
}
