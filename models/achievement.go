// models/achievement.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Achievement is an unlockable reward. A threshold field is configured when
// it is greater than zero; the achievement unlocks when ANY configured
// threshold is met (OR across fields).
type Achievement struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"not null;uniqueIndex" json:"name"`
	Prize string `json:"prize"`

	// Thresholds over per-user activity aggregates
	MinPosts  int             `gorm:"not null;default:0" json:"min_posts"`
	MinFish   int             `gorm:"not null;default:0" json:"min_fish"`
	MinWeight decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"min_weight"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// HasConditions reports whether at least one threshold field is configured.
// A definition with no configured field can never unlock and is treated as a
// configuration error by the evaluator.
func (a *Achievement) HasConditions() bool {
	return a.MinPosts > 0 || a.MinFish > 0 || a.MinWeight.IsPositive()
}

// UserAchievement records that a user has been granted an achievement.
// The composite unique index makes unlocking idempotent at the persistence
// boundary: a second insert for the same pair is rejected, not duplicated.
type UserAchievement struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_user_achievement" json:"user_id"`
	AchievementID uint      `gorm:"not null;uniqueIndex:idx_user_achievement" json:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`

	// Relationships
	User        *User        `gorm:"foreignKey:UserID" json:"-"`
	Achievement *Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}
