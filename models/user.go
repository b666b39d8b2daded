// models/user.go
package models

import (
	"time"
)

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Password string `gorm:"not null" json:"-"`

	// Profile
	Name    string `json:"name"`
	Surname string `json:"surname"`
	City    string `json:"city"`

	Role             string    `gorm:"not null;default:'user'" json:"role"` // user, admin
	RegistrationDate time.Time `json:"registration_date"`

	// Progression
	Exp      int     `gorm:"not null;default:0" json:"exp"`
	RankID   *uint   `gorm:"index" json:"rank_id"`
	Rank     *Rank   `gorm:"foreignKey:RankID" json:"rank,omitempty"`
	DesignID uint    `json:"design_id"`
	Design   *Design `gorm:"foreignKey:DesignID" json:"design,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Achievements []UserAchievement `gorm:"foreignKey:UserID" json:"achievements,omitempty"`
	Posts        []Post            `gorm:"foreignKey:UserID" json:"posts,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
