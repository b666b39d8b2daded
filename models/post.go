// models/post.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Post is one catch report: where the user fished and what was caught.
type Post struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;index" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	LakeID uint   `gorm:"not null;index" json:"lake_id"`
	Lake   *Lake  `gorm:"foreignKey:LakeID" json:"lake,omitempty"`
	Title  string `gorm:"not null" json:"title"`
	Body   string `gorm:"type:text" json:"body"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Fish []Fish `gorm:"foreignKey:PostID" json:"fish,omitempty"`
}

func (Post) TableName() string {
	return "posts"
}

// Fish is a single caught fish attached to a post. Weight is kilograms with
// two decimal places; decimal storage keeps repeated aggregation exact.
type Fish struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	PostID    uint            `gorm:"not null;index" json:"post_id"`
	SpeciesID uint            `gorm:"not null;index" json:"species_id"`
	Species   *FishSpecies    `gorm:"foreignKey:SpeciesID" json:"species,omitempty"`
	Weight    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"weight"`

	CreatedAt time.Time `json:"created_at"`
}

func (Fish) TableName() string {
	return "fish"
}
