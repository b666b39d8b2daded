// models/models.go - Catalog models (lakes, fish species, profile designs)
package models

import "time"

// Lake is a fishing spot shown on the map. Coordinates are stored here;
// rendering is the frontend's business.
type Lake struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"not null" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FishSpecies is a catalog entry anglers pick from when reporting a catch.
type FishSpecies struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"not null;uniqueIndex" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	CreatedAt time.Time `json:"created_at"`
}

// Design is a profile appearance theme. Registration assigns the default one.
type Design struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"not null" json:"name"`
	Color string `json:"color"`
}

func (Lake) TableName() string {
	return "lakes"
}

func (FishSpecies) TableName() string {
	return "fish_species"
}

func (Design) TableName() string {
	return "designs"
}
