// models/rank.go
package models

import "time"

// Rank is a named tier a user reaches at an experience threshold.
// Thresholds are unique; ranks form a total order by MinExp.
type Rank struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"not null" json:"name"`
	MinExp int    `gorm:"not null;uniqueIndex" json:"min_exp"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Rank) TableName() string {
	return "ranks"
}
