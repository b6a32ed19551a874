package models

import "time"

type Recipe struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Name          string `gorm:"not null;index" json:"name"`
	Description   string `gorm:"type:text" json:"description"`
	TotalServings int    `gorm:"not null;default:1" json:"total_servings"`
	// Nutrients are recipe totals, cached when the recipe is committed.
	Nutrients   `gorm:"embedded"`
	Ingredients []Ingredient `gorm:"-" json:"ingredients"`
	CreatedAt   time.Time    `json:"created_at,omitzero"`
	UpdatedAt   time.Time    `json:"updated_at,omitzero"`
}
