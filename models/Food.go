package models

import "time"

// Food is a single catalog entry describing nutrition for one reference serving.
type Food struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"not null;index" json:"name"`
	ServingSize float64 `gorm:"not null" json:"serving_size"`
	ServingUnit string  `gorm:"type:varchar(16);not null;default:g" json:"serving_unit"`
	Nutrients   `gorm:"embedded"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}
