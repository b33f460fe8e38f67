package models

import "time"

type Course struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Title          string    `gorm:"unique;not null" json:"title"`
	Category       string    `gorm:"not null" json:"category"`
	Level          string    `gorm:"not null" json:"level"` // beginner, intermediate, advanced
	Description    string    `json:"description"`
	DurationWeeks  int       `json:"duration_weeks"`
	BannerImageURL string    `json:"banner_image_url"`
	Featured       bool      `json:"featured"`
	CreatedAt      time.Time `json:"created_at"`
}
