package models

import "time"

// Crop is a catalog entry with its planting window. StartMonth and EndMonth
// are 1-12; a window may wrap the year end (e.g. October to March).
type Crop struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"unique;not null" json:"name"`
	Category    string    `gorm:"not null" json:"category"`
	Region      string    `json:"region"`
	StartMonth  int       `gorm:"not null" json:"start_month"`
	EndMonth    int       `gorm:"not null" json:"end_month"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// InSeason reports whether the given month (1-12) falls inside the crop's
// planting window, wrap-around windows included.
func (c Crop) InSeason(month int) bool {
	if c.StartMonth <= c.EndMonth {
		return month >= c.StartMonth && month <= c.EndMonth
	}
	return month >= c.StartMonth || month <= c.EndMonth
}
