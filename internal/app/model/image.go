package model

import "time"

// Image is one extracted photo reference. The URL is unique across the whole
// store; the same photo is never linked to two businesses.
type Image struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	PlaceID string `gorm:"not null;index" json:"place_id"`

	ImageURL   string `gorm:"uniqueIndex;not null" json:"image_url"`
	Resolution string `gorm:"type:varchar(20)" json:"resolution,omitempty"`

	ExtractedAt time.Time `json:"extracted_at"`
}

func (Image) TableName() string {
	return "images"
}
