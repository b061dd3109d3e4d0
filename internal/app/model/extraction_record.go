package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExtractionRecord is an append-only log row, one per save attempt. Rows are
// never updated and survive eviction of their parent business, so extraction
// analytics keep working after the cached data itself is gone.
type ExtractionRecord struct {
	ID      string `gorm:"type:varchar(36);primarykey" json:"id"`
	PlaceID string `gorm:"index" json:"place_id"`

	ExtractionTimeSeconds float64 `json:"extraction_time_seconds"`
	QualityScore          int     `json:"quality_score"`
	ExtractorVersion      string  `gorm:"type:varchar(60)" json:"extractor_version"`
	Success               bool    `json:"success"`

	CreatedAt time.Time `json:"created_at"`
}

func (ExtractionRecord) TableName() string {
	return "extraction_records"
}

// BeforeCreate assigns the record ID
func (r *ExtractionRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
