package model

import "time"

// Review is one extracted customer review. Reviews accumulate append-only;
// the composite unique index is the dedup key, replays are dropped silently.
type Review struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	PlaceID string `gorm:"not null;index:idx_review_dedup,unique" json:"place_id"`

	Reviewer   string `gorm:"index:idx_review_dedup,unique" json:"reviewer"`
	Rating     string `gorm:"type:varchar(30);index:idx_review_dedup,unique" json:"rating"` // free text, as extracted
	Text       string `gorm:"type:text;index:idx_review_dedup,unique" json:"text"`
	ReviewDate string `gorm:"type:varchar(60);index:idx_review_dedup,unique" json:"review_date"` // free text, as extracted

	ExtractedAt time.Time `json:"extracted_at"`
}

func (Review) TableName() string {
	return "reviews"
}
