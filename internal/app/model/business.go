package model

import (
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// JSONMap stores an arbitrary JSON object in a single TEXT column
type JSONMap map[string]interface{}

// Value implements the database/sql/driver.Valuer interface
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements the database/sql.Scanner interface
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan JSONMap")
	}

	return json.Unmarshal(bytes, m)
}

// Business is one cached business row, keyed by PlaceID. Scalar fields are
// overwritten wholesale on every re-save; Payload always carries the full
// extraction as it was submitted.
type Business struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	PlaceID string `gorm:"uniqueIndex;not null" json:"place_id"`
	CID     *int64 `gorm:"index" json:"cid,omitempty"` // secondary numeric identifier, when the producer supplies one

	Name        string   `gorm:"index;not null" json:"name"`
	Phone       string   `gorm:"type:varchar(30)" json:"phone"`
	Address     string   `gorm:"type:text" json:"address"`
	Latitude    *float64 `gorm:"type:decimal(10,8)" json:"latitude"`
	Longitude   *float64 `gorm:"type:decimal(11,8)" json:"longitude"`
	Category    string   `gorm:"index" json:"category"`
	Rating      string   `gorm:"type:varchar(30)" json:"rating"` // raw text, e.g. "4.5 stars" or "Unrated"
	ReviewCount int      `json:"review_count"`
	Website     string   `json:"website"`
	Hours       string   `gorm:"type:text" json:"hours"`
	PriceRange  string   `gorm:"type:varchar(20)" json:"price_range"`

	Payload JSONMap `gorm:"type:text" json:"payload"` // complete extraction blob

	QualityScore     int       `json:"quality_score"` // 0-100
	ExtractionSource string    `gorm:"type:varchar(60)" json:"extraction_source"`
	FirstExtractedAt time.Time `json:"first_extracted_at"`
	LastUpdatedAt    time.Time `gorm:"index" json:"last_updated_at"`
	UpdateCount      int       `gorm:"default:1" json:"update_count"`
}

func (Business) TableName() string {
	return "businesses"
}

// DerivePlaceID builds a stable identifier from name, address and phone so
// that repeated submissions of the same physical business collapse to one
// row even when the producer supplies no place_id.
func DerivePlaceID(name, address, phone string) string {
	key := strings.Join([]string{
		strings.TrimSpace(strings.ToLower(name)),
		strings.TrimSpace(strings.ToLower(address)),
		strings.TrimSpace(phone),
	}, "|")
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("gen-%s", hex.EncodeToString(hash[:])[:16])
}
