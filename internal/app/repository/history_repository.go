package repository

import (
	"github.com/hyeonwoo/placecache/internal/app/model"
	"github.com/hyeonwoo/placecache/pkg/logger"
	"gorm.io/gorm"
)

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) WithTx(tx *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: tx}
}

// Append records one save attempt. History rows are immutable; failed
// submissions are recorded too, with Success=false.
func (r *HistoryRepository) Append(record *model.ExtractionRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		logger.Error("Failed to append extraction history", err, map[string]interface{}{
			"place_id": record.PlaceID,
			"success":  record.Success,
		})
		return err
	}
	return nil
}

// ListByPlaceID returns the newest history entries for a business
func (r *HistoryRepository) ListByPlaceID(placeID string, limit int) ([]model.ExtractionRecord, error) {
	var records []model.ExtractionRecord
	query := r.db.Where("place_id = ?", placeID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// CountByPlaceID returns how many save attempts were logged for a business
func (r *HistoryRepository) CountByPlaceID(placeID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.ExtractionRecord{}).Where("place_id = ?", placeID).Count(&count).Error
	return count, err
}
