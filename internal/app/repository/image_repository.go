package repository

import (
	"time"

	"github.com/hyeonwoo/placecache/internal/app/model"
	"github.com/hyeonwoo/placecache/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ImageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) WithTx(tx *gorm.DB) *ImageRepository {
	return &ImageRepository{db: tx}
}

// MergeImages inserts photo URLs for a business. The URL is unique across the
// whole store, so duplicates (within the batch or against rows saved for any
// business) are dropped without error.
func (r *ImageRepository) MergeImages(placeID string, urls []string) (int64, error) {
	if len(urls) == 0 {
		return 0, nil
	}

	now := time.Now()
	seen := make(map[string]bool, len(urls))
	rows := make([]model.Image, 0, len(urls))
	for _, url := range urls {
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		rows = append(rows, model.Image{
			PlaceID:     placeID,
			ImageURL:    url,
			ExtractedAt: now,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if result.Error != nil {
		logger.Error("Failed to merge images", result.Error, map[string]interface{}{
			"place_id": placeID,
			"batch":    len(rows),
		})
		return 0, result.Error
	}

	logger.Debug("Images merged", map[string]interface{}{
		"place_id": placeID,
		"batch":    len(rows),
		"inserted": result.RowsAffected,
	})
	return result.RowsAffected, nil
}

// ListByPlaceID returns all stored images for a business
func (r *ImageRepository) ListByPlaceID(placeID string) ([]model.Image, error) {
	var images []model.Image
	err := r.db.Where("place_id = ?", placeID).
		Order("id ASC").
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}
