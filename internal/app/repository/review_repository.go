package repository

import (
	"time"

	"github.com/hyeonwoo/placecache/internal/app/model"
	"github.com/hyeonwoo/placecache/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) WithTx(tx *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: tx}
}

// MergeReviews inserts the batch for a business, silently dropping rows that
// hit the dedup key. Replaying the same batch any number of times leaves the
// stored set unchanged. Returns how many rows were actually inserted.
func (r *ReviewRepository) MergeReviews(placeID string, reviews []model.ReviewInput) (int64, error) {
	if len(reviews) == 0 {
		return 0, nil
	}

	now := time.Now()
	rows := make([]model.Review, 0, len(reviews))
	for _, in := range reviews {
		rows = append(rows, model.Review{
			PlaceID:     placeID,
			Reviewer:    in.Reviewer,
			Rating:      in.Rating,
			Text:        in.Text,
			ReviewDate:  in.ReviewDate,
			ExtractedAt: now,
		})
	}

	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if result.Error != nil {
		logger.Error("Failed to merge reviews", result.Error, map[string]interface{}{
			"place_id": placeID,
			"batch":    len(rows),
		})
		return 0, result.Error
	}

	logger.Debug("Reviews merged", map[string]interface{}{
		"place_id": placeID,
		"batch":    len(rows),
		"inserted": result.RowsAffected,
	})
	return result.RowsAffected, nil
}

// ListByPlaceID returns all stored reviews for a business, oldest first
func (r *ReviewRepository) ListByPlaceID(placeID string) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.Where("place_id = ?", placeID).
		Order("id ASC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// CountByPlaceID returns the stored review count for a business
func (r *ReviewRepository) CountByPlaceID(placeID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Review{}).Where("place_id = ?", placeID).Count(&count).Error
	return count, err
}
