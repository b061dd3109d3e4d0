package repository

import (
	"errors"
	"strconv"
	"time"

	"github.com/hyeonwoo/placecache/internal/app/model"
	"github.com/hyeonwoo/placecache/pkg/logger"
	"gorm.io/gorm"
)

// StoreStats aggregates reporting counters across the whole store. The fresh
// window is fixed at 24h for reporting, independent of caller-supplied maxAge.
type StoreStats struct {
	TotalBusinesses int64   `json:"total_businesses"`
	TotalReviews    int64   `json:"total_reviews"`
	TotalImages     int64   `json:"total_images"`
	AvgQualityScore float64 `json:"avg_quality_score"`
	FreshEntries24h int64   `json:"fresh_entries_24h"`
}

type BusinessRepository interface {
	WithTx(tx *gorm.DB) BusinessRepository
	Upsert(candidate *model.Business, qualityScore *int) (*model.Business, bool, error)
	FindByPlaceID(placeID string) (*model.Business, error)
	Resolve(identifier string) (*model.Business, error)
	Search(fragment string, limit int) ([]model.Business, error)
	EvictOlderThan(cutoff time.Time, batchSize int) (int64, error)
	Stats() (*StoreStats, error)
}

type businessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &businessRepository{db: db}
}

func (r *businessRepository) WithTx(tx *gorm.DB) BusinessRepository {
	return &businessRepository{db: tx}
}

// Upsert inserts a new business row or overwrites every scalar field of the
// existing one (last write wins, the payload blob is always replaced
// wholesale). The stored quality score is only touched when the candidate
// carries one. Returns the persisted row and whether it was newly created.
func (r *businessRepository) Upsert(candidate *model.Business, qualityScore *int) (*model.Business, bool, error) {
	now := time.Now()

	var existing model.Business
	err := r.db.Where("place_id = ?", candidate.PlaceID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		candidate.FirstExtractedAt = now
		candidate.LastUpdatedAt = now
		candidate.UpdateCount = 1
		if qualityScore != nil {
			candidate.QualityScore = *qualityScore
		}

		if err := r.db.Create(candidate).Error; err != nil {
			logger.Error("Failed to create business in database", err, map[string]interface{}{
				"place_id": candidate.PlaceID,
				"name":     candidate.Name,
			})
			return nil, false, err
		}

		logger.Debug("Business created in database", map[string]interface{}{
			"place_id": candidate.PlaceID,
			"name":     candidate.Name,
		})
		return candidate, true, nil
	}
	if err != nil {
		logger.Error("Failed to look up business for upsert", err, map[string]interface{}{
			"place_id": candidate.PlaceID,
		})
		return nil, false, err
	}

	existing.CID = candidate.CID
	existing.Name = candidate.Name
	existing.Phone = candidate.Phone
	existing.Address = candidate.Address
	existing.Latitude = candidate.Latitude
	existing.Longitude = candidate.Longitude
	existing.Category = candidate.Category
	existing.Rating = candidate.Rating
	existing.ReviewCount = candidate.ReviewCount
	existing.Website = candidate.Website
	existing.Hours = candidate.Hours
	existing.PriceRange = candidate.PriceRange
	existing.Payload = candidate.Payload
	existing.ExtractionSource = candidate.ExtractionSource
	if qualityScore != nil {
		existing.QualityScore = *qualityScore
	}
	existing.LastUpdatedAt = now
	existing.UpdateCount++

	if err := r.db.Save(&existing).Error; err != nil {
		logger.Error("Failed to update business in database", err, map[string]interface{}{
			"place_id": existing.PlaceID,
		})
		return nil, false, err
	}

	logger.Debug("Business updated in database", map[string]interface{}{
		"place_id":     existing.PlaceID,
		"update_count": existing.UpdateCount,
	})
	return &existing, false, nil
}

func (r *businessRepository) FindByPlaceID(placeID string) (*model.Business, error) {
	var business model.Business
	err := r.db.Where("place_id = ?", placeID).First(&business).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &business, nil
}

// Resolve maps an identifier to at most one row. Precedence: place_id exact
// match, then cid exact match for numeric identifiers, then the most recently
// updated row whose name contains the identifier as a substring. A nil row
// with a nil error is a miss.
func (r *businessRepository) Resolve(identifier string) (*model.Business, error) {
	business, err := r.FindByPlaceID(identifier)
	if err != nil {
		return nil, err
	}
	if business != nil {
		return business, nil
	}

	if cid, convErr := strconv.ParseInt(identifier, 10, 64); convErr == nil {
		var byCID model.Business
		err := r.db.Where("cid = ?", cid).First(&byCID).Error
		if err == nil {
			return &byCID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var byName model.Business
	err = r.db.Where("name LIKE ?", "%"+identifier+"%").
		Order("last_updated_at DESC").
		First(&byName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &byName, nil
}

func (r *businessRepository) Search(fragment string, limit int) ([]model.Business, error) {
	logger.Debug("Searching businesses", map[string]interface{}{
		"fragment": fragment,
		"limit":    limit,
	})

	like := "%" + fragment + "%"
	var businesses []model.Business
	err := r.db.Where("name LIKE ? OR address LIKE ? OR category LIKE ?", like, like, like).
		Order("last_updated_at DESC").
		Limit(limit).
		Find(&businesses).Error
	if err != nil {
		logger.Error("Failed to search businesses", err, map[string]interface{}{
			"fragment": fragment,
		})
		return nil, err
	}
	return businesses, nil
}

// EvictOlderThan hard-deletes businesses whose last_updated_at is before
// cutoff, cascading to their reviews and images. Deletes run in batches so a
// large eviction does not hold the write path for its whole duration.
// Extraction history is retained: it logs extractor behavior over time and
// its lifetime is independent of the cached rows.
func (r *businessRepository) EvictOlderThan(cutoff time.Time, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	var total int64
	for {
		var placeIDs []string
		err := r.db.Model(&model.Business{}).
			Where("last_updated_at < ?", cutoff).
			Order("last_updated_at ASC").
			Limit(batchSize).
			Pluck("place_id", &placeIDs).Error
		if err != nil {
			return total, err
		}
		if len(placeIDs) == 0 {
			break
		}

		err = r.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("place_id IN ?", placeIDs).Delete(&model.Review{}).Error; err != nil {
				return err
			}
			if err := tx.Where("place_id IN ?", placeIDs).Delete(&model.Image{}).Error; err != nil {
				return err
			}
			return tx.Where("place_id IN ?", placeIDs).Delete(&model.Business{}).Error
		})
		if err != nil {
			logger.Error("Failed to evict stale businesses", err, map[string]interface{}{
				"batch_size": len(placeIDs),
			})
			return total, err
		}

		total += int64(len(placeIDs))
	}

	logger.Info("Evicted stale businesses", map[string]interface{}{
		"cutoff":  cutoff,
		"deleted": total,
	})
	return total, nil
}

func (r *businessRepository) Stats() (*StoreStats, error) {
	stats := &StoreStats{}

	if err := r.db.Model(&model.Business{}).Count(&stats.TotalBusinesses).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.Review{}).Count(&stats.TotalReviews).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.Image{}).Count(&stats.TotalImages).Error; err != nil {
		return nil, err
	}

	if stats.TotalBusinesses > 0 {
		if err := r.db.Model(&model.Business{}).
			Select("AVG(quality_score)").
			Scan(&stats.AvgQualityScore).Error; err != nil {
			return nil, err
		}
	}

	if err := r.db.Model(&model.Business{}).
		Where("last_updated_at > ?", time.Now().Add(-24*time.Hour)).
		Count(&stats.FreshEntries24h).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
