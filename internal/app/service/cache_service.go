package service

import (
	"fmt"
	"io"
	"time"

	"github.com/hyeonwoo/placecache/internal/app/model"
	"github.com/hyeonwoo/placecache/internal/app/repository"
	"github.com/hyeonwoo/placecache/internal/export"
	"github.com/hyeonwoo/placecache/pkg/keylock"
	"github.com/hyeonwoo/placecache/pkg/logger"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

// MissReason distinguishes why a lookup returned no record. Callers see both
// as the same Miss; the reason is kept for logging.
type MissReason string

const (
	MissNotFound MissReason = "not_found"
	MissStale    MissReason = "stale"
)

// CacheMetadata annotates a cache hit
type CacheMetadata struct {
	Cached        bool      `json:"cached"`
	LastUpdated   time.Time `json:"last_updated"`
	UpdateCount   int       `json:"update_count"`
	CacheAgeHours float64   `json:"cache_age_hours"`
}

// GetResult is the outcome of a cache lookup
type GetResult struct {
	Hit    bool                   `json:"hit"`
	Reason MissReason             `json:"reason,omitempty"`
	Record map[string]interface{} `json:"record,omitempty"`
}

// SaveStatus reports what a save attempt did
type SaveStatus string

const (
	SaveStatusSaved   SaveStatus = "saved"
	SaveStatusSkipped SaveStatus = "skipped"
)

// SaveResult is the outcome of submitting an extraction
type SaveResult struct {
	Status       SaveStatus `json:"status"`
	PlaceID      string     `json:"place_id"`
	Created      bool       `json:"created"`
	UpdateCount  int        `json:"update_count"`
	QualityScore int        `json:"quality_score"`
	NewReviews   int64      `json:"new_reviews"`
	NewImages    int64      `json:"new_images"`
}

// SearchResult is one row of a fragment search
type SearchResult struct {
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	Phone         string    `json:"phone"`
	Category      string    `json:"category"`
	Rating        string    `json:"rating"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

const statsCacheKey = "store_stats"

// CacheService is the single entry point for producers and consumers of the
// cache. Saves for the same place_id serialize on a per-key lock and run in
// one transaction, so readers never observe a partially written row.
type CacheService struct {
	db            *gorm.DB
	businessRepo  repository.BusinessRepository
	reviewRepo    *repository.ReviewRepository
	imageRepo     *repository.ImageRepository
	historyRepo   *repository.HistoryRepository
	locks         *keylock.KeyLock
	memo          *gocache.Cache
	statsTTL      time.Duration
	evictionBatch int
}

func NewCacheService(
	db *gorm.DB,
	businessRepo repository.BusinessRepository,
	reviewRepo *repository.ReviewRepository,
	imageRepo *repository.ImageRepository,
	historyRepo *repository.HistoryRepository,
	statsTTL time.Duration,
	evictionBatch int,
) *CacheService {
	if statsTTL <= 0 {
		statsTTL = 30 * time.Second
	}
	if evictionBatch <= 0 {
		evictionBatch = 500
	}
	return &CacheService{
		db:            db,
		businessRepo:  businessRepo,
		reviewRepo:    reviewRepo,
		imageRepo:     imageRepo,
		historyRepo:   historyRepo,
		locks:         keylock.New(),
		memo:          gocache.New(statsTTL, 2*statsTTL),
		statsTTL:      statsTTL,
		evictionBatch: evictionBatch,
	}
}

// Get resolves an identifier (place_id, cid, or name fragment) and returns
// the assembled record when the row is fresh within maxAge. A missing or
// stale row is a Miss, never an error.
func (s *CacheService) Get(identifier string, maxAge time.Duration) (*GetResult, error) {
	business, err := s.businessRepo.Resolve(identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve identifier: %w", err)
	}
	if business == nil {
		logger.Debug("Cache miss", map[string]interface{}{
			"identifier": identifier,
			"reason":     MissNotFound,
		})
		return &GetResult{Hit: false, Reason: MissNotFound}, nil
	}

	age := time.Since(business.LastUpdatedAt)
	if age > maxAge {
		logger.Debug("Cache miss", map[string]interface{}{
			"identifier": identifier,
			"place_id":   business.PlaceID,
			"reason":     MissStale,
			"age_hours":  age.Hours(),
		})
		return &GetResult{Hit: false, Reason: MissStale}, nil
	}

	record, err := s.assembleRecord(business, age)
	if err != nil {
		return nil, err
	}

	logger.Debug("Cache hit", map[string]interface{}{
		"identifier":   identifier,
		"place_id":     business.PlaceID,
		"update_count": business.UpdateCount,
	})
	return &GetResult{Hit: true, Record: record}, nil
}

// assembleRecord merges the stored payload with the current review and image
// sets, which may be richer than any single extraction thanks to incremental
// merges.
func (s *CacheService) assembleRecord(business *model.Business, age time.Duration) (map[string]interface{}, error) {
	record := make(map[string]interface{}, len(business.Payload)+4)
	for k, v := range business.Payload {
		record[k] = v
	}
	if len(record) == 0 {
		record["place_id"] = business.PlaceID
		record["name"] = business.Name
		record["phone"] = business.Phone
		record["address"] = business.Address
		record["category"] = business.Category
		record["rating"] = business.Rating
	}

	reviews, err := s.reviewRepo.ListByPlaceID(business.PlaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	reviewList := make([]model.ReviewInput, 0, len(reviews))
	for _, review := range reviews {
		reviewList = append(reviewList, model.ReviewInput{
			Reviewer:   review.Reviewer,
			Rating:     review.Rating,
			Text:       review.Text,
			ReviewDate: review.ReviewDate,
		})
	}

	images, err := s.imageRepo.ListByPlaceID(business.PlaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}
	photos := make([]string, 0, len(images))
	for _, image := range images {
		photos = append(photos, image.ImageURL)
	}

	record["reviews"] = reviewList
	record["photos"] = photos
	record["image_count"] = len(photos)
	record["cache_metadata"] = CacheMetadata{
		Cached:        true,
		LastUpdated:   business.LastUpdatedAt,
		UpdateCount:   business.UpdateCount,
		CacheAgeHours: age.Hours(),
	}
	return record, nil
}

// Save persists an extraction. Submissions the producer marked as failed are
// skipped (not an error): no business row is created or mutated, only a
// failed history entry is appended. Successful submissions upsert the
// business, merge reviews and images, and append history in one transaction
// under the per-key lock.
func (s *CacheService) Save(extraction *model.BusinessExtraction) (*SaveResult, error) {
	placeID := extraction.ResolvePlaceID()

	if !extraction.Success {
		record := &model.ExtractionRecord{
			PlaceID:               placeID,
			ExtractionTimeSeconds: extraction.ExtractionTimeSeconds,
			ExtractorVersion:      extraction.ExtractorVersion,
			Success:               false,
		}
		if err := s.historyRepo.Append(record); err != nil {
			logger.Warn("Failed to record rejected extraction", map[string]interface{}{
				"place_id": placeID,
				"error":    err.Error(),
			})
		}
		logger.Info("Extraction rejected, nothing persisted", map[string]interface{}{
			"place_id": placeID,
		})
		return &SaveResult{Status: SaveStatusSkipped, PlaceID: placeID}, nil
	}

	payload, err := extraction.ToPayload()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize extraction payload: %w", err)
	}

	candidate := &model.Business{
		PlaceID:          placeID,
		CID:              extraction.CID,
		Name:             extraction.Name,
		Phone:            extraction.Phone,
		Address:          extraction.Address,
		Latitude:         extraction.Latitude,
		Longitude:        extraction.Longitude,
		Category:         extraction.Category,
		Rating:           extraction.Rating,
		ReviewCount:      extraction.ReviewCount,
		Website:          extraction.Website,
		Hours:            extraction.Hours,
		PriceRange:       extraction.PriceRange,
		Payload:          payload,
		ExtractionSource: extraction.ExtractorVersion,
	}

	s.locks.Lock(placeID)
	defer s.locks.Unlock(placeID)

	result := &SaveResult{Status: SaveStatusSaved, PlaceID: placeID}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		business, created, err := s.businessRepo.WithTx(tx).Upsert(candidate, extraction.DataQualityScore)
		if err != nil {
			return err
		}
		result.Created = created
		result.UpdateCount = business.UpdateCount
		result.QualityScore = business.QualityScore

		inserted, err := s.reviewRepo.WithTx(tx).MergeReviews(placeID, extraction.Reviews)
		if err != nil {
			return err
		}
		result.NewReviews = inserted

		inserted, err = s.imageRepo.WithTx(tx).MergeImages(placeID, extraction.Photos)
		if err != nil {
			return err
		}
		result.NewImages = inserted

		return s.historyRepo.WithTx(tx).Append(&model.ExtractionRecord{
			PlaceID:               placeID,
			ExtractionTimeSeconds: extraction.ExtractionTimeSeconds,
			QualityScore:          business.QualityScore,
			ExtractorVersion:      extraction.ExtractorVersion,
			Success:               true,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save extraction: %w", err)
	}

	s.memo.Delete(statsCacheKey)

	logger.Info("Extraction saved", map[string]interface{}{
		"place_id":     placeID,
		"created":      result.Created,
		"update_count": result.UpdateCount,
		"new_reviews":  result.NewReviews,
		"new_images":   result.NewImages,
	})
	return result, nil
}

// Search returns up to limit businesses whose name, address or category
// contains the fragment, most recently updated first.
func (s *CacheService) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	businesses, err := s.businessRepo.Search(query, limit)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(businesses))
	for _, business := range businesses {
		results = append(results, SearchResult{
			Name:          business.Name,
			Address:       business.Address,
			Phone:         business.Phone,
			Category:      business.Category,
			Rating:        business.Rating,
			LastUpdatedAt: business.LastUpdatedAt,
		})
	}
	return results, nil
}

// Stats returns store-wide counters, memoized for a short window since the
// aggregation scans every table.
func (s *CacheService) Stats() (*repository.StoreStats, error) {
	if cached, found := s.memo.Get(statsCacheKey); found {
		return cached.(*repository.StoreStats), nil
	}

	stats, err := s.businessRepo.Stats()
	if err != nil {
		return nil, err
	}
	s.memo.Set(statsCacheKey, stats, s.statsTTL)
	return stats, nil
}

// exportLimit caps how many rows a report includes
const exportLimit = 10000

// ExportReport writes an xlsx workbook of cached businesses and store stats
func (s *CacheService) ExportReport(w io.Writer) error {
	businesses, err := s.businessRepo.Search("", exportLimit)
	if err != nil {
		return err
	}
	stats, err := s.Stats()
	if err != nil {
		return err
	}
	return export.WriteBusinessReport(w, businesses, stats)
}

// EvictOlderThan removes businesses not updated within the given duration,
// cascading to reviews and images. Returns the number of businesses deleted.
func (s *CacheService) EvictOlderThan(duration time.Duration) (int64, error) {
	deleted, err := s.businessRepo.EvictOlderThan(time.Now().Add(-duration), s.evictionBatch)
	if err != nil {
		return deleted, err
	}
	if deleted > 0 {
		s.memo.Delete(statsCacheKey)
	}
	return deleted, nil
}
