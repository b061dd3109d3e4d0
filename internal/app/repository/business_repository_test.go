package repository

import (
	"testing"
	"time"

	"github.com/hyeonwoo/placecache/internal/app/model"
	"github.com/hyeonwoo/placecache/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupBusinessTest(t *testing.T) (*gorm.DB, BusinessRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	repo := NewBusinessRepository(testDB)
	return testDB, repo
}

func candidateBusiness(placeID, name string) *model.Business {
	return &model.Business{
		PlaceID:  placeID,
		Name:     name,
		Phone:    "0741207078",
		Address:  "Jodhpur",
		Category: "Restaurant",
		Rating:   "4.5 stars",
		Payload:  model.JSONMap{"name": name},
	}
}

func backdate(t *testing.T, testDB *gorm.DB, placeID string, age time.Duration) {
	t.Helper()
	err := testDB.Model(&model.Business{}).
		Where("place_id = ?", placeID).
		Update("last_updated_at", time.Now().Add(-age)).Error
	require.NoError(t, err)
}

func TestBusinessRepository_Upsert(t *testing.T) {
	testDB, repo := setupBusinessTest(t)
	defer db.CleanupTestDB(testDB)

	score := 80
	business, created, err := repo.Upsert(candidateBusiness("p1", "Gypsy Restaurant"), &score)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, business.UpdateCount)
	assert.Equal(t, 80, business.QualityScore)
	assert.False(t, business.FirstExtractedAt.IsZero())
	assert.Equal(t, business.FirstExtractedAt, business.LastUpdatedAt)

	// Re-save overwrites scalars, bumps update_count, keeps first_extracted_at
	update := candidateBusiness("p1", "Gypsy Restaurant & Bar")
	update.Phone = "0741207099"
	business2, created, err := repo.Upsert(update, nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 2, business2.UpdateCount)
	assert.Equal(t, "Gypsy Restaurant & Bar", business2.Name)
	assert.Equal(t, "0741207099", business2.Phone)
	assert.Equal(t, business.FirstExtractedAt, business2.FirstExtractedAt)

	// Quality score untouched when the candidate carries none
	assert.Equal(t, 80, business2.QualityScore)

	newScore := 65
	business3, _, err := repo.Upsert(candidateBusiness("p1", "Gypsy Restaurant"), &newScore)
	require.NoError(t, err)
	assert.Equal(t, 65, business3.QualityScore)
	assert.Equal(t, 3, business3.UpdateCount)
}

func TestBusinessRepository_Resolve(t *testing.T) {
	testDB, repo := setupBusinessTest(t)
	defer db.CleanupTestDB(testDB)

	cid := int64(4242)
	withCID := candidateBusiness("p1", "Blue Tokai")
	withCID.CID = &cid
	_, _, err := repo.Upsert(withCID, nil)
	require.NoError(t, err)

	// A business whose name contains the cid digits, fresher than the cid match
	_, _, err = repo.Upsert(candidateBusiness("p2", "Cafe 4242"), nil)
	require.NoError(t, err)

	_, _, err = repo.Upsert(candidateBusiness("p3", "Tokai Express"), nil)
	require.NoError(t, err)
	backdate(t, testDB, "p3", 48*time.Hour)

	t.Run("Exact place_id wins", func(t *testing.T) {
		found, err := repo.Resolve("p2")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Cafe 4242", found.Name)
	})

	t.Run("CID match beats name fragment", func(t *testing.T) {
		found, err := repo.Resolve("4242")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Blue Tokai", found.Name)
	})

	t.Run("Name fragment picks most recently updated", func(t *testing.T) {
		found, err := repo.Resolve("Tokai")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "p1", found.PlaceID)
	})

	t.Run("No match is a nil row, not an error", func(t *testing.T) {
		found, err := repo.Resolve("does-not-exist")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestBusinessRepository_Search(t *testing.T) {
	testDB, repo := setupBusinessTest(t)
	defer db.CleanupTestDB(testDB)

	_, _, err := repo.Upsert(candidateBusiness("p1", "Gypsy Restaurant"), nil)
	require.NoError(t, err)
	backdate(t, testDB, "p1", 2*time.Hour)

	fresh := candidateBusiness("p2", "Spice Villa")
	fresh.Address = "Gypsy Lane, Jaipur"
	_, _, err = repo.Upsert(fresh, nil)
	require.NoError(t, err)

	other := candidateBusiness("p3", "Udon House")
	other.Category = "Noodles"
	other.Address = "Seoul"
	_, _, err = repo.Upsert(other, nil)
	require.NoError(t, err)

	t.Run("Matches name and address, newest first", func(t *testing.T) {
		results, err := repo.Search("Gypsy", 10)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "p2", results[0].PlaceID)
		assert.Equal(t, "p1", results[1].PlaceID)
	})

	t.Run("Matches category", func(t *testing.T) {
		results, err := repo.Search("Noodles", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "p3", results[0].PlaceID)
	})

	t.Run("Respects limit", func(t *testing.T) {
		results, err := repo.Search("Gypsy", 1)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})
}

func TestBusinessRepository_EvictOlderThan(t *testing.T) {
	testDB, repo := setupBusinessTest(t)
	defer db.CleanupTestDB(testDB)

	_, _, err := repo.Upsert(candidateBusiness("old", "Old Place"), nil)
	require.NoError(t, err)
	backdate(t, testDB, "old", 40*24*time.Hour)

	_, _, err = repo.Upsert(candidateBusiness("fresh", "Fresh Place"), nil)
	require.NoError(t, err)
	backdate(t, testDB, "fresh", 5*24*time.Hour)

	// Children of the old row must cascade; its history must not
	reviewRepo := NewReviewRepository(testDB)
	_, err = reviewRepo.MergeReviews("old", []model.ReviewInput{{Reviewer: "A", Rating: "5", Text: "Great", ReviewDate: "2024"}})
	require.NoError(t, err)
	imageRepo := NewImageRepository(testDB)
	_, err = imageRepo.MergeImages("old", []string{"https://example.com/a.jpg"})
	require.NoError(t, err)
	historyRepo := NewHistoryRepository(testDB)
	require.NoError(t, historyRepo.Append(&model.ExtractionRecord{PlaceID: "old", Success: true}))

	deleted, err := repo.EvictOlderThan(time.Now().Add(-30*24*time.Hour), 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	gone, err := repo.FindByPlaceID("old")
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := repo.FindByPlaceID("fresh")
	require.NoError(t, err)
	assert.NotNil(t, kept)

	reviews, err := reviewRepo.ListByPlaceID("old")
	require.NoError(t, err)
	assert.Empty(t, reviews)

	images, err := imageRepo.ListByPlaceID("old")
	require.NoError(t, err)
	assert.Empty(t, images)

	historyCount, err := historyRepo.CountByPlaceID("old")
	require.NoError(t, err)
	assert.Equal(t, int64(1), historyCount)
}

func TestBusinessRepository_EvictOlderThan_Batched(t *testing.T) {
	testDB, repo := setupBusinessTest(t)
	defer db.CleanupTestDB(testDB)

	for _, placeID := range []string{"a", "b", "c", "d", "e"} {
		_, _, err := repo.Upsert(candidateBusiness(placeID, "Stale "+placeID), nil)
		require.NoError(t, err)
		backdate(t, testDB, placeID, 60*24*time.Hour)
	}

	deleted, err := repo.EvictOlderThan(time.Now().Add(-30*24*time.Hour), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)

	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalBusinesses)
}

func TestBusinessRepository_Stats(t *testing.T) {
	testDB, repo := setupBusinessTest(t)
	defer db.CleanupTestDB(testDB)

	scoreA, scoreB := 80, 60
	_, _, err := repo.Upsert(candidateBusiness("p1", "Gypsy Restaurant"), &scoreA)
	require.NoError(t, err)
	_, _, err = repo.Upsert(candidateBusiness("p2", "Spice Villa"), &scoreB)
	require.NoError(t, err)
	backdate(t, testDB, "p2", 48*time.Hour)

	reviewRepo := NewReviewRepository(testDB)
	_, err = reviewRepo.MergeReviews("p1", []model.ReviewInput{
		{Reviewer: "A", Rating: "5", Text: "Great", ReviewDate: "2024"},
		{Reviewer: "B", Rating: "4", Text: "Good", ReviewDate: "2024"},
	})
	require.NoError(t, err)

	imageRepo := NewImageRepository(testDB)
	_, err = imageRepo.MergeImages("p1", []string{"https://example.com/a.jpg"})
	require.NoError(t, err)

	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBusinesses)
	assert.Equal(t, int64(2), stats.TotalReviews)
	assert.Equal(t, int64(1), stats.TotalImages)
	assert.InDelta(t, 70.0, stats.AvgQualityScore, 0.001)
	assert.Equal(t, int64(1), stats.FreshEntries24h)
}
