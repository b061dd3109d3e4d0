package repository

import (
	"testing"

	"github.com/hyeonwoo/placecache/internal/app/model"
	"github.com/hyeonwoo/placecache/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupReviewTest(t *testing.T) (*gorm.DB, *ReviewRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	return testDB, NewReviewRepository(testDB)
}

func TestReviewRepository_MergeReviews_Idempotent(t *testing.T) {
	testDB, repo := setupReviewTest(t)
	defer db.CleanupTestDB(testDB)

	batch := []model.ReviewInput{
		{Reviewer: "A", Rating: "5", Text: "Great", ReviewDate: "2024"},
		{Reviewer: "B", Rating: "4", Text: "Good", ReviewDate: "2024"},
	}

	inserted, err := repo.MergeReviews("p1", batch)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted)

	// Replaying the identical batch inserts nothing and raises no error
	inserted, err = repo.MergeReviews("p1", batch)
	require.NoError(t, err)
	assert.Equal(t, int64(0), inserted)

	reviews, err := repo.ListByPlaceID("p1")
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
}

func TestReviewRepository_MergeReviews_AccumulatesNewRows(t *testing.T) {
	testDB, repo := setupReviewTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := repo.MergeReviews("p1", []model.ReviewInput{
		{Reviewer: "A", Rating: "5", Text: "Great", ReviewDate: "2024"},
	})
	require.NoError(t, err)

	// Same reviewer, different text: a distinct dedup key, so it accumulates
	inserted, err := repo.MergeReviews("p1", []model.ReviewInput{
		{Reviewer: "A", Rating: "5", Text: "Great", ReviewDate: "2024"},
		{Reviewer: "A", Rating: "5", Text: "Still great on a second visit", ReviewDate: "2025"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), inserted)

	count, err := repo.CountByPlaceID("p1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestReviewRepository_MergeReviews_ScopedByPlace(t *testing.T) {
	testDB, repo := setupReviewTest(t)
	defer db.CleanupTestDB(testDB)

	review := []model.ReviewInput{{Reviewer: "A", Rating: "5", Text: "Great", ReviewDate: "2024"}}

	_, err := repo.MergeReviews("p1", review)
	require.NoError(t, err)

	// The same review text under another business is a different key
	inserted, err := repo.MergeReviews("p2", review)
	require.NoError(t, err)
	assert.Equal(t, int64(1), inserted)
}

func TestReviewRepository_MergeReviews_EmptyBatch(t *testing.T) {
	testDB, repo := setupReviewTest(t)
	defer db.CleanupTestDB(testDB)

	inserted, err := repo.MergeReviews("p1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), inserted)
}
