package repository

import (
	"testing"

	"github.com/hyeonwoo/placecache/internal/app/model"
	"github.com/hyeonwoo/placecache/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRepository_AppendAndList(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(testDB)

	repo := NewHistoryRepository(testDB)

	require.NoError(t, repo.Append(&model.ExtractionRecord{
		PlaceID:               "p1",
		ExtractionTimeSeconds: 3.2,
		QualityScore:          80,
		ExtractorVersion:      "scraper-v2",
		Success:               true,
	}))
	require.NoError(t, repo.Append(&model.ExtractionRecord{
		PlaceID:          "p1",
		ExtractorVersion: "scraper-v2",
		Success:          false,
	}))
	require.NoError(t, repo.Append(&model.ExtractionRecord{
		PlaceID: "p2",
		Success: true,
	}))

	records, err := repo.ListByPlaceID("p1", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, record := range records {
		assert.NotEmpty(t, record.ID) // uuid assigned on create
		assert.False(t, record.CreatedAt.IsZero())
	}

	count, err := repo.CountByPlaceID("p1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
