package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hyeonwoo/placecache/internal/app/model"
	"github.com/hyeonwoo/placecache/internal/app/repository"
	"github.com/hyeonwoo/placecache/internal/app/service"
	"github.com/hyeonwoo/placecache/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCacheControllerTest(t *testing.T) (*CacheController, *gin.Engine, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cacheService := service.NewCacheService(
		testDB,
		repository.NewBusinessRepository(testDB),
		repository.NewReviewRepository(testDB),
		repository.NewImageRepository(testDB),
		repository.NewHistoryRepository(testDB),
		30*time.Second,
		500,
	)
	cacheController := NewCacheController(cacheService, 24*time.Hour)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/cache", cacheController.SaveExtraction)
	router.GET("/cache/search", cacheController.Search)
	router.GET("/cache/stats", cacheController.Stats)
	router.POST("/cache/evict", cacheController.Evict)
	router.GET("/cache/:identifier", cacheController.GetCached)

	return cacheController, router, testDB
}

func postExtraction(t *testing.T, router *gin.Engine, extraction map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(extraction)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/cache", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleExtractionBody() map[string]interface{} {
	return map[string]interface{}{
		"success":  true,
		"place_id": "ChIJabc123",
		"name":     "Gypsy Restaurant",
		"phone":    "0741207078",
		"address":  "Jodhpur",
		"category": "Restaurant",
		"rating":   "4.5 stars",
		"reviews": []map[string]interface{}{
			{"reviewer": "A", "rating": "5", "text": "Great", "review_date": "2024"},
		},
		"photos": []string{"https://example.com/a.jpg"},
	}
}

func TestCacheController_SaveThenGet(t *testing.T) {
	_, router, _ := setupCacheControllerTest(t)

	w := postExtraction(t, router, sampleExtractionBody())
	assert.Equal(t, http.StatusCreated, w.Code)

	var saveResponse map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saveResponse))
	assert.Equal(t, "saved", saveResponse["status"])
	assert.Equal(t, float64(1), saveResponse["update_count"])

	req := httptest.NewRequest(http.MethodGet, "/cache/ChIJabc123", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, "Gypsy Restaurant", record["name"])

	metadata := record["cache_metadata"].(map[string]interface{})
	assert.Equal(t, true, metadata["cached"])
	assert.Equal(t, float64(1), metadata["update_count"])
}

func TestCacheController_SaveAgainReturnsOK(t *testing.T) {
	_, router, _ := setupCacheControllerTest(t)

	w := postExtraction(t, router, sampleExtractionBody())
	require.Equal(t, http.StatusCreated, w.Code)

	// Second submission updates the existing row, so no 201
	w = postExtraction(t, router, sampleExtractionBody())
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(2), response["update_count"])
	assert.Equal(t, float64(0), response["new_reviews"])
}

func TestCacheController_GetCached_Misses(t *testing.T) {
	_, router, testDB := setupCacheControllerTest(t)

	t.Run("Unknown identifier", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cache/nowhere", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "CACHE_MISS_NOT_FOUND", response["error"])
	})

	t.Run("Stale entry", func(t *testing.T) {
		w := postExtraction(t, router, sampleExtractionBody())
		require.Equal(t, http.StatusCreated, w.Code)

		err := testDB.Model(&model.Business{}).
			Where("place_id = ?", "ChIJabc123").
			Update("last_updated_at", time.Now().Add(-48*time.Hour)).Error
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/cache/ChIJabc123", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "CACHE_MISS_STALE", response["error"])
	})

	t.Run("Wider max_age_hours turns the stale miss into a hit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cache/ChIJabc123?max_age_hours=72", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Invalid max_age_hours", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cache/ChIJabc123?max_age_hours=-1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCacheController_Search(t *testing.T) {
	_, router, _ := setupCacheControllerTest(t)

	w := postExtraction(t, router, sampleExtractionBody())
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("Missing query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cache/search", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Fragment match", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cache/search?q=Gypsy", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, float64(1), response["count"])
	})

	t.Run("Limit out of range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cache/search?q=Gypsy&limit=500", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCacheController_StatsAndEvict(t *testing.T) {
	_, router, testDB := setupCacheControllerTest(t)

	w := postExtraction(t, router, sampleExtractionBody())
	require.Equal(t, http.StatusCreated, w.Code)

	err := testDB.Model(&model.Business{}).
		Where("place_id = ?", "ChIJabc123").
		Update("last_updated_at", time.Now().Add(-40*24*time.Hour)).Error
	require.NoError(t, err)

	body, err := json.Marshal(map[string]interface{}{"older_than_days": 30})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/cache/evict", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var evictResponse map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &evictResponse))
	assert.Equal(t, float64(1), evictResponse["deleted"])

	req = httptest.NewRequest(http.MethodGet, "/cache/stats", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, float64(0), stats["total_businesses"])
}

func TestCacheController_Evict_InvalidBody(t *testing.T) {
	_, router, _ := setupCacheControllerTest(t)

	req := httptest.NewRequest(http.MethodPost, "/cache/evict", bytes.NewReader([]byte(`{"older_than_days": 0}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
