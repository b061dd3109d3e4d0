package controller

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hyeonwoo/placecache/internal/app/model"
	"github.com/hyeonwoo/placecache/internal/app/service"
	apperrors "github.com/hyeonwoo/placecache/internal/errors"
	"github.com/hyeonwoo/placecache/internal/middleware"
)

type CacheController struct {
	cacheService  *service.CacheService
	defaultMaxAge time.Duration
}

func NewCacheController(cacheService *service.CacheService, defaultMaxAge time.Duration) *CacheController {
	if defaultMaxAge <= 0 {
		defaultMaxAge = 24 * time.Hour
	}
	return &CacheController{
		cacheService:  cacheService,
		defaultMaxAge: defaultMaxAge,
	}
}

// GetCached looks up a business by place_id, cid or name fragment.
// Misses respond 404 with the miss reason; they are not server errors.
func (ctrl *CacheController) GetCached(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identifier := c.Param("identifier")
	maxAge := ctrl.defaultMaxAge
	if raw := c.Query("max_age_hours"); raw != "" {
		hours, err := strconv.ParseFloat(raw, 64)
		if err != nil || hours <= 0 {
			apperrors.BadRequest(c, apperrors.CacheInvalidAge, "max_age_hours must be a positive number")
			return
		}
		maxAge = time.Duration(hours * float64(time.Hour))
	}

	result, err := ctrl.cacheService.Get(identifier, maxAge)
	if err != nil {
		log.Error("Cache lookup failed", err, map[string]interface{}{
			"identifier": identifier,
		})
		info := apperrors.ParseError(err)
		apperrors.RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
		return
	}

	if !result.Hit {
		code := apperrors.CacheMissNotFound
		if result.Reason == service.MissStale {
			code = apperrors.CacheMissStale
		}
		apperrors.NotFound(c, code, fmt.Sprintf("No fresh cached record for %q", identifier))
		return
	}

	c.JSON(http.StatusOK, result.Record)
}

// SaveExtraction accepts an extraction payload from a producer
func (ctrl *CacheController) SaveExtraction(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var extraction model.BusinessExtraction
	if err := c.ShouldBindJSON(&extraction); err != nil {
		log.Warn("Invalid extraction payload", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.SaveInvalidPayload, "Invalid extraction payload")
		return
	}

	result, err := ctrl.cacheService.Save(&extraction)
	if err != nil {
		log.Error("Failed to save extraction", err, map[string]interface{}{
			"place_id": extraction.PlaceID,
		})
		info := apperrors.ParseError(err)
		apperrors.RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// Search returns businesses matching a fragment against name, address or category
func (ctrl *CacheController) Search(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	query := c.Query("q")
	if query == "" {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Query parameter q is required")
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	results, err := ctrl.cacheService.Search(query, limit)
	if err != nil {
		log.Error("Search failed", err, map[string]interface{}{
			"query": query,
		})
		info := apperrors.ParseError(err)
		apperrors.RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}

// Stats returns store-wide counters
func (ctrl *CacheController) Stats(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	stats, err := ctrl.cacheService.Stats()
	if err != nil {
		log.Error("Failed to compute stats", err, nil)
		info := apperrors.ParseError(err)
		apperrors.RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
		return
	}

	c.JSON(http.StatusOK, stats)
}

type evictRequest struct {
	OlderThanDays int `json:"older_than_days" binding:"required,min=1"`
}

// Evict deletes businesses older than the requested number of days
func (ctrl *CacheController) Evict(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req evictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "older_than_days must be a positive integer")
		return
	}

	deleted, err := ctrl.cacheService.EvictOlderThan(time.Duration(req.OlderThanDays) * 24 * time.Hour)
	if err != nil {
		log.Error("Eviction failed", err, map[string]interface{}{
			"older_than_days": req.OlderThanDays,
		})
		info := apperrors.ParseError(err)
		apperrors.RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
		return
	}

	log.Info("Eviction completed", map[string]interface{}{
		"older_than_days": req.OlderThanDays,
		"deleted":         deleted,
	})
	c.JSON(http.StatusOK, gin.H{
		"deleted": deleted,
	})
}

// Export streams an xlsx report of the cached businesses
func (ctrl *CacheController) Export(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filename := fmt.Sprintf("placecache-report-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := ctrl.cacheService.ExportReport(c.Writer); err != nil {
		log.Error("Failed to export report", err, nil)
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.ExportFailed, "Failed to generate report")
		return
	}
}
