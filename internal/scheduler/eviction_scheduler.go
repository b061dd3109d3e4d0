package scheduler

import (
	"time"

	"github.com/hyeonwoo/placecache/internal/app/service"
	"github.com/hyeonwoo/placecache/pkg/logger"
	"github.com/robfig/cron/v3"
)

// EvictionScheduler periodically removes cached businesses past the
// configured retention window.
type EvictionScheduler struct {
	cron         *cron.Cron
	cacheService *service.CacheService
	schedule     string
	retention    time.Duration
}

func NewEvictionScheduler(cacheService *service.CacheService, schedule string, retentionDays int) *EvictionScheduler {
	return &EvictionScheduler{
		cron:         cron.New(),
		cacheService: cacheService,
		schedule:     schedule,
		retention:    time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Start registers the eviction job and starts the scheduler
func (s *EvictionScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		logger.Info("Starting scheduled cache eviction", map[string]interface{}{
			"retention": s.retention.String(),
		})

		deleted, err := s.cacheService.EvictOlderThan(s.retention)
		if err != nil {
			logger.Error("Scheduled cache eviction failed", err)
			return
		}

		logger.Info("Scheduled cache eviction completed", map[string]interface{}{
			"deleted": deleted,
		})
	})
	if err != nil {
		logger.Error("Failed to register eviction cron job", err)
		return err
	}

	s.cron.Start()
	logger.Info("Eviction scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

// Stop stops the scheduler
func (s *EvictionScheduler) Stop() {
	logger.Info("Stopping eviction scheduler...")
	s.cron.Stop()
	logger.Info("Eviction scheduler stopped")
}
