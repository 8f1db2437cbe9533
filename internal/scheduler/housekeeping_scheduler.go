package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/vitaboost/storefront/internal/app/service"
	"github.com/vitaboost/storefront/pkg/logger"
)

const (
	evictionSchedule = "@every 5m"
	reportSchedule   = "0 * * * *"
)

// SessionEvictor is the part of the cart service the scheduler drives.
type SessionEvictor interface {
	EvictIdle(maxIdle time.Duration) []string
	ActiveSessions() int
}

// SessionForgetter drops per-session checkout state.
type SessionForgetter interface {
	Forget(sessionID string)
}

// HousekeepingScheduler evicts idle sessions and reports reconciliation
// records still waiting for a human.
type HousekeepingScheduler struct {
	cron            *cron.Cron
	carts           SessionEvictor
	checkouts       SessionForgetter
	reconciliations service.ReconciliationService
	maxIdle         time.Duration
}

func NewHousekeepingScheduler(carts SessionEvictor, checkouts SessionForgetter, reconciliations service.ReconciliationService, maxIdle time.Duration) *HousekeepingScheduler {
	return &HousekeepingScheduler{
		cron:            cron.New(),
		carts:           carts,
		checkouts:       checkouts,
		reconciliations: reconciliations,
		maxIdle:         maxIdle,
	}
}

func (s *HousekeepingScheduler) Start() error {
	if s.maxIdle > 0 {
		if _, err := s.cron.AddFunc(evictionSchedule, s.EvictIdleSessions); err != nil {
			logger.Error("Failed to add cron job for idle session eviction", err)
			return err
		}
	}

	if s.reconciliations != nil {
		if _, err := s.cron.AddFunc(reportSchedule, s.ReportPendingReconciliations); err != nil {
			logger.Error("Failed to add cron job for reconciliation report", err)
			return err
		}
	}

	s.cron.Start()
	logger.Info("Housekeeping scheduler started", map[string]interface{}{
		"eviction_schedule": evictionSchedule,
		"report_schedule":   reportSchedule,
		"max_idle":          s.maxIdle.String(),
	})
	return nil
}

// EvictIdleSessions closes carts idle for longer than maxIdle and forgets
// their checkout state.
func (s *HousekeepingScheduler) EvictIdleSessions() {
	evicted := s.carts.EvictIdle(s.maxIdle)
	for _, sessionID := range evicted {
		if s.checkouts != nil {
			s.checkouts.Forget(sessionID)
		}
	}

	if len(evicted) > 0 {
		logger.Info("Evicted idle sessions", map[string]interface{}{
			"evicted": len(evicted),
			"active":  s.carts.ActiveSessions(),
		})
	}
}

// ReportPendingReconciliations logs how many captured payments still have
// no order.
func (s *HousekeepingScheduler) ReportPendingReconciliations() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pending, err := s.reconciliations.PendingCount(ctx)
	if err != nil {
		logger.Error("Failed to count pending reconciliations", err)
		return
	}
	if pending == 0 {
		logger.Debug("No pending reconciliations", nil)
		return
	}

	logger.Warn("Payments captured without an order await reconciliation", map[string]interface{}{
		"pending": pending,
	})
}

func (s *HousekeepingScheduler) Stop() {
	logger.Info("Stopping housekeeping scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Housekeeping scheduler stopped", nil)
}
