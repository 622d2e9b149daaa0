package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/gadgetshop-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// AnonymousPurger deletes anonymous customers created before a cutoff.
type AnonymousPurger interface {
	PurgeStaleAnonymous(ctx context.Context, lastSeenBefore time.Time) (int, error)
}

// AnonymousCleanupScheduler periodically removes anonymous customers that
// never placed an order.
type AnonymousCleanupScheduler struct {
	cron   *cron.Cron
	purger AnonymousPurger
	spec   string
	maxAge time.Duration
	now    func() time.Time
}

func NewAnonymousCleanupScheduler(purger AnonymousPurger, spec string, maxAge time.Duration) *AnonymousCleanupScheduler {
	return &AnonymousCleanupScheduler{
		cron:   cron.New(),
		purger: purger,
		spec:   spec,
		maxAge: maxAge,
		now:    time.Now,
	}
}

func (s *AnonymousCleanupScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		logger.Error("Failed to add cron job for anonymous cleanup", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Anonymous cleanup scheduler started", map[string]interface{}{
		"spec":    s.spec,
		"max_age": s.maxAge.String(),
	})
	return nil
}

// RunOnce performs one cleanup pass.
func (s *AnonymousCleanupScheduler) RunOnce() {
	cutoff := s.now().Add(-s.maxAge)
	logger.Info("Starting scheduled anonymous cleanup", map[string]interface{}{
		"cutoff": cutoff,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	purged, err := s.purger.PurgeStaleAnonymous(ctx, cutoff)
	if err != nil {
		logger.Error("Anonymous cleanup failed", err, map[string]interface{}{
			"purged": purged,
		})
		return
	}

	logger.Info("Anonymous cleanup finished", map[string]interface{}{
		"purged": purged,
	})
}

// Stop waits for a running job to finish.
func (s *AnonymousCleanupScheduler) Stop() {
	logger.Info("Stopping anonymous cleanup scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Anonymous cleanup scheduler stopped")
}
