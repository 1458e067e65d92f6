package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
)

const snapshotRefreshTimeout = 2 * time.Minute

type snapshotRefresher interface {
	RefreshBulkSnapshot(ctx context.Context) (int, error)
}

// startPriceJobs keeps the bulk price snapshot warm so valuations rarely
// wait on the feed download. The interval is half the snapshot TTL.
func startPriceJobs(refresher snapshotRefresher, snapshotTTL time.Duration, logger *logging.Logger) (func(), error) {
	logger = logger.Named("jobs")

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	interval := max(snapshotTTL/2, time.Minute)
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			refreshSnapshot(refresher, logger)
		}),
		gocron.WithName("price-snapshot-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule price snapshot refresh: %w", err)
	}

	sched.Start()
	logger.Info("price snapshot refresh scheduled", "interval", interval.String())

	return func() {
		if err := sched.Shutdown(); err != nil {
			logger.Warn("scheduler shutdown failed", "error", err)
		}
	}, nil
}

func refreshSnapshot(refresher snapshotRefresher, logger *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotRefreshTimeout)
	defer cancel()

	started := time.Now()
	items, err := refresher.RefreshBulkSnapshot(ctx)
	if err != nil {
		logger.WarnContext(ctx, "price snapshot refresh failed", "error", err)
		return
	}
	logger.InfoContext(ctx, "price snapshot refreshed", "items", items, "duration_ms", time.Since(started).Milliseconds())
}
