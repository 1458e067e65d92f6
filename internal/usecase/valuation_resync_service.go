package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
	"github.com/samber/lo"
)

const (
	resyncStatusSuccess = "success"
	resyncStatusFailed  = "failed"
	resyncStatusSkipped = "skipped"

	defaultResyncWorkers = 2
	// Every worker walks inventory pages against the same rate limited host.
	maxResyncWorkers = 4
	maxResyncTargets = 200
)

type ResyncInput struct {
	SteamID64s []string
	MaxWorkers int
	// ForceRefresh bypasses fresh cached valuations.
	ForceRefresh bool
}

type ResyncResult struct {
	TaskCount    int                `json:"task_count"`
	SuccessCount int                `json:"success_count"`
	FailedCount  int                `json:"failed_count"`
	SkippedCount int                `json:"skipped_count"`
	WorkerCount  int                `json:"worker_count"`
	Tasks        []ResyncTaskResult `json:"tasks"`
}

type ResyncTaskResult struct {
	SteamID64  string `json:"steamid64"`
	Status     string `json:"status"`
	ValueCents *int64 `json:"value_cents,omitempty"`
	ItemCount  int    `json:"item_count"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

// ValuationResyncService re-values many inventories on a bounded worker pool.
type ValuationResyncService struct {
	valuator InventoryValuator
	logger   *logging.Logger
}

func NewValuationResyncService(valuator InventoryValuator, logger *logging.Logger) *ValuationResyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ValuationResyncService{
		valuator: valuator,
		logger:   logger.Named("valuation_resync"),
	}
}

func (s *ValuationResyncService) Resync(ctx context.Context, input ResyncInput) (ResyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ValuationResyncService.Resync")
	defer span.End()

	targets := lo.Uniq(lo.FilterMap(input.SteamID64s, func(raw string, _ int) (string, bool) {
		raw = strings.TrimSpace(raw)
		return raw, raw != ""
	}))
	if len(targets) == 0 {
		return ResyncResult{}, fmt.Errorf("%w: at least one steamid64 is required", ErrInvalidInput)
	}
	if len(targets) > maxResyncTargets {
		return ResyncResult{}, fmt.Errorf("%w: at most %d steamid64 values per resync", ErrInvalidInput, maxResyncTargets)
	}

	workerCount := input.MaxWorkers
	if workerCount <= 0 {
		workerCount = defaultResyncWorkers
	}
	workerCount = min(workerCount, maxResyncWorkers, len(targets))

	result := ResyncResult{
		TaskCount:   len(targets),
		WorkerCount: workerCount,
		Tasks:       make([]ResyncTaskResult, 0, len(targets)),
	}

	var valid []string
	for _, raw := range targets {
		id, err := normalizeSteamID64(raw)
		if err != nil {
			result.Tasks = append(result.Tasks, ResyncTaskResult{SteamID64: raw, Status: resyncStatusSkipped, Message: err.Error()})
			result.SkippedCount++
			continue
		}
		valid = append(valid, id)
	}
	if len(valid) == 0 {
		return result, nil
	}

	results := make(chan ResyncTaskResult, len(valid))
	var successCount atomic.Int32
	var failedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return ResyncResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, id := range valid {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			row := s.runTask(ctx, id, input.ForceRefresh)
			if row.Status == resyncStatusSuccess {
				successCount.Add(1)
			} else {
				failedCount.Add(1)
			}
			results <- row
		}); err != nil {
			workers.Done()
			workers.Wait()
			return ResyncResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Tasks = append(result.Tasks, row)
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		return result.Tasks[i].SteamID64 < result.Tasks[j].SteamID64
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())

	s.logger.InfoContext(ctx, "valuation resync finished",
		"tasks", result.TaskCount,
		"success", result.SuccessCount,
		"failed", result.FailedCount,
		"skipped", result.SkippedCount,
		"workers", result.WorkerCount,
	)
	return result, nil
}

func (s *ValuationResyncService) runTask(ctx context.Context, steamID64 string, force bool) ResyncTaskResult {
	start := time.Now()
	row := ResyncTaskResult{SteamID64: steamID64}

	valuation, err := s.valuator.Valuate(ctx, steamID64, force)
	row.DurationMs = time.Since(start).Milliseconds()
	switch {
	case err != nil:
		row.Status = resyncStatusFailed
		row.Message = err.Error()
	case valuation.Error != nil:
		row.Status = resyncStatusFailed
		row.Message = *valuation.Error
		row.ItemCount = valuation.ItemCount
	default:
		row.Status = resyncStatusSuccess
		row.ValueCents = valuation.ValueCents
		row.ItemCount = valuation.ItemCount
	}
	return row
}
