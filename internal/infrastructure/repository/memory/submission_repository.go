package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/evidence-portal/internal/domain/demo"
	"github.com/riskibarqy/evidence-portal/internal/domain/inventory"
	"github.com/riskibarqy/evidence-portal/internal/domain/submission"
)

type SubmissionRepository struct {
	mu    sync.RWMutex
	items map[string]submission.Submission
}

func NewSubmissionRepository(seed []submission.Submission) *SubmissionRepository {
	items := make(map[string]submission.Submission, len(seed))
	for _, s := range seed {
		items[s.ID] = s
	}
	return &SubmissionRepository{items: items}
}

func (r *SubmissionRepository) GetByID(_ context.Context, id string) (submission.Submission, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[id]
	if !ok {
		return submission.Submission{}, false, nil
	}
	return s, true, nil
}

func (r *SubmissionRepository) SaveMatchStats(_ context.Context, id string, stats demo.MatchStatisticsView, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.items[id]
	if !ok {
		return fmt.Errorf("submission id=%s not found", id)
	}
	s.MatchStats = &stats
	updatedAt := at.UTC()
	s.MatchStatsUpdatedAt = &updatedAt
	r.items[id] = s
	return nil
}

func (r *SubmissionRepository) SaveInventoryValuation(_ context.Context, id string, valuation inventory.Valuation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.items[id]
	if !ok {
		return fmt.Errorf("submission id=%s not found", id)
	}
	v := valuation.Clone()
	s.Inventory = &v
	r.items[id] = s
	return nil
}
