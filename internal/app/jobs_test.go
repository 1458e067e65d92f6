package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
)

type fakeRefresher struct {
	calls atomic.Int32
	done  chan struct{}
	err   error
}

func (f *fakeRefresher) RefreshBulkSnapshot(context.Context) (int, error) {
	if f.calls.Add(1) == 1 && f.done != nil {
		close(f.done)
	}
	return 42, f.err
}

func TestStartPriceJobs_RunsImmediately(t *testing.T) {
	refresher := &fakeRefresher{done: make(chan struct{})}

	stop, err := startPriceJobs(refresher, time.Hour, logging.NewNop())
	if err != nil {
		t.Fatalf("start jobs: %v", err)
	}
	defer stop()

	select {
	case <-refresher.done:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected snapshot refresh to run at start")
	}
}

func TestRefreshSnapshot_ToleratesFailure(t *testing.T) {
	refresher := &fakeRefresher{err: errors.New("feed down")}
	refreshSnapshot(refresher, logging.NewNop())
	if refresher.calls.Load() != 1 {
		t.Fatalf("expected 1 refresh call, got=%d", refresher.calls.Load())
	}
}
