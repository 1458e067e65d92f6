package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/riskibarqy/evidence-portal/internal/domain/demo"
	"github.com/riskibarqy/evidence-portal/internal/domain/inventory"
	"github.com/riskibarqy/evidence-portal/internal/domain/submission"
	"github.com/riskibarqy/evidence-portal/internal/platform/id"
	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
)

var errDemoTooLarge = errors.New("demo exceeds size limit")

type EvidenceConfig struct {
	MaxDemoBytes int64
	ParseTimeout time.Duration
	TempDir      string
}

func DefaultEvidenceConfig() EvidenceConfig {
	return EvidenceConfig{
		MaxDemoBytes: 500 << 20,
		ParseTimeout: 60 * time.Second,
	}
}

// DemoExtractor produces the two views of a recording on disk.
type DemoExtractor interface {
	ExtractIdentity(ctx context.Context, path string) demo.IdentityView
	ExtractStatistics(ctx context.Context, path string) demo.MatchStatisticsView
}

type InventoryValuator interface {
	Valuate(ctx context.Context, steamID64 string, forceRefresh bool) (inventory.Valuation, error)
}

// EvidenceService runs the demo and inventory pipeline for submissions.
type EvidenceService struct {
	submissions submission.Repository
	storage     ObjectStorage
	extractor   DemoExtractor
	valuator    InventoryValuator
	cfg         EvidenceConfig
	now         func() time.Time
	logger      *logging.Logger
}

func NewEvidenceService(
	submissions submission.Repository,
	storage ObjectStorage,
	extractor DemoExtractor,
	valuator InventoryValuator,
	cfg EvidenceConfig,
	logger *logging.Logger,
) *EvidenceService {
	defaults := DefaultEvidenceConfig()
	if cfg.MaxDemoBytes <= 0 {
		cfg.MaxDemoBytes = defaults.MaxDemoBytes
	}
	if cfg.ParseTimeout <= 0 {
		cfg.ParseTimeout = defaults.ParseTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &EvidenceService{
		submissions: submissions,
		storage:     storage,
		extractor:   extractor,
		valuator:    valuator,
		cfg:         cfg,
		now:         time.Now,
		logger:      logger.Named("evidence"),
	}
}

// InspectDemo downloads an uploaded recording and returns its identity view.
func (s *EvidenceService) InspectDemo(ctx context.Context, objectKey string) (demo.IdentityView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EvidenceService.InspectDemo")
	defer span.End()

	objectKey = strings.TrimSpace(objectKey)
	if objectKey == "" {
		return demo.IdentityView{}, fmt.Errorf("%w: object key is required", ErrInvalidInput)
	}

	path, cleanup, err := s.downloadDemo(ctx, objectKey)
	if err != nil {
		return demo.IdentityView{}, err
	}
	defer cleanup()

	parseCtx, cancel := context.WithTimeout(ctx, s.cfg.ParseTimeout)
	defer cancel()
	return s.extractor.ExtractIdentity(parseCtx, path), nil
}

// SubmissionStatistics returns the statistics stored on a submission, or
// extracts and stores them when missing or refresh is set.
func (s *EvidenceService) SubmissionStatistics(ctx context.Context, submissionID string, refresh bool) (demo.MatchStatisticsView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EvidenceService.SubmissionStatistics")
	defer span.End()

	sub, err := s.loadSubmission(ctx, submissionID)
	if err != nil {
		return demo.MatchStatisticsView{}, err
	}
	if !sub.HasDemo() {
		return demo.MatchStatisticsView{}, fmt.Errorf("%w: submission %s has no demo", ErrInvalidInput, sub.ID)
	}
	if !refresh && sub.MatchStats != nil {
		return *sub.MatchStats, nil
	}

	path, cleanup, err := s.downloadDemo(ctx, sub.DemoObjectKey)
	if err != nil {
		return demo.MatchStatisticsView{}, err
	}
	defer cleanup()

	parseCtx, cancel := context.WithTimeout(ctx, s.cfg.ParseTimeout)
	stats := s.extractor.ExtractStatistics(parseCtx, path)
	cancel()

	if err := s.submissions.SaveMatchStats(ctx, sub.ID, stats, s.now().UTC()); err != nil {
		s.logger.WarnContext(ctx, "store match stats failed", "submission_id", sub.ID, "error", err)
	}
	return stats, nil
}

// RefreshSubmissionInventory recomputes the suspect's inventory value and
// writes it onto the submission.
func (s *EvidenceService) RefreshSubmissionInventory(ctx context.Context, submissionID string) (inventory.Valuation, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EvidenceService.RefreshSubmissionInventory")
	defer span.End()

	sub, err := s.loadSubmission(ctx, submissionID)
	if err != nil {
		return inventory.Valuation{}, err
	}
	if !sub.HasSuspect() {
		return inventory.Valuation{}, fmt.Errorf("%w: submission %s has no suspect", ErrInvalidInput, sub.ID)
	}

	valuation, err := s.valuator.Valuate(ctx, sub.SuspectedSteamID64, true)
	if err != nil {
		return inventory.Valuation{}, fmt.Errorf("valuate suspect inventory: %w", err)
	}
	if err := s.submissions.SaveInventoryValuation(ctx, sub.ID, valuation); err != nil {
		s.logger.WarnContext(ctx, "store inventory valuation failed", "submission_id", sub.ID, "error", err)
	}
	return valuation, nil
}

// ParseUploadedIdentity spools r to disk and returns its identity view.
func (s *EvidenceService) ParseUploadedIdentity(ctx context.Context, r io.Reader) (demo.IdentityView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EvidenceService.ParseUploadedIdentity")
	defer span.End()

	path, cleanup, err := s.spool(ctx, func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
	if err != nil {
		return demo.IdentityView{}, err
	}
	defer cleanup()

	parseCtx, cancel := context.WithTimeout(ctx, s.cfg.ParseTimeout)
	defer cancel()
	return s.extractor.ExtractIdentity(parseCtx, path), nil
}

// ParseUploadedStatistics spools r to disk and returns its statistics view.
func (s *EvidenceService) ParseUploadedStatistics(ctx context.Context, r io.Reader) (demo.MatchStatisticsView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EvidenceService.ParseUploadedStatistics")
	defer span.End()

	path, cleanup, err := s.spool(ctx, func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
	if err != nil {
		return demo.MatchStatisticsView{}, err
	}
	defer cleanup()

	parseCtx, cancel := context.WithTimeout(ctx, s.cfg.ParseTimeout)
	defer cancel()
	return s.extractor.ExtractStatistics(parseCtx, path), nil
}

func (s *EvidenceService) loadSubmission(ctx context.Context, submissionID string) (submission.Submission, error) {
	normalized, err := id.ParseUUID(submissionID)
	if err != nil {
		return submission.Submission{}, fmt.Errorf("%w: submission id: %v", ErrInvalidInput, err)
	}

	sub, ok, err := s.submissions.GetByID(ctx, normalized)
	if err != nil {
		return submission.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	if !ok {
		return submission.Submission{}, fmt.Errorf("%w: submission=%s", ErrNotFound, normalized)
	}
	return sub, nil
}

func (s *EvidenceService) downloadDemo(ctx context.Context, objectKey string) (string, func(), error) {
	if s.storage == nil {
		return "", nil, fmt.Errorf("%w: object storage is not configured", ErrDependencyUnavailable)
	}
	path, cleanup, err := s.spool(ctx, func(w io.Writer) error {
		_, err := s.storage.Download(ctx, objectKey, w)
		return err
	})
	if err != nil && !errors.Is(err, ErrInvalidInput) && !errors.Is(err, ErrNotFound) {
		return "", nil, fmt.Errorf("%w: download demo %s: %v", ErrDependencyUnavailable, objectKey, err)
	}
	return path, cleanup, err
}

// spool writes a recording to a temp file capped at MaxDemoBytes. The
// returned cleanup removes the file.
func (s *EvidenceService) spool(ctx context.Context, fill func(io.Writer) error) (string, func(), error) {
	f, err := os.CreateTemp(s.cfg.TempDir, "demo-*.dem")
	if err != nil {
		return "", nil, fmt.Errorf("create demo temp file: %w", err)
	}
	path := f.Name()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.WarnContext(ctx, "remove demo temp file failed", "path", path, "error", err)
		}
	}

	fillErr := fill(&cappedWriter{w: f, remaining: s.cfg.MaxDemoBytes})
	closeErr := f.Close()
	switch {
	case errors.Is(fillErr, errDemoTooLarge):
		cleanup()
		return "", nil, fmt.Errorf("%w: demo larger than %d bytes", ErrInvalidInput, s.cfg.MaxDemoBytes)
	case fillErr != nil:
		cleanup()
		return "", nil, fmt.Errorf("write demo temp file: %w", fillErr)
	case closeErr != nil:
		cleanup()
		return "", nil, fmt.Errorf("close demo temp file: %w", closeErr)
	}
	return path, cleanup, nil
}

type cappedWriter struct {
	w         io.Writer
	remaining int64
}

func (c *cappedWriter) Write(p []byte) (int, error) {
	if int64(len(p)) > c.remaining {
		return 0, errDemoTooLarge
	}
	n, err := c.w.Write(p)
	c.remaining -= int64(n)
	return n, err
}
