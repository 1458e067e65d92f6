package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/evidence-portal/internal/domain/demo"
	"github.com/riskibarqy/evidence-portal/internal/domain/inventory"
	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
	"github.com/riskibarqy/evidence-portal/internal/usecase"
)

// EvidenceService is the submission-facing pipeline.
type EvidenceService interface {
	InspectDemo(ctx context.Context, objectKey string) (demo.IdentityView, error)
	SubmissionStatistics(ctx context.Context, submissionID string, refresh bool) (demo.MatchStatisticsView, error)
	RefreshSubmissionInventory(ctx context.Context, submissionID string) (inventory.Valuation, error)
	ParseUploadedIdentity(ctx context.Context, r io.Reader) (demo.IdentityView, error)
	ParseUploadedStatistics(ctx context.Context, r io.Reader) (demo.MatchStatisticsView, error)
}

type ProfileService interface {
	ResolveProfile(ctx context.Context, input string) (string, error)
	PlayerBans(ctx context.Context, steamID64 string) (usecase.PlayerBan, error)
}

// ResyncService re-values a batch of inventories for worker callers.
type ResyncService interface {
	Resync(ctx context.Context, input usecase.ResyncInput) (usecase.ResyncResult, error)
}

type HandlerConfig struct {
	// MaxUploadBytes bounds the raw worker request body.
	MaxUploadBytes int64
}

type Handler struct {
	evidence  EvidenceService
	valuator  usecase.InventoryValuator
	profiles  ProfileService
	resync    ResyncService
	cfg       HandlerConfig
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(
	evidence EvidenceService,
	valuator usecase.InventoryValuator,
	profiles ProfileService,
	resync ResyncService,
	cfg HandlerConfig,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		// base64 expands 3 bytes to 4; leave room for the JSON wrapper.
		cfg.MaxUploadBytes = (500<<20)/3*4 + 4096
	}

	return &Handler{
		evidence:  evidence,
		valuator:  valuator,
		profiles:  profiles,
		resync:    resync,
		cfg:       cfg,
		logger:    logger.Named("httpapi"),
		validator: validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func parseRefreshFlag(r *http.Request) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("refresh"))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: refresh must be a boolean", usecase.ErrInvalidInput)
	}
	return v, nil
}
