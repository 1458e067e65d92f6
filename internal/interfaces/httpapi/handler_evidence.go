package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/evidence-portal/internal/usecase"
)

func (h *Handler) InspectDemo(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.InspectDemo")
	defer span.End()

	var req inspectDemoRequest
	decoder := sonic.ConfigDefault.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.evidence.InspectDemo(ctx, req.ObjectKey)
	if err != nil {
		h.logger.WarnContext(ctx, "inspect demo failed", "object_key", req.ObjectKey, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, identityToDTO(view))
}

func (h *Handler) GetSubmissionStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSubmissionStats")
	defer span.End()

	submissionID := strings.TrimSpace(r.PathValue("submissionID"))
	refresh, err := parseRefreshFlag(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.evidence.SubmissionStatistics(ctx, submissionID, refresh)
	if err != nil {
		h.logger.WarnContext(ctx, "submission statistics failed", "submission_id", submissionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, statisticsToDTO(view))
}

func (h *Handler) RefreshSubmissionInventory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshSubmissionInventory")
	defer span.End()

	submissionID := strings.TrimSpace(r.PathValue("submissionID"))
	valuation, err := h.evidence.RefreshSubmissionInventory(ctx, submissionID)
	if err != nil {
		h.logger.WarnContext(ctx, "refresh submission inventory failed", "submission_id", submissionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, valuationToDTO(valuation))
}

func (h *Handler) GetPlayerInventory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerInventory")
	defer span.End()

	steamID := strings.TrimSpace(r.PathValue("steamID"))
	refresh, err := parseRefreshFlag(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	valuation, err := h.valuator.Valuate(ctx, steamID, refresh)
	if err != nil {
		h.logger.WarnContext(ctx, "valuate inventory failed", "steam_id", steamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, valuationToDTO(valuation))
}

func (h *Handler) GetPlayerBans(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerBans")
	defer span.End()

	steamID := strings.TrimSpace(r.PathValue("steamID"))
	bans, err := h.profiles.PlayerBans(ctx, steamID)
	if err != nil {
		h.logger.WarnContext(ctx, "player bans failed", "steam_id", steamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, bans)
}

func (h *Handler) ResolveSteamProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolveSteamProfile")
	defer span.End()

	req := resolveProfileRequest{Profile: strings.TrimSpace(r.URL.Query().Get("profile"))}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	steamID, err := h.profiles.ResolveProfile(ctx, req.Profile)
	if err != nil {
		h.logger.WarnContext(ctx, "resolve steam profile failed", "profile", req.Profile, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, resolvedProfileDTO{SteamID64: steamID})
}

type inspectDemoRequest struct {
	ObjectKey string `json:"object_key" validate:"required,max=1024"`
}

type resolveProfileRequest struct {
	Profile string `validate:"required,max=512"`
}
