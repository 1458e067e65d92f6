package httpapi

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/evidence-portal/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

func (h *Handler) WorkerParseIdentity(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.WorkerParseIdentity")
	defer span.End()

	err := h.withUploadedDemo(ctx, r, func(demoReader io.Reader) error {
		view, err := h.evidence.ParseUploadedIdentity(ctx, demoReader)
		if err != nil {
			return err
		}
		writeSuccess(ctx, w, http.StatusOK, identityToDTO(view))
		return nil
	})
	if err != nil {
		h.logger.WarnContext(ctx, "worker identity parse failed", "error", err)
		writeError(ctx, w, err)
	}
}

func (h *Handler) WorkerParseStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.WorkerParseStatistics")
	defer span.End()

	err := h.withUploadedDemo(ctx, r, func(demoReader io.Reader) error {
		view, err := h.evidence.ParseUploadedStatistics(ctx, demoReader)
		if err != nil {
			return err
		}
		writeSuccess(ctx, w, http.StatusOK, statisticsToDTO(view))
		return nil
	})
	if err != nil {
		h.logger.WarnContext(ctx, "worker statistics parse failed", "error", err)
		writeError(ctx, w, err)
	}
}

// withUploadedDemo buffers the request body from a pool, then hands fn a
// reader that decodes demoBuffer on the fly.
func (h *Handler) withUploadedDemo(ctx context.Context, r *http.Request, fn func(io.Reader) error) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if _, err := buf.ReadFrom(io.LimitReader(r.Body, h.cfg.MaxUploadBytes+1)); err != nil {
		return fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if int64(buf.Len()) > h.cfg.MaxUploadBytes {
		return fmt.Errorf("%w: request body larger than %d bytes", usecase.ErrInvalidInput, h.cfg.MaxUploadBytes)
	}

	var req workerDemoRequest
	if err := sonic.Unmarshal(buf.B, &req); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	req.DemoBuffer = strings.TrimSpace(req.DemoBuffer)
	if err := h.validateRequest(ctx, req); err != nil {
		return err
	}

	decoded := base64.NewDecoder(base64.StdEncoding, strings.NewReader(req.DemoBuffer))
	return fn(&base64InputReader{r: decoded})
}

// base64InputReader reports corrupt payloads as invalid input.
type base64InputReader struct {
	r io.Reader
}

func (b *base64InputReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	var corrupt base64.CorruptInputError
	if errors.As(err, &corrupt) {
		return n, fmt.Errorf("%w: demoBuffer is not valid base64: %v", usecase.ErrInvalidInput, err)
	}
	return n, err
}

func (h *Handler) WorkerResyncInventories(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.WorkerResyncInventories")
	defer span.End()

	var req resyncInventoriesRequest
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

	result, err := h.resync.Resync(ctx, usecase.ResyncInput{
		SteamID64s:   req.SteamIDs,
		MaxWorkers:   req.MaxWorkers,
		ForceRefresh: req.ForceRefresh,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "inventory resync failed", "targets", len(req.SteamIDs), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

// maxJSONBodyBytes caps every JSON request body.
const maxJSONBodyBytes = 64 << 10

type resyncInventoriesRequest struct {
	SteamIDs     []string `json:"steamIds" validate:"required,min=1,max=200,dive,required"`
	MaxWorkers   int      `json:"maxWorkers" validate:"min=0"`
	ForceRefresh bool     `json:"forceRefresh"`
}

type workerDemoRequest struct {
	DemoBuffer string `json:"demoBuffer" validate:"required"`
}
