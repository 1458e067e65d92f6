package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/evidence-portal/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "evidence-portal"
)

// envelope follows the Google JSON style guide: exactly one of Data or
// Error is set.
type envelope struct {
	APIVersion string     `json:"apiVersion"`
	Data       any        `json:"data,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Status  string      `json:"status"`
	Errors  []errorItem `json:"errors,omitempty"`
}

type errorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type errorClass struct {
	target error
	code   int
	reason string
	status string
}

// errorClasses is checked in order; the first errors.Is match wins.
var errorClasses = []errorClass{
	{usecase.ErrInvalidInput, http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"},
	{usecase.ErrNotFound, http.StatusNotFound, "notFound", "NOT_FOUND"},
	{usecase.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"},
	{usecase.ErrSourceRateLimited, http.StatusTooManyRequests, "rateLimited", "RESOURCE_EXHAUSTED"},
	{usecase.ErrDependencyUnavailable, http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "deadlineExceeded", "DEADLINE_EXCEEDED"},
}

var internalClass = errorClass{code: http.StatusInternalServerError, reason: "internalError", status: "INTERNAL"}

func classify(err error) errorClass {
	for _, class := range errorClasses {
		if errors.Is(err, class.target) {
			return class
		}
	}
	return internalClass
}

func writeJSON(w http.ResponseWriter, status int, payload envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{APIVersion: googleAPIVersion, Data: data})
}

// writeError maps err onto its HTTP class. Unclassified errors keep their
// message out of the response body.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	class := classify(err)
	message := err.Error()
	if class.code == http.StatusInternalServerError {
		if logger := loggerFromContext(ctx); logger != nil {
			logger.ErrorContext(ctx, "request failed", "error", err)
		}
		message = "internal server error"
	}
	writeClassified(w, class, message)
}

func writeInternalError(_ context.Context, w http.ResponseWriter) {
	writeClassified(w, internalClass, "internal server error")
}

func writeClassified(w http.ResponseWriter, class errorClass, message string) {
	writeJSON(w, class.code, envelope{
		APIVersion: googleAPIVersion,
		Error: &errorBody{
			Code:    class.code,
			Message: message,
			Status:  class.status,
			Errors:  []errorItem{{Domain: errorDomain, Reason: class.reason, Message: message}},
		},
	})
}
