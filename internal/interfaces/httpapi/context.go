package httpapi

import (
	"context"

	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
)

type contextKey string

const requestIDContextKey contextKey = "request_id"

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

const loggerContextKey contextKey = "logger"

func withLogger(ctx context.Context, logger *logging.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

func loggerFromContext(ctx context.Context) *logging.Logger {
	logger, _ := ctx.Value(loggerContextKey).(*logging.Logger)
	return logger
}
