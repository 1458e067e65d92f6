package httpapi

import (
	"context"

	"github.com/riskibarqy/evidence-portal/internal/platform/tracing"
	"go.opentelemetry.io/otel/trace"
)

// Only handler spans are kept; middleware and encoding helpers ride on them.
var apiTracer = tracing.New("evidence-portal/internal/interfaces/httpapi", tracing.WithPrefix("httpapi.Handler."))

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return apiTracer.Start(ctx, name)
}
