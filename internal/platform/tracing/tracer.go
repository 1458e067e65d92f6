// Package tracing starts child spans only when a request is already traced.
// Entry points that are filtered from tracing, such as health probes, carry
// no parent span and therefore produce no orphan spans deeper in the stack.
package tracing

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var noopSpan = trace.SpanFromContext(context.Background())

type Tracer struct {
	tracer trace.Tracer
	allow  func(name string) bool
}

// New returns a Tracer for the instrumentation scope. allow filters span
// names; nil allows every non-empty name.
func New(scope string, allow func(name string) bool) *Tracer {
	return &Tracer{tracer: otel.Tracer(scope), allow: allow}
}

func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if strings.TrimSpace(name) == "" {
		return ctx, noopSpan
	}
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, noopSpan
	}
	if t.allow != nil && !t.allow(name) {
		return ctx, noopSpan
	}
	return t.tracer.Start(ctx, name, opts...)
}

// WithPrefix allows span names that start with one of prefixes.
func WithPrefix(prefixes ...string) func(string) bool {
	return func(name string) bool {
		for _, prefix := range prefixes {
			if strings.HasPrefix(name, prefix) {
				return true
			}
		}
		return false
	}
}
