// Package observability starts process-wide telemetry: Uptrace tracing,
// Pyroscope continuous profiling and a local pprof listener.
package observability

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/evidence-portal/internal/config"
	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
)

type stopFunc func(context.Context) error

type component struct {
	name  string
	start func(config.Config, *logging.Logger) (stopFunc, error)
}

var components = []component{
	{name: "uptrace", start: startUptrace},
	{name: "pyroscope", start: startPyroscope},
	{name: "pprof", start: startPprof},
}

// Runtime owns the components that were enabled at Start.
type Runtime struct {
	logger  *logging.Logger
	names   []string
	stopper []stopFunc
}

// Start brings up every enabled component. A failing component stops the
// ones already started.
func Start(cfg config.Config, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Default()
	}
	rt := &Runtime{logger: logger.Named("observability")}

	for _, c := range components {
		stop, err := c.start(cfg, rt.logger)
		if err != nil {
			_ = rt.Shutdown(context.Background())
			return nil, fmt.Errorf("start %s: %w", c.name, err)
		}
		if stop != nil {
			rt.names = append(rt.names, c.name)
			rt.stopper = append(rt.stopper, stop)
		}
	}
	return rt, nil
}

// Enabled lists the running components in start order.
func (r *Runtime) Enabled() []string {
	return append([]string(nil), r.names...)
}

// Shutdown stops components in reverse start order and joins their errors.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(r.stopper) - 1; i >= 0; i-- {
		if err := r.stopper[i](ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", r.names[i], err))
			continue
		}
		r.logger.Info("telemetry component stopped", "component", r.names[i])
	}
	r.names, r.stopper = nil, nil
	return errors.Join(errs...)
}
