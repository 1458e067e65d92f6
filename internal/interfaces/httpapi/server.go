package httpapi

import (
	"net/http"
	"runtime/debug"

	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
)

type middleware func(http.Handler) http.Handler

// chain wraps h so the first middleware is the outermost.
func chain(h http.Handler, mws ...middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func NewRouter(
	handler *Handler,
	logger *logging.Logger,
	swaggerEnabled bool,
	corsAllowedOrigins []string,
	workerToken string,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, swaggerEnabled)
	registerEvidenceRoutes(mux, handler)
	registerWorkerRoutes(mux, handler, workerToken)

	return chain(mux,
		RequestTracing,
		RequestID,
		func(next http.Handler) http.Handler { return RequestLogging(logger, next) },
		func(next http.Handler) http.Handler { return CORS(corsAllowedOrigins, next) },
		recoverPanic,
	)
}

func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			ctx := r.Context()
			logger := loggerFromContext(ctx)
			if logger == nil {
				logger = logging.Default()
			}
			logger.ErrorContext(ctx, "panic recovered", "panic", rec, "stack", string(debug.Stack()))
			writeInternalError(ctx, w)
		}()
		next.ServeHTTP(w, r)
	})
}
