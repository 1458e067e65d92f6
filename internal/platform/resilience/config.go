package resilience

import "time"

// CircuitBreakerConfig tunes a CircuitBreaker. Non-positive numeric fields
// fall back to the defaults below.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

const (
	defaultFailureThreshold = 5
	// Steam inventory throttling usually clears within a minute.
	defaultOpenTimeout    = time.Minute
	defaultHalfOpenMaxReq = 1
)

func NormalizeCircuitBreakerConfig(cfg CircuitBreakerConfig) CircuitBreakerConfig {
	cfg.FailureThreshold = positiveOr(cfg.FailureThreshold, defaultFailureThreshold)
	cfg.HalfOpenMaxReq = positiveOr(cfg.HalfOpenMaxReq, defaultHalfOpenMaxReq)
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaultOpenTimeout
	}
	return cfg
}

func positiveOr(v, fallback int) int {
	if v < 1 {
		return fallback
	}
	return v
}
