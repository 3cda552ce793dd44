package client

import (
	"math"
	"math/rand"
	"time"
)

// NextBackoffDelay returns the reconnect delay for attempt N (1-based):
// geometric growth from InitialDelay, capped at MaxDelay. With Jitter
// the result is scaled by a random factor in [0.5, 1.5).
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if cfg.InitialDelay <= 0 {
		return 0
	}
	if attempt <= 1 {
		return cfg.InitialDelay
	}

	growth := math.Max(cfg.Multiplier, 1)
	delay := time.Duration(float64(cfg.InitialDelay) * math.Pow(growth, float64(attempt-1)))
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}

	if cfg.Jitter {
		factor := 0.5
		if rng != nil {
			factor += rng.Float64()
		}
		delay = time.Duration(float64(delay) * factor)
	}
	return delay
}
