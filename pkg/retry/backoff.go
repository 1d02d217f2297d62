// Package retry retries process startup steps such as the first store connection.
// Request-path queries are never retried.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/KeithSSmith/switcheolytics-api/pkg/utils"
	"go.uber.org/zap"
)

// Config bounds a retry loop.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// StartupConfig reads CONNECT_RETRIES and CONNECT_RETRY_DELAY.
func StartupConfig() Config {
	return Config{
		MaxAttempts:  utils.EnvInt("CONNECT_RETRIES", 5),
		InitialDelay: utils.EnvDuration("CONNECT_RETRY_DELAY", time.Second),
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Do runs fn until it succeeds, MaxAttempts is reached or ctx ends.
func Do(ctx context.Context, cfg Config, logger *zap.Logger, operation string, fn func(context.Context) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s cancelled: %w", operation, err)
		}

		if lastErr = fn(ctx); lastErr == nil {
			if attempt > 1 {
				logger.Info("Startup step succeeded after retries",
					zap.String("operation", operation),
					zap.Int("attempts", attempt))
			}
			return nil
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		delay := Delay(cfg, attempt)
		logger.Warn("Startup step failed, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", cfg.MaxAttempts),
			zap.Duration("retry_in", delay),
			zap.Error(lastErr))

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%s cancelled: %w", operation, ctx.Err())
		case <-t.C:
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, cfg.MaxAttempts, lastErr)
}

// Delay is the pause after the given failed attempt, capped at MaxDelay.
// Jitter spreads it by +/-15%.
func Delay(cfg Config, attempt int) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		delay += (rand.Float64()*0.3 - 0.15) * delay
	}
	return time.Duration(delay)
}
