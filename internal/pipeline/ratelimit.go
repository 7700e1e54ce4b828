package pipeline

import (
	"context"
	"log/slog"
	"time"
)

const (
	// shrink the delay after this many uninterrupted successes
	successStreak = 5
	delayFactor   = 0.9
)

// RateLimiter paces recognition calls against the document reader. The delay
// shrinks slowly while calls keep succeeding and snaps back to the starting
// value after a rate-limit response.
type RateLimiter struct {
	delay     time.Duration
	start     time.Duration
	min       time.Duration
	cooldown  time.Duration
	successes int
	logger    *slog.Logger
}

func NewRateLimiter(start, min, cooldown time.Duration, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	if start < min {
		start = min
	}
	return &RateLimiter{delay: start, start: start, min: min, cooldown: cooldown, logger: logger}
}

// Delay reports the current inter-call delay.
func (l *RateLimiter) Delay() time.Duration { return l.delay }

// Wait sleeps for the current delay, honouring ctx cancellation.
func (l *RateLimiter) Wait(ctx context.Context) error {
	return sleep(ctx, l.delay)
}

// Success records one successful call. Every fifth uninterrupted success
// trims the delay by 10%, never dropping below the floor.
func (l *RateLimiter) Success() {
	l.successes++
	if l.successes < successStreak {
		return
	}
	l.successes = 0
	reduced := time.Duration(float64(l.delay) * delayFactor)
	if reduced < l.min {
		reduced = l.min
	}
	if reduced != l.delay {
		l.logger.Info("pipeline.ratelimit.reduce", "delay_ms", reduced.Milliseconds())
		l.delay = reduced
	}
}

// Backoff handles a rate-limit response: sleep out the cooldown, then resume
// at the starting delay.
func (l *RateLimiter) Backoff(ctx context.Context) error {
	l.logger.Warn("pipeline.ratelimit.cooldown",
		"cooldown_ms", l.cooldown.Milliseconds(),
		"delay_ms", l.start.Milliseconds(),
	)
	l.successes = 0
	l.delay = l.start
	return sleep(ctx, l.cooldown)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
