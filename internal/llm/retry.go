package llm

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// RetryProvider retries transient failures with jittered exponential
// backoff. Invalid responses get exactly one more try.
type RetryProvider struct {
	inner  Provider
	cfg    RetryConfig
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error

	// timeout bounds the whole call, retries included; zero disables it.
	timeout time.Duration
}

// WithRetry decorates p.
func WithRetry(p Provider, cfg RetryConfig, logger *slog.Logger) *RetryProvider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryProvider{inner: p, cfg: cfg, logger: logger, sleep: sleepCtx}
}

func (r *RetryProvider) Name() string    { return r.inner.Name() }
func (r *RetryProvider) ModelID() string { return r.inner.ModelID() }

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var err error
	sawInvalid := false
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			if serr := r.sleep(ctx, r.wait(attempt-1, err)); serr != nil {
				return nil, serr
			}
		}

		var resp *Response
		resp, err = r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		var invalid *ErrInvalidResponse
		if errors.As(err, &invalid) {
			if sawInvalid {
				return nil, err
			}
			sawInvalid = true
		}
		if !retryable(err) {
			return nil, err
		}
		r.logger.Debug("llm call failed, retrying",
			"provider", r.inner.Name(),
			"attempt", attempt+1,
			"error", err,
		)
	}
	return nil, err
}

// retryable is false for cancellation and truncation; everything else
// may be transient.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var truncated *ErrMaxTokensExceeded
	return !errors.As(err, &truncated)
}

// wait is the delay before retry number n+1. A rate limit's RetryAfter
// wins over the computed backoff.
func (r *RetryProvider) wait(n int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	d := math.Min(
		float64(r.cfg.InitialWait)*math.Pow(r.cfg.Multiplier, float64(n)),
		float64(r.cfg.MaxWait),
	)
	d *= 0.8 + 0.4*rand.Float64()
	return time.Duration(max(d, 0))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
