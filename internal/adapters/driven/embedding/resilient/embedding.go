// Package resilient wraps an embedding service with client-side rate
// limiting, a per-call timeout and bounded retries.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultMaxRetries        = 3
	DefaultRequestsPerSecond = 5.0
	DefaultBurst             = 5
	DefaultCallTimeout       = 30 * time.Second
	DefaultBaseDelay         = 200 * time.Millisecond
	DefaultMaxDelay          = 5 * time.Second
)

// Config controls the retry and rate limiting behaviour.
type Config struct {
	// MaxRetries is the number of retries after the first attempt.
	// Negative disables retries.
	MaxRetries int

	// RequestsPerSecond is the sustained call rate.
	RequestsPerSecond float64

	// Burst is the token bucket size.
	Burst int

	// CallTimeout bounds each individual attempt.
	CallTimeout time.Duration

	// BaseDelay is the first backoff delay; it doubles per retry up to MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// EmbeddingService decorates another EmbeddingService.
type EmbeddingService struct {
	inner   driven.EmbeddingService
	cfg     Config
	limiter *rate.Limiter

	mu      sync.Mutex
	retryAt time.Time

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Wrap decorates inner using cfg, filling zero fields with defaults.
func Wrap(inner driven.EmbeddingService, cfg Config) *EmbeddingService {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}

	return &EmbeddingService{
		inner:   inner,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		sleep:   sleepContext,
	}
}

// Embed calls the wrapped service, retrying transient failures.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	attempts := s.cfg.MaxRetries + 1

	for attempt := 0; attempt < attempts; attempt++ {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}

		vec, err := s.call(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) || attempt == attempts-1 {
			break
		}

		delay := s.backoff(attempt)
		var svcErr *domain.EmbeddingServiceError
		if errors.As(err, &svcErr) && svcErr.RetryAfter > 0 {
			s.recordRetryAfter(svcErr.RetryAfter)
			if svcErr.RetryAfter > delay {
				delay = svcErr.RetryAfter
			}
		}

		logger.Debug("embedding attempt %d/%d failed, retrying in %s: %v", attempt+1, attempts, delay, err)
		if err := s.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	if attempts > 1 && retryable(lastErr) {
		return nil, fmt.Errorf("embed after %d attempts: %w", attempts, lastErr)
	}
	return nil, lastErr
}

func (s *EmbeddingService) call(ctx context.Context, text string) ([]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return s.inner.Embed(callCtx, text)
}

// wait honours any provider backoff hint, then the token bucket.
func (s *EmbeddingService) wait(ctx context.Context) error {
	s.mu.Lock()
	retryAt := s.retryAt
	s.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		if err := s.sleep(ctx, d); err != nil {
			return err
		}
	}
	return s.limiter.Wait(ctx)
}

func (s *EmbeddingService) recordRetryAfter(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if at := time.Now().Add(d); at.After(s.retryAt) {
		s.retryAt = at
	}
}

func (s *EmbeddingService) backoff(attempt int) time.Duration {
	delay := s.cfg.BaseDelay << uint(attempt)
	if delay <= 0 || delay > s.cfg.MaxDelay {
		return s.cfg.MaxDelay
	}
	return delay
}

// retryable reports whether err is worth another attempt. A per-call
// timeout counts; a cancelled parent context is handled by the caller.
func retryable(err error) bool {
	var svcErr *domain.EmbeddingServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Temporary()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the wrapped service's model name.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping checks the wrapped service without retrying.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error {
	return s.inner.Close()
}
