package resilient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// scriptedEmbedder returns queued results in order.
type scriptedEmbedder struct {
	mu      sync.Mutex
	results []error
	calls   int
}

func (e *scriptedEmbedder) Embed(ctx context.Context, _ string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if len(e.results) == 0 {
		return []float32{1, 2}, nil
	}
	err := e.results[0]
	e.results = e.results[1:]
	if err != nil {
		return nil, err
	}
	return []float32{1, 2}, nil
}

func (e *scriptedEmbedder) Dimensions() int              { return 2 }
func (e *scriptedEmbedder) ModelName() string            { return "scripted" }
func (e *scriptedEmbedder) Ping(_ context.Context) error { return nil }
func (e *scriptedEmbedder) Close() error                 { return nil }

// recordSleeps swaps the sleeper for one that records delays without waiting.
func recordSleeps(s *EmbeddingService) *[]time.Duration {
	var delays []time.Duration
	s.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}
	return &delays
}

func fastConfig() Config {
	return Config{RequestsPerSecond: 1000, Burst: 100}
}

func TestWrap_Defaults(t *testing.T) {
	s := Wrap(&scriptedEmbedder{}, Config{})
	assert.Equal(t, DefaultMaxRetries, s.cfg.MaxRetries)
	assert.Equal(t, DefaultCallTimeout, s.cfg.CallTimeout)
	assert.Equal(t, DefaultBaseDelay, s.cfg.BaseDelay)
	assert.Equal(t, DefaultMaxDelay, s.cfg.MaxDelay)
	assert.Equal(t, 2, s.Dimensions())
	assert.Equal(t, "scripted", s.ModelName())

	s = Wrap(&scriptedEmbedder{}, Config{MaxRetries: -1})
	assert.Zero(t, s.cfg.MaxRetries)
}

func TestEmbed_RetriesTransientFailures(t *testing.T) {
	inner := &scriptedEmbedder{results: []error{
		&domain.EmbeddingServiceError{Op: "send request", Err: errors.New("connection reset")},
		&domain.EmbeddingServiceError{Op: "embed", StatusCode: 503, Err: errors.New("overloaded")},
	}}
	s := Wrap(inner, fastConfig())
	delays := recordSleeps(s)

	vec, err := s.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, vec)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}, *delays)
}

func TestEmbed_GivesUpAfterMaxRetries(t *testing.T) {
	transient := &domain.EmbeddingServiceError{Op: "embed", StatusCode: 500, Err: errors.New("boom")}
	inner := &scriptedEmbedder{results: []error{transient, transient, transient, transient, transient}}
	cfg := fastConfig()
	cfg.MaxRetries = 2
	s := Wrap(inner, cfg)
	recordSleeps(s)

	_, err := s.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
	assert.Contains(t, err.Error(), "after 3 attempts")

	var svcErr *domain.EmbeddingServiceError
	assert.True(t, errors.As(err, &svcErr))
}

func TestEmbed_DoesNotRetryPermanentFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unauthorized", &domain.EmbeddingServiceError{Op: "embed", StatusCode: 401, Err: domain.ErrUnauthorized}},
		{"quota", &domain.EmbeddingServiceError{Op: "embed", StatusCode: 429, Err: domain.ErrQuotaExceeded}},
		{"bad request", &domain.EmbeddingServiceError{Op: "embed", StatusCode: 400, Err: errors.New("input too long")}},
		{"plain error", errors.New("marshal request: bad")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &scriptedEmbedder{results: []error{tt.err}}
			s := Wrap(inner, fastConfig())
			delays := recordSleeps(s)

			_, err := s.Embed(context.Background(), "hello")
			assert.Equal(t, tt.err, err)
			assert.Equal(t, 1, inner.calls)
			assert.Empty(t, *delays)
		})
	}
}

func TestEmbed_HonoursRetryAfter(t *testing.T) {
	inner := &scriptedEmbedder{results: []error{
		&domain.EmbeddingServiceError{Op: "embed", StatusCode: 429, RetryAfter: 2 * time.Second, Err: domain.ErrRateLimited},
	}}
	s := Wrap(inner, fastConfig())
	delays := recordSleeps(s)

	_, err := s.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.NotEmpty(t, *delays)
	assert.Equal(t, 2*time.Second, (*delays)[0])
	assert.False(t, s.retryAt.IsZero())
}

func TestEmbed_BackoffIsCapped(t *testing.T) {
	s := Wrap(&scriptedEmbedder{}, Config{BaseDelay: time.Second, MaxDelay: 3 * time.Second})
	assert.Equal(t, time.Second, s.backoff(0))
	assert.Equal(t, 2*time.Second, s.backoff(1))
	assert.Equal(t, 3*time.Second, s.backoff(2))
	assert.Equal(t, 3*time.Second, s.backoff(40))
}

func TestEmbed_CancelledContextStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inner := &scriptedEmbedder{results: []error{
		&domain.EmbeddingServiceError{Op: "send request", Err: errors.New("reset")},
	}}
	s := Wrap(inner, fastConfig())
	s.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	_, err := s.Embed(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(context.DeadlineExceeded))
	assert.True(t, retryable(&domain.EmbeddingServiceError{StatusCode: 429, Err: domain.ErrRateLimited}))
	assert.False(t, retryable(context.Canceled))
	assert.False(t, retryable(errors.New("nope")))
}
