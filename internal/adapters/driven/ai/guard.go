package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
	"github.com/custodia-labs/ragnote/internal/logger"
)

// GuardConfig tunes the circuit breaker and rate limiter placed in front of
// every provider client.
type GuardConfig struct {
	// RequestsPerSecond is the sustained request rate. Zero uses the default.
	RequestsPerSecond float64

	// Burst is the number of requests allowed at once. Zero uses the default.
	Burst int

	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32

	// OpenTimeout is how long an open breaker rejects calls before probing again.
	OpenTimeout time.Duration
}

// Default guard values.
const (
	DefaultRequestsPerSecond = 10
	DefaultBurst             = 10
	DefaultFailureThreshold  = 5
	DefaultOpenTimeout       = 30 * time.Second
)

func (c GuardConfig) withDefaults() GuardConfig {
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.Burst <= 0 {
		c.Burst = DefaultBurst
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = DefaultOpenTimeout
	}
	return c
}

// guard rate limits calls and fails fast while a provider keeps failing.
// It never retries.
type guard struct {
	name        string
	breaker     *gobreaker.CircuitBreaker
	limiter     *rate.Limiter
	unavailable error
}

func newGuard(name string, cfg GuardConfig, unavailable error) *guard {
	cfg = cfg.withDefaults()

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// Cancellation and bad settings say nothing about provider health.
			return err == nil ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, domain.ErrInvalidConfig)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &guard{
		name:        name,
		breaker:     breaker,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		unavailable: unavailable,
	}
}

// run waits for the limiter, then calls fn through the breaker.
func (g *guard) run(ctx context.Context, fn func() error) error {
	if err := g.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s: %w", g.unavailable, g.name, err)
	}

	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s is failing, not calling it: %w", g.unavailable, g.name, err)
	}
	return err
}

// guardedEmbedding routes EmbedBatch through a guard.
type guardedEmbedding struct {
	driven.EmbeddingService
	guard *guard
}

var _ driven.EmbeddingService = (*guardedEmbedding)(nil)

func (g *guardedEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := g.guard.run(ctx, func() error {
		var err error
		vectors, err = g.EmbeddingService.EmbedBatch(ctx, texts)
		return err
	})
	return vectors, err
}

// guardedLLM routes Chat and the opening of ChatStream through a guard.
// Failures while reading an open stream are reported by the stream itself.
type guardedLLM struct {
	driven.LLMService
	guard *guard
}

var _ driven.LLMService = (*guardedLLM)(nil)

func (g *guardedLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var answer string
	err := g.guard.run(ctx, func() error {
		var err error
		answer, err = g.LLMService.Chat(ctx, messages, opts)
		return err
	})
	return answer, err
}

func (g *guardedLLM) ChatStream(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (driven.ChatStream, error) {
	var stream driven.ChatStream
	err := g.guard.run(ctx, func() error {
		var err error
		stream, err = g.LLMService.ChatStream(ctx, messages, opts)
		return err
	})
	return stream, err
}
