package ai

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
)

// fakeEmbedding fails with err until err is cleared.
type fakeEmbedding struct {
	calls int
	err   error
}

func (f *fakeEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (f *fakeEmbedding) ModelName() string { return "fake" }
func (f *fakeEmbedding) Ping(context.Context) error { return nil }
func (f *fakeEmbedding) Close() error { return nil }

type fakeLLM struct {
	calls int
	err   error
}

func (f *fakeLLM) Chat(context.Context, []driven.ChatMessage, driven.ChatOptions) (string, error) {
	f.calls++
	return "answer", f.err
}

func (f *fakeLLM) ChatStream(context.Context, []driven.ChatMessage, driven.ChatOptions) (driven.ChatStream, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &fakeStream{fragments: []string{"a", "b"}}, nil
}

func (f *fakeLLM) ModelName() string { return "fake" }
func (f *fakeLLM) Ping(context.Context) error { return nil }
func (f *fakeLLM) Close() error { return nil }

type fakeStream struct {
	fragments []string
}

func (s *fakeStream) Recv() (string, error) {
	if len(s.fragments) == 0 {
		return "", io.EOF
	}
	next := s.fragments[0]
	s.fragments = s.fragments[1:]
	return next, nil
}

func (s *fakeStream) Close() error { return nil }

func testGuard(threshold uint32) GuardConfig {
	return GuardConfig{RequestsPerSecond: 1000, Burst: 100, FailureThreshold: threshold, OpenTimeout: time.Hour}
}

func TestGuard_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &fakeEmbedding{err: errors.New("connection refused")}
	svc := &guardedEmbedding{
		EmbeddingService: inner,
		guard:            newGuard("embedding/test", testGuard(3), domain.ErrEmbeddingUnavailable),
	}
	ctx := context.Background()

	for range 3 {
		_, err := svc.EmbedBatch(ctx, []string{"x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	}
	assert.Equal(t, 3, inner.calls)

	_, err := svc.EmbedBatch(ctx, []string{"x"})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, inner.calls, "open breaker does not call the provider")
}

func TestGuard_SuccessResetsFailureCount(t *testing.T) {
	inner := &fakeEmbedding{}
	svc := &guardedEmbedding{
		EmbeddingService: inner,
		guard:            newGuard("embedding/test", testGuard(2), domain.ErrEmbeddingUnavailable),
	}
	ctx := context.Background()

	for range 3 {
		inner.err = errors.New("flaky")
		_, err := svc.EmbedBatch(ctx, []string{"x"})
		require.Error(t, err)

		inner.err = nil
		vectors, err := svc.EmbedBatch(ctx, []string{"x", "y"})
		require.NoError(t, err)
		assert.Len(t, vectors, 2)
	}

	assert.Equal(t, gobreaker.StateClosed, svc.guard.breaker.State())
}

func TestGuard_IgnoresCancellationAndConfigErrors(t *testing.T) {
	inner := &fakeLLM{}
	svc := &guardedLLM{
		LLMService: inner,
		guard:      newGuard("chat/test", testGuard(1), domain.ErrLLMUnavailable),
	}
	ctx := context.Background()

	inner.err = context.Canceled
	_, err := svc.Chat(ctx, nil, driven.ChatOptions{})
	assert.ErrorIs(t, err, context.Canceled)

	inner.err = domain.ErrInvalidConfig
	_, err = svc.Chat(ctx, nil, driven.ChatOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	inner.err = nil
	answer, err := svc.Chat(ctx, nil, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "answer", answer)
	assert.Equal(t, 3, inner.calls)
}

func TestGuard_ChatStream(t *testing.T) {
	inner := &fakeLLM{}
	svc := &guardedLLM{
		LLMService: inner,
		guard:      newGuard("chat/test", testGuard(1), domain.ErrLLMUnavailable),
	}
	ctx := context.Background()

	stream, err := svc.ChatStream(ctx, nil, driven.ChatOptions{})
	require.NoError(t, err)
	first, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "a", first)

	inner.err = errors.New("refused")
	_, err = svc.ChatStream(ctx, nil, driven.ChatOptions{})
	require.Error(t, err)

	_, err = svc.ChatStream(ctx, nil, driven.ChatOptions{})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.calls)
}

func TestGuard_CancelledWhileWaitingForLimiter(t *testing.T) {
	inner := &fakeEmbedding{}
	svc := &guardedEmbedding{
		EmbeddingService: inner,
		guard: newGuard("embedding/test", GuardConfig{RequestsPerSecond: 0.001, Burst: 1},
			domain.ErrEmbeddingUnavailable),
	}

	_, err := svc.EmbedBatch(context.Background(), []string{"x"})
	require.NoError(t, err, "burst allows the first call")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.EmbedBatch(ctx, []string{"x"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.calls)
}

func TestGuardConfig_Defaults(t *testing.T) {
	cfg := GuardConfig{}.withDefaults()

	assert.InDelta(t, float64(DefaultRequestsPerSecond), cfg.RequestsPerSecond, 1e-9)
	assert.Equal(t, DefaultBurst, cfg.Burst)
	assert.EqualValues(t, DefaultFailureThreshold, cfg.FailureThreshold)
	assert.Equal(t, DefaultOpenTimeout, cfg.OpenTimeout)
}
