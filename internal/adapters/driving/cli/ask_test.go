package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragnote/internal/core/domain"
)

func TestAskCmd_PrintsAnswerAndSources(t *testing.T) {
	var got domain.AskRequest
	setupTestServices(t, &Services{Chat: &MockChatService{
		AskFunc: func(_ context.Context, req domain.AskRequest) (*domain.Answer, error) {
			got = req
			return &domain.Answer{
				Turn: domain.ChatTurn{UserInput: req.Question, BotOutput: "The report is due Friday."},
				Sources: []domain.RetrievedChunk{
					{Chunk: domain.Chunk{Position: 3}, FileName: "plan.md", Score: 0.82},
				},
			}, nil
		},
	}})

	out, err := executeCommand(t, "", "ask", "when", "is", "it", "due?")

	require.NoError(t, err)
	assert.Equal(t, "when is it due?", got.Question)
	assert.Nil(t, got.UseRAG)
	assert.Zero(t, got.Search.TopK)
	assert.Nil(t, got.Search.MinSimilarity)
	assert.Contains(t, out, "The report is due Friday.")
	assert.Contains(t, out, "[1] plan.md #3 (0.82)")
}

func TestAskCmd_Flags(t *testing.T) {
	var got domain.AskRequest
	setupTestServices(t, &Services{Chat: &MockChatService{
		AskFunc: func(_ context.Context, req domain.AskRequest) (*domain.Answer, error) {
			got = req
			return &domain.Answer{
				Turn:    domain.ChatTurn{BotOutput: "ok"},
				Sources: []domain.RetrievedChunk{{FileName: "plan.md"}},
			}, nil
		},
	}})

	out, err := executeCommand(t, "", "ask", "--no-rag", "-k", "7", "--min-similarity", "0.3", "--sources=false", "hi")

	require.NoError(t, err)
	require.NotNil(t, got.UseRAG)
	assert.False(t, *got.UseRAG)
	assert.Equal(t, 7, got.Search.TopK)
	require.NotNil(t, got.Search.MinSimilarity)
	assert.InDelta(t, 0.3, *got.Search.MinSimilarity, 1e-9)
	assert.NotContains(t, out, "Sources:")
}

func TestAskCmd_Error(t *testing.T) {
	setupTestServices(t, &Services{Chat: &MockChatService{
		AskFunc: func(context.Context, domain.AskRequest) (*domain.Answer, error) {
			return nil, domain.ErrLLMUnavailable
		},
	}})

	_, err := executeCommand(t, "", "ask", "hi")

	require.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, Hint(err), "ragnote doctor")
}

func TestAskCmd_NotConfigured(t *testing.T) {
	setupTestServices(t, &Services{})

	_, err := executeCommand(t, "", "ask", "hi")

	require.EqualError(t, err, "chat service not configured")
}

func TestSearchOptions(t *testing.T) {
	cmd := &cobra.Command{}
	var minSim float64
	cmd.Flags().Float64Var(&minSim, "min-similarity", 0, "")

	opts := searchOptions(cmd, 4, 0)
	assert.Equal(t, 4, opts.TopK)
	assert.Nil(t, opts.MinSimilarity, "unset flag defers to settings")

	require.NoError(t, cmd.Flags().Set("min-similarity", "0"))
	opts = searchOptions(cmd, 0, 0)
	require.NotNil(t, opts.MinSimilarity, "an explicit zero is kept")
	assert.Zero(t, *opts.MinSimilarity)
}

func TestIsTerminal_NonFile(t *testing.T) {
	assert.False(t, isTerminal(new(bytes.Buffer)))
}
