package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
)

var testMessages = []driven.ChatMessage{
	{Role: driven.RoleUser, Content: "What is in my notes?"},
}

// collect drains a stream into its fragments.
func collect(t *testing.T, stream driven.ChatStream) ([]string, error) {
	t.Helper()
	defer stream.Close()

	var fragments []string
	for {
		fragment, err := stream.Recv()
		if err == io.EOF {
			return fragments, nil
		}
		if err != nil {
			return fragments, err
		}
		fragments = append(fragments, fragment)
	}
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc := NewLLMService(LLMConfig{})

	assert.Equal(t, DefaultBaseURL, svc.baseURL)
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.Equal(t, DefaultLLMTimeout, svc.client.Timeout)
	assert.NoError(t, svc.Close())
}

func TestChat(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"Your notes cover Go."},"done":true}`))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL, Model: "qwen2.5:3b"})

	answer, err := svc.Chat(context.Background(), testMessages, driven.ChatOptions{MaxTokens: 64, Temperature: 0.2})

	require.NoError(t, err)
	assert.Equal(t, "Your notes cover Go.", answer)
	assert.Equal(t, "qwen2.5:3b", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	require.NotNil(t, got.Options)
	assert.Equal(t, 64, got.Options.NumPredict)
	assert.InDelta(t, 0.2, got.Options.Temperature, 1e-9)
}

func TestChat_NoOptions(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"message":{"content":"ok"},"done":true}`))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})

	_, err := svc.Chat(context.Background(), testMessages, driven.ChatOptions{})

	require.NoError(t, err)
	assert.NotContains(t, raw, "options")
}

func TestChat_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom"},
		{name: "bad json", status: http.StatusOK, body: "not json"},
		{name: "error field", status: http.StatusOK, body: `{"error":"model crashed"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc := NewLLMService(LLMConfig{BaseURL: server.URL})

			_, err := svc.Chat(context.Background(), testMessages, driven.ChatOptions{})

			assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
		})
	}
}

func TestChatStream(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/x-ndjson")
		lines := []string{
			`{"message":{"role":"assistant","content":"Your "},"done":false}`,
			`{"message":{"role":"assistant","content":"notes "},"done":false}`,
			`{"message":{"role":"assistant","content":""},"done":false}`,
			`{"message":{"role":"assistant","content":"cover Go."},"done":false}`,
			`{"message":{"role":"assistant","content":""},"done":true,"done_reason":"stop"}`,
		}
		_, _ = w.Write([]byte(strings.Join(lines, "\n") + "\n"))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})

	stream, err := svc.ChatStream(context.Background(), testMessages, driven.ChatOptions{})
	require.NoError(t, err)

	fragments, err := collect(t, stream)

	require.NoError(t, err)
	assert.True(t, got.Stream)
	assert.Equal(t, []string{"Your ", "notes ", "", "cover Go."}, fragments)

	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err, "stream stays finished")
}

func TestChatStream_FinalObjectCarriesContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"content":"all at once"},"done":true}` + "\n"))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})

	stream, err := svc.ChatStream(context.Background(), testMessages, driven.ChatOptions{})
	require.NoError(t, err)
	fragments, err := collect(t, stream)

	require.NoError(t, err)
	assert.Equal(t, []string{"all at once"}, fragments)
}

func TestChatStream_Failures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "cut off before done", body: `{"message":{"content":"partial"},"done":false}` + "\n"},
		{name: "error mid stream", body: `{"message":{"content":"partial"},"done":false}` + "\n" + `{"error":"out of memory"}` + "\n"},
		{name: "garbage", body: `{"message":{"content":"partial"},"done":false}` + "\n" + "<html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc := NewLLMService(LLMConfig{BaseURL: server.URL})

			stream, err := svc.ChatStream(context.Background(), testMessages, driven.ChatOptions{})
			require.NoError(t, err)
			fragments, err := collect(t, stream)

			assert.Equal(t, []string{"partial"}, fragments)
			assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
		})
	}
}

func TestChatStream_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"missing\" not found"}`))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL, Model: "missing"})

	_, err := svc.ChatStream(context.Background(), testMessages, driven.ChatOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "status 404")
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"qwen2.5:3b"}]}`))
	}))
	defer server.Close()

	assert.NoError(t, NewLLMService(LLMConfig{BaseURL: server.URL, Model: "qwen2.5:3b"}).Ping(context.Background()))

	err := NewLLMService(LLMConfig{BaseURL: server.URL, Model: "llama3.2"}).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not pulled")
}
