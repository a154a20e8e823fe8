package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
	"github.com/custodia-labs/ragnote/internal/core/ports/driving"
	"github.com/custodia-labs/ragnote/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService answers questions with the configured chat model, grounding
// the prompt in retrieved chunks when RAG is enabled.
type ChatService struct {
	settings  SettingsReader
	factory   driven.AIServiceFactory
	search    *SearchService
	chatStore driven.ChatStore
	prompts   driven.PromptStore
}

// NewChatService creates a new chat service. prompts is optional.
func NewChatService(
	settings SettingsReader,
	factory driven.AIServiceFactory,
	search *SearchService,
	chatStore driven.ChatStore,
	prompts driven.PromptStore,
) *ChatService {
	return &ChatService{
		settings:  settings,
		factory:   factory,
		search:    search,
		chatStore: chatStore,
		prompts:   prompts,
	}
}

// Ask answers a question in one response.
func (s *ChatService) Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error) {
	return s.answer(ctx, req, nil)
}

// AskStream answers a question, passing each fragment to onFragment as it
// arrives. When chat.stream is off the whole answer arrives as one fragment.
// An error from onFragment stops generation and is returned unchanged.
func (s *ChatService) AskStream(
	ctx context.Context, req domain.AskRequest, onFragment func(string) error,
) (*domain.Answer, error) {
	return s.answer(ctx, req, onFragment)
}

// History returns the most recent chat turns, oldest first.
func (s *ChatService) History(ctx context.Context, limit int) ([]domain.ChatTurn, error) {
	if limit <= 0 {
		limit = domain.DefaultHistoryLimit
	}
	return s.chatStore.ListChats(ctx, limit)
}

func (s *ChatService) answer(
	ctx context.Context, req domain.AskRequest, onFragment func(string) error,
) (*domain.Answer, error) {
	logger.Section("Chat")

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	settings, err := s.settings.Get()
	if err != nil {
		return nil, err
	}
	if err := settings.LLM.Validate(); err != nil {
		return nil, err
	}

	useRAG := settings.Retrieval.UseRAG
	if req.UseRAG != nil {
		useRAG = *req.UseRAG
	}

	var sources []domain.RetrievedChunk
	if useRAG {
		sources, err = s.search.search(ctx, settings, question, req.Search)
		if err != nil {
			return nil, fmt.Errorf("retrieve context: %w", err)
		}
		logger.Debug("Retrieved %d context chunks", len(sources))
	}

	system := settings.LLM.SystemPrompt
	if useRAG && len(sources) == 0 {
		system = joinNonEmpty("\n\n", system, s.noContextPrompt())
	}
	prompt := BuildPrompt(system, BuildContext(sources, settings.Retrieval.MaxContextChars), question)
	messages := []driven.ChatMessage{{Role: driven.RoleUser, Content: prompt}}

	llm, err := s.factory.LLMService(settings.LLM)
	if err != nil {
		return nil, llmUnavailable(err)
	}
	logger.Debug("Asking %s (stream=%t)", llm.ModelName(), onFragment != nil && settings.LLM.Stream)

	var output string
	if onFragment != nil && settings.LLM.Stream {
		output, err = streamAnswer(ctx, llm, messages, onFragment)
	} else {
		output, err = llm.Chat(ctx, messages, driven.ChatOptions{})
		if err != nil {
			err = llmUnavailable(err)
		} else if onFragment != nil && output != "" {
			err = onFragment(output)
		}
	}

	// A cancelled request logs nothing, even if the model finished.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(output) == "" {
		return nil, fmt.Errorf("%w: model returned an empty answer", domain.ErrLLMUnavailable)
	}

	turn := domain.ChatTurn{UserInput: question, BotOutput: output}
	if err := s.chatStore.LogChat(ctx, &turn); err != nil {
		return nil, fmt.Errorf("log chat: %w", err)
	}

	return &domain.Answer{Turn: turn, Sources: sources}, nil
}

func (s *ChatService) noContextPrompt() string {
	if s.prompts == nil {
		return ""
	}
	prompt, err := s.prompts.Load(driven.PromptNoContext)
	if err != nil {
		return ""
	}
	return prompt
}

// streamAnswer drains a chat stream, forwarding fragments and returning the
// concatenated answer.
func streamAnswer(
	ctx context.Context, llm driven.LLMService, messages []driven.ChatMessage, onFragment func(string) error,
) (string, error) {
	stream, err := llm.ChatStream(ctx, messages, driven.ChatOptions{})
	if err != nil {
		return "", llmUnavailable(err)
	}
	defer stream.Close() //nolint:errcheck

	var answer strings.Builder
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return answer.String(), nil
		}
		if err != nil {
			return "", llmUnavailable(err)
		}
		if fragment == "" {
			continue
		}

		answer.WriteString(fragment)
		if err := onFragment(fragment); err != nil {
			return "", err
		}
	}
}

// BuildContext renders retrieved chunks as "[Relevance: 0.912] text" blocks
// separated by blank lines, at most maxChars characters long. The block that
// would overflow is truncated and later blocks are dropped.
func BuildContext(sources []domain.RetrievedChunk, maxChars int) string {
	if len(sources) == 0 || maxChars <= 0 {
		return ""
	}

	var b strings.Builder
	used := 0

	for _, src := range sources {
		sep := ""
		if used > 0 {
			sep = "\n\n"
		}

		remaining := maxChars - used - len(sep)
		if remaining <= 0 {
			break
		}

		block := fmt.Sprintf("[Relevance: %.3f] %s", src.Score, src.Chunk.Text)
		n := utf8.RuneCountInString(block)
		if n > remaining {
			block = string([]rune(block)[:remaining])
			n = remaining
		}

		b.WriteString(sep)
		b.WriteString(block)
		used += len(sep) + n

		if used >= maxChars {
			break
		}
	}

	return b.String()
}

// BuildPrompt lays out the system prompt, context and question.
// Empty sections are omitted.
func BuildPrompt(system, contextText, question string) string {
	var contextSection string
	if contextText != "" {
		contextSection = "Context:\n" + contextText
	}
	return joinNonEmpty("\n\n", system, contextSection, "User: "+question+"\nAssistant:")
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// llmUnavailable wraps err so errors.Is matches domain.ErrLLMUnavailable.
func llmUnavailable(err error) error {
	if errors.Is(err, domain.ErrLLMUnavailable) || errors.Is(err, domain.ErrInvalidConfig) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
}
