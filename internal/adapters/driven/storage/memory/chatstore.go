package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
)

// Ensure ChatStore implements the interface.
var _ driven.ChatStore = (*ChatStore)(nil)

// ChatStore is an in-memory, append-only chat log.
type ChatStore struct {
	mu    sync.RWMutex
	turns []domain.ChatTurn
}

// NewChatStore creates a new in-memory chat store.
func NewChatStore() *ChatStore {
	return &ChatStore{}
}

// LogChat appends a chat turn. Missing IDs and timestamps are filled in.
func (s *ChatStore) LogChat(ctx context.Context, turn *domain.ChatTurn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(turn.UserInput) == "" {
		return fmt.Errorf("%w: chat turn has no user input", domain.ErrInvalidInput)
	}

	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, *turn)
	return nil
}

// ListChats returns chat turns oldest first. When limit > 0 only the most
// recent limit turns are returned.
func (s *ChatStore) ListChats(_ context.Context, limit int) ([]domain.ChatTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if limit > 0 && len(s.turns) > limit {
		start = len(s.turns) - limit
	}

	out := make([]domain.ChatTurn, len(s.turns)-start)
	copy(out, s.turns[start:])
	return out, nil
}

// Count returns the number of logged turns.
func (s *ChatStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}
