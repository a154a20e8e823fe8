package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
)

// chatStore implements driven.ChatStore.
type chatStore struct {
	store *Store
}

var _ driven.ChatStore = (*chatStore)(nil)

// LogChat appends a chat turn. Missing IDs and timestamps are filled in.
func (s *chatStore) LogChat(ctx context.Context, turn *domain.ChatTurn) error {
	if strings.TrimSpace(turn.UserInput) == "" {
		return fmt.Errorf("%w: chat turn has no user input", domain.ErrInvalidInput)
	}
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO chats (id, user_input, bot_output, created_at)
		VALUES (?, ?, ?, ?)
	`, turn.ID, turn.UserInput, turn.BotOutput, toUnixNano(turn.Timestamp))
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: chat turn %s already exists", domain.ErrInvalidInput, turn.ID)
	}
	if err != nil {
		return fmt.Errorf("logging chat: %w", err)
	}
	return nil
}

// ListChats returns chat turns oldest first. When limit > 0 only the most
// recent limit turns are returned.
func (s *chatStore) ListChats(ctx context.Context, limit int) ([]domain.ChatTurn, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, user_input, bot_output, created_at FROM (
			SELECT seq, id, user_input, bot_output, created_at
			FROM chats
			ORDER BY seq DESC
			LIMIT ?
		) ORDER BY seq
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chats: %w", err)
	}
	defer rows.Close()

	turns := []domain.ChatTurn{}
	for rows.Next() {
		var turn domain.ChatTurn
		var createdAt int64
		if err := rows.Scan(&turn.ID, &turn.UserInput, &turn.BotOutput, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning chat: %w", err)
		}
		turn.Timestamp = fromUnixNano(createdAt)
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chats: %w", err)
	}

	return turns, nil
}
