package driving

import (
	"context"

	"github.com/custodia-labs/ragnote/internal/core/domain"
)

// ChatService answers questions, optionally grounded in retrieved context.
type ChatService interface {
	// Ask answers a question in one response and logs the exchange.
	Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error)

	// AskStream answers a question, calling onFragment for each piece of the
	// answer as it arrives. The exchange is logged only once the answer is
	// complete; a cancelled or failed answer logs nothing.
	AskStream(ctx context.Context, req domain.AskRequest, onFragment func(string) error) (*domain.Answer, error)

	// History returns recent chat turns, oldest first.
	History(ctx context.Context, limit int) ([]domain.ChatTurn, error)
}
