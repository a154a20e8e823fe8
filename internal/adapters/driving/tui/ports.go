// Package tui provides an interactive terminal user interface for ragnote.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"fmt"

	"github.com/custodia-labs/ragnote/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Chat answers questions and provides history.
	Chat driving.ChatService

	// Documents lists and deletes ingested documents.
	Documents driving.DocumentService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(chat driving.ChatService, documents driving.DocumentService) *Ports {
	return &Ports{
		Chat:      chat,
		Documents: documents,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Chat == nil {
		return fmt.Errorf("%w: %w", ErrInvalidPorts, ErrMissingChatService)
	}
	if p.Documents == nil {
		return fmt.Errorf("%w: %w", ErrInvalidPorts, ErrMissingDocumentService)
	}
	return nil
}
