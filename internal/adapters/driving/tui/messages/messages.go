// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/ragnote/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewChat is the question input and answer view.
	ViewChat ViewType = iota
	// ViewDocuments lists ingested documents.
	ViewDocuments
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewDocuments:
		return "documents"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Next returns the view that tab switches to.
func (v ViewType) Next() ViewType {
	if v == ViewChat {
		return ViewDocuments
	}
	return ViewChat
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// AnswerFragment carries a piece of a streamed answer.
type AnswerFragment struct {
	Text string
}

// AnswerCompleted signals the end of an answer. Answer is nil when Err is set.
type AnswerCompleted struct {
	Answer *domain.Answer
	Err    error
}

// HistoryLoaded carries recent chat turns, oldest first.
type HistoryLoaded struct {
	Turns []domain.ChatTurn
	Err   error
}

// DocumentsLoaded carries the list of ingested documents.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentDeleted signals a document was deleted.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}
