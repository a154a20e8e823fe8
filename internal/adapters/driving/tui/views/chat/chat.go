// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragnote/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragnote/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragnote/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragnote/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragnote/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driving"
)

// historyLimit is how many past turns are shown when the view opens.
const historyLimit = 20

// Prompt labels.
const (
	labelRAG   = "Ask: "
	labelNoRAG = "Ask (no context): "
)

// View is the chat view: a transcript, a question input and a status bar.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	statusbar  *status.Bar
	transcript viewport.Model

	chatService driving.ChatService
	ctx         context.Context

	turns    []domain.ChatTurn
	sources  []domain.RetrievedChunk
	question string
	partial  strings.Builder

	// answering is true from submit until AnswerCompleted arrives.
	answering bool
	cancel    context.CancelFunc
	events    chan tea.Msg
	ragOff    bool

	width  int
	height int
	ready  bool
	err    error
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, chatService driving.ChatService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetBindings(km.ChatHelp())

	return &View{
		styles:      s,
		keymap:      km,
		input:       input.NewQuestionInput(s),
		statusbar:   bar,
		transcript:  viewport.New(80, 16),
		chatService: chatService,
		ctx:         context.Background(),
		width:       80,
		height:      24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the cursor blinking and loads recent history.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.loadHistory())
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.HistoryLoaded:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.turns = msg.Turns
		v.refresh()
		return v, nil

	case messages.AnswerFragment:
		if !v.answering {
			return v, nil
		}
		v.partial.WriteString(msg.Text)
		v.statusbar.SetState(status.StateAnswering)
		v.refresh()
		return v, v.waitForEvent()

	case messages.AnswerCompleted:
		return v, v.handleAnswerCompleted(msg)

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.transcript, cmd = v.transcript.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.answering {
		if key.Matches(msg, v.keymap.Cancel) && v.cancel != nil {
			v.cancel()
		}
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keymap.Ask):
		question := strings.TrimSpace(v.input.Value())
		if question == "" {
			return v, nil
		}
		return v, v.ask(question)

	case key.Matches(msg, v.keymap.ToggleRAG):
		v.ragOff = !v.ragOff
		if v.ragOff {
			v.input.SetLabel(labelNoRAG)
		} else {
			v.input.SetLabel(labelRAG)
		}
		return v, nil

	case key.Matches(msg, v.keymap.Cancel):
		v.input.Reset()
		return v, nil
	}

	//nolint:exhaustive // only scrolling keys are forwarded to the transcript
	switch msg.Type {
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// ask starts answering a question in the background. Fragments and the final
// result arrive as messages on v.events, one per waitForEvent command.
func (v *View) ask(question string) tea.Cmd {
	if v.chatService == nil {
		return func() tea.Msg {
			return messages.ErrorOccurred{Err: ErrNoChatService}
		}
	}

	req := domain.AskRequest{Question: question}
	if v.ragOff {
		off := false
		req.UseRAG = &off
	}

	ctx, cancel := context.WithCancel(v.ctx)
	events := make(chan tea.Msg, 16)

	v.cancel = cancel
	v.events = events
	v.answering = true
	v.question = question
	v.partial.Reset()
	v.sources = nil
	v.err = nil
	v.input.Reset()
	v.input.Blur()
	v.statusbar.SetState(status.StateThinking)
	v.statusbar.SetMessage("")
	v.statusbar.SetBindings(v.keymap.AnsweringHelp())
	v.refresh()

	service := v.chatService
	go func() {
		defer close(events)
		answer, err := service.AskStream(ctx, req, func(fragment string) error {
			select {
			case events <- messages.AnswerFragment{Text: fragment}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		events <- messages.AnswerCompleted{Answer: answer, Err: err}
	}()

	return v.waitForEvent()
}

// waitForEvent returns a command that delivers the next answer event.
func (v *View) waitForEvent() tea.Cmd {
	events := v.events
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

// handleAnswerCompleted records a finished answer or reports why it failed.
func (v *View) handleAnswerCompleted(msg messages.AnswerCompleted) tea.Cmd {
	if !v.answering {
		return nil
	}
	if v.cancel != nil {
		v.cancel()
	}
	v.answering = false
	v.cancel = nil
	v.partial.Reset()
	v.statusbar.SetBindings(v.keymap.ChatHelp())

	switch {
	case errors.Is(msg.Err, context.Canceled):
		v.statusbar.Clear()
		v.statusbar.SetMessage("Cancelled")
	case msg.Err != nil:
		v.setError(msg.Err)
	case msg.Answer != nil:
		v.turns = append(v.turns, msg.Answer.Turn)
		v.sources = msg.Answer.Sources
		v.statusbar.Clear()
	}
	v.question = ""
	v.refresh()
	return v.input.Focus()
}

// loadHistory fetches recent chat turns.
func (v *View) loadHistory() tea.Cmd {
	return func() tea.Msg {
		if v.chatService == nil {
			return messages.HistoryLoaded{Err: ErrNoChatService}
		}
		turns, err := v.chatService.History(v.ctx, historyLimit)
		return messages.HistoryLoaded{Turns: turns, Err: err}
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// refresh re-renders the transcript and scrolls to the newest content.
func (v *View) refresh() {
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

// renderTranscript renders past turns, the answer in progress and sources.
func (v *View) renderTranscript() string {
	wrap := lipgloss.NewStyle().Width(max(v.width-2, 20))

	var b strings.Builder
	for _, turn := range v.turns {
		b.WriteString(v.styles.Question.Render("> " + turn.UserInput))
		b.WriteString("\n")
		b.WriteString(wrap.Render(v.styles.Answer.Render(turn.BotOutput)))
		b.WriteString("\n\n")
	}

	if v.answering {
		b.WriteString(v.styles.Question.Render("> " + v.question))
		b.WriteString("\n")
		b.WriteString(wrap.Render(v.styles.Answer.Render(v.partial.String())))
		b.WriteString("\n")
	}

	if len(v.sources) > 0 {
		b.WriteString(v.styles.Muted.Render("Sources:"))
		b.WriteString("\n")
		for i, src := range v.sources {
			line := fmt.Sprintf("[%d] %s (%.2f)", i+1, src.FileName, src.Score)
			b.WriteString(v.styles.Source.Render(line))
			b.WriteString("\n")
		}
	}

	if b.Len() == 0 {
		return v.styles.Muted.Render("No questions yet. Type one below and press enter.")
	}
	return strings.TrimRight(b.String(), "\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("ragnote"), "")
	sections = append(sections, v.transcript.View(), "")
	if v.err != nil && !v.answering {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()))
	}
	sections = append(sections, v.input.View(), "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	// Reserve space for header, input and status bar
	v.transcript.Width = width
	v.transcript.Height = max(height-8, 3)
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Answering returns whether an answer is in progress.
func (v *View) Answering() bool {
	return v.answering
}

// RAGEnabled returns whether the next question will use retrieval.
func (v *View) RAGEnabled() bool {
	return !v.ragOff
}

// Turns returns the turns shown in the transcript.
func (v *View) Turns() []domain.ChatTurn {
	return v.turns
}

// Sources returns the sources of the last answer.
func (v *View) Sources() []domain.RetrievedChunk {
	return v.sources
}

// Partial returns the answer streamed so far.
func (v *View) Partial() string {
	return v.partial.String()
}

// Question returns the current input value.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the input value.
func (v *View) SetQuestion(q string) {
	v.input.SetValue(q)
}

// StatusBar returns the view's status bar.
func (v *View) StatusBar() *status.Bar {
	return v.statusbar
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}
