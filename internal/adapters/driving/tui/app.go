package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragnote/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragnote/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragnote/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragnote/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/ragnote/internal/adapters/driving/tui/views/documents"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	chatView      *chat.View
	documentsView *documents.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// previousView is restored when help is closed.
	previousView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	h := help.New()
	h.ShowAll = true

	return &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		keymap:        km,
		help:          h,
		chatView:      chat.NewView(s, km, ports.Chat),
		documentsView: documents.NewView(s, km, ports.Documents),
		currentView:   messages.ViewChat,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	a.documentsView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("ragnote"),
		a.chatView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	// Answer events go to the chat view even while another view is showing,
	// so a streamed answer keeps flowing.
	case messages.AnswerFragment, messages.AnswerCompleted, messages.HistoryLoaded:
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.DocumentsLoaded, messages.DocumentDeleted:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewChat:
			a.chatView, cmd = a.chatView.Update(msg)
		case messages.ViewDocuments:
			a.documentsView, cmd = a.documentsView.Update(msg)
		case messages.ViewHelp:
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	if a.currentView == messages.ViewChat {
		a.chatView, cmd = a.chatView.Update(msg)
	}
	return a, cmd
}

// handleKeyMsg routes global keys and forwards the rest to the active view.
func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, a.keymap.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keymap.Help):
		if a.currentView == messages.ViewHelp {
			return a, a.switchTo(a.previousView)
		}
		return a, a.switchTo(messages.ViewHelp)

	case key.Matches(msg, a.keymap.SwitchView):
		if a.currentView == messages.ViewHelp {
			return a, a.switchTo(a.previousView)
		}
		return a, a.switchTo(a.currentView.Next())
	}

	switch a.currentView {
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewHelp:
		if key.Matches(msg, a.keymap.Cancel) {
			return a, a.switchTo(a.previousView)
		}
	}
	return a, cmd
}

// switchTo activates a view, loading its data where needed.
func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	if view == a.currentView {
		return nil
	}
	if a.currentView != messages.ViewHelp {
		a.previousView = a.currentView
	}
	a.currentView = view

	if view == messages.ViewDocuments {
		return a.documentsView.Init()
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewChat:
		body = a.chatView.View()
	case messages.ViewDocuments:
		body = a.documentsView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	}

	return a.renderTabs() + "\n" + body
}

// renderTabs renders the view switcher.
func (a *App) renderTabs() string {
	tabs := []messages.ViewType{messages.ViewChat, messages.ViewDocuments, messages.ViewHelp}
	rendered := make([]string, 0, len(tabs))
	for _, t := range tabs {
		label := strings.ToUpper(t.String()[:1]) + t.String()[1:]
		if t == a.currentView {
			rendered = append(rendered, a.styles.ActiveTab.Render(label))
		} else {
			rendered = append(rendered, a.styles.Tab.Render(label))
		}
	}
	return strings.Join(rendered, " ")
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	b.WriteString(a.help.View(a.keymap))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Muted.Render("Questions are answered from your ingested documents unless retrieval is toggled off."))
	b.WriteString("\n")
	b.WriteString(a.styles.Muted.Render("PgUp/PgDn scroll the chat transcript."))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and its views.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.help.Width = width
	// One line for the tab bar
	a.chatView.SetDimensions(width, height-1)
	a.documentsView.SetDimensions(width, height-1)
}
