// Package chat provides the conversation view for the TUI.
//
// The transcript scrolls in a viewport above a single-line prompt. Each
// question is sent together with the conversation so far; answers list the
// documents that grounded them.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// ErrNoChatService is reported when a question is sent without a chat service.
var ErrNoChatService = errors.New("chat service not available")

// turn is one rendered exchange entry.
type turn struct {
	message    domain.ChatMessage
	sources    []domain.SourceCitation
	ungrounded bool
}

// View is the conversation view.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	transcript viewport.Model
	input      *input.Prompt
	statusbar  *status.Bar

	chat driving.ChatService
	ctx  context.Context

	turns   []turn
	pending bool
	width   int
	height  int
	ready   bool
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, chat driving.ChatService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:     s,
		keymap:     km,
		transcript: viewport.New(80, 18),
		input:      input.NewPrompt(s, ">", "Ask a question about your documents"),
		statusbar:  status.NewBar(s, km.ChatHelp()),
		chat:       chat,
		ctx:        context.Background(),
		width:      80,
		height:     24,
	}
	if chat != nil && !chat.Available() {
		v.statusbar.Set(status.StateError, "no chat model configured")
	}
	v.refresh()
	return v
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the prompt cursor.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ReplyReceived:
		v.handleReply(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.pending = false
		v.statusbar.Set(status.StateError, msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	switch {
	case keymap.Matches(key, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case keymap.Matches(key, v.keymap.Clear):
		if !v.pending {
			v.Clear()
		}
		return v, nil

	case keymap.Matches(key, v.keymap.PageUp), keymap.Matches(key, v.keymap.PageDown):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd

	case keymap.Matches(key, v.keymap.Send):
		question := strings.TrimSpace(v.input.Value())
		if question == "" || v.pending {
			return v, nil
		}
		return v, v.send(question)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// send records the question and returns the command that asks it.
func (v *View) send(question string) tea.Cmd {
	history := v.History()

	v.turns = append(v.turns, turn{message: domain.ChatMessage{Role: domain.RoleUser, Content: question}})
	v.input.Reset()
	v.pending = true
	v.statusbar.Set(status.StateBusy, "Thinking...")
	v.refresh()

	ctx := v.ctx
	chat := v.chat
	return func() tea.Msg {
		if chat == nil {
			return messages.ReplyReceived{Question: question, Err: ErrNoChatService}
		}
		reply, err := chat.Ask(ctx, history, question)
		return messages.ReplyReceived{Question: question, Reply: reply, Err: err}
	}
}

func (v *View) handleReply(msg messages.ReplyReceived) {
	v.pending = false
	if msg.Err != nil {
		// Drop the unanswered question so it is not sent as history.
		if n := len(v.turns); n > 0 && v.turns[n-1].message.Role == domain.RoleUser {
			v.turns = v.turns[:n-1]
		}
		v.input.SetValue(msg.Question)
		v.statusbar.Set(status.StateError, msg.Err.Error())
		v.refresh()
		return
	}

	v.turns = append(v.turns, turn{
		message:    domain.ChatMessage{Role: domain.RoleAssistant, Content: msg.Reply.Content},
		sources:    msg.Reply.Sources,
		ungrounded: !msg.Reply.Grounded,
	})
	if msg.Reply.Grounded {
		v.statusbar.Set(status.StateGrounded, fmt.Sprintf("%d sources", len(msg.Reply.Sources)))
	} else {
		v.statusbar.Set(status.StateReady, "No matching documents")
	}
	v.refresh()
}

// refresh re-renders the transcript and scrolls to the latest turn.
func (v *View) refresh() {
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.turns) == 0 {
		return v.styles.Muted.Render("Ask anything about the documents in your knowledge base.")
	}

	body := lipgloss.NewStyle().Width(max(v.transcript.Width-2, 20))
	parts := make([]string, 0, len(v.turns)*2)
	for _, t := range v.turns {
		var b strings.Builder
		if t.message.Role == domain.RoleUser {
			b.WriteString(v.styles.UserLabel.Render("You"))
		} else {
			b.WriteString(v.styles.AssistantLabel.Render("Assistant"))
		}
		b.WriteString("\n")
		b.WriteString(body.Render(t.message.Content))

		for i, src := range t.sources {
			b.WriteString("\n")
			b.WriteString(v.styles.Source.Render(fmt.Sprintf("  [%d] %s (%d%%)", i+1, src.Filename, src.Relevance)))
		}
		if t.ungrounded {
			b.WriteString("\n")
			b.WriteString(v.styles.Source.Render("  (answered without document context)"))
		}
		parts = append(parts, b.String())
	}
	if v.pending {
		parts = append(parts, v.styles.Muted.Render("..."))
	}
	return strings.Join(parts, "\n\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("ragdesk chat"),
		v.transcript.View(),
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	// Title, bordered prompt and status bar.
	v.transcript.Width = width
	v.transcript.Height = max(height-6, 3)
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// History returns the completed conversation turns in order.
func (v *View) History() []domain.ChatMessage {
	history := make([]domain.ChatMessage, 0, len(v.turns))
	for _, t := range v.turns {
		history = append(history, t.message)
	}
	return history
}

// Pending reports whether a question is awaiting its answer.
func (v *View) Pending() bool {
	return v.pending
}

// Input returns the current prompt text.
func (v *View) Input() string {
	return v.input.Value()
}

// SetInput replaces the prompt text.
func (v *View) SetInput(text string) {
	v.input.SetValue(text)
}

// Status returns the status bar state and message.
func (v *View) Status() (status.State, string) {
	return v.statusbar.State(), v.statusbar.Message()
}

// Clear starts a new conversation.
func (v *View) Clear() {
	v.turns = nil
	v.statusbar.Clear()
	v.refresh()
}
