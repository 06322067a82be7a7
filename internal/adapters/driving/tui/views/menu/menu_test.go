package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/messages"
)

func TestNewView_Items(t *testing.T) {
	labels := func(v *View) []string {
		var out []string
		for _, it := range v.Items() {
			out = append(out, it.Label)
		}
		return out
	}

	assert.Equal(t, []string{"Chat", "Search", "Documents", "Help", "Quit"}, labels(NewView(nil, true)))
	assert.Equal(t, []string{"Chat", "Search", "Help", "Quit"}, labels(NewView(nil, false)))
}

func TestView_Navigation(t *testing.T) {
	v := NewView(nil, true)

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Equal(t, 2, v.Selected())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewDocuments}, cmd())
}

func TestView_Render(t *testing.T) {
	v := NewView(nil, false)
	assert.Equal(t, "Initialising...", v.View())

	v.SetDimensions(80, 24)
	out := v.View()
	assert.Contains(t, out, "ragdesk")
	assert.Contains(t, out, "> Chat")
}
