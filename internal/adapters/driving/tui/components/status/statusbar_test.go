package status

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/keymap"
)

func TestBar_States(t *testing.T) {
	km := keymap.DefaultKeyMap()
	b := NewBar(nil, km.ChatHelp())
	b.SetWidth(120)

	out := b.View()
	assert.Contains(t, out, "Ready")
	assert.Contains(t, out, "enter: send")
	assert.Contains(t, out, "ctrl+l: new chat")

	b.Set(StateBusy, "")
	assert.Contains(t, b.View(), "Working...")

	b.Set(StateError, "boom")
	assert.Contains(t, b.View(), "Error: boom")
	assert.Equal(t, StateError, b.State())

	b.Set(StateGrounded, "2 sources")
	assert.Contains(t, b.View(), "2 sources")

	b.Clear()
	assert.Equal(t, StateReady, b.State())
	assert.Empty(t, b.Message())
}
