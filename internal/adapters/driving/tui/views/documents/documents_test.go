package documents

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

type stubDocuments struct {
	driving.DocumentService
	documents []domain.Document
	deleted   []string
}

func (s *stubDocuments) List(_ context.Context) ([]domain.Document, error) {
	return append([]domain.Document(nil), s.documents...), nil
}

func (s *stubDocuments) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	var kept []domain.Document
	for _, d := range s.documents {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	s.documents = kept
	return nil
}

func runCmd(v *View, cmd tea.Cmd) *View {
	if cmd == nil {
		return v
	}
	v, _ = v.Update(cmd())
	return v
}

func TestView_LoadAndRender(t *testing.T) {
	svc := &stubDocuments{documents: []domain.Document{
		{ID: "a", Filename: "alpha.txt", FileType: domain.FileTypeText, Status: domain.StatusProcessed, ChunkCount: 3},
		{ID: "b", Filename: "beta.pdf", FileType: domain.FileTypePDF, Status: domain.StatusFailed},
	}}
	v := NewView(nil, nil, svc)
	v.SetDimensions(100, 30)

	v = runCmd(v, v.Init())

	require.Len(t, v.Documents(), 2)
	out := v.View()
	assert.Contains(t, out, "Documents (2)")
	assert.Contains(t, out, "alpha.txt")
	assert.Contains(t, out, "processed")
	assert.Contains(t, out, "failed")
}

func TestView_DeleteWithConfirmation(t *testing.T) {
	svc := &stubDocuments{documents: []domain.Document{
		{ID: "a", Filename: "alpha.txt", Status: domain.StatusProcessed},
		{ID: "b", Filename: "beta.txt", Status: domain.StatusProcessed},
	}}
	v := NewView(nil, nil, svc)
	v.SetDimensions(100, 30)
	v = runCmd(v, v.Init())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	require.True(t, v.ConfirmingDelete())
	assert.Contains(t, v.View(), "Delete beta.txt? [y/N]")

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	require.NotNil(t, cmd)
	v, reload := v.Update(cmd())
	v = runCmd(v, reload)

	assert.Equal(t, []string{"b"}, svc.deleted)
	require.Len(t, v.Documents(), 1)
	assert.Equal(t, 0, v.Selected())
}

func TestView_DeleteCancelled(t *testing.T) {
	svc := &stubDocuments{documents: []domain.Document{{ID: "a", Filename: "alpha.txt"}}}
	v := NewView(nil, nil, svc)
	v = runCmd(v, v.Init())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})

	assert.Nil(t, cmd)
	assert.False(t, v.ConfirmingDelete())
	assert.Empty(t, svc.deleted)
}

func TestView_NoService(t *testing.T) {
	v := NewView(nil, nil, nil)
	v = runCmd(v, v.Init())

	assert.ErrorIs(t, v.Err(), ErrNoDocumentService)
	assert.Contains(t, v.View(), "document service not available")
}

func TestView_Empty(t *testing.T) {
	v := NewView(nil, nil, &stubDocuments{})
	v = runCmd(v, v.Init())

	assert.Contains(t, v.View(), "No documents yet")
}

func TestView_BackToMenu(t *testing.T) {
	v := NewView(nil, nil, &stubDocuments{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}
