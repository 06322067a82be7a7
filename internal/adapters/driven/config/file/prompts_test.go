package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

func TestPromptStore_CreatesDefaultsLazily(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "constructor must not touch disk")

	prompt, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	assert.Contains(t, prompt, "%s")
	assert.FileExists(t, filepath.Join(dir, "chat_system.txt"))
	assert.FileExists(t, filepath.Join(dir, "chat_no_context.txt"))
}

func TestPromptStore_UserOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_system.txt"), []byte("Be terse.\n%s\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	assert.Equal(t, "Be terse.\n%s", prompt)

	// Cached until reloaded.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_system.txt"), []byte("Changed %s"), 0600))
	prompt, _ = store.Load(driven.PromptChatSystem)
	assert.Equal(t, "Be terse.\n%s", prompt)

	store.Reload()
	prompt, _ = store.Load(driven.PromptChatSystem)
	assert.Equal(t, "Changed %s", prompt)
}

func TestPromptStore_SystemPromptWithoutPlaceholderFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_system.txt"), []byte("no slot here"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompts[driven.PromptChatSystem], prompt)
}

func TestPromptStore_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("does_not_exist")
	assert.Error(t, err)
}
