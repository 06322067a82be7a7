package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewType_String(t *testing.T) {
	tests := map[ViewType]string{
		ViewMenu:      "menu",
		ViewChat:      "chat",
		ViewSearch:    "search",
		ViewDocuments: "documents",
		ViewHelp:      "help",
		ViewType(99):  "unknown",
	}
	for v, want := range tests {
		assert.Equal(t, want, v.String())
	}
}
