package logger

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// capture redirects output to a buffer for the duration of the test.
func capture(t *testing.T, verboseMode bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseMode)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name    string
		log     func(string, ...any)
		verbose bool
		want    string
	}{
		{"debug verbose", Debug, true, "[DEBUG] chunk 3 of doc-1\n"},
		{"debug quiet", Debug, false, ""},
		{"info verbose", Info, true, "[INFO] chunk 3 of doc-1\n"},
		{"info quiet", Info, false, ""},
		{"warn verbose", Warn, true, "[WARN] chunk 3 of doc-1\n"},
		{"warn quiet", Warn, false, ""},
		{"error verbose", Error, true, "[ERROR] chunk 3 of doc-1\n"},
		{"error quiet", Error, false, "[ERROR] chunk 3 of doc-1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.verbose)
			tt.log("chunk %d of %s", 3, "doc-1")
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestSection(t *testing.T) {
	buf := capture(t, true)
	Section("Embedding pipeline")
	assert.Equal(t, "\n=== Embedding pipeline ===\n", buf.String())

	buf.Reset()
	SetVerbose(false)
	Section("Embedding pipeline")
	assert.Empty(t, buf.String())
}

func TestConcurrentWrites(t *testing.T) {
	buf := capture(t, true)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			Info("batch %d done", n)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 20)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "[INFO] batch "), line)
	}
}
