package html

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.IsType(t, &Normaliser{}, normaliser)
}

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()

	assert.Contains(t, mimeTypes, "text/html")
	assert.Contains(t, mimeTypes, "application/xhtml+xml")
	assert.Len(t, mimeTypes, 2)
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		Filename: "document.html",
		MIMEType: "text/html",
		Content:  []byte("<html><head><title>Test Page</title></head><body><p>Hello World</p></body></html>"),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "Test Page", result.Title)
	assert.Equal(t, "Hello World", result.Content)
	assert.Equal(t, domain.FileTypeWeb, result.FileType)
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_TitleFallsBackToFilename(t *testing.T) {
	raw := &domain.RawDocument{
		Filename: "release_notes-2024.html",
		Content:  []byte("<p>notes</p>"),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "release notes 2024", result.Title)
}

func TestExtractText_DropsScriptsAndStyles(t *testing.T) {
	page := `<html>
<head><style>body { color: red; }</style><script>var x = 1;</script></head>
<body>
  <script>alert("hidden")</script>
  <noscript>enable js</noscript>
  <h1>Heading</h1>
  <p>First   paragraph with &amp; entity.</p>
  <div>Second<br/>line</div>
  <svg><text>vector</text></svg>
</body></html>`

	title, text, err := ExtractText(strings.NewReader(page))
	require.NoError(t, err)
	assert.Empty(t, title)
	assert.Equal(t, "Heading\nFirst paragraph with & entity.\nSecond\nline", text)
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color")
	assert.NotContains(t, text, "vector")
}

func TestExtractText_Empty(t *testing.T) {
	title, text, err := ExtractText(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, title)
	assert.Empty(t, text)
}
