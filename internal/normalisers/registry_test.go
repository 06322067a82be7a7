package normalisers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

type stubNormaliser struct {
	types    []string
	priority int
	content  string
	err      error
}

func (s *stubNormaliser) SupportedMIMETypes() []string { return s.types }
func (s *stubNormaliser) Priority() int                { return s.priority }
func (s *stubNormaliser) Normalise(_ context.Context, _ *domain.RawDocument) (*driven.NormaliseResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &driven.NormaliseResult{Content: s.content, FileType: domain.FileTypeText}, nil
}

func TestRegistry_ExactMatchBeatsWildcard(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{types: []string{"text/*"}, priority: 90, content: "wildcard"})
	r.Register(&stubNormaliser{types: []string{"text/csv"}, priority: 10, content: "csv"})

	result, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "text/csv; charset=utf-8"})
	require.NoError(t, err)
	assert.Equal(t, "csv", result.Content)

	result, err = r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "text/x-go"})
	require.NoError(t, err)
	assert.Equal(t, "wildcard", result.Content)
}

func TestRegistry_PriorityOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{types: []string{"text/plain"}, priority: 5, content: "low"})
	r.Register(&stubNormaliser{types: []string{"text/plain"}, priority: 50, content: "high"})

	result, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, "high", result.Content)
}

func TestRegistry_UnsupportedType(t *testing.T) {
	_, err := Default().Normalise(context.Background(), &domain.RawDocument{
		Filename: "photo.png",
		MIMEType: "image/png",
	})

	var extErr *domain.ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "photo.png", extErr.Filename)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegistry_WrapsNormaliserFailure(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{types: []string{"application/pdf"}, priority: 50, err: domain.ErrInvalidInput})

	_, err := r.Normalise(context.Background(), &domain.RawDocument{Filename: "a.pdf", MIMEType: "application/pdf"})
	var extErr *domain.ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistry_NilDocument(t *testing.T) {
	_, err := Default().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDefault_RoutesBuiltins(t *testing.T) {
	r := Default()
	ctx := context.Background()

	md, err := r.Normalise(ctx, &domain.RawDocument{Filename: "a.md", MIMEType: "text/markdown", Content: []byte("# hi")})
	require.NoError(t, err)
	assert.Equal(t, domain.FileTypeText, md.FileType)

	page, err := r.Normalise(ctx, &domain.RawDocument{Filename: "a.html", MIMEType: "text/html", Content: []byte("<p>hi</p>")})
	require.NoError(t, err)
	assert.Equal(t, domain.FileTypeWeb, page.FileType)
	assert.Equal(t, "hi", page.Content)

	types := r.SupportedMIMETypes()
	assert.Contains(t, types, "application/pdf")
	assert.Contains(t, types, "text/*")
}

func TestRegistry_DetectsMissingMIMEType(t *testing.T) {
	r := Default()

	res, err := r.Normalise(context.Background(), &domain.RawDocument{Filename: "notes.md", Content: []byte("plain notes")})
	require.NoError(t, err)
	assert.Equal(t, "plain notes", res.Content)

	res, err = r.Normalise(context.Background(), &domain.RawDocument{
		Filename: "page.html",
		MIMEType: "application/octet-stream",
		Content:  []byte("<html><body><p>web text</p></body></html>"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.FileTypeWeb, res.FileType)
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		filename string
		content  []byte
		want     string
	}{
		{"notes.md", nil, "text/markdown"},
		{"REPORT.PDF", nil, "application/pdf"},
		{"plan.docx", nil, "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"index.htm", nil, "text/html"},
		{"noext", []byte("just some words"), "text/plain"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMIMEType(tt.filename, tt.content))
		})
	}
}
