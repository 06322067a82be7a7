package serper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, domain.ErrWebSearchUnavailable)
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "golang context", req.Q)
		assert.Equal(t, 2, req.Num)

		_, _ = w.Write([]byte(`{"organic":[
			{"title":"Go Concurrency","link":"https://go.dev/blog/context","snippet":"Contexts carry deadlines"},
			{"title":"No link"},
			{"title":"pkg.go.dev","link":"https://pkg.go.dev/context"},
			{"title":"Extra","link":"https://example.com"}
		]}`))
	}))
	defer server.Close()

	s, err := New(Config{APIKey: "secret", Endpoint: server.URL})
	require.NoError(t, err)

	results, err := s.Search(context.Background(), "  golang context ", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, domain.WebResult{Title: "Go Concurrency", URL: "https://go.dev/blog/context", Snippet: "Contexts carry deadlines"}, results[0])
	assert.Equal(t, "https://pkg.go.dev/context", results[1].URL)
	assert.Empty(t, results[1].Snippet)
}

func TestSearch_NoOrganic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"searchParameters":{}}`))
	}))
	defer server.Close()

	s, err := New(Config{APIKey: "k", Endpoint: server.URL})
	require.NoError(t, err)

	results, err := s.Search(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"unauthorized", http.StatusForbidden, domain.ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
		{"server", http.StatusBadGateway, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			s, err := New(Config{APIKey: "k", Endpoint: server.URL})
			require.NoError(t, err)

			_, err = s.Search(context.Background(), "q", 3)
			require.Error(t, err)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}

	s, err := New(Config{APIKey: "k"})
	require.NoError(t, err)
	_, err = s.Search(context.Background(), "   ", 3)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
