package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeQueries(t *testing.T, s *Store, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(s.DataDir(), QueriesFile), []byte(body), 0o644))
}

func TestResolve_Order(t *testing.T) {
	s := newTestStore(t)
	writeQueries(t, s, `{
		"with_user_query": {"title": "Title", "user_query": "  How is an event edited?  "},
		"title_only": {"title": "Edit event"},
		"blank": {"title": "  ", "user_query": ""}
	}`)

	tests := []struct {
		name     string
		queryID  string
		fallback string
		want     string
	}{
		{"user query wins", "with_user_query", "fb", "How is an event edited?"},
		{"title next", "title_only", "fb", "Edit event"},
		{"fallback when blank", "blank", " raw query ", "raw query"},
		{"fallback when unknown", "unknown", "raw query", "raw query"},
		{"id when nothing else", "unknown", "   ", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Resolve(tt.queryID, tt.fallback))
		})
	}
}

func TestResolve_MissingTable(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, "fb", s.Resolve("q", "fb"))
}

func TestResolve_MalformedTable(t *testing.T) {
	s := newTestStore(t)
	writeQueries(t, s, `["not", "a", "table"]`)

	assert.Equal(t, "fb", s.Resolve("q", "fb"))
	assert.Equal(t, "q", s.Resolve("q", ""))

	_, err := s.Queries()
	assert.Error(t, err)
}
