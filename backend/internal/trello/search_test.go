package trello

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTrello serves /search and /boards/:id, counting board lookups.
func fakeTrello(t *testing.T, searchBody string, boardLookups *int32) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search":
			assert.Equal(t, "cards", r.URL.Query().Get("modelTypes"))
			assert.Equal(t, "50", r.URL.Query().Get("cards_limit"))
			w.Write([]byte(searchBody))
		case strings.HasPrefix(r.URL.Path, "/boards/"):
			atomic.AddInt32(boardLookups, 1)
			id := strings.TrimPrefix(r.URL.Path, "/boards/")
			fmt.Fprintf(w, `{"id":%q,"name":"Board %s"}`, id, id)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", "", 5*time.Second)
}

func TestSearchCards(t *testing.T) {
	var boardLookups int32
	c := fakeTrello(t, `{"cards":[
		{"id":"c1","name":"Alpha","url":"u1","idBoard":"b1"},
		{"id":"c2","name":"Beta","url":"u2","idBoard":"b2"},
		{"id":"c3","name":"Gamma","url":"u3","idBoard":"b1"}
	]}`, &boardLookups)

	results, err := c.SearchCards(context.Background(), "a", "", "user-token")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Board b1", results[0].Board.Name)
	assert.Equal(t, "Board b2", results[1].Board.Name)
	assert.Equal(t, "Board b1", results[2].Board.Name)
}

func TestSearchCards_BoardLookupsMemoized(t *testing.T) {
	var boardLookups int32
	c := fakeTrello(t, `{"cards":[
		{"id":"c1","idBoard":"b1"},
		{"id":"c2","idBoard":"b2"},
		{"id":"c3","idBoard":"b1"},
		{"id":"c4","idBoard":"b2"},
		{"id":"c5","idBoard":"b1"}
	]}`, &boardLookups)

	_, err := c.SearchCards(context.Background(), "", "", "user-token")
	require.NoError(t, err)
	// Five cards on two boards: at most one lookup per distinct board.
	assert.LessOrEqual(t, atomic.LoadInt32(&boardLookups), int32(2))
}

func TestSearchCards_Exclude(t *testing.T) {
	var boardLookups int32
	c := fakeTrello(t, `{"cards":[
		{"id":"c1","idBoard":"b1"},
		{"id":"self","idBoard":"b1"}
	]}`, &boardLookups)

	results, err := c.SearchCards(context.Background(), "q", "self", "user-token")
	require.NoError(t, err)
	require.Len(t, results, 1)
	for _, r := range results {
		assert.NotEqual(t, "self", r.ID)
	}
}

func TestSearchCards_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limited"))
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "test-key", "", 5*time.Second)

	_, err := c.SearchCards(context.Background(), "q", "", "user-token")
	require.Error(t, err)
}
