package trello

import "sync"

// NameCache memoizes board and list name lookups for the lifetime of a
// single aggregation or search call. It guarantees at most one fetch per
// distinct key even when themes hydrate concurrently. It must not be
// shared across requests; staleness is bounded to one request by
// constructing a fresh cache per call.
type NameCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	name string
	err  error
}

// NewNameCache creates an empty per-request cache.
func NewNameCache() *NameCache {
	return &NameCache{entries: map[string]*cacheEntry{}}
}

// Resolve returns the cached name for key, calling fetch exactly once
// per key. Concurrent callers for the same key share one fetch.
func (nc *NameCache) Resolve(key string, fetch func() (string, error)) (string, error) {
	nc.mu.Lock()
	e, ok := nc.entries[key]
	if !ok {
		e = &cacheEntry{}
		nc.entries[key] = e
	}
	nc.mu.Unlock()

	e.once.Do(func() {
		e.name, e.err = fetch()
	})
	return e.name, e.err
}

// BoardKey namespaces a board id so it cannot collide with a list id.
func BoardKey(boardID string) string { return "board:" + boardID }

// ListKey namespaces a list id.
func ListKey(listID string) string { return "list:" + listID }
