// Package progress folds live Trello card state into per-theme
// completion summaries: total members, completed members, percentage and
// the set of boards the theme spans.
package progress

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"epics-powerup/backend/internal/store"
	"epics-powerup/backend/internal/trello"
)

// maxConcurrentThemes bounds the rollup fan-out across themes.
const maxConcurrentThemes = 4

// Gateway is the slice of the Trello client the aggregator needs.
type Gateway interface {
	GetCard(ctx context.Context, cardID, token string) (*trello.Card, error)
	GetList(ctx context.Context, listID, token string) (*trello.List, error)
}

// Store is the slice of the relationship store the aggregator needs.
type Store interface {
	ListThemes(ctx context.Context) ([]store.Theme, error)
	ThemeCards(ctx context.Context, themeID int64) ([]store.ThemeCard, error)
}

// Progress is a theme's completion summary. Pct is exact; callers round
// for display.
type Progress struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Pct       float64 `json:"pct"`
}

// ThemeProgress is one theme's rollup result.
type ThemeProgress struct {
	ID       int64             `json:"id"`
	Name     string            `json:"name"`
	Progress Progress          `json:"progress"`
	Boards   []trello.BoardRef `json:"boards"`
}

// Aggregator computes cross-board completion progress per theme.
type Aggregator struct {
	store        Store
	gw           Gateway
	donePatterns []string
}

// New creates an aggregator. donePatterns are the case-insensitive
// list-name substrings that mark a card done (e.g. "done", "complete").
func New(st Store, gw Gateway, donePatterns []string) *Aggregator {
	patterns := make([]string, len(donePatterns))
	for i, p := range donePatterns {
		patterns[i] = strings.ToLower(p)
	}
	return &Aggregator{store: st, gw: gw, donePatterns: patterns}
}

// Rollup computes progress for every theme. Themes are processed
// concurrently but the result order mirrors store read order. Board and
// list name lookups share one cache for the whole pass. Any card
// hydration failure fails the whole rollup; there is no partial-success
// mode.
func (a *Aggregator) Rollup(ctx context.Context, token string) ([]ThemeProgress, error) {
	themes, err := a.store.ListThemes(ctx)
	if err != nil {
		return nil, err
	}

	cache := trello.NewNameCache()
	out := make([]ThemeProgress, len(themes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentThemes)
	for i, theme := range themes {
		i, theme := i, theme
		g.Go(func() error {
			tp, err := a.rollupTheme(gctx, cache, theme, token)
			if err != nil {
				return err
			}
			out[i] = tp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// cardOutcome tags one membership row's hydration result so the fold
// below stays a plain accumulation over values.
type cardOutcome struct {
	done bool
	err  error
}

func (a *Aggregator) rollupTheme(ctx context.Context, cache *trello.NameCache, theme store.Theme, token string) (ThemeProgress, error) {
	rows, err := a.store.ThemeCards(ctx, theme.ID)
	if err != nil {
		return ThemeProgress{}, err
	}

	total := len(rows)
	completed := 0
	seenBoards := map[string]bool{}
	boards := []trello.BoardRef{}

	for _, row := range rows {
		outcome := a.hydrate(ctx, cache, row.CardID, token)
		if outcome.err != nil {
			return ThemeProgress{}, outcome.err
		}
		if outcome.done {
			completed++
		}
		// Contributing boards come from the stored snapshot, not a re-fetch.
		if !seenBoards[row.BoardID] {
			seenBoards[row.BoardID] = true
			boards = append(boards, trello.BoardRef{ID: row.BoardID, Name: row.BoardName})
		}
	}

	pct := 0.0
	if total > 0 {
		pct = float64(completed) / float64(total) * 100
	}

	return ThemeProgress{
		ID:   theme.ID,
		Name: theme.Name,
		Progress: Progress{
			Total:     total,
			Completed: completed,
			Pct:       pct,
		},
		Boards: boards,
	}, nil
}

// hydrate fetches a card's live state and infers completion: closed
// cards are done, as are cards whose containing list name matches a
// done-pattern.
func (a *Aggregator) hydrate(ctx context.Context, cache *trello.NameCache, cardID, token string) cardOutcome {
	card, err := a.gw.GetCard(ctx, cardID, token)
	if err != nil {
		return cardOutcome{err: err}
	}
	if card.Closed {
		return cardOutcome{done: true}
	}
	if card.ListID == "" {
		return cardOutcome{}
	}

	listName, err := cache.Resolve(trello.ListKey(card.ListID), func() (string, error) {
		list, err := a.gw.GetList(ctx, card.ListID, token)
		if err != nil {
			return "", err
		}
		return list.Name, nil
	})
	if err != nil {
		return cardOutcome{err: err}
	}
	return cardOutcome{done: a.listNameDone(listName)}
}

func (a *Aggregator) listNameDone(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range a.donePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
