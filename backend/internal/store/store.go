// Package store implements the relationship store: themes, theme
// membership, parent/child hierarchy edges and symmetric related pairs,
// persisted in SQLite. It performs no Trello calls; live card state is
// always re-hydrated by callers.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	apperrors "epics-powerup/backend/pkg/errors"
)

// Theme is a named grouping of cards spanning one or more boards.
type Theme struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Desc string `json:"desc,omitempty"`
}

// ThemeCard is one card's membership in a theme. Name, URL and board
// fields are a snapshot taken at link time, not kept in sync with Trello.
type ThemeCard struct {
	ThemeID   int64  `json:"theme_id"`
	CardID    string `json:"card_id"`
	CardName  string `json:"card_name"`
	CardURL   string `json:"card_url"`
	BoardID   string `json:"board_id"`
	BoardName string `json:"board_name"`
}

// Store is the sqlite-backed relationship store.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the sqlite database at path, applies pragmas
// and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS themes (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		desc TEXT
	);
	CREATE TABLE IF NOT EXISTS theme_cards (
		theme_id   INTEGER NOT NULL,
		card_id    TEXT NOT NULL,
		card_name  TEXT,
		card_url   TEXT,
		board_id   TEXT,
		board_name TEXT,
		UNIQUE(theme_id, card_id)
	);
	CREATE TABLE IF NOT EXISTS hierarchy (
		parent_id TEXT NOT NULL,
		child_id  TEXT NOT NULL,
		UNIQUE(parent_id, child_id)
	);
	CREATE TABLE IF NOT EXISTS related (
		a_id TEXT NOT NULL,
		b_id TEXT NOT NULL,
		UNIQUE(a_id, b_id)
	);`
	_, err := s.db.Exec(schema)
	return err
}

// CreateTheme inserts a new theme and returns it with its assigned id.
func (s *Store) CreateTheme(ctx context.Context, name, desc string) (*Theme, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidationError("name", "must not be empty")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO themes (name, desc) VALUES (?, ?)`, name, nullable(desc))
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("insert theme", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("insert theme", err)
	}
	return &Theme{ID: id, Name: name, Desc: desc}, nil
}

// ListThemes returns all themes, newest first.
func (s *Store) ListThemes(ctx context.Context) ([]Theme, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, desc FROM themes ORDER BY id DESC`)
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("list themes", err)
	}
	defer rows.Close()

	themes := []Theme{}
	for rows.Next() {
		var t Theme
		var desc sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &desc); err != nil {
			return nil, apperrors.NewStoreQueryFailed("scan theme", err)
		}
		t.Desc = desc.String
		themes = append(themes, t)
	}
	return themes, rows.Err()
}

// GetTheme returns one theme by id, or ErrThemeNotFound.
func (s *Store) GetTheme(ctx context.Context, id int64) (*Theme, error) {
	var t Theme
	var desc sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, desc FROM themes WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &desc)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewThemeNotFound(id)
	}
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("get theme", err)
	}
	t.Desc = desc.String
	return &t, nil
}

// AddCardToTheme links a card to a theme, snapshotting its display
// fields. Re-adding the same card to the same theme is a no-op.
func (s *Store) AddCardToTheme(ctx context.Context, card ThemeCard) error {
	// Themes are soft foreign keys in the schema; enforce existence here.
	if _, err := s.GetTheme(ctx, card.ThemeID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO theme_cards
			(theme_id, card_id, card_name, card_url, board_id, board_name)
		VALUES (?, ?, ?, ?, ?, ?)`,
		card.ThemeID, card.CardID, card.CardName, card.CardURL, card.BoardID, card.BoardName)
	if err != nil {
		return apperrors.NewStoreQueryFailed("insert theme card", err)
	}
	return nil
}

// ThemeCards returns all membership rows for a theme.
func (s *Store) ThemeCards(ctx context.Context, themeID int64) ([]ThemeCard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT theme_id, card_id, card_name, card_url, board_id, board_name
		FROM theme_cards WHERE theme_id = ?`, themeID)
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("list theme cards", err)
	}
	defer rows.Close()

	cards := []ThemeCard{}
	for rows.Next() {
		var c ThemeCard
		var name, url, boardID, boardName sql.NullString
		if err := rows.Scan(&c.ThemeID, &c.CardID, &name, &url, &boardID, &boardName); err != nil {
			return nil, apperrors.NewStoreQueryFailed("scan theme card", err)
		}
		c.CardName, c.CardURL = name.String, url.String
		c.BoardID, c.BoardName = boardID.String, boardName.String
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// AddChild records a directed parent->child edge. Idempotent; cycles are
// not rejected here, traversals guard against them instead.
func (s *Store) AddChild(ctx context.Context, parentID, childID string) error {
	if parentID == "" || childID == "" {
		return apperrors.NewValidationError("card id", "must not be empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO hierarchy (parent_id, child_id) VALUES (?, ?)`,
		parentID, childID)
	if err != nil {
		return apperrors.NewStoreQueryFailed("insert hierarchy edge", err)
	}
	return nil
}

// Children returns the direct child ids of a card.
func (s *Store) Children(ctx context.Context, parentID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT child_id FROM hierarchy WHERE parent_id = ?`, parentID)
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("list children", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// Descendants returns all transitive child ids of root, breadth-first.
// The hierarchy table permits cycles, so traversal keeps a visited set.
func (s *Store) Descendants(ctx context.Context, rootID string) ([]string, error) {
	visited := map[string]bool{rootID: true}
	out := []string{}
	queue := []string{rootID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		children, err := s.Children(ctx, current)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out, nil
}

// AddRelated records a symmetric relation between two cards. The pair is
// stored in canonical (min, max) order so (x,y) and (y,x) collapse to
// one row. Relating a card to itself is a no-op.
func (s *Store) AddRelated(ctx context.Context, aID, bID string) error {
	if aID == "" || bID == "" {
		return apperrors.NewValidationError("card id", "must not be empty")
	}
	if aID == bID {
		return nil
	}
	if aID > bID {
		aID, bID = bID, aID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO related (a_id, b_id) VALUES (?, ?)`, aID, bID)
	if err != nil {
		return apperrors.NewStoreQueryFailed("insert related pair", err)
	}
	return nil
}

// RelatedTo returns the ids related to a card, whichever column the card
// was canonicalized into.
func (s *Store) RelatedTo(ctx context.Context, cardID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT CASE WHEN a_id = ? THEN b_id ELSE a_id END
		FROM related WHERE a_id = ? OR b_id = ?`, cardID, cardID, cardID)
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("list related", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewStoreQueryFailed("scan id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
