package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "epics-powerup/backend/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateTheme(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	theme, err := s.CreateTheme(ctx, "Onboarding", "cross-board onboarding work")
	require.NoError(t, err)
	assert.Equal(t, "Onboarding", theme.Name)
	assert.NotZero(t, theme.ID)

	second, err := s.CreateTheme(ctx, "Billing", "")
	require.NoError(t, err)
	assert.Greater(t, second.ID, theme.ID)
}

func TestCreateTheme_EmptyName(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateTheme(context.Background(), "", "desc")
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))

	_, err = s.CreateTheme(context.Background(), "   ", "desc")
	assert.Error(t, err)
}

func TestListThemes_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		_, err := s.CreateTheme(ctx, name, "")
		require.NoError(t, err)
	}

	themes, err := s.ListThemes(ctx)
	require.NoError(t, err)
	require.Len(t, themes, 3)
	assert.Equal(t, "third", themes[0].Name)
	assert.Equal(t, "first", themes[2].Name)
}

func TestGetTheme_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetTheme(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeStore))
	_, ok := err.(*apperrors.ErrThemeNotFound)
	assert.True(t, ok)
}

func TestAddCardToTheme_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	theme, err := s.CreateTheme(ctx, "Onboarding", "")
	require.NoError(t, err)

	card := ThemeCard{
		ThemeID:   theme.ID,
		CardID:    "card1",
		CardName:  "Signup flow",
		CardURL:   "https://trello.com/c/abc123",
		BoardID:   "board1",
		BoardName: "Product",
	}
	require.NoError(t, s.AddCardToTheme(ctx, card))
	require.NoError(t, s.AddCardToTheme(ctx, card))

	cards, err := s.ThemeCards(ctx, theme.ID)
	require.NoError(t, err)
	assert.Len(t, cards, 1)
	assert.Equal(t, "Signup flow", cards[0].CardName)
	assert.Equal(t, "Product", cards[0].BoardName)
}

func TestAddCardToTheme_UnknownTheme(t *testing.T) {
	s := newTestStore(t)

	err := s.AddCardToTheme(context.Background(), ThemeCard{ThemeID: 42, CardID: "card1"})
	require.Error(t, err)
	_, ok := err.(*apperrors.ErrThemeNotFound)
	assert.True(t, ok)
}

func TestAddChild_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddChild(ctx, "epic", "task1"))
	require.NoError(t, s.AddChild(ctx, "epic", "task1"))
	require.NoError(t, s.AddChild(ctx, "epic", "task2"))

	children, err := s.Children(ctx, "epic")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"task1", "task2"}, children)
}

func TestAddRelated_CanonicalOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddRelated(ctx, "B", "A"))
	require.NoError(t, s.AddRelated(ctx, "A", "B"))

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM related`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var a, b string
	err = s.db.QueryRow(`SELECT a_id, b_id FROM related`).Scan(&a, &b)
	require.NoError(t, err)
	assert.Equal(t, "A", a)
	assert.Equal(t, "B", b)
}

func TestAddRelated_SelfIsNoOp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddRelated(ctx, "A", "A"))

	related, err := s.RelatedTo(ctx, "A")
	require.NoError(t, err)
	assert.Empty(t, related)
}

func TestRelatedTo_EitherSide(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddRelated(ctx, "X", "A"))

	related, err := s.RelatedTo(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, related)

	related, err = s.RelatedTo(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, related)
}

func TestDescendants_CycleSafe(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// a -> b -> c -> a forms a cycle; traversal must still terminate.
	require.NoError(t, s.AddChild(ctx, "a", "b"))
	require.NoError(t, s.AddChild(ctx, "b", "c"))
	require.NoError(t, s.AddChild(ctx, "c", "a"))

	descendants, err := s.Descendants(ctx, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, descendants)
}
