package trello

import (
	"context"
	"net/url"
	"strconv"
)

// searchPageSize bounds results to one fixed page; no cursor is exposed.
const searchPageSize = 50

// BoardRef is the board summary attached to a search result.
type BoardRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SearchResult is one normalized card hit, hydrated with its board name.
type SearchResult struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	URL   string   `json:"url"`
	Board BoardRef `json:"board"`
}

type searchResponse struct {
	Cards []Card `json:"cards"`
}

// SearchCards runs a cross-board card search. An empty query yields the
// upstream's default result set. excludeID drops one card by exact id
// match, used to keep a card from linking to itself. Board names are
// resolved through a per-call cache, one lookup per distinct board.
func (c *Client) SearchCards(ctx context.Context, query, excludeID, token string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("modelTypes", "cards")
	params.Set("card_fields", "name,url,idBoard")
	params.Set("cards_limit", strconv.Itoa(searchPageSize))

	var resp searchResponse
	if err := c.get(ctx, "/search", token, params, &resp); err != nil {
		return nil, err
	}

	cache := NewNameCache()
	results := []SearchResult{}
	for _, card := range resp.Cards {
		if excludeID != "" && card.ID == excludeID {
			continue
		}
		boardName, err := cache.Resolve(BoardKey(card.BoardID), func() (string, error) {
			board, err := c.GetBoard(ctx, card.BoardID, token)
			if err != nil {
				return "", err
			}
			return board.Name, nil
		})
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{
			ID:   card.ID,
			Name: card.Name,
			URL:  card.URL,
			Board: BoardRef{
				ID:   card.BoardID,
				Name: boardName,
			},
		})
	}
	return results, nil
}
