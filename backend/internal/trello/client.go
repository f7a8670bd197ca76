// Package trello is a thin client for the Trello REST API: card, board
// and list lookups, cross-board card search and card creation. Calls are
// authenticated with an API key plus a token; the caller's token always
// wins over the service-wide fallback token.
package trello

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "epics-powerup/backend/pkg/errors"
)

// Card is the subset of a Trello card record this backend reads.
type Card struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Closed bool   `json:"closed"`
	// Trello uses idBoard/idList for containment references
	BoardID string `json:"idBoard"`
	ListID  string `json:"idList"`
}

// Board is a Trello board record.
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// List is a Trello list record.
type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateCardParams describes a card to create. ListID is the explicit
// destination; creation without one is deliberately unsupported.
type CreateCardParams struct {
	Name    string
	Desc    string
	BoardID string
	ListID  string
}

// Client talks to the Trello REST API.
type Client struct {
	baseURL      string
	apiKey       string
	defaultToken string
	httpClient   *http.Client
	timeout      time.Duration
}

// NewClient creates a Trello API client. defaultToken may be empty, in
// which case every call must supply its own token.
func NewClient(baseURL, apiKey, defaultToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		defaultToken: defaultToken,
		httpClient:   &http.Client{Timeout: timeout},
		timeout:      timeout,
	}
}

// GetCard fetches a card by id or short link.
func (c *Client) GetCard(ctx context.Context, cardID, token string) (*Card, error) {
	var card Card
	if err := c.get(ctx, "/cards/"+url.PathEscape(cardID), token, nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// GetBoard fetches a board by id.
func (c *Client) GetBoard(ctx context.Context, boardID, token string) (*Board, error) {
	var board Board
	if err := c.get(ctx, "/boards/"+url.PathEscape(boardID), token, nil, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// GetList fetches a list by id.
func (c *Client) GetList(ctx context.Context, listID, token string) (*List, error) {
	var list List
	if err := c.get(ctx, "/lists/"+url.PathEscape(listID), token, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateCard creates a card in an explicitly chosen list. Without a
// destination list it fails with NotImplementedError rather than
// guessing a board.
func (c *Client) CreateCard(ctx context.Context, p CreateCardParams, token string) (*Card, error) {
	if p.ListID == "" {
		return nil, apperrors.NewNotImplemented("create card",
			"Implement create to a chosen board/list by passing boardId/listId from client.")
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, apperrors.NewValidationError("name", "must not be empty")
	}

	params := url.Values{}
	params.Set("idList", p.ListID)
	params.Set("name", p.Name)
	if p.Desc != "" {
		params.Set("desc", p.Desc)
	}

	var card Card
	if err := c.do(ctx, http.MethodPost, "/cards", token, params, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (c *Client) get(ctx context.Context, path, token string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, token, params, out)
}

func (c *Client) do(ctx context.Context, method, path, token string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", c.apiKey)
	params.Set("token", c.token(token))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return apperrors.NewUpstreamTransport(method+" "+path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewUpstreamTransport(method+" "+path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewUpstreamTransport(method+" "+path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewUpstreamError(resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewUpstreamTransport(method+" "+path, err)
	}
	return nil
}

// token resolves the credential for a call: the caller's token if
// supplied, otherwise the service-wide default.
func (c *Client) token(callerToken string) string {
	if callerToken != "" {
		return callerToken
	}
	return c.defaultToken
}
