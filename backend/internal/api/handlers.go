package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"epics-powerup/backend/internal/progress"
	"epics-powerup/backend/internal/store"
	"epics-powerup/backend/internal/trello"
	"epics-powerup/backend/internal/webhook"
	apperrors "epics-powerup/backend/pkg/errors"
)

// Handler holds the collaborators behind the HTTP surface.
type Handler struct {
	store    *store.Store
	client   *trello.Client
	agg      *progress.Aggregator
	verifier *webhook.Verifier
	log      *zap.Logger
}

// NewHandler wires the HTTP handlers.
func NewHandler(st *store.Store, client *trello.Client, agg *progress.Aggregator, verifier *webhook.Verifier, log *zap.Logger) *Handler {
	return &Handler{store: st, client: client, agg: agg, verifier: verifier, log: log}
}

// writeError maps the error taxonomy onto HTTP statuses. Upstream errors
// pass the Trello status and body through verbatim.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case apperrors.IsErrorType(err, apperrors.ErrorTypeValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.IsErrorType(err, apperrors.ErrorTypeAuth):
		c.String(http.StatusUnauthorized, err.Error())
	case apperrors.IsErrorType(err, apperrors.ErrorTypeNotImplemented):
		if nie, ok := err.(*apperrors.NotImplementedError); ok {
			c.String(http.StatusNotImplemented, nie.Message)
			return
		}
		c.String(http.StatusNotImplemented, err.Error())
	case apperrors.IsErrorType(err, apperrors.ErrorTypeUpstream):
		if ue, ok := err.(*apperrors.UpstreamError); ok && ue.StatusCode >= 400 {
			c.String(ue.StatusCode, ue.Body)
			return
		}
		c.String(http.StatusBadGateway, err.Error())
	default:
		if _, ok := err.(*apperrors.ErrThemeNotFound); ok {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// GET /api/themes
func (h *Handler) listThemes(c *gin.Context) {
	themes, err := h.store.ListThemes(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, themes)
}

// POST /api/themes
func (h *Handler) createTheme(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
		Desc string `json:"desc"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	theme, err := h.store.CreateTheme(c.Request.Context(), req.Name, req.Desc)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, theme)
}

// POST /api/themes/:id/cards
func (h *Handler) addCardToTheme(c *gin.Context) {
	themeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.writeError(c, apperrors.NewValidationError("theme id", "must be an integer"))
		return
	}

	var req struct {
		CardID string `json:"cardId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	token := callerToken(c)

	card, err := h.client.GetCard(ctx, req.CardID, token)
	if err != nil {
		h.writeError(c, err)
		return
	}
	board, err := h.client.GetBoard(ctx, card.BoardID, token)
	if err != nil {
		h.writeError(c, err)
		return
	}

	err = h.store.AddCardToTheme(ctx, store.ThemeCard{
		ThemeID:   themeID,
		CardID:    card.ID,
		CardName:  card.Name,
		CardURL:   card.URL,
		BoardID:   card.BoardID,
		BoardName: board.Name,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// POST /api/hierarchy/:parentId/children
func (h *Handler) addChild(c *gin.Context) {
	var req struct {
		ChildID string `json:"childId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.AddChild(c.Request.Context(), c.Param("parentId"), req.ChildID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /api/hierarchy/:parentId/children
func (h *Handler) listChildren(c *gin.Context) {
	children, err := h.store.Children(c.Request.Context(), c.Param("parentId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"children": children})
}

// GET /api/hierarchy/:parentId/descendants
func (h *Handler) listDescendants(c *gin.Context) {
	descendants, err := h.store.Descendants(c.Request.Context(), c.Param("parentId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"descendants": descendants})
}

// POST /api/related/:aId
func (h *Handler) addRelated(c *gin.Context) {
	var req struct {
		RelatedID string `json:"relatedId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.AddRelated(c.Request.Context(), c.Param("aId"), req.RelatedID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /api/related/:aId
func (h *Handler) listRelated(c *gin.Context) {
	related, err := h.store.RelatedTo(c.Request.Context(), c.Param("aId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"related": related})
}

// POST /api/cards — 501 unless the client passes an explicit destination
// list; the backend never guesses a board.
func (h *Handler) createCard(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Desc     string `json:"desc"`
		ListHint string `json:"listHint"`
		BoardID  string `json:"boardId"`
		ListID   string `json:"listId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	card, err := h.client.CreateCard(c.Request.Context(), trello.CreateCardParams{
		Name:    req.Name,
		Desc:    req.Desc,
		BoardID: req.BoardID,
		ListID:  req.ListID,
	}, callerToken(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

// GET /api/cards/byshort/:shortId — Trello resolves short links on the
// same /cards/{id} endpoint.
func (h *Handler) cardByShort(c *gin.Context) {
	card, err := h.client.GetCard(c.Request.Context(), c.Param("shortId"), callerToken(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

// GET /api/search/cards
func (h *Handler) searchCards(c *gin.Context) {
	cards, err := h.client.SearchCards(c.Request.Context(),
		c.Query("query"), c.Query("exclude"), callerToken(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

// GET /api/progress
func (h *Handler) getProgress(c *gin.Context) {
	themes, err := h.agg.Rollup(c.Request.Context(), callerToken(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"themes": themes})
}

// POST /api/webhook — Trello callback receiver. The signature covers the
// raw body, so it is read before any JSON decoding.
func (h *Handler) handleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if err := h.verifier.Verify(body, c.GetHeader(webhook.SignatureHeader)); err != nil {
		h.writeError(c, err)
		return
	}

	// Payload handling (refreshing cached names etc.) is intentionally a
	// no-op; membership snapshots are re-hydrated on read instead.
	c.Status(http.StatusOK)
}
