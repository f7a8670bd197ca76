// Package api exposes the power-up backend over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter assembles the gin engine: logging, request ids, CORS and
// power-up iframe headers on everything, token auth on the routes that
// touch Trello on the caller's behalf.
func NewRouter(h *Handler, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(corsMiddleware())
	router.Use(powerUpHeaders())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		// Themes are listable and creatable without a Trello token.
		api.GET("/themes", h.listThemes)
		api.POST("/themes", h.createTheme)

		authed := api.Group("", requireToken())
		{
			authed.POST("/themes/:id/cards", h.addCardToTheme)

			authed.POST("/hierarchy/:parentId/children", h.addChild)
			authed.GET("/hierarchy/:parentId/children", h.listChildren)
			authed.GET("/hierarchy/:parentId/descendants", h.listDescendants)

			authed.POST("/related/:aId", h.addRelated)
			authed.GET("/related/:aId", h.listRelated)

			authed.POST("/cards", h.createCard)
			authed.GET("/cards/byshort/:shortId", h.cardByShort)

			authed.GET("/search/cards", h.searchCards)
			authed.GET("/progress", h.getProgress)
		}

		api.POST("/webhook", h.handleWebhook)
	}

	return router
}
