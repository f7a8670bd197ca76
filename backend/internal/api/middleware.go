package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "epics-powerup/backend/pkg/errors"
)

// TokenHeader carries the caller's Trello token on authenticated routes.
const TokenHeader = "x-trello-token"

const tokenContextKey = "trelloToken"

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", c.Writer.Header().Get("X-Request-Id")),
		)
	}
}

// requestID tags every request with an id for log correlation
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-Id", id)
		c.Next()
	}
}

// corsMiddleware mirrors the permissive CORS policy of the power-up
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, "+TokenHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// powerUpHeaders lets Trello iframe the power-up pages and allows its
// SDK origins in the CSP.
func powerUpHeaders() gin.HandlerFunc {
	csp := strings.Join([]string{
		"default-src 'self' https://p.trellocdn.com https://api.trello.com https://*.trello.com",
		"script-src 'self' https://p.trellocdn.com 'unsafe-inline' 'unsafe-eval'",
		"style-src 'self' 'unsafe-inline'",
		"img-src * data: blob:",
		"connect-src 'self' https://api.trello.com https://*.trello.com",
		"frame-ancestors https://*.trello.com",
	}, "; ")

	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Frame-Options", "ALLOWALL")
		c.Writer.Header().Set("Content-Security-Policy", csp)
		c.Next()
	}
}

// requireToken rejects requests without a caller Trello token before any
// store or gateway access happens.
func requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(TokenHeader)
		if token == "" {
			c.String(http.StatusUnauthorized, apperrors.ErrMissingToken.Message)
			c.Abort()
			return
		}
		c.Set(tokenContextKey, token)
		c.Next()
	}
}

// callerToken returns the token stashed by requireToken, empty on
// unauthenticated routes.
func callerToken(c *gin.Context) string {
	return c.GetString(tokenContextKey)
}
