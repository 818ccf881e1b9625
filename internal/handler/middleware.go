package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"travelplanner/internal/auth"
	"travelplanner/internal/model"
)

const (
	ctxUser   = "user"
	ctxClaims = "claims"
)

// RequestLogger пишет в лог каждый обработанный запрос.
func RequestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("запрос", kv...)
		case status >= http.StatusBadRequest:
			logger.Warn("запрос", kv...)
		default:
			logger.Info("запрос", kv...)
		}
	}
}

// RequireAuth пропускает только запросы с действующим Bearer-токеном.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorized})
			return
		}
		user, claims, err := h.AuthService.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			h.respondError(c, err)
			c.Abort()
			return
		}
		c.Set(ctxUser, user)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

func currentUser(c *gin.Context) *model.User {
	return c.MustGet(ctxUser).(*model.User)
}

func currentClaims(c *gin.Context) *auth.Claims {
	return c.MustGet(ctxClaims).(*auth.Claims)
}
