package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ctxKey string

const profileCtxKey ctxKey = "profile"

// profileMiddleware resolves the bearer token into a profile id.
func profileMiddleware(profiles profileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			abortError(c, http.StatusUnauthorized, "invalid_token", "missing bearer token")
			return
		}
		profileID, err := profiles.LookupByToken(c.Request.Context(), token)
		if err != nil {
			writeError(c, err)
			return
		}
		ctx := context.WithValue(c.Request.Context(), profileCtxKey, profileID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func profileFrom(c *gin.Context) string {
	id, _ := c.Request.Context().Value(profileCtxKey).(string)
	return id
}

// requestLogger emits one structured line per request.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		evt := logger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			evt = logger.Error()
		case status >= http.StatusBadRequest:
			evt = logger.Warn()
		}
		if len(c.Errors) > 0 {
			evt = evt.Err(c.Errors.Last().Err)
		}
		evt.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
