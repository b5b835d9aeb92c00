package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"asser-platform/internal/apperr"
	"asser-platform/internal/handler"
	"asser-platform/internal/pkg/ratelimit"
	"asser-platform/internal/service"
)

const requestIDHeader = "X-Request-ID"

var (
	ErrTokenMissing  = apperr.New(apperr.KindUnauthorized, "AUTH_TOKEN_MISSING", "authorization required")
	ErrTokenFormat   = apperr.New(apperr.KindUnauthorized, "AUTH_TOKEN_FORMAT", "invalid authorization format")
	ErrAdminRequired = apperr.New(apperr.KindForbidden, "ADMIN_REQUIRED", "admin rights required")
	ErrRateLimited   = apperr.New(apperr.KindRateLimited, "RATE_LIMITED", "too many requests, slow down")
)

// RequestID tags every request with an id, reusing the client's when sent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// Logger writes one access log line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = log.Error()
		case status >= http.StatusBadRequest:
			event = log.Warn()
		}
		if u := handler.CurrentUser(c); u != nil {
			event = event.Int64("user_id", u.ID)
		}
		event.
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// Recovery turns a panic into a 500 response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Str("request_id", c.GetString("request_id")).
					Msg("Recovered from panic in handler")
				handler.Error(c, fmt.Errorf("panic: %v", r))
			}
		}()
		c.Next()
	}
}

// CORS allows browser clients from any origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Auth resolves the bearer token to an active user. Websocket clients that
// cannot set headers pass the token as ?token=.
func Auth(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				handler.Error(c, ErrTokenFormat)
				return
			}
			token = strings.TrimSpace(parts[1])
		} else {
			token = c.Query("token")
		}
		if token == "" {
			handler.Error(c, ErrTokenMissing)
			return
		}

		user, err := accounts.Authenticate(c.Request.Context(), token)
		if err != nil {
			handler.Error(c, err)
			return
		}
		handler.SetUser(c, user)
		c.Next()
	}
}

// Admin rejects users without admin rights. It must run after Auth.
func Admin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := handler.CurrentUser(c)
		if u == nil || !u.IsAdmin {
			ev := log.Warn().Str("path", c.Request.URL.Path)
			if u != nil {
				ev = ev.Int64("user_id", u.ID)
			}
			ev.Msg("Non-admin attempted admin route")
			handler.Error(c, ErrAdminRequired)
			return
		}
		c.Next()
	}
}

// RateLimit allows each user limit requests per window on a route. When the
// limiter backend fails the request is let through.
func RateLimit(limiter ratelimit.Limiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := handler.CurrentUser(c)
		if limiter == nil || limit <= 0 || u == nil {
			c.Next()
			return
		}

		key := strconv.FormatInt(u.ID, 10) + ":" + c.FullPath()
		allowed, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			log.Error().Err(err).Str("key", key).Msg("Rate limiter unavailable")
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			handler.Error(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
