// Package handler provides the JSON HTTP handlers of the platform API.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"asser-platform/internal/apperr"
	"asser-platform/internal/model"
)

const userKey = "user"

// ErrBadRequest is returned for bodies and parameters that cannot be parsed.
var ErrBadRequest = apperr.New(apperr.KindValidation, "REQUEST_INVALID", "request body or parameters are invalid")

// SetUser stores the authenticated user on the request context.
func SetUser(c *gin.Context, u *model.User) {
	c.Set(userKey, u)
}

// CurrentUser returns the authenticated user, or nil on public routes.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*model.User)
	return u
}

func userID(c *gin.Context) int64 {
	if u := CurrentUser(c); u != nil {
		return u.ID
	}
	return 0
}

type errorBody struct {
	Kind    apperr.Kind `json:"kind"`
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

// Error writes err as {"error": {...}} with the status of its kind.
// Errors without a kind are logged and reported as internal.
func Error(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok {
		log.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int64("user_id", userID(c)).
			Msg("Request failed")
		e = apperr.New(apperr.KindInternal, "INTERNAL", "internal server error")
	}
	c.AbortWithStatusJSON(e.Kind.HTTPStatus(), gin.H{"error": errorBody{Kind: e.Kind, Code: e.Code, Message: e.Message}})
}

func respond(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

// bind decodes the JSON body into v, reporting ErrBadRequest on failure.
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		log.Debug().Err(err).Str("path", c.FullPath()).Msg("Invalid request body")
		Error(c, ErrBadRequest)
		return false
	}
	return true
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		Error(c, ErrBadRequest)
		return 0, false
	}
	return id, true
}

func limitQuery(c *gin.Context) int {
	n, _ := strconv.Atoi(c.Query("limit"))
	return n
}

// currency accepts the labels users type ("AC", "AsserCoin", "usdt").
// Unknown values pass through so the service reports them.
func currency(s model.Currency) model.Currency {
	if c, ok := model.ParseCurrency(string(s)); ok {
		return c
	}
	return s
}
