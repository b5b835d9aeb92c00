package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asser-platform/internal/model"
	"asser-platform/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
		code   string
	}{
		{"validation", service.ErrSelfTransfer, http.StatusBadRequest, "validation", "TRANSFER_SELF"},
		{"insufficient", service.ErrInsufficientBalance, http.StatusBadRequest, "insufficient_balance", "BALANCE_INSUFFICIENT"},
		{"not found", service.ErrRecipientNotFound, http.StatusNotFound, "not_found", "TRANSFER_RECIPIENT_NOT_FOUND"},
		{"state", service.ErrGameNotOpen, http.StatusUnprocessableEntity, "state", "GAME_NOT_OPEN"},
		{"conflict", service.ErrAlreadySettled, http.StatusConflict, "conflict", "PAYMENT_ALREADY_SETTLED"},
		{"wrapped", fmt.Errorf("formula 60: %w", service.ErrUnknownFormula), http.StatusBadRequest, "validation", "FORMULA_UNKNOWN"},
		{"foreign", errors.New("connection reset"), http.StatusInternalServerError, "internal", "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			Error(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.True(t, c.IsAborted())

			var body struct {
				Error struct {
					Kind    string `json:"kind"`
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body.Error.Kind)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
			assert.NotContains(t, body.Error.Message, "connection reset")
		})
	}
}

func TestCurrentUser(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, CurrentUser(c))
	assert.Zero(t, userID(c))

	SetUser(c, &model.User{ID: 42})
	require.NotNil(t, CurrentUser(c))
	assert.EqualValues(t, 42, userID(c))
}

func TestCurrency(t *testing.T) {
	assert.Equal(t, model.CurrencyAsser, currency("AC"))
	assert.Equal(t, model.CurrencyAsser, currency("AsserCoin"))
	assert.Equal(t, model.CurrencyUSDT, currency(" USDT "))
	assert.Equal(t, model.Currency("gold"), currency("gold"))
}
