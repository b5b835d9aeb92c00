package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"asser-platform/internal/model"
	"asser-platform/internal/service"
)

// LedgerHandler serves exchanges, transfers, rates and game subscriptions.
type LedgerHandler struct {
	ledger *service.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledger *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

type exchangeRequest struct {
	FromCurrency model.Currency  `json:"fromCurrency"`
	ToCurrency   model.Currency  `json:"toCurrency"`
	Amount       decimal.Decimal `json:"amount"`
}

// Exchange handles POST /exchange.
func (h *LedgerHandler) Exchange(c *gin.Context) {
	var req exchangeRequest
	if !bind(c, &req) {
		return
	}
	tx, err := h.ledger.Exchange(c.Request.Context(), userID(c),
		currency(req.FromCurrency), currency(req.ToCurrency), req.Amount)
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, gin.H{
		"fromAmount":  tx.FromAmount,
		"toAmount":    tx.ToAmount,
		"transaction": tx,
	})
}

// Rates handles GET /exchange/rates.
func (h *LedgerHandler) Rates(c *gin.Context) {
	r, err := h.ledger.Rates(c.Request.Context())
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, r)
}

// UpdateRates handles PUT /admin/exchange-rates.
func (h *LedgerHandler) UpdateRates(c *gin.Context) {
	var r model.ExchangeRate
	if !bind(c, &r) {
		return
	}
	updated, err := h.ledger.UpdateRates(c.Request.Context(), userID(c), r)
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, updated)
}

type transferRequest struct {
	RecipientUserID string          `json:"recipientUserId"`
	Amount          decimal.Decimal `json:"amount"`
}

// Transfer handles POST /transfer.
func (h *LedgerHandler) Transfer(c *gin.Context) {
	var req transferRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.ledger.Transfer(c.Request.Context(), userID(c), req.RecipientUserID, req.Amount)
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, res)
}

type subscribeRequest struct {
	GameTime string `json:"gameTime"`
}

// Subscribe handles POST /subscriptions.
func (h *LedgerHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if !bind(c, &req) {
		return
	}
	sub, err := h.ledger.Subscribe(c.Request.Context(), userID(c), req.GameTime)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// Subscriptions handles GET /subscriptions.
func (h *LedgerHandler) Subscriptions(c *gin.Context) {
	subs, err := h.ledger.Subscriptions(c.Request.Context(), userID(c))
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, gin.H{"subscriptions": subs})
}
