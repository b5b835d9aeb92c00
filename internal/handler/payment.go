package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"asser-platform/internal/model"
	"asser-platform/internal/service"
)

// PaymentHandler serves deposit and withdrawal requests and their review.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type requestFunc func(ctx context.Context, userID int64, in service.PaymentInput) (*model.PaymentRequest, error)

// Deposit handles POST /payments/deposit.
func (h *PaymentHandler) Deposit(c *gin.Context) {
	h.request(c, h.payments.RequestDeposit)
}

// Withdraw handles POST /payments/withdraw.
func (h *PaymentHandler) Withdraw(c *gin.Context) {
	h.request(c, h.payments.RequestWithdrawal)
}

func (h *PaymentHandler) request(c *gin.Context, create requestFunc) {
	var in service.PaymentInput
	if !bind(c, &in) {
		return
	}
	in.Currency = currency(in.Currency)
	p, err := create(c.Request.Context(), userID(c), in)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Mine handles GET /payments.
func (h *PaymentHandler) Mine(c *gin.Context) {
	list, err := h.payments.ListByUser(c.Request.Context(), userID(c), limitQuery(c))
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, gin.H{"payments": list})
}

// List handles GET /admin/payments?status=pending.
func (h *PaymentHandler) List(c *gin.Context) {
	status := model.PaymentStatus(c.Query("status"))
	list, err := h.payments.List(c.Request.Context(), status, limitQuery(c))
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, gin.H{"payments": list})
}

type processRequest struct {
	Approve *bool `json:"approve"`
}

// Process handles POST /admin/payments/:id/process with {"approve": bool}.
func (h *PaymentHandler) Process(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req processRequest
	if !bind(c, &req) {
		return
	}
	if req.Approve == nil {
		Error(c, ErrBadRequest)
		return
	}
	p, err := h.payments.ProcessPayment(c.Request.Context(), userID(c), id, *req.Approve)
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, p)
}
