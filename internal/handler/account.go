package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"asser-platform/internal/service"
)

// AccountHandler serves registration, login and the caller's own account.
type AccountHandler struct {
	accounts *service.AccountService
	ledger   *service.LedgerService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts *service.AccountService, ledger *service.LedgerService) *AccountHandler {
	return &AccountHandler{accounts: accounts, ledger: ledger}
}

// Register handles POST /auth/register.
func (h *AccountHandler) Register(c *gin.Context) {
	var in service.RegisterInput
	if !bind(c, &in) {
		return
	}
	res, err := h.accounts.Register(c.Request.Context(), in)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, res)
}

// Logout handles POST /auth/logout.
func (h *AccountHandler) Logout(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context(), userID(c)); err != nil {
		Error(c, err)
		return
	}
	respond(c, gin.H{"success": true})
}

// Me handles GET /me.
func (h *AccountHandler) Me(c *gin.Context) {
	stats, err := h.accounts.ReferralStats(c.Request.Context(), userID(c))
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, gin.H{
		"user":          CurrentUser(c),
		"referralStats": stats,
		"referralLink":  stats.Link,
	})
}

// Team handles GET /team/members.
func (h *AccountHandler) Team(c *gin.Context) {
	members, err := h.accounts.Team(c.Request.Context(), userID(c))
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, gin.H{"members": members, "count": len(members)})
}

// Balance handles GET /balance.
func (h *AccountHandler) Balance(c *gin.Context) {
	bal, err := h.ledger.Balance(c.Request.Context(), userID(c))
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, bal)
}

// Transactions handles GET /transactions?limit=n.
func (h *AccountHandler) Transactions(c *gin.Context) {
	txs, err := h.ledger.History(c.Request.Context(), userID(c), limitQuery(c))
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, gin.H{"transactions": txs})
}
