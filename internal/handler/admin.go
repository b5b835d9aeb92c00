package handler

import (
	"github.com/gin-gonic/gin"

	"asser-platform/internal/service"
)

// AdminHandler serves account administration.
type AdminHandler struct {
	accounts *service.AccountService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(accounts *service.AccountService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

// Users handles GET /admin/users?q=term.
func (h *AdminHandler) Users(c *gin.Context) {
	users, err := h.accounts.SearchUsers(c.Request.Context(), c.Query("q"), limitQuery(c))
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, gin.H{"users": users})
}

type statusRequest struct {
	IsActive *bool `json:"isActive"`
}

// SetStatus handles PUT /admin/users/:id/status with {"isActive": bool}.
func (h *AdminHandler) SetStatus(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req statusRequest
	if !bind(c, &req) {
		return
	}
	if req.IsActive == nil {
		Error(c, ErrBadRequest)
		return
	}
	user, err := h.accounts.SetUserActive(c.Request.Context(), userID(c), id, *req.IsActive)
	if err != nil {
		Error(c, err)
		return
	}
	respond(c, gin.H{"user": user})
}
