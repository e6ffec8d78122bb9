package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/api/middleware"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/models"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/services"
)

// AccountHandler handles the self-service profile and the admin account
// endpoints.
type AccountHandler struct {
	accountService services.IAccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.IAccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// GetProfile handles GET /v1/me.
func (h *AccountHandler) GetProfile(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	account, err := h.accountService.FindByID(c.Request.Context(), principal.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile retrieved", "data": account})
}

// UpdateProfile handles PATCH /v1/me. Only name and phone are self-service.
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
		return
	}

	account, err := h.accountService.UpdateProfile(c.Request.Context(), principal.ID, updates)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "data": account})
}

// ListAccounts handles GET /v1/admin/accounts.
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	var rolePtr *models.Role
	if roleStr := c.Query("role"); roleStr != "" {
		if !models.ValidRole(roleStr) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown role " + roleStr})
			return
		}
		role := models.Role(roleStr)
		rolePtr = &role
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), rolePtr, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Accounts retrieved", "data": accounts})
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetRole handles PATCH /v1/admin/accounts/:id/role.
func (h *AccountHandler) SetRole(c *gin.Context) {
	accountID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
		return
	}

	if err := h.accountService.SetRole(c.Request.Context(), accountID, models.Role(req.Role)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role updated"})
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus handles PATCH /v1/admin/accounts/:id/status. Deletion is the
// status transition to deleted.
func (h *AccountHandler) SetStatus(c *gin.Context) {
	accountID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
		return
	}

	if err := h.accountService.SetStatus(c.Request.Context(), accountID, models.AccountStatus(req.Status)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated"})
}
