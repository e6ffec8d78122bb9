package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/auth"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/config"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/models"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/services"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	accountService services.IAccountService
	cfg            *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accountService services.IAccountService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{accountService: accountService, cfg: cfg}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// Register handles POST /v1/auth/register. Self-registration is limited to
// the user and host roles.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
		return
	}

	role := models.Role(req.Role)
	if req.Role == "" {
		role = models.RoleUser
	}

	account, err := h.accountService.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Phone, role)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account registered successfully",
		"data":    account,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /v1/auth/login and returns a signed token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
		return
	}

	account, err := h.accountService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	token, err := auth.GenerateJWT(account.ID, account.Role, h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"data": gin.H{
			"token":   token,
			"account": account,
		},
	})
}
