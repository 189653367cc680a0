package handler

import (
	"errors"
	"net/http"

	"github.com/examhall/cbt-backend/internal/middleware"
	"github.com/examhall/cbt-backend/internal/model"
	"github.com/examhall/cbt-backend/internal/response"
	"github.com/examhall/cbt-backend/internal/service"
	"github.com/examhall/cbt-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles admin authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// POST /api/v1/auth/admin/login
// Validates credentials and returns a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.AdminLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, admin, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"admin": gin.H{
			"id":       admin.ID,
			"username": admin.Username,
		},
	})
}

// Logout godoc
// POST /api/v1/auth/admin/logout
// Revokes the presented token until its natural expiry.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.RevokeToken(c.Request.Context(), claims); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/v1/auth/admin/me
// Returns the authenticated admin's identity.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"id":       claims.Subject,
		"username": claims.Username,
	})
}
