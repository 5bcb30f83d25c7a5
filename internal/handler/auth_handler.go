package handler

import (
	"errors"
	"net/http"

	"tienda-backend/internal/config"
	"tienda-backend/internal/middleware"
	"tienda-backend/internal/service"
	"tienda-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// refreshCookieName is the HttpOnly cookie carrying the refresh token.
// The cookie path is restricted to the auth routes so the token is never
// sent to other endpoints.
const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/auth"
)

type AuthHandler struct {
	authService *service.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AssignRoleRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.authService.Register(req.Username, req.Email, req.Password)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)
	utils.SuccessResponse(c, gin.H{
		"access_token": session.AccessToken,
		"user":         session.User,
	})
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)
	utils.SuccessResponse(c, gin.H{
		"access_token": session.AccessToken,
		"user":         session.User,
	})
}

// Refresh rotates the refresh token from the cookie and returns a new
// access token. The refresh token is read only from the cookie, never from
// the request body.
func (h *AuthHandler) Refresh(c *gin.Context) {
	rawRefreshToken, err := c.Cookie(refreshCookieName)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Refresh token not found")
		return
	}

	session, err := h.authService.Refresh(rawRefreshToken)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)
	utils.SuccessResponse(c, gin.H{
		"access_token": session.AccessToken,
		"user":         session.User,
	})
}

// Logout revokes the whole session chain and clears the cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	rawRefreshToken, err := c.Cookie(refreshCookieName)
	if err != nil {
		// No cookie, nothing to revoke
		h.clearRefreshCookie(c)
		utils.MessageResponse(c, "Logged out successfully")
		return
	}

	if err := h.authService.Logout(rawRefreshToken); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to logout")
		return
	}

	h.clearRefreshCookie(c)
	utils.MessageResponse(c, "Logged out successfully")
}

// AssignRole grants a role to a user (admin only)
func (h *AuthHandler) AssignRole(c *gin.Context) {
	var req AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	claims := middleware.ClaimsFromContext(c)

	if err := h.authService.AssignRole(claims, req.UserID, req.Role); err != nil {
		h.respondAuthError(c, err)
		return
	}

	utils.MessageResponse(c, "Role assigned successfully")
}

// respondAuthError maps service errors to HTTP responses. Replay detection
// and other terminal refresh failures clear the cookie so the client is
// forced back to login rather than retrying a dead token.
func (h *AuthHandler) respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrDuplicateUsername):
		utils.ErrorResponse(c, http.StatusConflict, "Username already exists")
	case errors.Is(err, service.ErrWeakPassword):
		utils.ErrorResponse(c, http.StatusBadRequest, "Password must be at least 8 characters and contain a letter and a digit")
	case errors.Is(err, service.ErrReplayDetected):
		h.clearRefreshCookie(c)
		utils.ErrorResponse(c, http.StatusUnauthorized, "Session invalidated, please log in again")
	case errors.Is(err, service.ErrRotationExpired),
		errors.Is(err, service.ErrRotationUnknown):
		h.clearRefreshCookie(c)
		utils.ErrorResponse(c, http.StatusUnauthorized, "Refresh token invalid or expired")
	case errors.Is(err, service.ErrForbidden):
		utils.ErrorResponse(c, http.StatusForbidden, "Admin access required")
	case errors.Is(err, service.ErrUnknownRole):
		utils.ErrorResponse(c, http.StatusNotFound, "Role not found")
	default:
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		refreshCookieName,
		value,
		int(h.cfg.JWT.RefreshTokenExpiry.Seconds()),
		refreshCookiePath,
		"",
		h.cfg.Server.CookieSecure,
		true, // httpOnly, never readable by client script
	)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, refreshCookiePath, "", h.cfg.Server.CookieSecure, true)
}
