package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trip-service/internal/apperrors"
	"trip-service/internal/auth"
	"trip-service/internal/middleware"
	"trip-service/internal/repositories"
	"trip-service/internal/telemetry"
)

// AuthHandler manages registration, login and the current-user endpoint.
type AuthHandler struct {
	userRepo   repositories.UserRepository
	jwtManager *auth.JWTManager
	audit      *telemetry.AuditEmitter
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(userRepo repositories.UserRepository, jwtManager *auth.JWTManager, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{userRepo: userRepo, jwtManager: jwtManager, audit: audit}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Name     string `json:"name" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request payload", nil)
		return
	}

	if err := auth.ValidatePassword(req.Password); err != nil {
		respondError(c, apperrors.Validation("password must be at least 8 characters"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.userRepo.CreateUser(c.Request.Context(), req.Email, req.Name, hash)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.jwtManager.Generate(user.ID, user.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "User registered")
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request payload", nil)
		return
	}

	user, err := h.userRepo.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.emitAudit(c, "ERROR", "login failed")
		respondError(c, apperrors.Unauthorized("invalid credentials"))
		return
	}
	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		h.emitAudit(c, "ERROR", "login failed")
		respondError(c, apperrors.Unauthorized("invalid credentials"))
		return
	}

	token, err := h.jwtManager.Generate(user.ID, user.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "User logged in")
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := middleware.UserID(c)
	user, err := h.userRepo.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
