package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/furniscan/furniscan-backend/internal/users"
)

type userReader interface {
	GetByFirebaseUID(ctx context.Context, firebaseUID string) (*users.User, error)
}

type Handler struct {
	service  *Service
	users    userReader
	required gin.HandlerFunc
}

// Register mounts the auth routes. Login and registration are public;
// logout and profile require a verified token.
func Register(rg *gin.RouterGroup, service *Service, usersRepo userReader, requireUser gin.HandlerFunc) {
	h := &Handler{service: service, users: usersRepo, required: requireUser}

	rg.POST("/login", h.login)
	rg.POST("/register", h.register)
	rg.POST("/logout", requireUser, h.logout)
	rg.GET("/me", requireUser, h.me)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "email and password required"})
		return
	}

	sess, err := h.service.Login(c.Request.Context(), strings.TrimSpace(req.Email), req.Password, c.ClientIP())
	if err != nil {
		respondAuthError(c, err, genericLoginMessage)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "session": sess})
}

type registerReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "email and password required"})
		return
	}

	sess, err := h.service.Register(c.Request.Context(),
		strings.TrimSpace(req.Email), req.Password, strings.TrimSpace(req.DisplayName))
	if err != nil {
		respondAuthError(c, err, genericRegisterMessage)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "session": sess})
}

func (h *Handler) logout(c *gin.Context) {
	uid := UserFirebaseUID(c)
	if err := h.service.Logout(c.Request.Context(), uid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) me(c *gin.Context) {
	uid := UserFirebaseUID(c)
	u, err := h.users.GetByFirebaseUID(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u})
}

func respondAuthError(c *gin.Context, err error, fallback string) {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		status := http.StatusUnauthorized
		switch provErr.Code {
		case CodeTooManyAttempts:
			status = http.StatusTooManyRequests
		case CodeEmailExists, CodeWeakPassword, CodeInvalidEmail:
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"ok": false, "error": provErr.Message, "code": provErr.Code})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": fallback})
}
