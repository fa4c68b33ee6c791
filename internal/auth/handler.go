package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ponloe/cinemesh-catalog/internal/apperr"
	"github.com/Ponloe/cinemesh-catalog/internal/users"
)

type loginDTO struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type Handler struct {
	users  *users.Service
	issuer *TokenIssuer
}

func NewHandler(svc *users.Service, issuer *TokenIssuer) *Handler {
	return &Handler{users: svc, issuer: issuer}
}

func (h *Handler) Login(c *gin.Context) {
	var dto loginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.users.VerifyCredentials(c.Request.Context(), dto.Email, dto.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	tok, err := h.issuer.GenerateToken(u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": tok,
		"user":  users.ToResponse(u),
	})
}

func (h *Handler) Me(c *gin.Context) {
	uid, ok := UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	u, err := h.users.Get(c.Request.Context(), uid)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, users.ToResponse(u))
}
