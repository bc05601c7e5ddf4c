// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-cart/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-cart/internal/pkg/auth"
)

// Authenticator verifies back-office credentials
type Authenticator interface {
	Authenticate(email, password string) error
}

// TokenIssuer signs access tokens
type TokenIssuer interface {
	GenerateAccessToken(email string, isAdmin bool) (string, time.Time, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authenticator Authenticator
	tokens        TokenIssuer
	log           logrus.FieldLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authenticator Authenticator, tokens TokenIssuer, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		authenticator: authenticator,
		tokens:        tokens,
		log:           log,
	}
}

// LoginRequest represents login request data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := h.authenticator.Authenticate(req.Email, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.log.WithFields(logrus.Fields{
				"request_id": middleware.GetRequestID(c),
				"client_ip":  c.ClientIP(),
			}).Warn("Failed admin login attempt")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid email or password",
			})
			return
		}
		internalError(c, h.log, "Login failed", err)
		return
	}

	token, expiresAt, err := h.tokens.GenerateAccessToken(req.Email, true)
	if err != nil {
		internalError(c, h.log, "Failed to generate token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"data": gin.H{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_at":   expiresAt,
		},
	})
}
