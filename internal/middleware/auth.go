package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/types"
)

const claimsKey = "claims"

var errInvalidHeader = errors.New("invalid authorization header format")

// TokenValidator is an interface for validating auth tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
}

// extractToken accepts both "Bearer <t>" and "Token <t>" headers
func extractToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", errInvalidHeader
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.Contains(token, " ") {
		return "", errInvalidHeader
	}
	if !strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token") {
		return "", errInvalidHeader
	}
	return token, nil
}

func authenticate(c *gin.Context, validator TokenValidator, required bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if required {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "authentication credentials were not provided"})
			return
		}
		c.Next()
		return
	}

	token, err := extractToken(header)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}

	claims, err := validator.ValidateToken(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid token"})
		return
	}

	c.Set(claimsKey, claims)
	c.Next()
}

// AuthMiddleware rejects requests without a valid token
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, validator, true)
	}
}

// OptionalAuthMiddleware identifies the caller when a token is sent but lets
// anonymous requests through. A malformed or invalid token is still rejected.
func OptionalAuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, validator, false)
	}
}

// Claims returns the token claims stored by the auth middleware
func Claims(c *gin.Context) (*types.TokenClaims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*types.TokenClaims)
	return claims, ok
}

// UserID returns the authenticated user id, or uuid.Nil for anonymous callers
func UserID(c *gin.Context) uuid.UUID {
	if claims, ok := Claims(c); ok {
		return claims.UserID
	}
	return uuid.Nil
}
