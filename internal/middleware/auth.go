package middleware

import (
	"errors"
	"net/http"
	"strings"

	"tienda-backend/internal/token"
	"tienda-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// claimsKey is the context key under which validated claims are stored
const claimsKey = "authClaims"

// RequireAuth validates the bearer access token from the Authorization
// header and injects the validated claim set into the request context.
// The signer is injected so no global signing state exists.
func RequireAuth(signer *token.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization format. Use: Bearer <token>")
			c.Abort()
			return
		}

		claims, err := signer.Validate(parts[1])
		if err != nil {
			if errors.Is(err, token.ErrExpired) {
				utils.ErrorResponse(c, http.StatusUnauthorized, "Access token expired")
			} else {
				utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid access token")
			}
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRoles is the single authorization gate for role-protected routes:
// the request passes when the validated claims carry at least one of the
// given roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}

		for _, role := range roles {
			if claims.HasRole(role) {
				c.Next()
				return
			}
		}

		utils.ErrorResponse(c, http.StatusForbidden, "Insufficient role")
		c.Abort()
	}
}

// ClaimsFromContext returns the validated claims set by RequireAuth,
// or nil when the request was not authenticated.
func ClaimsFromContext(c *gin.Context) *token.Claims {
	value, exists := c.Get(claimsKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*token.Claims)
	if !ok {
		return nil
	}
	return claims
}
