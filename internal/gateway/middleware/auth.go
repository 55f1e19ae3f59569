package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"servora-system/internal/utils"
)

const (
	ctxUserID       = "user_id"
	ctxRestaurantID = "restaurant_id"
	ctxRole         = "role"
	ctxEmail        = "email"
)

// JWTAuth rejects requests without a valid bearer token and stores the
// caller's identity and tenant in the gin context.
func JWTAuth(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing bearer token"})
			return
		}

		claims, err := tokens.ParseToken(strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid or expired token"})
			return
		}

		c.Set(ctxUserID, claims.UserId)
		c.Set(ctxRestaurantID, claims.RestaurantId)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxEmail, claims.Email)
		c.Next()
	}
}

// RequireRole lets through only callers whose role is one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ctxRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "insufficient permissions"})
	}
}

// RestaurantID is the tenant of the authenticated caller.
func RestaurantID(c *gin.Context) int64 {
	return c.GetInt64(ctxRestaurantID)
}

func UserID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}

func Role(c *gin.Context) string {
	return c.GetString(ctxRole)
}
