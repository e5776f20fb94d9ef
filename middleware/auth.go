package middleware

import (
	"net/http"
	"slices"
	"strings"

	"servimatch/models"
	"servimatch/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by ActorAuthMiddleware.
const (
	ActorIDKey   = "actorID"
	ActorRoleKey = "actorRole"
)

// ActorAuthMiddleware validates the bearer token and stores the caller's ID
// and role in the context.
func ActorAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		actorID, role, err := utils.ExtractActorFromToken(tokenString)
		if err != nil {
			zap.L().Debug("Token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		if role != models.RoleCustomer && role != models.RoleProvider {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unknown role in token"})
			return
		}

		c.Set(ActorIDKey, actorID)
		c.Set(ActorRoleKey, role)
		c.Next()
	}
}

// RequireRole rejects callers whose token role is not one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, c.GetString(ActorRoleKey)) {
			c.AbortWithStatusJSON(http.StatusForbidden, utils.ErrorResponse{
				Message: "This action is not allowed for your role",
				Kind:    string(models.KindForbidden),
				Field:   "role",
				Value:   c.GetString(ActorRoleKey),
			})
			return
		}
		c.Next()
	}
}
