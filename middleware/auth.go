package middleware

import (
	"net/http"
	"strings"

	"ordering-svc/auth"
	"ordering-svc/models"
	"ordering-svc/services"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// RequireAuth resolves the bearer token to an Actor{id, role} and
// aborts with 401 when the credential is missing, invalid, or belongs
// to a deleted or banned account. Every protected route goes through
// this single gate; role checks build on the Actor it produces.
func RequireAuth(tokens *auth.TokenService, users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid authorization header"})
			return
		}

		userID, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "), auth.TokenTypeAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if user.Status == models.UserStatusBanned {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "User account is banned"})
			return
		}

		c.Set(actorKey, models.Actor{ID: user.ID, Role: user.Role})
		c.Next()
	}
}

// RequireRole gates a route group on the role hierarchy
// (user < admin < superadmin). Must run after RequireAuth.
func RequireRole(required models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if !actor.Role.Satisfies(required) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

func ActorFromContext(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}
