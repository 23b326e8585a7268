package middleware

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/taskboard/internal/errors"
)

// RequireAdmin checks if the acting user has the admin role.
// Must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, exists := GetActor(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		if !actor.IsAdmin {
			apierrors.Forbidden(c, "Administrator privileges required")
			return
		}

		c.Next()
	}
}
