package middleware

import (
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard/internal/constants"
	apierrors "github.com/yukikurage/taskboard/internal/errors"
	"github.com/yukikurage/taskboard/internal/repository"
	"github.com/yukikurage/taskboard/internal/services"
	"gorm.io/gorm"
)

// RequireAuth checks if the user is authenticated via session and loads
// the acting user. Sessions of deleted users are cleared.
func RequireAuth(users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, users) {
			apierrors.Unauthorized(c, "")
			return
		}
		c.Next()
	}
}

// OptionalAuth loads the acting user when a session exists and continues either way.
func OptionalAuth(users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, users)
		if c.IsAborted() {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, users repository.UserRepository) bool {
	session := sessions.Default(c)
	userID, ok := toUint64(session.Get(constants.ContextKeyUserID))
	if !ok {
		return false
	}

	user, err := users.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			session.Clear()
			_ = session.Save()
			return false
		}
		_ = c.Error(err)
		apierrors.InternalError(c, "")
		return false
	}

	// Store user ID and actor in context for easy access in handlers
	c.Set(constants.ContextKeyUserID, user.ID)
	c.Set(constants.ContextKeyActor, services.ActorFromUser(user))
	return true
}

// GetActor retrieves the acting user from context
func GetActor(c *gin.Context) (services.Actor, bool) {
	v, exists := c.Get(constants.ContextKeyActor)
	if !exists {
		return services.Actor{}, false
	}
	actor, ok := v.(services.Actor)
	return actor, ok
}

func toUint64(v interface{}) (uint64, bool) {
	switch v := v.(type) {
	case uint64:
		return v, v != 0
	case uint:
		return uint64(v), v != 0
	case int:
		if v <= 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v <= 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
