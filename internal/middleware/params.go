package middleware

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/taskboard/internal/errors"
)

const idParamKeyPrefix = "param_id_"

// RequireIDParam rejects requests whose path parameter is not a positive integer
// and stores the parsed value for ParamID.
func RequireIDParam(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := ParseUintParam(c, name)
		if err != nil {
			apierrors.BadRequest(c, err.Error())
			return
		}

		c.Set(idParamKeyPrefix+name, id)
		c.Next()
	}
}

// ParamID returns the id stored by RequireIDParam, parsing it if the
// middleware did not run.
func ParamID(c *gin.Context, name string) (uint64, error) {
	if v, ok := c.Get(idParamKeyPrefix + name); ok {
		if id, ok := v.(uint64); ok {
			return id, nil
		}
	}
	return ParseUintParam(c, name)
}

// ParseUintParam parses a positive integer path parameter
func ParseUintParam(c *gin.Context, name string) (uint64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}
