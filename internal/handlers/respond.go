package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/taskboard/internal/dto"
	apierrors "github.com/yukikurage/taskboard/internal/errors"
	"github.com/yukikurage/taskboard/internal/middleware"
	"github.com/yukikurage/taskboard/internal/services"
	"github.com/yukikurage/taskboard/internal/utils"
)

// FieldError describes one invalid request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var registerTagNames sync.Once

// useJSONFieldNames makes validator errors report json keys instead of Go field names.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// respondError maps a service error to its HTTP response
func respondError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, err.Error())
	case errors.As(err, &validationErr):
		apierrors.BadRequestWithDetails(c, validationErr.Error(), []FieldError{{
			Field:   validationErr.Field,
			Message: validationErr.Message,
		}})
	case errors.Is(err, services.ErrNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrPermissionDenied):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrInvalidState):
		apierrors.InvalidOperation(c, err.Error())
	case errors.Is(err, services.ErrUsernameTaken), errors.Is(err, services.ErrEmailTaken):
		apierrors.AlreadyExists(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "")
	}
}

// respondBindError reports a malformed or incomplete request body
func respondBindError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]FieldError, len(validationErrs))
		onlyMissing := true
		for i, fe := range validationErrs {
			details[i] = FieldError{Field: fe.Field(), Message: bindMessage(fe)}
			onlyMissing = onlyMissing && fe.Tag() == "required"
		}
		if onlyMissing {
			apierrors.MissingField(c, "Required fields are missing", details)
			return
		}
		apierrors.BadRequestWithDetails(c, "Invalid request body", details)
		return
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		apierrors.InvalidFormat(c, "Invalid request body", []FieldError{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("must be of type %s", typeErr.Type),
		}})
		return
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		apierrors.InvalidFormat(c, "Request body is not valid JSON", nil)
		return
	}

	var timeErr *time.ParseError
	if errors.As(err, &timeErr) {
		apierrors.InvalidFormat(c, "Dates must be RFC 3339 timestamps", nil)
		return
	}

	if errors.Is(err, io.EOF) {
		apierrors.BadRequest(c, "Request body is required")
		return
	}

	apierrors.BadRequest(c, "Invalid request body")
}

func bindMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}

// requireActor returns the acting user or responds with 401
func requireActor(c *gin.Context) (services.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return services.Actor{}, false
	}
	return actor, true
}

// pathID returns a positive integer path parameter or responds with 400
func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := middleware.ParamID(c, name)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return 0, false
	}
	return id, true
}

func respondOK(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, dto.NewResponse(data, message))
}

func respondList(c *gin.Context, data interface{}, count int, params utils.PaginationParams, total int64) {
	pagination := utils.NewPaginationResponse(params, total)
	c.JSON(http.StatusOK, dto.NewListResponse(data, count, &pagination))
}

func viewerOf(actor services.Actor) dto.Viewer {
	return dto.Viewer{UserID: actor.ID, Privileged: actor.IsAdmin}
}
