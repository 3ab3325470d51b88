package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	plotdomain "github.com/smallbiznis/soildata/internal/plot/domain"
	soildatadomain "github.com/smallbiznis/soildata/internal/soildata/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, internalPayload()
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	// Not-found checks run first: a batch item pointing at a missing plot is
	// still a 404, even though it carries a field.
	switch {
	case errors.Is(err, soildatadomain.ErrPlotNotFound):
		fields := violationErrors(err)
		if len(fields) == 0 {
			fields = []ValidationError{{Field: "plotId", Code: "not_found", Message: "plot not found"}}
		}
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "plot not found",
			Errors:  fields,
		}
	case errors.Is(err, soildatadomain.ErrNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "soil data measurement not found",
		}
	case errors.Is(err, plotdomain.ErrNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "plot not found",
		}
	case errors.Is(err, ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	}

	if isValidationError(err) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: validationMessage(err),
			Errors:  violationErrors(err),
		}
	}

	switch {
	case errors.Is(err, plotdomain.ErrInUse):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "plot still has soil data measurements",
		}
	case errors.Is(err, plotdomain.ErrNameTaken):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "a plot with this name already exists",
			Errors: []ValidationError{
				{Field: "name", Code: "taken", Message: "name is already in use"},
			},
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	default:
		return http.StatusInternalServerError, internalPayload()
	}
}

func internalPayload() errorPayload {
	return errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		soildatadomain.IsValidation(err),
		errors.Is(err, plotdomain.ErrInvalidID),
		errors.Is(err, plotdomain.ErrInvalidName):
		return true
	default:
		return false
	}
}

func validationMessage(err error) string {
	var v soildatadomain.Violation
	if errors.As(err, &v) {
		return v.Error()
	}
	return "validation error"
}

// violationErrors renders the field list for a validation or batch error.
func violationErrors(err error) []ValidationError {
	var v soildatadomain.Violation
	if errors.As(err, &v) {
		message := v.Error()
		var item *soildatadomain.BatchItemError
		if errors.As(err, &item) {
			message = item.Err.Error()
			if errors.Is(item.Err, soildatadomain.ErrPlotNotFound) {
				message = "plot not found"
			}
		}
		return []ValidationError{{
			Field:   v.ViolationField(),
			Code:    v.ViolationCode(),
			Message: message,
		}}
	}

	switch {
	case errors.Is(err, soildatadomain.ErrInvalidID),
		errors.Is(err, plotdomain.ErrInvalidID):
		return []ValidationError{{Field: "id", Code: "invalid", Message: "id must be a valid id"}}
	case errors.Is(err, soildatadomain.ErrEmptyBatch):
		return []ValidationError{{Field: "items", Code: "required", Message: "items must not be empty"}}
	case errors.Is(err, soildatadomain.ErrBatchTooLarge):
		return []ValidationError{{Field: "items", Code: "too_many", Message: "too many items in one batch"}}
	case errors.Is(err, plotdomain.ErrInvalidName):
		return []ValidationError{{Field: "name", Code: "invalid", Message: "name is required"}}
	case errors.Is(err, ErrInvalidRequest):
		return []ValidationError{{Field: "request", Code: "invalid_request", Message: "invalid request"}}
	default:
		return nil
	}
}

// classifyErrorForLog maps an error to the type/code pair logged per request.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	if status >= http.StatusInternalServerError {
		return "internal_error", "internal_error"
	}
	return payload.Type, code
}
