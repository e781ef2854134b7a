package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/payperplay/profiles/internal/middleware"
	"github.com/payperplay/profiles/internal/profile"
	"github.com/payperplay/profiles/internal/service"
)

// Error codes returned in ErrorResponse.Code
const (
	CodeProjectNotFound   = "PROJECT_NOT_FOUND"
	CodeSessionNotFound   = "SESSION_NOT_FOUND"
	CodeSessionSuperseded = "SESSION_SUPERSEDED"
	CodeSaveFailed        = "SAVE_FAILED"
	CodeInvalidRequest    = "INVALID_REQUEST"
)

// toAppError maps service and engine errors onto HTTP responses. Parse and
// save failures pass their message through unchanged.
func toAppError(err error) *middleware.AppError {
	var (
		pe *profile.ParseError
		be *profile.BuildError
		se *service.SaveError
	)

	switch {
	case errors.As(err, &pe):
		appErr := middleware.NewUnprocessableError(pe.Code, pe.Error(), err)
		appErr.Details = map[string]interface{}{
			"stage":   pe.Stage,
			"line":    pe.Line,
			"snippet": pe.Snippet,
		}
		return appErr

	case errors.As(err, &be):
		appErr := middleware.NewUnprocessableError(be.Code, be.Error(), err)
		appErr.Details = map[string]interface{}{
			"stage": be.Stage,
			"field": be.Field,
		}
		return appErr

	case errors.Is(err, service.ErrProjectNotFound):
		appErr := middleware.NewNotFoundError("Project")
		appErr.Code = CodeProjectNotFound
		return appErr

	case errors.Is(err, service.ErrSessionNotFound):
		appErr := middleware.NewNotFoundError("Profile session")
		appErr.Code = CodeSessionNotFound
		return appErr

	case errors.Is(err, service.ErrInvalidConfigPath):
		appErr := middleware.NewBadRequestError(err.Error())
		appErr.Code = CodeInvalidRequest
		return appErr

	case errors.Is(err, service.ErrSessionSuperseded):
		return middleware.NewConflictError(CodeSessionSuperseded, err.Error())

	case errors.As(err, &se):
		return middleware.NewBadGatewayError(CodeSaveFailed, se.Err.Error(), err)

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &middleware.AppError{
			StatusCode: http.StatusGatewayTimeout,
			Code:       "REQUEST_TIMEOUT",
			Message:    "Request was cancelled before it completed",
			Err:        err,
		}

	default:
		return middleware.NewInternalError(err)
	}
}

func respondError(c *gin.Context, err error) {
	middleware.HandleAppError(c, toAppError(err))
}

func respondBadRequest(c *gin.Context, message string) {
	appErr := middleware.NewBadRequestError(message)
	appErr.Code = CodeInvalidRequest
	middleware.HandleAppError(c, appErr)
}
