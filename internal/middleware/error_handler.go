package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/payperplay/profiles/pkg/logger"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorHandler is a middleware that catches panics and errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err, ok := r.(error)
				if !ok {
					err = fmt.Errorf("%v", r)
				}
				logger.Error("Panic recovered", err, map[string]interface{}{
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				})

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error:   "Internal server error",
					Message: "An unexpected error occurred",
					Code:    "INTERNAL_ERROR",
				})
			}
		}()

		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			logger.Error("Request error", err.Err, map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			})

			if !c.Writer.Written() {
				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Error:   err.Error(),
					Message: "Request failed",
					Code:    "INTERNAL_ERROR",
				})
			}
		}
	}
}

// AppError carries an HTTP status and error code alongside the cause
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
	Details    map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewBadRequestError(message string) *AppError {
	return &AppError{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
	}
}

func NewConflictError(code, message string) *AppError {
	return &AppError{
		StatusCode: http.StatusConflict,
		Code:       code,
		Message:    message,
	}
}

func NewUnprocessableError(code, message string, err error) *AppError {
	return &AppError{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       code,
		Message:    message,
		Err:        err,
	}
}

func NewBadGatewayError(code, message string, err error) *AppError {
	return &AppError{
		StatusCode: http.StatusBadGateway,
		Code:       code,
		Message:    message,
		Err:        err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    "Internal server error",
		Err:        err,
	}
}

// HandleAppError writes err as the response and aborts the chain
func HandleAppError(c *gin.Context, err *AppError) {
	fields := map[string]interface{}{
		"code":   err.Code,
		"status": err.StatusCode,
		"path":   c.Request.URL.Path,
	}
	if err.StatusCode >= http.StatusInternalServerError {
		logger.Error(err.Message, err.Err, fields)
	} else {
		logger.Warn(err.Message, fields)
	}

	c.AbortWithStatusJSON(err.StatusCode, ErrorResponse{
		Error:   err.Message,
		Code:    err.Code,
		Details: err.Details,
	})
}
