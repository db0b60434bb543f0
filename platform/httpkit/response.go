// Package httpkit provides HTTP response utilities, the request identity
// context and the middlewares shared by every module.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"net/http"

	"staybook/platform/apperr"

	"github.com/gin-gonic/gin"
)

// GenericErrorMessage is the only message clients see for unexpected failures.
const GenericErrorMessage = "An unexpected error occurred"

// ErrorResponse is the single error body format of the API.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Result is an explicit status and body produced by a middleware or handler.
type Result struct {
	Status int
	Data   interface{}
}

// Respond builds a Result.
func Respond(status int, data interface{}) *Result {
	return &Result{Status: status, Data: data}
}

// ErrorResult maps an error onto the unified error body. Untyped errors
// become a generic 500 so driver or runtime detail never reaches clients.
func ErrorResult(err error) *Result {
	domainErr, ok := apperr.As(err)
	if !ok || domainErr.HTTPStatus() == http.StatusInternalServerError {
		return Respond(http.StatusInternalServerError, ErrorResponse{
			Error:   "INTERNAL_ERROR",
			Message: GenericErrorMessage,
		})
	}

	return Respond(domainErr.HTTPStatus(), ErrorResponse{
		Error:   domainErr.Code(),
		Message: domainErr.Message,
		Details: domainErr.Details,
	})
}

// IsServerError reports whether err will be rendered as a 500.
func IsServerError(err error) bool {
	return ErrorResult(err).Status >= http.StatusInternalServerError
}

// Write sends r as JSON unless a response was already written.
func Write(c *gin.Context, r *Result) {
	if c.Writer.Written() {
		return
	}
	data := r.Data
	if data == nil {
		data = gin.H{}
	}
	c.JSON(r.Status, data)
}

// WriteError sends the unified error body for err and aborts the gin chain.
func WriteError(c *gin.Context, err error) {
	Write(c, ErrorResult(err))
	c.Abort()
}
