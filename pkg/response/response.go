package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/campusops/admissions-api/pkg/errors"
)

// Base carries the success flag shared by every response body. Response
// DTOs embed it so the flag serialises at the top level alongside their
// own payload fields.
type Base struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// OK marks a Base as successful with an optional message.
func OK(message ...string) Base {
	b := Base{Success: true}
	if len(message) > 0 {
		b.Message = message[0]
	}
	return b
}

// ErrorBody is the uniform failure contract.
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// JSON sends a response body with cache-defeating headers.
func JSON(c *gin.Context, status int, body interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, body)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, body interface{}) {
	JSON(c, http.StatusCreated, body)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, ErrorBody{Success: false, Error: appErr.Message, Code: appErr.Code})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
