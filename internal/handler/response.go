package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// Error writes a service error using its mapped HTTP status. Errors
// without a status mapping are reported as internal without leaking the
// underlying cause.
func Error(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	if mapped, ok := err.(interface{ StatusCode() int }); ok {
		status = mapped.StatusCode()
		message = err.Error()
	}

	// Attach for the error middleware's structured log.
	_ = c.Error(err)

	c.JSON(status, NewErrorResponse(message))
}
