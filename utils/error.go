package utils

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InternalErrorDetails is the only detail a client sees for a 500.
const InternalErrorDetails = "An unexpected error occurred. Please try again later."

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
	Field   string `json:"field,omitempty"`
	Value   any    `json:"value,omitempty"`
	Details string `json:"details,omitempty"`
}

// RequestLogger returns the logger stored on the request by the request
// logger middleware, or the global one.
func RequestLogger(c *gin.Context) *zap.Logger {
	if l, ok := c.Get("logger"); ok {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return GetLogger()
}

// ErrorHandler is the outermost middleware. It turns panics, and errors a
// handler attached with c.Error without writing a response, into a JSON 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			RequestLogger(c).Error("Unhandled panic",
				zap.String("panic", fmt.Sprint(rec)),
				zap.String("method", c.Request.Method),
				zap.String("route", c.FullPath()),
				zap.Stack("stack"))
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
				Message: "Internal Server Error",
				Details: InternalErrorDetails,
			})
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		RequestLogger(c).Error("Request failed", zap.String("route", c.FullPath()), zap.Strings("errors", c.Errors.Errors()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal Server Error",
			Details: InternalErrorDetails,
		})
	}
}

// AbortJSON stops the handler chain with an ErrorResponse.
func AbortJSON(c *gin.Context, status int, message, details string) {
	RequestLogger(c).Warn(message, zap.String("details", details), zap.Int("status", status))
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message, Details: details})
}
