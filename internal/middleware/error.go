package middleware

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	apperrors "budgetpace/internal/errors"
	"budgetpace/internal/logger"
)

// ErrorHandler renders the last error attached to the context with c.Error
// when the handler did not write a response itself.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		renderError(c, c.Errors.Last().Err)
	}
}

// Recovery turns a panic into a logged INTERNAL_ERROR response.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		renderError(c, fmt.Errorf("panic: %v", recovered))
	})
}

// renderError writes err in the API error shape. Anything that is not an
// *AppError is logged and hidden behind INTERNAL_ERROR.
func renderError(c *gin.Context, err error) {
	log := logger.With("path", c.Request.URL.Path, "method", c.Request.Method, "request_id", c.GetString(requestIDKey))

	var appErr *apperrors.AppError
	switch {
	case !errors.As(err, &appErr):
		log.Errorw("unexpected error", "error", err.Error())
		appErr = apperrors.ErrInternalServer
	case appErr.Internal != nil:
		log.Errorw("app error", "code", appErr.Code, "message", appErr.Message, "internal", appErr.Internal.Error())
	}
	abortWith(c, appErr.StatusCode, appErr.Code, appErr.Message)
}
