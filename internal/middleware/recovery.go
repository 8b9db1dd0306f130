package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/charlesng35/scribekeys/pkg/errors"
	"github.com/charlesng35/scribekeys/pkg/logger"
	"github.com/charlesng35/scribekeys/pkg/response"
)

// Recovery turns a handler panic into the standard 500 envelope. http.ErrAbortHandler
// is re-raised so net/http can drop the connection as it intends.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if err, ok := recovered.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(recovered)
			}

			fields := []zap.Field{
				zap.String("method", c.Request.Method),
				zap.String("route", routeLabel(c)),
				zap.Any("panic", recovered),
				zap.Stack("stack"),
			}
			if subject, ok := SubjectFromContext(c); ok {
				fields = append(fields, zap.String("user_id", subject.UserID))
			}
			logger.WithModule("http").Error("handler panic", fields...)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			response.Error(c, apperrors.ErrInternalServer)
			c.Abort()
		}()
		c.Next()
	}
}

// NotFoundHandler answers unknown routes with the JSON error envelope.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, apperrors.ErrNotFound.WithMessage(
		fmt.Sprintf("no route for %s %s", c.Request.Method, c.Request.URL.Path)))
}
