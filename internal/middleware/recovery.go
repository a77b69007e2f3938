package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/shopbase/internal/pkg"
)

// PanicRecorder counts recovered panics per route template.
type PanicRecorder interface {
	ObservePanic(route string)
}

// Recovery turns a handler panic into a 500 problem document. The panic value
// and stack are logged but never sent to the client. If the handler already
// started writing, only the log entry is produced. A client that went away
// (broken pipe, connection reset) is logged at warn without a stack, and
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
// rec may be nil.
func Recovery(logger *slog.Logger, rec PanicRecorder) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(v)
			}

			ctx := c.Request.Context()
			attrs := []slog.Attr{
				slog.Any("panic", v),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
			}

			if clientGone(v) {
				logger.LogAttrs(ctx, slog.LevelWarn, "client connection lost", attrs...)
				c.Abort()
				return
			}

			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			if rec != nil {
				rec.ObservePanic(route)
			}
			attrs = append(attrs, slog.String("route", route), slog.String("stack", string(debug.Stack())))
			logger.LogAttrs(ctx, slog.LevelError, "panic recovered", attrs...)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			pkg.ErrorStatus(c, http.StatusInternalServerError, "internal error")
		}()
		c.Next()
	}
}

func clientGone(v any) bool {
	err, ok := v.(error)
	if !ok {
		return false
	}
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
