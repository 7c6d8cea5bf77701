package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"

	"imageapi/internal/pkg/response"
)

// RequestLogger logs every request, the errors handlers attached with
// c.Error, and recovers from panics into the JSON error envelope.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				err := fmt.Errorf("%v", recovered)
				logger.Error("request panic", append(requestAttrs(c, start), "error", err, "stack", string(debug.Stack()))...)
				if c.Writer.Written() {
					c.Abort()
					return
				}
				response.Abort(c, http.StatusInternalServerError, response.CodeInternalError, "server_error")
				return
			}

			for _, err := range c.Errors {
				logger.Error("request error", append(requestAttrs(c, start), "error", err.Err)...)
			}

			attrs := requestAttrs(c, start)
			switch status := c.Writer.Status(); {
			case status >= http.StatusInternalServerError:
				logger.Warn("request completed", attrs...)
			default:
				logger.Info("request completed", attrs...)
			}
		}()

		c.Next()
	}
}

func requestAttrs(c *gin.Context, start time.Time) []any {
	return []any{
		"status", c.Writer.Status(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"query", c.Request.URL.RawQuery,
		"client_ip", c.ClientIP(),
		"request_id", requestID(c),
		"latency", time.Since(start),
	}
}

func requestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = c.GetHeader("X-Request-Id")
	}
	return requestID
}
