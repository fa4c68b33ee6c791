package api

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Ponloe/cinemesh-catalog/internal/auth"
)

// RequestLogger writes one entry per request once the handler chain is done.
// Health checks are logged at debug.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
			"size":    c.Writer.Size(),
		}
		if id, ok := auth.UserID(c); ok {
			fields["user_id"] = id
		}
		entry := log.WithFields(fields)

		switch {
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Error("request")
		case c.Request.URL.Path == "/health":
			entry.Debug("request")
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request")
		default:
			entry.Info("request")
		}
	}
}

// Recovery turns a panic into a 500 and logs it with the request path.
func Recovery(log *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		log.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"panic":  recovered,
		}).Error("panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}
