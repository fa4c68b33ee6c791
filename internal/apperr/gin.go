package apperr

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ponloe/cinemesh-catalog/internal/logger"
)

// Respond writes err as a JSON error body with its mapped status.
func Respond(c *gin.Context, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.WithFields(map[string]any{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"error":  err.Error(),
		}).Error("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": PublicMessage(err)})
}
