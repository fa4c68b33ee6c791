package storage

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MaxUploadBytes caps a single uploaded object.
const MaxUploadBytes = 10 << 20

type Handler struct {
	store *DiskStore
	log   *logrus.Logger
}

func NewHandler(store *DiskStore, log *logrus.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// Upload handles PUT /media/*key?token=...
func (h *Handler) Upload(c *gin.Context) {
	key, err := CleanKey(c.Param("key"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contentType := c.ContentType()
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "only image uploads are accepted"})
		return
	}
	if err := h.store.VerifyUpload(c.Query("token"), key, contentType); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)
	n, err := h.store.Put(c.Request.Context(), key, body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
			return
		}
		h.log.WithFields(logrus.Fields{"key": key, "error": err}).Error("storing upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}

	h.log.WithFields(logrus.Fields{"key": key, "bytes": n}).Info("object stored")
	c.JSON(http.StatusCreated, gin.H{"key": key, "url": h.store.PublicURL(key), "size": n})
}

// Serve handles GET /media/*key.
func (h *Handler) Serve(c *gin.Context) {
	full, err := h.store.Open(c.Param("key"))
	if err != nil {
		if errors.Is(err, ErrInvalidKey) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, os.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"error": "object not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read object"})
		return
	}
	c.File(full)
}
