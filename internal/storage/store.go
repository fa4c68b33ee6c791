// Package storage issues upload URLs for movie artwork and removes stored
// objects when a movie goes away.
package storage

import (
	"context"
	"errors"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var ErrInvalidKey = errors.New("invalid object key")

// Presigned is a short-lived permission to upload one object.
type Presigned struct {
	UploadURL string    `json:"uploadUrl"`
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ObjectStore interface {
	PresignUpload(ctx context.Context, key, contentType string) (*Presigned, error)
	Delete(ctx context.Context, key string) error
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// NewObjectKey builds a unique key under prefix from a client supplied file
// name, e.g. movies/image/2f1c...-the-matrix.jpg.
func NewObjectKey(prefix, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := strings.ToLower(path.Ext(base))
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	name := slug.Make(strings.TrimSuffix(base, path.Ext(base)))
	if name == "" {
		name = "file"
	}
	return path.Join(prefix, uuid.NewString()+"-"+name+ext)
}

// CleanKey validates a key received from a client and returns its canonical
// form. Absolute keys and keys escaping the root are rejected.
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, `\`) {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean != key || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." {
		return "", ErrInvalidKey
	}
	return clean, nil
}
