package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Ponloe/cinemesh-catalog/internal/config"
)

// MediaPath is the URL prefix the disk store's objects are served under.
const MediaPath = "/media/"

type uploadClaims struct {
	Key         string `json:"key"`
	ContentType string `json:"ct"`
	jwt.RegisteredClaims
}

// DiskStore keeps objects as files below a root directory. Upload URLs carry
// a signed token naming the key and content type they are valid for.
type DiskStore struct {
	root    string
	baseURL string
	ttl     time.Duration
	secret  []byte
	now     func() time.Time
}

func NewDiskStore(cfg config.Storage, secret string) (*DiskStore, error) {
	root, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("storage dir: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	ttl := cfg.URLTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &DiskStore{
		root:    root,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		ttl:     ttl,
		secret:  []byte(secret),
		now:     time.Now,
	}, nil
}

// PublicURL is where a stored key can be fetched.
func (s *DiskStore) PublicURL(key string) string {
	return s.baseURL + MediaPath + key
}

func (s *DiskStore) PresignUpload(_ context.Context, key, contentType string) (*Presigned, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	now := s.now()
	exp := now.Add(s.ttl)
	claims := uploadClaims{
		Key:         key,
		ContentType: contentType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign upload token: %w", err)
	}
	return &Presigned{
		UploadURL: s.PublicURL(key) + "?token=" + url.QueryEscape(tok),
		Key:       key,
		URL:       s.PublicURL(key),
		ExpiresAt: exp,
	}, nil
}

// VerifyUpload checks that token authorizes writing key with contentType.
func (s *DiskStore) VerifyUpload(token, key, contentType string) error {
	claims := &uploadClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return fmt.Errorf("upload token: %w", err)
	}
	if claims.Key != key {
		return errors.New("upload token is for a different key")
	}
	if claims.ContentType != "" && !strings.EqualFold(claims.ContentType, contentType) {
		return errors.New("content type does not match upload token")
	}
	return nil
}

func (s *DiskStore) path(key string) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

// Put writes r to key. The file appears only once fully written.
func (s *DiskStore) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	full, err := s.path(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temporary file: %w", err)
	}
	n, err := io.Copy(tmp, readerWithContext{ctx: ctx, r: r})
	closeErr := tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("write object: %w", err)
	}
	if closeErr != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("close temporary file: %w", closeErr)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("move object into place: %w", err)
	}
	return n, nil
}

// Open returns the file path of key if it exists.
func (s *DiskStore) Open(key string) (string, error) {
	full, err := s.path(key)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(full)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", os.ErrNotExist
	}
	return full, nil
}

// Delete removes key. Deleting a missing object is not an error.
func (s *DiskStore) Delete(_ context.Context, key string) error {
	full, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

type readerWithContext struct {
	ctx context.Context
	r   io.Reader
}

func (r readerWithContext) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
