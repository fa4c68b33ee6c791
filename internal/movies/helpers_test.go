package movies

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Ponloe/cinemesh-catalog/internal/database"
	"github.com/Ponloe/cinemesh-catalog/internal/storage"
	"github.com/Ponloe/cinemesh-catalog/internal/users"
)

func ptr[T any](v T) *T { return &v }

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(&users.User{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeStore struct {
	mu        sync.Mutex
	deleted   []string
	deleteErr error
}

func (f *fakeStore) PresignUpload(_ context.Context, key, contentType string) (*storage.Presigned, error) {
	return &storage.Presigned{
		UploadURL: "http://store.test/upload/" + key + "?ct=" + contentType,
		Key:       key,
		URL:       "http://store.test/" + key,
		ExpiresAt: time.Now().Add(time.Minute),
	}, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return f.deleteErr
}

var errStoreDown = errors.New("store unavailable")

type fixture struct {
	db    *gorm.DB
	svc   *Service
	store *fakeStore
	genre *GormGenreRepository
}

func newFixture(t *testing.T, codec CursorCodec) *fixture {
	t.Helper()
	db := setupTestDB(t)
	store := &fakeStore{}
	genres := NewGormGenreRepository(db)
	svc := NewService(Deps{
		Movies:    NewGormRepository(db),
		Genres:    genres,
		Reminders: NewGormReminderRepository(db),
		Store:     store,
		Cursors:   codec,
		Log:       quietLogger(),
	})
	return &fixture{db: db, svc: svc, store: store, genre: genres}
}

func (f *fixture) user(t *testing.T, name string) Actor {
	t.Helper()
	u := &users.User{Name: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, f.db.Create(u).Error)
	return Actor{ID: u.ID}
}

func (f *fixture) genreNamed(t *testing.T, name string) Genre {
	t.Helper()
	g, err := f.genre.FindOrCreateByName(context.Background(), name)
	require.NoError(t, err)
	return *g
}

// artKey is an object key as PresignUpload would hand it to a.
func artKey(a Actor, kind ImageKind, name string) *string {
	k := artworkPrefix(kind, a.ID) + "/" + name
	return &k
}

// seed inserts m as-is, bypassing the service.
func (f *fixture) seed(t *testing.T, m Movie) *Movie {
	t.Helper()
	require.NoError(t, f.db.Omit("CreatedBy").Create(&m).Error)
	return &m
}
