package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Ponloe/cinemesh-catalog/internal/auth"
	"github.com/Ponloe/cinemesh-catalog/internal/config"
	"github.com/Ponloe/cinemesh-catalog/internal/database"
	"github.com/Ponloe/cinemesh-catalog/internal/movies"
	"github.com/Ponloe/cinemesh-catalog/internal/notify"
	"github.com/Ponloe/cinemesh-catalog/internal/storage"
	"github.com/Ponloe/cinemesh-catalog/internal/tmdb"
	"github.com/Ponloe/cinemesh-catalog/internal/users"
)

const testSecret = "router-secret"

type testServer struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
}

func fakeTMDb(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/603":
			io.WriteString(w, `{"id":603,"title":"The Matrix","runtime":136,"status":"Released",
				"release_date":"1999-03-30","genres":[{"id":28,"name":"Action"}]}`)
		case "/search/movie":
			io.WriteString(w, `{"page":1,"results":[{"id":603,"title":"The Matrix"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := database.OpenMemory(&users.User{})
	require.NoError(t, err)
	require.NoError(t, movies.AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)

	store, err := storage.NewDiskStore(config.Storage{
		Dir:     t.TempDir(),
		BaseURL: "http://media.test",
		URLTTL:  time.Minute,
	}, testSecret)
	require.NoError(t, err)

	usersSvc := users.NewService(users.NewGormRepository(db), notify.LogNotifier{Log: log}, log)
	issuer := auth.NewTokenIssuer(testSecret, time.Hour)
	genres := movies.NewGormGenreRepository(db)
	catalog := movies.NewService(movies.Deps{
		Movies:    movies.NewGormRepository(db),
		Genres:    genres,
		Reminders: movies.NewGormReminderRepository(db),
		Store:     store,
		Log:       log,
	})
	tmdbClient := tmdb.NewClient(tmdb.NewConfig(config.TMDb{APIKey: "k", BaseURL: fakeTMDb(t).URL}), log)

	router := NewRouter(Deps{
		Issuer:     issuer,
		Auth:       auth.NewHandler(usersSvc, issuer),
		Users:      users.NewHandler(usersSvc),
		Movies:     movies.NewHandler(catalog),
		Media:      storage.NewHandler(store, log),
		Controller: NewController(tmdb.NewImporter(tmdbClient, genres, catalog, log), sqlDB, log),
		Log:        log,
	})
	return &testServer{t: t, router: router, db: db}
}

func (s *testServer) do(method, target, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// signup registers a user and returns a bearer token for them.
func (s *testServer) signup(name, email string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/users", "", gin.H{"name": name, "email": email, "password": "password123"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/login", "", gin.H{"email": email, "password": "password123"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return decode[struct {
		Token string `json:"token"`
	}](s.t, w).Token
}

type movieBody struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Duration  *int   `json:"duration"`
	CreatedBy struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"createdBy"`
	Genres []movies.Genre `json:"genres"`
}

type connectionBody struct {
	Edges []struct {
		Node   movieBody `json:"node"`
		Cursor string    `json:"cursor"`
	} `json:"edges"`
	PageInfo   movies.PageInfo `json:"pageInfo"`
	TotalCount int64           `json:"totalCount"`
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":"up"}`, w.Body.String())
}

type downDB struct{}

func (downDB) PingContext(_ context.Context) error { return errors.New("down") }

func TestHealthReportsDatabaseDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)
	ctl := NewController(nil, downDB{}, log)

	r := gin.New()
	r.GET("/health", ctl.Health)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMutationsRequireAuth(t *testing.T) {
	s := newTestServer(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/movies"},
		{http.MethodPatch, "/movies/x"},
		{http.MethodDelete, "/movies/x"},
		{http.MethodPost, "/movies/uploads"},
		{http.MethodPost, "/movies/x/reminders"},
		{http.MethodPost, "/tmdb/import"},
		{http.MethodGet, "/me"},
	} {
		w := s.do(tc.method, tc.path, "", gin.H{})
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestMovieLifecycle(t *testing.T) {
	s := newTestServer(t)
	ana := s.signup("Ana", "ana@example.com")
	bob := s.signup("Bob", "bob@example.com")

	require.NoError(t, s.db.Create(&movies.Genre{Name: "Drama"}).Error)
	var drama movies.Genre
	require.NoError(t, s.db.First(&drama, "name = ?", "Drama").Error)

	w := s.do(http.MethodPost, "/movies", ana, gin.H{"title": "Beta", "duration": 100, "genreIds": []string{drama.ID}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	beta := decode[movieBody](t, w)
	assert.Equal(t, "Ana", beta.CreatedBy.Name)
	require.Len(t, beta.Genres, 1)
	assert.NotContains(t, w.Body.String(), "email")

	w = s.do(http.MethodPost, "/movies", ana, gin.H{"title": "Alpha", "duration": 90})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/movies", ana, gin.H{"title": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/movies", ana, gin.H{"title": "Gamma", "genreIds": []string{"missing"}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// first page of one, ordered by title
	w = s.do(http.MethodGet, "/movies?first=1&orderBy=title", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode[connectionBody](t, w)
	require.Len(t, page.Edges, 1)
	assert.Equal(t, "Alpha", page.Edges[0].Node.Title)
	assert.True(t, page.PageInfo.HasNextPage)
	assert.Equal(t, int64(2), page.TotalCount)

	w = s.do(http.MethodGet, "/movies?first=1&orderBy=title&after="+url.QueryEscape(page.Edges[0].Cursor), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[connectionBody](t, w)
	require.Len(t, page.Edges, 1)
	assert.Equal(t, "Beta", page.Edges[0].Node.Title)
	assert.False(t, page.PageInfo.HasNextPage)

	w = s.do(http.MethodGet, "/movies?genreIds="+drama.ID+"&minDuration=95", "", nil)
	page = decode[connectionBody](t, w)
	require.Len(t, page.Edges, 1)
	assert.Equal(t, beta.ID, page.Edges[0].Node.ID)

	w = s.do(http.MethodGet, "/movies?first=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodGet, "/movies?orderBy=POPULARITY", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// only the owner may change or delete
	w = s.do(http.MethodPatch, "/movies/"+beta.ID, bob, gin.H{"title": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(http.MethodDelete, "/movies/"+beta.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPatch, "/movies/"+beta.ID, ana, gin.H{"title": "Beta Prime", "genreIds": []string{}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[movieBody](t, w)
	assert.Equal(t, "Beta Prime", updated.Title)
	assert.Equal(t, 100, *updated.Duration)
	assert.Empty(t, updated.Genres)

	w = s.do(http.MethodPost, "/movies/"+beta.ID+"/reminders", bob, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodDelete, "/movies/"+beta.ID, ana, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":true}`, w.Body.String())

	w = s.do(http.MethodGet, "/movies/"+beta.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodPatch, "/movies/"+beta.ID, ana, gin.H{"title": "Ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenresEndpoints(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.db.Create(&movies.Genre{Name: "Horror"}).Error)

	w := s.do(http.MethodGet, "/genres", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]movies.Genre](t, w)
	require.Len(t, list, 1)

	w = s.do(http.MethodGet, "/genres/"+list[0].ID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/genres/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadFlow(t *testing.T) {
	s := newTestServer(t)
	ana := s.signup("Ana", "ana@example.com")

	w := s.do(http.MethodPost, "/movies/uploads", ana, gin.H{"kind": "IMAGE", "filename": "Poster Art.PNG", "contentType": "image/png"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[storage.Presigned](t, w)
	assert.True(t, strings.HasPrefix(p.Key, "movies/image/"))

	w = s.do(http.MethodPost, "/movies/uploads", ana, gin.H{"kind": "IMAGE", "filename": "x.txt", "contentType": "text/plain"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	u, err := url.Parse(p.UploadURL)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, u.RequestURI(), strings.NewReader("png-bytes"))
	req.Header.Set("Content-Type", "image/png")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, storage.MediaPath+p.Key, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())

	bob := s.signup("Bob", "bob@example.com")
	w = s.do(http.MethodPost, "/movies", bob, gin.H{"title": "Borrowed Art", "image": gin.H{"key": p.Key, "url": p.URL}})
	assert.Equal(t, http.StatusBadRequest, w.Code, "another user's upload cannot be attached")

	w = s.do(http.MethodPost, "/movies", ana, gin.H{"title": "With Art", "image": gin.H{"key": p.Key, "url": p.URL}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	m := decode[movieBody](t, w)

	w = s.do(http.MethodDelete, "/movies/"+m.ID, ana, nil)
	require.Equal(t, http.StatusOK, w.Code)

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, storage.MediaPath+p.Key, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "artwork removed with the movie")
}

func TestTMDbEndpoints(t *testing.T) {
	s := newTestServer(t)
	ana := s.signup("Ana", "ana@example.com")

	w := s.do(http.MethodGet, "/tmdb/search?q=matrix", ana, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "The Matrix")

	w = s.do(http.MethodGet, "/tmdb/search", ana, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/tmdb/prefill?tmdbId=603", ana, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"genreNames":["Action"]`)

	w = s.do(http.MethodPost, "/tmdb/import", ana, gin.H{"tmdbId": 603})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	m := decode[movieBody](t, w)
	assert.Equal(t, "The Matrix", m.Title)
	assert.Equal(t, "Ana", m.CreatedBy.Name)
	require.Len(t, m.Genres, 1)
	assert.Equal(t, "Action", m.Genres[0].Name)

	w = s.do(http.MethodPost, "/tmdb/import", ana, gin.H{"tmdbId": 9999})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecoveryReturnsJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	r := gin.New()
	r.Use(Recovery(log), RequestLogger(log))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}
