package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Ponloe/cinemesh-catalog/internal/apperr"
	"github.com/Ponloe/cinemesh-catalog/internal/auth"
	"github.com/Ponloe/cinemesh-catalog/internal/movies"
	"github.com/Ponloe/cinemesh-catalog/internal/tmdb"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Controller struct {
	importer *tmdb.Importer
	db       Pinger
	log      *logrus.Logger
}

func NewController(importer *tmdb.Importer, db Pinger, log *logrus.Logger) *Controller {
	return &Controller{importer: importer, db: db, log: log}
}

// Health returns 200 when the database answers a ping within two seconds.
func (ctl *Controller) Health(c *gin.Context) {
	if ctl.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := ctl.db.PingContext(ctx); err != nil {
		ctl.log.WithError(err).Warn("health check: database unreachable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
}

// TMDbSearch proxies GET /tmdb/search?q=&page=.
func (ctl *Controller) TMDbSearch(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	results, err := ctl.importer.Search(c.Request.Context(), c.Query("q"), page)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// TMDbPrefill returns the catalog input a TMDb movie maps to.
func (ctl *Controller) TMDbPrefill(c *gin.Context) {
	tmdbID, err := strconv.Atoi(c.Query("tmdbId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tmdbId"})
		return
	}

	draft, err := ctl.importer.Prefill(c.Request.Context(), tmdbID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

type importRequest struct {
	TMDbID int `json:"tmdbId" binding:"required"`
}

func (ctl *Controller) TMDbImport(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := auth.UserID(c)
	m, err := ctl.importer.Import(c.Request.Context(), req.TMDbID, movies.Actor{ID: userID})
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, movies.ToResponse(m))
}
