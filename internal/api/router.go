package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Ponloe/cinemesh-catalog/internal/auth"
	"github.com/Ponloe/cinemesh-catalog/internal/movies"
	"github.com/Ponloe/cinemesh-catalog/internal/storage"
	"github.com/Ponloe/cinemesh-catalog/internal/users"
)

type Deps struct {
	Issuer     *auth.TokenIssuer
	Auth       *auth.Handler
	Users      *users.Handler
	Movies     *movies.Handler
	Media      *storage.Handler // nil when objects are not served by this process
	Controller *Controller
	Log        *logrus.Logger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(d.Log), RequestLogger(d.Log))

	requireAuth := auth.RequireAuth(d.Issuer)

	r.GET("/health", d.Controller.Health)

	r.POST("/login", d.Auth.Login)
	r.POST("/users", d.Users.CreateUser)
	r.GET("/users/:id", d.Users.GetUser)
	r.GET("/me", requireAuth, d.Auth.Me)

	r.GET("/movies", d.Movies.ListMovies)
	r.GET("/movies/:id", d.Movies.GetMovie)
	r.GET("/genres", d.Movies.ListGenres)
	r.GET("/genres/:id", d.Movies.GetGenre)

	authed := r.Group("/", requireAuth)
	{
		authed.POST("/movies", d.Movies.CreateMovie)
		authed.PATCH("/movies/:id", d.Movies.UpdateMovie)
		authed.DELETE("/movies/:id", d.Movies.DeleteMovie)
		authed.POST("/movies/uploads", d.Movies.CreateUpload)
		authed.POST("/movies/:id/reminders", d.Movies.AddReminder)
		authed.DELETE("/movies/:id/reminders", d.Movies.RemoveReminder)
	}

	tmdbRoutes := r.Group("/tmdb", requireAuth)
	{
		tmdbRoutes.GET("/search", d.Controller.TMDbSearch)
		tmdbRoutes.GET("/prefill", d.Controller.TMDbPrefill)
		tmdbRoutes.POST("/import", d.Controller.TMDbImport)
	}

	if d.Media != nil {
		r.GET(storage.MediaPath+"*key", d.Media.Serve)
		r.PUT(storage.MediaPath+"*key", d.Media.Upload)
	}

	return r
}
