package main

import (
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Ponloe/cinemesh-catalog/internal/api"
	"github.com/Ponloe/cinemesh-catalog/internal/auth"
	"github.com/Ponloe/cinemesh-catalog/internal/config"
	"github.com/Ponloe/cinemesh-catalog/internal/database"
	"github.com/Ponloe/cinemesh-catalog/internal/logger"
	"github.com/Ponloe/cinemesh-catalog/internal/movies"
	"github.com/Ponloe/cinemesh-catalog/internal/notify"
	"github.com/Ponloe/cinemesh-catalog/internal/storage"
	"github.com/Ponloe/cinemesh-catalog/internal/tmdb"
	"github.com/Ponloe/cinemesh-catalog/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	// users first: movies reference them
	if err := database.Migrate(db, &users.User{}); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}
	if err := movies.AutoMigrate(db); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("db handle: %v", err)
	}

	store, err := storage.NewDiskStore(cfg.Storage, cfg.JWT.Secret)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	usersSvc := users.NewService(users.NewGormRepository(db), notify.New(cfg.Mail, log), log)
	issuer := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL())

	genres := movies.NewGormGenreRepository(db)
	catalog := movies.NewService(movies.Deps{
		Movies:    movies.NewGormRepository(db),
		Genres:    genres,
		Reminders: movies.NewGormReminderRepository(db),
		Store:     store,
		Cursors:   movies.NewCursorCodec(cfg.CursorMode),
		Log:       log,
	})

	tmdbClient := tmdb.NewClient(tmdb.NewConfig(cfg.TMDb), log)
	if cfg.TMDb.APIKey == "" {
		log.Warn("TMDB_API_KEY not set, tmdb endpoints will fail")
	}

	router := api.NewRouter(api.Deps{
		Issuer:     issuer,
		Auth:       auth.NewHandler(usersSvc, issuer),
		Users:      users.NewHandler(usersSvc),
		Movies:     movies.NewHandler(catalog),
		Media:      storage.NewHandler(store, log),
		Controller: api.NewController(tmdb.NewImporter(tmdbClient, genres, catalog, log), sqlDB, log),
		Log:        log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	log.WithFields(logrus.Fields{"port": cfg.Port, "cursor_mode": cfg.CursorMode}).Info("catalog service listening")
	if err := api.Serve(srv, ln, sig, 15*time.Second, log); err != nil {
		log.Fatalf("server: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Warn("closing database")
	}
}
