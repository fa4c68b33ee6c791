// Command seedgenres fills the genre table with TMDb's movie genres. It reads
// the same environment as the server and is safe to run repeatedly.
package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ponloe/cinemesh-catalog/internal/config"
	"github.com/Ponloe/cinemesh-catalog/internal/database"
	"github.com/Ponloe/cinemesh-catalog/internal/logger"
	"github.com/Ponloe/cinemesh-catalog/internal/movies"
	"github.com/Ponloe/cinemesh-catalog/internal/tmdb"
	"github.com/Ponloe/cinemesh-catalog/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db, &users.User{}); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}
	if err := movies.AutoMigrate(db); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	importer := tmdb.NewImporter(
		tmdb.NewClient(tmdb.NewConfig(cfg.TMDb), log),
		movies.NewGormGenreRepository(db),
		nil,
		log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := importer.SeedGenres(ctx)
	if err != nil {
		log.Fatalf("seed genres: %v", err)
	}
	log.WithField("genres", n).Info("done")
}
