package tmdb

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Ponloe/cinemesh-catalog/internal/apperr"
	"github.com/Ponloe/cinemesh-catalog/internal/movies"
)

// Importer copies TMDb records into the catalog. Genres are matched by name
// and created on first sight.
type Importer struct {
	client  *Client
	fetcher *MovieFetcher
	genres  movies.GenreRepository
	catalog *movies.Service
	log     *logrus.Logger
}

func NewImporter(client *Client, genres movies.GenreRepository, catalog *movies.Service, log *logrus.Logger) *Importer {
	return &Importer{
		client:  client,
		fetcher: NewMovieFetcher(client),
		genres:  genres,
		catalog: catalog,
		log:     log,
	}
}

func (i *Importer) Search(ctx context.Context, query string, page int) (*MovieSearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("query is required")
	}
	return i.client.SearchMovies(ctx, query, page)
}

// Prefill returns the catalog input a TMDb movie would be imported as,
// without writing anything.
func (i *Importer) Prefill(ctx context.Context, tmdbID int) (*Draft, error) {
	if tmdbID <= 0 {
		return nil, apperr.Validation("tmdbId must be positive")
	}
	return i.fetcher.FetchMovieByTMDbID(ctx, tmdbID)
}

func (i *Importer) Import(ctx context.Context, tmdbID int, actor movies.Actor) (*movies.Movie, error) {
	if tmdbID <= 0 {
		return nil, apperr.Validation("tmdbId must be positive")
	}
	if actor.ID == "" {
		return nil, apperr.Forbidden("authentication required")
	}

	draft, err := i.fetcher.FetchMovieByTMDbID(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	in := draft.Input
	for _, name := range draft.GenreNames {
		g, err := i.genres.FindOrCreateByName(ctx, name)
		if err != nil {
			return nil, err
		}
		in.GenreIDs = append(in.GenreIDs, g.ID)
	}

	m, err := i.catalog.CreateMovie(ctx, in, actor)
	if err != nil {
		return nil, err
	}
	i.log.WithFields(logrus.Fields{
		"tmdb_id":  tmdbID,
		"movie_id": m.ID,
		"user_id":  actor.ID,
	}).Info("imported movie from tmdb")
	return m, nil
}

// SeedGenres creates every TMDb movie genre missing from the catalog and
// returns how many genres TMDb reported.
func (i *Importer) SeedGenres(ctx context.Context) (int, error) {
	genres, err := i.client.GetGenres(ctx)
	if err != nil {
		return 0, err
	}
	for _, g := range genres {
		if _, err := i.genres.FindOrCreateByName(ctx, g.Name); err != nil {
			return 0, err
		}
	}
	i.log.WithField("count", len(genres)).Info("seeded genres from tmdb")
	return len(genres), nil
}
