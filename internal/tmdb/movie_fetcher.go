package tmdb

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Ponloe/cinemesh-catalog/internal/apperr"
	"github.com/Ponloe/cinemesh-catalog/internal/movies"
)

// Draft is a TMDb movie translated into catalog input. Genres are carried by
// name because TMDb ids mean nothing to the catalog.
type Draft struct {
	TMDbID     int                     `json:"tmdbId"`
	Input      movies.CreateMovieInput `json:"input"`
	GenreNames []string                `json:"genreNames"`
}

type MovieFetcher struct {
	client *Client
}

func NewMovieFetcher(client *Client) *MovieFetcher {
	return &MovieFetcher{client: client}
}

func (f *MovieFetcher) FetchMovieByTMDbID(ctx context.Context, tmdbID int) (*Draft, error) {
	details, err := f.client.GetMovieDetails(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	return convertToDraft(details), nil
}

func (f *MovieFetcher) SearchAndConvert(ctx context.Context, query string) (*Draft, error) {
	results, err := f.client.SearchMovies(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(results.Results) == 0 {
		return nil, apperr.NotFound("tmdb movie", query)
	}
	return f.FetchMovieByTMDbID(ctx, results.Results[0].ID)
}

func convertToDraft(details *MovieDetails) *Draft {
	in := movies.CreateMovieInput{
		Title:         strings.TrimSpace(details.Title),
		OriginalTitle: optString(details.OriginalTitle),
		Description:   optString(details.Overview),
		Tagline:       optString(details.Tagline),
		Language:      optString(details.OriginalLanguage),
		TrailerURL:    trailerURL(details.Videos),
		VoteCount:     &details.VoteCount,
	}

	if details.ReleaseDate != "" {
		if releaseDate, err := time.Parse("2006-01-02", details.ReleaseDate); err == nil {
			in.ReleaseDate = movies.NewDate(releaseDate)
		}
	}
	if details.Runtime > 0 {
		in.Duration = &details.Runtime
	}
	if details.Budget > 0 {
		in.Budget = &details.Budget
	}
	if details.Revenue > 0 {
		in.Revenue = &details.Revenue
	}
	if details.Budget > 0 && details.Revenue >= details.Budget {
		profit := details.Revenue - details.Budget
		in.Profit = &profit
	}
	if details.Popularity > 0 {
		p := int(math.Round(details.Popularity))
		in.Popularity = &p
	}
	if details.VoteCount > 0 {
		rating := math.Round(details.VoteAverage*10) / 10
		in.Rating = &rating
	}

	status := movies.StatusInProduction
	if strings.EqualFold(details.Status, "Released") {
		status = movies.StatusReleased
	}
	in.Status = &status

	if url := BuildPosterURL(details.PosterPath); url != "" {
		in.Image = &movies.ImageInput{URL: &url}
	}
	if url := BuildBackdropURL(details.BackdropPath); url != "" {
		in.Backdrop = &movies.ImageInput{URL: &url}
	}

	d := &Draft{TMDbID: details.ID, Input: in}
	for _, g := range details.Genres {
		d.GenreNames = append(d.GenreNames, g.Name)
	}
	return d
}

// trailerURL picks the first YouTube trailer, preferring official ones.
func trailerURL(videos VideosResponse) *string {
	var pick *Video
	for i := range videos.Results {
		v := &videos.Results[i]
		if !strings.EqualFold(v.Site, "YouTube") || !strings.EqualFold(v.Type, "Trailer") || v.Key == "" {
			continue
		}
		if pick == nil || (v.Official && !pick.Official) {
			pick = v
		}
	}
	if pick == nil {
		return nil
	}
	u := fmt.Sprintf("https://www.youtube.com/watch?v=%s", pick.Key)
	return &u
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
