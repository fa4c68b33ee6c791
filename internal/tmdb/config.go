package tmdb

import (
	"fmt"
	"strings"

	"github.com/Ponloe/cinemesh-catalog/internal/config"
)

const (
	BaseURL      = "https://api.themoviedb.org/3"
	ImageBaseURL = "https://image.tmdb.org/t/p/"
)

const (
	SizePosterW185    = "w185"
	SizePosterW500    = "w500"
	SizeBackdropW780  = "w780"
	SizeBackdropW1280 = "w1280"
	SizeOriginal      = "original"
)

type Config struct {
	APIKey  string
	BaseURL string
}

func NewConfig(cfg config.TMDb) *Config {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = BaseURL
	}
	return &Config{APIKey: cfg.APIKey, BaseURL: base}
}

func BuildImageURL(size, path string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s%s%s", ImageBaseURL, size, path)
}

func BuildPosterURL(path string) string {
	return BuildImageURL(SizePosterW500, path)
}

func BuildBackdropURL(path string) string {
	return BuildImageURL(SizeBackdropW1280, path)
}
