package movies

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Date is a calendar date. JSON accepts "2006-01-02" or a full RFC 3339
// timestamp, of which only the UTC day is kept.
type Date struct {
	time.Time
}

func NewDate(t time.Time) *Date {
	return &Date{Time: toDate(t)}
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return err
		}
	}
	d.Time = toDate(t)
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) value() *time.Time {
	if d == nil {
		return nil
	}
	t := toDate(d.Time)
	return &t
}

type ImageInput struct {
	URL *string `json:"url" validate:"omitempty,url"`
	Key *string `json:"key" validate:"omitempty,max=512"`
}

func (in *ImageInput) ref() ImageRef {
	if in == nil {
		return ImageRef{}
	}
	return ImageRef{URL: in.URL, Key: in.Key}
}

type CreateMovieInput struct {
	Title         string      `json:"title" validate:"required,max=255"`
	OriginalTitle *string     `json:"originalTitle" validate:"omitempty,max=255"`
	Description   *string     `json:"description"`
	Tagline       *string     `json:"tagline" validate:"omitempty,max=500"`
	Budget        *int64      `json:"budget" validate:"omitempty,gte=0"`
	Revenue       *int64      `json:"revenue" validate:"omitempty,gte=0"`
	Profit        *int64      `json:"profit" validate:"omitempty,gte=0"`
	ReleaseDate   *Date       `json:"releaseDate"`
	Duration      *int        `json:"duration" validate:"omitempty,gte=1"`
	Status        *Status     `json:"status" validate:"omitempty,oneof=RELEASED IN_PRODUCTION"`
	Language      *string     `json:"language" validate:"omitempty,max=50"`
	TrailerURL    *string     `json:"trailerUrl" validate:"omitempty,url"`
	Popularity    *int        `json:"popularity" validate:"omitempty,gte=0"`
	VoteCount     *int        `json:"voteCount" validate:"omitempty,gte=0"`
	Rating        *float64    `json:"rating" validate:"omitempty,gte=0,lte=10"`
	Image         *ImageInput `json:"image"`
	Backdrop      *ImageInput `json:"backdrop"`
	GenreIDs      []string    `json:"genreIds" validate:"omitempty,dive,required"`
}

// UpdateMovieInput is a patch: nil fields are left unchanged. A non-nil
// GenreIDs replaces the genre set, an empty one clears it.
type UpdateMovieInput struct {
	ID            string      `json:"id" validate:"required"`
	Title         *string     `json:"title" validate:"omitempty,min=1,max=255"`
	OriginalTitle *string     `json:"originalTitle" validate:"omitempty,max=255"`
	Description   *string     `json:"description"`
	Tagline       *string     `json:"tagline" validate:"omitempty,max=500"`
	Budget        *int64      `json:"budget" validate:"omitempty,gte=0"`
	Revenue       *int64      `json:"revenue" validate:"omitempty,gte=0"`
	Profit        *int64      `json:"profit" validate:"omitempty,gte=0"`
	ReleaseDate   *Date       `json:"releaseDate"`
	Duration      *int        `json:"duration" validate:"omitempty,gte=1"`
	Status        *Status     `json:"status" validate:"omitempty,oneof=RELEASED IN_PRODUCTION"`
	Language      *string     `json:"language" validate:"omitempty,max=50"`
	TrailerURL    *string     `json:"trailerUrl" validate:"omitempty,url"`
	Popularity    *int        `json:"popularity" validate:"omitempty,gte=0"`
	VoteCount     *int        `json:"voteCount" validate:"omitempty,gte=0"`
	Rating        *float64    `json:"rating" validate:"omitempty,gte=0,lte=10"`
	Image         *ImageInput `json:"image"`
	Backdrop      *ImageInput `json:"backdrop"`
	GenreIDs      []string    `json:"genreIds" validate:"omitempty,dive,required"`
}

func (in *CreateMovieInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
}

func (in *UpdateMovieInput) normalize() {
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		in.Title = &t
	}
}

func (in *CreateMovieInput) build(ownerID string, genres []Genre) *Movie {
	m := &Movie{
		Title:         in.Title,
		OriginalTitle: in.OriginalTitle,
		Description:   in.Description,
		Tagline:       in.Tagline,
		Budget:        in.Budget,
		Revenue:       in.Revenue,
		Profit:        in.Profit,
		ReleaseDate:   in.ReleaseDate.value(),
		Duration:      in.Duration,
		Status:        StatusInProduction,
		Language:      in.Language,
		TrailerURL:    in.TrailerURL,
		Popularity:    in.Popularity,
		VoteCount:     in.VoteCount,
		Rating:        in.Rating,
		Image:         in.Image.ref(),
		Backdrop:      in.Backdrop.ref(),
		CreatedByID:   ownerID,
		Genres:        genres,
	}
	if in.Status != nil {
		m.Status = *in.Status
	}
	return m
}

// apply copies every set field of in onto m. Genres are handled by the caller.
func (in *UpdateMovieInput) apply(m *Movie) {
	if in.Title != nil {
		m.Title = *in.Title
	}
	if in.OriginalTitle != nil {
		m.OriginalTitle = in.OriginalTitle
	}
	if in.Description != nil {
		m.Description = in.Description
	}
	if in.Tagline != nil {
		m.Tagline = in.Tagline
	}
	if in.Budget != nil {
		m.Budget = in.Budget
	}
	if in.Revenue != nil {
		m.Revenue = in.Revenue
	}
	if in.Profit != nil {
		m.Profit = in.Profit
	}
	if in.ReleaseDate != nil {
		m.ReleaseDate = in.ReleaseDate.value()
	}
	if in.Duration != nil {
		m.Duration = in.Duration
	}
	if in.Status != nil {
		m.Status = *in.Status
	}
	if in.Language != nil {
		m.Language = in.Language
	}
	if in.TrailerURL != nil {
		m.TrailerURL = in.TrailerURL
	}
	if in.Popularity != nil {
		m.Popularity = in.Popularity
	}
	if in.VoteCount != nil {
		m.VoteCount = in.VoteCount
	}
	if in.Rating != nil {
		m.Rating = in.Rating
	}
	if in.Image != nil {
		m.Image = in.Image.ref()
	}
	if in.Backdrop != nil {
		m.Backdrop = in.Backdrop.ref()
	}
}
