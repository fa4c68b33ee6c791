package movies

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Ponloe/cinemesh-catalog/internal/users"
)

type Status string

const (
	StatusReleased     Status = "RELEASED"
	StatusInProduction Status = "IN_PRODUCTION"
)

// ImageRef points at an object in the backing store. URL and Key are
// independently nullable.
type ImageRef struct {
	URL *string `json:"url"`
	Key *string `json:"key"`
}

type Movie struct {
	ID            string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title         string      `gorm:"not null;index" json:"title"`
	OriginalTitle *string     `json:"originalTitle"`
	Description   *string     `gorm:"type:text" json:"description"`
	Tagline       *string     `json:"tagline"`
	Budget        *int64      `json:"budget"`
	Revenue       *int64      `json:"revenue"`
	Profit        *int64      `json:"profit"`
	ReleaseDate   *time.Time  `gorm:"index" json:"releaseDate"`
	Duration      *int        `gorm:"index" json:"duration"`
	Status        Status      `gorm:"size:20;not null;default:IN_PRODUCTION" json:"status"`
	Language      *string     `gorm:"size:50" json:"language"`
	TrailerURL    *string     `json:"trailerUrl"`
	Popularity    *int        `json:"popularity"`
	VoteCount     *int        `json:"voteCount"`
	Rating        *float64    `gorm:"index" json:"rating"`
	Image         ImageRef    `gorm:"embedded;embeddedPrefix:image_" json:"image"`
	Backdrop      ImageRef    `gorm:"embedded;embeddedPrefix:backdrop_" json:"backdrop"`
	CreatedByID   string      `gorm:"type:varchar(36);not null;index" json:"-"`
	CreatedBy     *users.User `gorm:"foreignKey:CreatedByID" json:"-"`
	CreatedAt     time.Time   `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
	Genres        []Genre     `gorm:"many2many:movie_genres;" json:"genres"`
}

func (m *Movie) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = StatusInProduction
	}
	return nil
}

type Genre struct {
	ID   string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name string `gorm:"size:100;unique;not null" json:"name"`
}

func (g *Genre) BeforeCreate(*gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

type MovieGenre struct {
	MovieID string `gorm:"type:varchar(36);primaryKey"`
	GenreID string `gorm:"type:varchar(36);primaryKey;index"`
}

// Reminder is a pending release-day notification a user asked for.
type Reminder struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	MovieID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_reminder_movie_user" json:"movieId"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_reminder_movie_user" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Reminder) TableName() string {
	return "pending_notifications"
}

func (r *Reminder) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// AutoMigrate creates the catalog tables. The users table must exist first.
func AutoMigrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Movie{}, "Genres", &MovieGenre{}); err != nil {
		return err
	}
	return db.AutoMigrate(&Genre{}, &Movie{}, &MovieGenre{}, &Reminder{})
}
