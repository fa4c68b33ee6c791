package movies

import (
	"strings"
	"time"
)

// Filter is the sparse set of listing restrictions a caller may supply.
// Every field is optional; absent fields restrict nothing.
type Filter struct {
	Search          *string    `json:"search"`
	MinDuration     *int       `json:"minDuration" validate:"omitempty,gte=1"`
	MaxDuration     *int       `json:"maxDuration" validate:"omitempty,gte=1"`
	ReleaseDateFrom *time.Time `json:"releaseDateFrom"`
	ReleaseDateTo   *time.Time `json:"releaseDateTo"`
	GenreIDs        []string   `json:"genreIds" validate:"omitempty,dive,required"`
}

// Predicate is one restriction on the movie set. Repositories compile the
// concrete variants into their own query form; Matches evaluates the same
// condition in memory.
type Predicate interface {
	Matches(m *Movie) bool
}

type Column string

const (
	ColumnTitle         Column = "title"
	ColumnOriginalTitle Column = "original_title"
	ColumnDescription   Column = "description"
	ColumnDuration      Column = "duration"
	ColumnReleaseDate   Column = "release_date"
	ColumnGenre         Column = "genre_id"
)

// SearchContains matches when any of Columns contains Term, ignoring case.
type SearchContains struct {
	Columns []Column
	Term    string
}

// RangeBound is an inclusive bound on an integer column. Nulls never match.
type RangeBound struct {
	Column Column
	Min    *int
	Max    *int
}

// DateRange is an inclusive bound on a date column. Nulls never match.
type DateRange struct {
	Column Column
	From   *time.Time
	To     *time.Time
}

// InSet matches when at least one of the movie's values for Column is in Values.
type InSet struct {
	Column Column
	Values []string
}

// KeysetAfter restricts to movies strictly after a resume point in Order.
type KeysetAfter struct {
	Order OrderBy
	Key   any
	ID    string
}

// Compile turns f into predicates, one per present field. The result is
// empty when f is nil or has no fields set.
func (f *Filter) Compile() []Predicate {
	if f == nil {
		return nil
	}
	var preds []Predicate
	if f.Search != nil && *f.Search != "" {
		preds = append(preds, SearchContains{
			Columns: []Column{ColumnTitle, ColumnOriginalTitle, ColumnDescription},
			Term:    *f.Search,
		})
	}
	if f.MinDuration != nil {
		preds = append(preds, RangeBound{Column: ColumnDuration, Min: f.MinDuration})
	}
	if f.MaxDuration != nil {
		preds = append(preds, RangeBound{Column: ColumnDuration, Max: f.MaxDuration})
	}
	if f.ReleaseDateFrom != nil {
		from := toDate(*f.ReleaseDateFrom)
		preds = append(preds, DateRange{Column: ColumnReleaseDate, From: &from})
	}
	if f.ReleaseDateTo != nil {
		to := toDate(*f.ReleaseDateTo)
		preds = append(preds, DateRange{Column: ColumnReleaseDate, To: &to})
	}
	if len(f.GenreIDs) > 0 {
		preds = append(preds, InSet{Column: ColumnGenre, Values: f.GenreIDs})
	}
	return preds
}

func (p SearchContains) Matches(m *Movie) bool {
	term := strings.ToLower(p.Term)
	for _, c := range p.Columns {
		var v *string
		switch c {
		case ColumnTitle:
			v = &m.Title
		case ColumnOriginalTitle:
			v = m.OriginalTitle
		case ColumnDescription:
			v = m.Description
		}
		if v != nil && strings.Contains(strings.ToLower(*v), term) {
			return true
		}
	}
	return false
}

func (p RangeBound) Matches(m *Movie) bool {
	if p.Column != ColumnDuration || m.Duration == nil {
		return false
	}
	d := *m.Duration
	if p.Min != nil && d < *p.Min {
		return false
	}
	if p.Max != nil && d > *p.Max {
		return false
	}
	return true
}

func (p DateRange) Matches(m *Movie) bool {
	if p.Column != ColumnReleaseDate || m.ReleaseDate == nil {
		return false
	}
	d := m.ReleaseDate.UTC()
	if p.From != nil && d.Before(*p.From) {
		return false
	}
	if p.To != nil && d.After(*p.To) {
		return false
	}
	return true
}

func (p InSet) Matches(m *Movie) bool {
	if p.Column != ColumnGenre {
		return false
	}
	for _, g := range m.Genres {
		for _, v := range p.Values {
			if g.ID == v {
				return true
			}
		}
	}
	return false
}

func (p KeysetAfter) Matches(m *Movie) bool {
	c := compareKeys(p.Order.Field.KeyOf(m), p.Key)
	if p.Order.Direction == Desc {
		c = -c
	}
	return c > 0 || (c == 0 && m.ID > p.ID)
}

// MatchesAll reports whether m satisfies every predicate.
func MatchesAll(preds []Predicate, m *Movie) bool {
	for _, p := range preds {
		if !p.Matches(m) {
			return false
		}
	}
	return true
}

// toDate truncates t to midnight UTC of its UTC calendar day.
func toDate(t time.Time) time.Time {
	y, mo, d := t.UTC().Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
