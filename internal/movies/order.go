package movies

import (
	"strings"
	"time"

	"github.com/Ponloe/cinemesh-catalog/internal/apperr"
)

type OrderField string

const (
	OrderByTitle       OrderField = "TITLE"
	OrderByReleaseDate OrderField = "RELEASE_DATE"
	OrderByDuration    OrderField = "DURATION"
	OrderByRating      OrderField = "RATING"
	OrderByCreatedAt   OrderField = "CREATED_AT"
)

type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

type OrderBy struct {
	Field     OrderField `json:"field"`
	Direction Direction  `json:"direction"`
}

var DefaultOrder = OrderBy{Field: OrderByTitle, Direction: Asc}

// epoch stands in for a missing date when dates are compared.
var epoch = time.Unix(0, 0).UTC()

func ParseOrderField(s string) (OrderField, error) {
	f := OrderField(strings.ToUpper(strings.TrimSpace(s)))
	if !f.valid() {
		return "", apperr.Validation("unknown order field %q", s)
	}
	return f, nil
}

func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToUpper(strings.TrimSpace(s)))
	if d != Asc && d != Desc {
		return "", apperr.Validation("unknown direction %q", s)
	}
	return d, nil
}

func (f OrderField) valid() bool {
	switch f {
	case OrderByTitle, OrderByReleaseDate, OrderByDuration, OrderByRating, OrderByCreatedAt:
		return true
	}
	return false
}

// Validate fills in defaults for a partially specified order and rejects
// unknown values.
func (o OrderBy) Validate() (OrderBy, error) {
	if o.Field == "" {
		o.Field = DefaultOrder.Field
	}
	if o.Direction == "" {
		o.Direction = Asc
	}
	if !o.Field.valid() {
		return o, apperr.Validation("unknown order field %q", o.Field)
	}
	if o.Direction != Asc && o.Direction != Desc {
		return o, apperr.Validation("unknown direction %q", o.Direction)
	}
	return o, nil
}

func (f OrderField) column() string {
	switch f {
	case OrderByReleaseDate:
		return "movies.release_date"
	case OrderByDuration:
		return "movies.duration"
	case OrderByRating:
		return "movies.rating"
	case OrderByCreatedAt:
		return "movies.created_at"
	default:
		return "movies.title"
	}
}

// nullValue is what a missing value of f sorts and compares as. Title is
// never null.
func (f OrderField) nullValue() any {
	switch f {
	case OrderByReleaseDate, OrderByCreatedAt:
		return epoch
	case OrderByDuration:
		return 0
	case OrderByRating:
		return 0.0
	default:
		return nil
	}
}

// KeyOf returns the comparable sort key of m under f with nulls coalesced.
// The dynamic type is string, time.Time, int or float64 depending on f.
func (f OrderField) KeyOf(m *Movie) any {
	switch f {
	case OrderByReleaseDate:
		if m.ReleaseDate == nil {
			return epoch
		}
		return m.ReleaseDate.UTC()
	case OrderByCreatedAt:
		return m.CreatedAt.UTC()
	case OrderByDuration:
		if m.Duration == nil {
			return 0
		}
		return *m.Duration
	case OrderByRating:
		if m.Rating == nil {
			return 0.0
		}
		return *m.Rating
	default:
		return m.Title
	}
}

// compareKeys orders two keys produced by KeyOf for the same field.
func compareKeys(a, b any) int {
	switch av := a.(type) {
	case string:
		return strings.Compare(av, b.(string))
	case time.Time:
		return av.Compare(b.(time.Time))
	case int:
		bv := b.(int)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	}
	return 0
}

// Less reports whether a sorts before b under o, ties broken by id ascending.
func (o OrderBy) Less(a, b *Movie) bool {
	c := compareKeys(o.Field.KeyOf(a), o.Field.KeyOf(b))
	if o.Direction == Desc {
		c = -c
	}
	if c != 0 {
		return c < 0
	}
	return a.ID < b.ID
}
