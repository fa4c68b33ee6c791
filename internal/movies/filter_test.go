package movies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileOnePredicatePerField(t *testing.T) {
	assert.Empty(t, (*Filter)(nil).Compile())
	assert.Empty(t, (&Filter{}).Compile())

	f := &Filter{
		Search:          ptr("matrix"),
		MinDuration:     ptr(90),
		MaxDuration:     ptr(120),
		ReleaseDateFrom: date(1999, 1, 1),
		ReleaseDateTo:   date(2003, 12, 31),
		GenreIDs:        []string{"g1", "g2"},
	}
	preds := f.Compile()
	require.Len(t, preds, 6)
	assert.IsType(t, SearchContains{}, preds[0])
	assert.IsType(t, RangeBound{}, preds[1])
	assert.IsType(t, RangeBound{}, preds[2])
	assert.IsType(t, DateRange{}, preds[3])
	assert.IsType(t, DateRange{}, preds[4])
	assert.Equal(t, InSet{Column: ColumnGenre, Values: []string{"g1", "g2"}}, preds[5])
}

func TestCompileTruncatesDates(t *testing.T) {
	from := time.Date(2020, 5, 1, 18, 30, 0, 0, time.UTC)
	preds := (&Filter{ReleaseDateFrom: &from}).Compile()
	require.Len(t, preds, 1)
	assert.True(t, preds[0].(DateRange).From.Equal(*date(2020, 5, 1)))
}

func TestSearchMatchesAnyTextColumn(t *testing.T) {
	p := SearchContains{Columns: []Column{ColumnTitle, ColumnOriginalTitle, ColumnDescription}, Term: "NEO"}

	assert.True(t, p.Matches(&Movie{Title: "Neon Demon"}))
	assert.True(t, p.Matches(&Movie{Title: "x", OriginalTitle: ptr("Neo Tokyo")}))
	assert.True(t, p.Matches(&Movie{Title: "x", Description: ptr("starring neo")}))
	assert.False(t, p.Matches(&Movie{Title: "Alpha"}))
}

func TestRangeBoundInclusiveAndNulls(t *testing.T) {
	p := RangeBound{Column: ColumnDuration, Min: ptr(90), Max: ptr(90)}
	assert.True(t, p.Matches(&Movie{Duration: ptr(90)}))
	assert.False(t, p.Matches(&Movie{Duration: ptr(91)}))
	assert.False(t, p.Matches(&Movie{}))

	empty := RangeBound{Column: ColumnDuration, Min: ptr(100), Max: ptr(50)}
	assert.False(t, empty.Matches(&Movie{Duration: ptr(75)}))
}

func TestDateRangeNeverMatchesNull(t *testing.T) {
	p := DateRange{Column: ColumnReleaseDate, From: date(2000, 1, 1)}
	assert.False(t, p.Matches(&Movie{}))
	assert.True(t, p.Matches(&Movie{ReleaseDate: date(2000, 1, 1)}))
	assert.False(t, p.Matches(&Movie{ReleaseDate: date(1999, 12, 31)}))

	to := DateRange{Column: ColumnReleaseDate, To: date(2000, 1, 1)}
	assert.False(t, to.Matches(&Movie{}))
	assert.True(t, to.Matches(&Movie{ReleaseDate: date(2000, 1, 1)}))
}

func TestInSetMatchesAnyGenre(t *testing.T) {
	p := InSet{Column: ColumnGenre, Values: []string{"g1", "g3"}}
	assert.True(t, p.Matches(&Movie{Genres: []Genre{{ID: "g2"}, {ID: "g3"}}}))
	assert.False(t, p.Matches(&Movie{Genres: []Genre{{ID: "g2"}}}))
	assert.False(t, p.Matches(&Movie{}))
}

func TestKeysetAfterBreaksTiesByID(t *testing.T) {
	asc := KeysetAfter{Order: OrderBy{Field: OrderByDuration, Direction: Asc}, Key: 100, ID: "m2"}
	assert.True(t, asc.Matches(&Movie{ID: "m1", Duration: ptr(101)}))
	assert.True(t, asc.Matches(&Movie{ID: "m3", Duration: ptr(100)}))
	assert.False(t, asc.Matches(&Movie{ID: "m2", Duration: ptr(100)}))
	assert.False(t, asc.Matches(&Movie{ID: "m1", Duration: ptr(100)}))
	assert.False(t, asc.Matches(&Movie{ID: "m9"}))

	desc := KeysetAfter{Order: OrderBy{Field: OrderByDuration, Direction: Desc}, Key: 100, ID: "m2"}
	assert.True(t, desc.Matches(&Movie{ID: "m1"}))
	assert.True(t, desc.Matches(&Movie{ID: "m3", Duration: ptr(100)}))
	assert.False(t, desc.Matches(&Movie{ID: "m1", Duration: ptr(101)}))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\x`, escapeLike(`c:\x`))
}
