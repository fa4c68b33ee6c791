package movies

import (
	"context"

	"github.com/Ponloe/cinemesh-catalog/internal/apperr"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type Pagination struct {
	First   *int     `json:"first"`
	After   *string  `json:"after"`
	OrderBy *OrderBy `json:"orderBy"`
}

type PageInfo struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *string `json:"startCursor"`
	EndCursor       *string `json:"endCursor"`
}

type MovieEdge struct {
	Node   *Movie `json:"node"`
	Cursor string `json:"cursor"`
}

type MovieConnection struct {
	Edges      []MovieEdge `json:"edges"`
	PageInfo   PageInfo    `json:"pageInfo"`
	TotalCount int64       `json:"totalCount"`
}

// ListMovies returns one page of the movies matching filter, in the order
// requested by page. TotalCount covers every match regardless of paging.
func (s *Service) ListMovies(ctx context.Context, filter *Filter, page *Pagination) (*MovieConnection, error) {
	if page == nil {
		page = &Pagination{}
	}
	first := DefaultPageSize
	if page.First != nil {
		first = *page.First
	}
	if first < 1 {
		return nil, apperr.Validation("first must be at least 1")
	}
	if first > MaxPageSize {
		first = MaxPageSize
	}
	order := DefaultOrder
	if page.OrderBy != nil {
		var err error
		if order, err = page.OrderBy.Validate(); err != nil {
			return nil, err
		}
	}
	if filter != nil {
		if err := apperr.ValidateStruct(filter); err != nil {
			return nil, err
		}
	}

	preds := filter.Compile()
	total, err := s.movies.CountMatching(ctx, preds)
	if err != nil {
		return nil, err
	}

	if page.After != nil {
		bound, err := s.resumeAfter(ctx, *page.After, order)
		if err != nil {
			return nil, err
		}
		if bound != nil {
			preds = append(preds[:len(preds):len(preds)], *bound)
		}
	}

	rows, err := s.movies.FindMatching(ctx, preds, order, first+1)
	if err != nil {
		return nil, err
	}
	hasNext := len(rows) > first
	if hasNext {
		rows = rows[:first]
	}

	conn := &MovieConnection{
		Edges:      make([]MovieEdge, 0, len(rows)),
		TotalCount: total,
		PageInfo: PageInfo{
			HasNextPage:     hasNext,
			HasPreviousPage: page.After != nil,
		},
	}
	for _, m := range rows {
		conn.Edges = append(conn.Edges, MovieEdge{Node: m, Cursor: s.cursors.Encode(m, order)})
	}
	if n := len(conn.Edges); n > 0 {
		start, end := conn.Edges[0].Cursor, conn.Edges[n-1].Cursor
		conn.PageInfo.StartCursor = &start
		conn.PageInfo.EndCursor = &end
	}
	return conn, nil
}

// resumeAfter turns a cursor into the bound that skips everything up to and
// including the cursor's record. A cursor whose record no longer exists
// yields no bound.
func (s *Service) resumeAfter(ctx context.Context, token string, order OrderBy) (*KeysetAfter, error) {
	c, err := s.cursors.Decode(token)
	if err != nil {
		return nil, err
	}
	if c.Field == order.Field && c.Key != nil {
		return &KeysetAfter{Order: order, Key: c.Key, ID: c.ID}, nil
	}

	m, err := s.movies.FindByID(ctx, c.ID)
	if apperr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &KeysetAfter{Order: order, Key: order.Field.KeyOf(m), ID: m.ID}, nil
}
