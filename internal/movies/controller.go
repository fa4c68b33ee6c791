package movies

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ponloe/cinemesh-catalog/internal/apperr"
	"github.com/Ponloe/cinemesh-catalog/internal/auth"
	"github.com/Ponloe/cinemesh-catalog/internal/users"
)

const dateLayout = "2006-01-02"

// MovieResponse is the public shape of a movie: the owner is reduced to its
// public view.
type MovieResponse struct {
	*Movie
	CreatedBy *users.Public `json:"createdBy"`
}

func ToResponse(m *Movie) MovieResponse {
	r := MovieResponse{Movie: m}
	if m.CreatedBy != nil {
		p := m.CreatedBy.Public()
		r.CreatedBy = &p
	} else {
		r.CreatedBy = &users.Public{ID: m.CreatedByID}
	}
	return r
}

type edgeResponse struct {
	Node   MovieResponse `json:"node"`
	Cursor string        `json:"cursor"`
}

type connectionResponse struct {
	Edges      []edgeResponse `json:"edges"`
	PageInfo   PageInfo       `json:"pageInfo"`
	TotalCount int64          `json:"totalCount"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func actor(c *gin.Context) Actor {
	id, _ := auth.UserID(c)
	return Actor{ID: id}
}

func (h *Handler) ListMovies(c *gin.Context) {
	filter, page, err := parseListQuery(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	conn, err := h.svc.ListMovies(c.Request.Context(), filter, page)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	resp := connectionResponse{
		Edges:      make([]edgeResponse, 0, len(conn.Edges)),
		PageInfo:   conn.PageInfo,
		TotalCount: conn.TotalCount,
	}
	for _, e := range conn.Edges {
		resp.Edges = append(resp.Edges, edgeResponse{Node: ToResponse(e.Node), Cursor: e.Cursor})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetMovie(c *gin.Context) {
	m, err := h.svc.GetMovie(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, ToResponse(m))
}

func (h *Handler) CreateMovie(c *gin.Context) {
	var in CreateMovieInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.svc.CreateMovie(c.Request.Context(), in, actor(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, ToResponse(m))
}

func (h *Handler) UpdateMovie(c *gin.Context) {
	var in UpdateMovieInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.ID = c.Param("id")
	m, err := h.svc.UpdateMovie(c.Request.Context(), in, actor(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, ToResponse(m))
}

func (h *Handler) DeleteMovie(c *gin.Context) {
	ok, err := h.svc.DeleteMovie(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": ok})
}

func (h *Handler) CreateUpload(c *gin.Context) {
	var in UploadInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.svc.PresignUpload(c.Request.Context(), in, actor(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) AddReminder(c *gin.Context) {
	if err := h.svc.AddReminder(c.Request.Context(), c.Param("id"), actor(c)); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RemoveReminder(c *gin.Context) {
	removed, err := h.svc.RemoveReminder(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *Handler) ListGenres(c *gin.Context) {
	genres, err := h.svc.ListGenres(c.Request.Context())
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, genres)
}

func (h *Handler) GetGenre(c *gin.Context) {
	g, err := h.svc.GetGenre(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func parseListQuery(c *gin.Context) (*Filter, *Pagination, error) {
	f := &Filter{}
	if v, ok := c.GetQuery("search"); ok {
		f.Search = &v
	}

	var err error
	if f.MinDuration, err = queryInt(c, "minDuration"); err != nil {
		return nil, nil, err
	}
	if f.MaxDuration, err = queryInt(c, "maxDuration"); err != nil {
		return nil, nil, err
	}
	if f.ReleaseDateFrom, err = queryDate(c, "releaseDateFrom"); err != nil {
		return nil, nil, err
	}
	if f.ReleaseDateTo, err = queryDate(c, "releaseDateTo"); err != nil {
		return nil, nil, err
	}
	for _, raw := range c.QueryArray("genreIds") {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				f.GenreIDs = append(f.GenreIDs, id)
			}
		}
	}

	p := &Pagination{}
	if p.First, err = queryInt(c, "first"); err != nil {
		return nil, nil, err
	}
	if v, ok := c.GetQuery("after"); ok {
		p.After = &v
	}
	field, hasField := c.GetQuery("orderBy")
	dir, hasDir := c.GetQuery("direction")
	if hasField || hasDir {
		o := DefaultOrder
		if hasField {
			if o.Field, err = ParseOrderField(field); err != nil {
				return nil, nil, err
			}
		}
		if hasDir {
			if o.Direction, err = ParseDirection(dir); err != nil {
				return nil, nil, err
			}
		}
		p.OrderBy = &o
	}
	return f, p, nil
}

func queryInt(c *gin.Context, name string) (*int, error) {
	v, ok := c.GetQuery(name)
	if !ok || v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, apperr.Validation("%s must be an integer", name)
	}
	return &n, nil
}

func queryDate(c *gin.Context, name string) (*time.Time, error) {
	v, ok := c.GetQuery(name)
	if !ok || v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, apperr.Validation("%s must be a date (YYYY-MM-DD)", name)
	}
	return &t, nil
}
