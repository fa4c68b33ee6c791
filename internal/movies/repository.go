package movies

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Ponloe/cinemesh-catalog/internal/apperr"
	"github.com/Ponloe/cinemesh-catalog/internal/database"
)

// Repository is the persistence contract of the catalog. FindMatching and
// CountMatching must agree on predicate semantics.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Movie, error)
	FindMatching(ctx context.Context, preds []Predicate, order OrderBy, limit int) ([]*Movie, error)
	CountMatching(ctx context.Context, preds []Predicate) (int64, error)
	Create(ctx context.Context, m *Movie) error
	// Save writes every column of m and replaces its genre set atomically.
	Save(ctx context.Context, m *Movie) error
	// Delete removes m together with its genre links and reminders.
	Delete(ctx context.Context, m *Movie) error
	// ReferencesArtwork reports whether any movie uses key as image or backdrop.
	ReferencesArtwork(ctx context.Context, key string) (bool, error)
}

type GenreRepository interface {
	FindByID(ctx context.Context, id string) (*Genre, error)
	FindByIDs(ctx context.Context, ids []string) ([]Genre, error)
	FindByName(ctx context.Context, name string) (*Genre, error)
	FindOrCreateByName(ctx context.Context, name string) (*Genre, error)
	List(ctx context.Context) ([]Genre, error)
}

type ReminderRepository interface {
	Add(ctx context.Context, r *Reminder) error
	Remove(ctx context.Context, movieID, userID string) (bool, error)
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) loaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.name ASC") }).
		Preload("CreatedBy")
}

func (r *GormRepository) FindByID(ctx context.Context, id string) (*Movie, error) {
	var m Movie
	if err := r.loaded(ctx).First(&m, "movies.id = ?", id).Error; err != nil {
		return nil, database.Translate(err, "find movie", "movie", id)
	}
	return &m, nil
}

func (r *GormRepository) FindMatching(ctx context.Context, preds []Predicate, order OrderBy, limit int) ([]*Movie, error) {
	q, err := r.where(ctx, r.loaded(ctx).Model(&Movie{}), preds)
	if err != nil {
		return nil, err
	}

	key, vars := sortKey(order.Field)
	q = q.Order(clause.OrderBy{Expression: clause.Expr{
		SQL:                fmt.Sprintf("%s %s, movies.id ASC", key, order.Direction),
		Vars:               vars,
		WithoutParentheses: true,
	}})
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []*Movie
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Dependency("list movies", err)
	}
	return out, nil
}

func (r *GormRepository) CountMatching(ctx context.Context, preds []Predicate) (int64, error) {
	q, err := r.where(ctx, r.db.WithContext(ctx).Model(&Movie{}), preds)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, apperr.Dependency("count movies", err)
	}
	return n, nil
}

func (r *GormRepository) Create(ctx context.Context, m *Movie) error {
	err := r.db.WithContext(ctx).Omit("CreatedBy").Create(m).Error
	return database.Translate(err, "create movie", "movie", m.Title)
}

func (r *GormRepository) Save(ctx context.Context, m *Movie) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(m).Select("*").Omit(clause.Associations).Updates(m)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		genres := tx.Model(m).Association("Genres")
		if len(m.Genres) == 0 {
			return genres.Clear()
		}
		return genres.Replace(m.Genres)
	})
	return database.Translate(err, "save movie", "movie", m.ID)
}

func (r *GormRepository) Delete(ctx context.Context, m *Movie) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("movie_id = ?", m.ID).Delete(&MovieGenre{}).Error; err != nil {
			return err
		}
		if err := tx.Where("movie_id = ?", m.ID).Delete(&Reminder{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Movie{}, "id = ?", m.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return database.Translate(err, "delete movie", "movie", m.ID)
}

func (r *GormRepository) ReferencesArtwork(ctx context.Context, key string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Movie{}).
		Where("image_key = ? OR backdrop_key = ?", key, key).
		Count(&n).Error
	if err != nil {
		return false, apperr.Dependency("count artwork references", err)
	}
	return n > 0, nil
}

// where appends the SQL form of every predicate to q.
func (r *GormRepository) where(ctx context.Context, q *gorm.DB, preds []Predicate) (*gorm.DB, error) {
	for _, p := range preds {
		switch p := p.(type) {
		case SearchContains:
			pattern := "%" + escapeLike(strings.ToLower(p.Term)) + "%"
			conds := make([]string, 0, len(p.Columns))
			args := make([]any, 0, len(p.Columns))
			for _, c := range p.Columns {
				conds = append(conds, fmt.Sprintf(`LOWER(movies.%s) LIKE ? ESCAPE '\'`, c))
				args = append(args, pattern)
			}
			q = q.Where("("+strings.Join(conds, " OR ")+")", args...)
		case RangeBound:
			if p.Min != nil {
				q = q.Where(fmt.Sprintf("movies.%s >= ?", p.Column), *p.Min)
			}
			if p.Max != nil {
				q = q.Where(fmt.Sprintf("movies.%s <= ?", p.Column), *p.Max)
			}
		case DateRange:
			if p.From != nil {
				q = q.Where(fmt.Sprintf("movies.%s >= ?", p.Column), *p.From)
			}
			if p.To != nil {
				q = q.Where(fmt.Sprintf("movies.%s <= ?", p.Column), *p.To)
			}
		case InSet:
			sub := r.db.WithContext(ctx).Model(&MovieGenre{}).
				Select("movie_id").
				Where(fmt.Sprintf("%s IN ?", p.Column), p.Values)
			q = q.Where("movies.id IN (?)", sub)
		case KeysetAfter:
			key, vars := sortKey(p.Order.Field)
			op := ">"
			if p.Order.Direction == Desc {
				op = "<"
			}
			sql := fmt.Sprintf("(%s %s ? OR (%s = ? AND movies.id > ?))", key, op, key)
			args := append(append(append([]any{}, vars...), p.Key), vars...)
			args = append(args, p.Key, p.ID)
			q = q.Where(sql, args...)
		default:
			return nil, fmt.Errorf("unsupported predicate %T", p)
		}
	}
	return q, nil
}

// sortKey is the SQL expression movies are ordered by for f, with nulls
// coalesced the same way KeyOf does.
func sortKey(f OrderField) (string, []any) {
	if null := f.nullValue(); null != nil {
		return fmt.Sprintf("COALESCE(%s, ?)", f.column()), []any{null}
	}
	return f.column(), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type GormGenreRepository struct {
	db *gorm.DB
}

func NewGormGenreRepository(db *gorm.DB) *GormGenreRepository {
	return &GormGenreRepository{db: db}
}

func (r *GormGenreRepository) FindByID(ctx context.Context, id string) (*Genre, error) {
	var g Genre
	if err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, database.Translate(err, "find genre", "genre", id)
	}
	return &g, nil
}

func (r *GormGenreRepository) FindByIDs(ctx context.Context, ids []string) ([]Genre, error) {
	var out []Genre
	if len(ids) == 0 {
		return out, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&out).Error; err != nil {
		return nil, apperr.Dependency("find genres", err)
	}
	return out, nil
}

func (r *GormGenreRepository) FindByName(ctx context.Context, name string) (*Genre, error) {
	var g Genre
	if err := r.db.WithContext(ctx).First(&g, "LOWER(name) = ?", strings.ToLower(name)).Error; err != nil {
		return nil, database.Translate(err, "find genre by name", "genre", name)
	}
	return &g, nil
}

func (r *GormGenreRepository) FindOrCreateByName(ctx context.Context, name string) (*Genre, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("genre name is required")
	}
	g, err := r.FindByName(ctx, name)
	if err == nil || !apperr.IsNotFound(err) {
		return g, err
	}

	g = &Genre{Name: name}
	err = r.db.WithContext(ctx).Create(g).Error
	if err != nil {
		err = database.Translate(err, "create genre", "genre", name)
		if apperr.IsConflict(err) {
			// lost a race with a concurrent insert
			return r.FindByName(ctx, name)
		}
		return nil, err
	}
	return g, nil
}

func (r *GormGenreRepository) List(ctx context.Context) ([]Genre, error) {
	var out []Genre
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, apperr.Dependency("list genres", err)
	}
	return out, nil
}

type GormReminderRepository struct {
	db *gorm.DB
}

func NewGormReminderRepository(db *gorm.DB) *GormReminderRepository {
	return &GormReminderRepository{db: db}
}

func (r *GormReminderRepository) Add(ctx context.Context, rem *Reminder) error {
	err := r.db.WithContext(ctx).Create(rem).Error
	return database.Translate(err, "create reminder", "reminder", rem.MovieID)
}

func (r *GormReminderRepository) Remove(ctx context.Context, movieID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("movie_id = ? AND user_id = ?", movieID, userID).Delete(&Reminder{})
	if res.Error != nil {
		return false, apperr.Dependency("delete reminder", res.Error)
	}
	return res.RowsAffected > 0, nil
}
