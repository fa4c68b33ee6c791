package movies

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Ponloe/cinemesh-catalog/internal/apperr"
	"github.com/Ponloe/cinemesh-catalog/internal/storage"
)

var errNoStore = errors.New("no object store configured")

type Service struct {
	movies    Repository
	genres    GenreRepository
	reminders ReminderRepository
	store     storage.ObjectStore
	cursors   CursorCodec
	log       *logrus.Logger
}

type Deps struct {
	Movies    Repository
	Genres    GenreRepository
	Reminders ReminderRepository
	Store     storage.ObjectStore
	Cursors   CursorCodec
	Log       *logrus.Logger
}

func NewService(d Deps) *Service {
	if d.Cursors == nil {
		d.Cursors = IDCursorCodec{}
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	return &Service{
		movies:    d.Movies,
		genres:    d.Genres,
		reminders: d.Reminders,
		store:     d.Store,
		cursors:   d.Cursors,
		log:       d.Log,
	}
}

func (s *Service) GetMovie(ctx context.Context, id string) (*Movie, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("id is required")
	}
	return s.movies.FindByID(ctx, id)
}

func (s *Service) CreateMovie(ctx context.Context, in CreateMovieInput, actor Actor) (*Movie, error) {
	if actor.ID == "" {
		return nil, apperr.Forbidden("not authenticated")
	}
	in.normalize()
	if err := apperr.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := checkArtwork(actor, nil, in.Image, in.Backdrop); err != nil {
		return nil, err
	}
	genres, err := s.resolveGenres(ctx, in.GenreIDs)
	if err != nil {
		return nil, err
	}

	m := in.build(actor.ID, genres)
	if err := s.movies.Create(ctx, m); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"movie_id": m.ID, "user_id": actor.ID}).Info("movie created")
	return s.movies.FindByID(ctx, m.ID)
}

// UpdateMovie applies a patch to a movie owned by actor. Nothing is written
// unless the ownership check and all validation pass.
func (s *Service) UpdateMovie(ctx context.Context, in UpdateMovieInput, actor Actor) (*Movie, error) {
	in.normalize()
	if err := apperr.ValidateStruct(in); err != nil {
		return nil, err
	}
	m, err := s.movies.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeMutation(m, actor); err != nil {
		return nil, err
	}
	if err := checkArtwork(actor, m, in.Image, in.Backdrop); err != nil {
		return nil, err
	}

	if in.GenreIDs != nil {
		genres, err := s.resolveGenres(ctx, in.GenreIDs)
		if err != nil {
			return nil, err
		}
		m.Genres = genres
	}

	oldImage, oldBackdrop := m.Image.Key, m.Backdrop.Key
	in.apply(m)
	if err := s.movies.Save(ctx, m); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"movie_id": m.ID, "user_id": actor.ID}).Info("movie updated")

	s.discardReplaced(ctx, oldImage, m.Image.Key)
	s.discardReplaced(ctx, oldBackdrop, m.Backdrop.Key)
	return s.movies.FindByID(ctx, m.ID)
}

// DeleteMovie removes a movie owned by actor, then its stored artwork. A
// failure to remove artwork is logged and does not fail the call.
func (s *Service) DeleteMovie(ctx context.Context, id string, actor Actor) (bool, error) {
	m, err := s.GetMovie(ctx, id)
	if err != nil {
		return false, err
	}
	if err := AuthorizeMutation(m, actor); err != nil {
		return false, err
	}
	if err := s.movies.Delete(ctx, m); err != nil {
		return false, err
	}
	s.log.WithFields(logrus.Fields{"movie_id": m.ID, "user_id": actor.ID}).Info("movie deleted")

	for _, key := range []*string{m.Image.Key, m.Backdrop.Key} {
		s.deleteObject(ctx, m.ID, key)
	}
	return true, nil
}

func (s *Service) resolveGenres(ctx context.Context, ids []string) ([]Genre, error) {
	uniq := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	if len(uniq) == 0 {
		return []Genre{}, nil
	}

	found, err := s.genres.FindByIDs(ctx, uniq)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(found))
	for _, g := range found {
		have[g.ID] = true
	}
	for _, id := range uniq {
		if !have[id] {
			return nil, apperr.NotFound("genre", id)
		}
	}
	return found, nil
}

func (s *Service) discardReplaced(ctx context.Context, old, current *string) {
	if old == nil || (current != nil && *current == *old) {
		return
	}
	s.deleteObject(ctx, "", old)
}

// deleteObject removes key from the store unless some movie still shows it.
func (s *Service) deleteObject(ctx context.Context, movieID string, key *string) {
	if key == nil || *key == "" || s.store == nil {
		return
	}
	inUse, err := s.movies.ReferencesArtwork(ctx, *key)
	if err != nil {
		s.log.WithFields(logrus.Fields{"movie_id": movieID, "key": *key, "error": err}).
			Warn("could not check artwork references, keeping object")
		return
	}
	if inUse {
		s.log.WithFields(logrus.Fields{"movie_id": movieID, "key": *key}).Debug("artwork still referenced, keeping object")
		return
	}
	if err := s.store.Delete(ctx, *key); err != nil {
		s.log.WithFields(logrus.Fields{"movie_id": movieID, "key": *key, "error": err}).
			Warn("failed to delete stored object")
	}
}

func (s *Service) ListGenres(ctx context.Context) ([]Genre, error) {
	return s.genres.List(ctx)
}

func (s *Service) GetGenre(ctx context.Context, id string) (*Genre, error) {
	return s.genres.FindByID(ctx, id)
}

type ImageKind string

const (
	KindImage    ImageKind = "IMAGE"
	KindBackdrop ImageKind = "BACKDROP"
)

type UploadInput struct {
	Kind        ImageKind `json:"kind" validate:"required,oneof=IMAGE BACKDROP"`
	Filename    string    `json:"filename" validate:"required,max=255"`
	ContentType string    `json:"contentType" validate:"required,startswith=image/"`
}

// PresignUpload reserves a fresh object key for artwork and returns the URL
// the client uploads it to. The key is attached to a movie by a later
// create or update.
func (s *Service) PresignUpload(ctx context.Context, in UploadInput, actor Actor) (*storage.Presigned, error) {
	if actor.ID == "" {
		return nil, apperr.Forbidden("not authenticated")
	}
	in.Kind = ImageKind(strings.ToUpper(string(in.Kind)))
	in.ContentType = strings.ToLower(strings.TrimSpace(in.ContentType))
	if err := apperr.ValidateStruct(in); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, apperr.Dependency("presign upload", errNoStore)
	}

	key := storage.NewObjectKey(artworkPrefix(in.Kind, actor.ID), in.Filename)
	p, err := s.store.PresignUpload(ctx, key, in.ContentType)
	if err != nil {
		return nil, apperr.Dependency("presign upload", err)
	}
	return p, nil
}

// artworkPrefix is the key namespace uploads of kind by ownerID live under.
func artworkPrefix(kind ImageKind, ownerID string) string {
	return "movies/" + strings.ToLower(string(kind)) + "/" + ownerID
}

// checkArtwork rejects object keys the actor did not upload. A key the movie
// already carries in the same slot is accepted unchanged.
func checkArtwork(actor Actor, current *Movie, image, backdrop *ImageInput) error {
	var curImage, curBackdrop *string
	if current != nil {
		curImage, curBackdrop = current.Image.Key, current.Backdrop.Key
	}
	if err := checkArtworkKey(actor, KindImage, image, curImage); err != nil {
		return err
	}
	return checkArtworkKey(actor, KindBackdrop, backdrop, curBackdrop)
}

func checkArtworkKey(actor Actor, kind ImageKind, in *ImageInput, current *string) error {
	if in == nil || in.Key == nil || *in.Key == "" {
		return nil
	}
	if current != nil && *current == *in.Key {
		return nil
	}
	field := strings.ToLower(string(kind)) + ".key"
	key, err := storage.CleanKey(*in.Key)
	if err != nil || key != *in.Key {
		return apperr.Validation("%s is not a valid object key", field)
	}
	if !strings.HasPrefix(key, artworkPrefix(kind, actor.ID)+"/") {
		return apperr.Validation("%s must reference one of your own uploads", field)
	}
	return nil
}

// AddReminder records that actor wants to hear about the movie's release.
// Asking twice is not an error.
func (s *Service) AddReminder(ctx context.Context, movieID string, actor Actor) error {
	if actor.ID == "" {
		return apperr.Forbidden("not authenticated")
	}
	if _, err := s.GetMovie(ctx, movieID); err != nil {
		return err
	}
	err := s.reminders.Add(ctx, &Reminder{MovieID: movieID, UserID: actor.ID})
	if apperr.IsConflict(err) {
		return nil
	}
	return err
}

func (s *Service) RemoveReminder(ctx context.Context, movieID string, actor Actor) (bool, error) {
	if actor.ID == "" {
		return false, apperr.Forbidden("not authenticated")
	}
	return s.reminders.Remove(ctx, movieID, actor.ID)
}
