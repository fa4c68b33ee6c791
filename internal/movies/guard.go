package movies

import "github.com/Ponloe/cinemesh-catalog/internal/apperr"

// Actor is the authenticated user a mutation is performed for.
type Actor struct {
	ID string
}

// AuthorizeMutation allows a change to m only for the user that created it.
// It has no side effects and must run before any write.
func AuthorizeMutation(m *Movie, actor Actor) error {
	if m == nil || actor.ID == "" || m.CreatedByID != actor.ID {
		return apperr.Forbidden("not authorized")
	}
	return nil
}
