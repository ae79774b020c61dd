// Package auth resolves and checks the identity behind each request.
// Business logic receives an explicit Principal value; nothing in the
// core reads ambient session state.
package auth

import (
	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/google/uuid"
)

// Principal is the identity making a request. The zero value is the
// anonymous principal.
type Principal struct {
	UserID uuid.UUID
	Role   models.Role
}

// Anonymous is the unauthenticated principal.
var Anonymous = Principal{}

// IsAnonymous reports whether the principal carries no identity.
func (p Principal) IsAnonymous() bool {
	return p.UserID == uuid.Nil
}

// RequireRole fails closed: anonymous callers get ErrUnauthenticated,
// authenticated callers with a mismatched role get ErrDenied. Both are
// denials; the distinction only matters to the surface (login redirect
// versus access-denied page).
func RequireRole(p Principal, roles ...models.Role) error {
	if p.IsAnonymous() {
		return e.ErrUnauthenticated
	}
	for _, role := range roles {
		if p.Role == role {
			return nil
		}
	}
	return e.ErrDenied
}

// RequireSameUser denies unless the principal is exactly the given user.
// Never a partial grant: any mismatch is ErrDenied.
func RequireSameUser(p Principal, userID uuid.UUID) error {
	if p.IsAnonymous() {
		return e.ErrUnauthenticated
	}
	if p.UserID != userID {
		return e.ErrDenied
	}
	return nil
}
