package auth

import (
	"github.com/google/uuid"

	apperrors "blogapi/internal/errors"
)

// CookieName is the name of the httpOnly cookie carrying the session token.
const CookieName = "token"

// Identity is the verified acting user of a request.
type Identity struct {
	UserID uuid.UUID
}

// IsZero reports whether the identity carries no user.
func (i Identity) IsZero() bool {
	return i.UserID == uuid.Nil
}

// Owned is implemented by resources with an author of record.
type Owned interface {
	OwnerID() uuid.UUID
}

// TokenVerifier verifies a session token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Guard authenticates request carriers and authorizes identities against resources.
type Guard struct {
	tokens TokenVerifier
}

// NewGuard creates a guard backed by the given token verifier.
func NewGuard(tokens TokenVerifier) *Guard {
	return &Guard{tokens: tokens}
}

// Authenticate turns the raw token taken from the carrier into an Identity.
// Missing and invalid tokens both yield ErrUnauthenticated.
func (g *Guard) Authenticate(carrier string) (Identity, error) {
	if carrier == "" {
		return Identity{}, apperrors.ErrUnauthenticated
	}

	subject, err := g.tokens.Verify(carrier)
	if err != nil {
		return Identity{}, apperrors.ErrUnauthenticated
	}

	userID, err := uuid.Parse(subject)
	if err != nil || userID == uuid.Nil {
		return Identity{}, apperrors.ErrUnauthenticated
	}

	return Identity{UserID: userID}, nil
}

// Authorize allows identity to act on resource only if it is the resource's author.
func (g *Guard) Authorize(identity Identity, resource Owned) error {
	if identity.IsZero() {
		return apperrors.ErrUnauthenticated
	}
	if resource == nil || resource.OwnerID() != identity.UserID {
		return apperrors.ErrForbidden
	}
	return nil
}
