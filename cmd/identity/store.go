package identity

import "context"

// Store is the identity persistence boundary.
type Store interface {
	// FindByEmail returns ErrNotFound when no identity has that email.
	FindByEmail(ctx context.Context, email string) (Identity, error)
	FindByID(ctx context.Context, id string) (Identity, error)

	// Create inserts an unconfirmed identity. A duplicate email yields a ConflictError.
	Create(ctx context.Context, in CreateInput) (Identity, error)

	// SetRefreshToken replaces the stored refresh-token digest with next, but only if the
	// stored value still equals expectedPrior (nil matches "no token"). It reports whether
	// the swap happened; a missing identity reports false.
	SetRefreshToken(ctx context.Context, id string, next, expectedPrior *string) (bool, error)

	// MarkConfirmed flips confirmed to true. It reports true only for the call that flipped it.
	MarkConfirmed(ctx context.Context, id string) (bool, error)

	UpdatePasswordHash(ctx context.Context, id, hash string) error
}
