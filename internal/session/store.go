package session

import (
	"context"
	"errors"

	"github.com/dkurbatov/learning_platform/internal/models"
)

var (
	// ErrNotFound is returned when no record matches the token hash.
	ErrNotFound = errors.New("refresh token not found")
	// ErrRevoked is returned when the matching record was already spent
	// or has passed its expiry.
	ErrRevoked = errors.New("refresh token revoked")
)

// Store is the refresh-token registry. A refresh token is valid only if
// its signature verifies AND a live record exists here, so revocation
// is a store operation, not a cryptographic one.
type Store interface {
	Save(ctx context.Context, rec *models.RefreshToken) error
	Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	// Rotate atomically spends the old record and saves its
	// replacement. Fails with ErrNotFound/ErrRevoked when the old
	// record cannot be spent, in which case nothing is written.
	Rotate(ctx context.Context, oldHash string, next *models.RefreshToken) error
	Revoke(ctx context.Context, tokenHash string) error
	Delete(ctx context.Context, tokenHash string) error
	// DeleteExpired removes records past their expiry, revoked or not,
	// and reports how many were dropped. Expired records are already
	// unusable; this only keeps the table from growing without bound.
	DeleteExpired(ctx context.Context) (int64, error)
}
