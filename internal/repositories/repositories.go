// package repositories provides persistence for linked credentials.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/moodring/internal/models"
	"github.com/desertthunder/moodring/internal/shared"
)

// CredentialStore persists one [models.LinkedCredential] per primary identity.
//
// Get returns soft-deleted records as well; callers decide what a record's state means.
// Missing records are reported as [shared.ErrCredentialNotFound].
type CredentialStore interface {
	Save(ctx context.Context, cred *models.LinkedCredential) error
	Get(ctx context.Context, ownerID string) (*models.LinkedCredential, error)
	Update(ctx context.Context, ownerID string, patch models.CredentialPatch) error
	Invalidate(ctx context.Context, ownerID string, at time.Time) error
}

func validatePatch(patch models.CredentialPatch) error {
	if patch.AccessToken == "" {
		return fmt.Errorf("%w: access token is required", shared.ErrInvalidInput)
	}
	if patch.ExpiresAt.Sub(patch.UpdatedAt) > models.MaxCredentialLifetime {
		return fmt.Errorf("%w: expires %s after write", models.ErrLifetimeExceeded, patch.ExpiresAt.Sub(patch.UpdatedAt))
	}
	return nil
}

func notFound(ownerID string) error {
	return fmt.Errorf("%w: %s", shared.ErrCredentialNotFound, ownerID)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", shared.ErrStoreUnavailable, op, err)
}
