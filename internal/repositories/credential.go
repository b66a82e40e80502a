package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/moodring/internal/models"
)

// CredentialRepository implements [CredentialStore] on the linked_credentials table.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Save inserts or replaces the owner's record, clearing any deletion marker.
func (r *CredentialRepository) Save(ctx context.Context, cred *models.LinkedCredential) error {
	if err := cred.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO linked_credentials (
			owner_id, secondary_user_id, email, access_token, refresh_token, scope,
			expires_at, created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			secondary_user_id = excluded.secondary_user_id,
			email = excluded.email,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			scope = excluded.scope,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at
	`

	var deletedAt sql.NullTime
	if cred.DeletedAt != nil {
		deletedAt = sql.NullTime{Time: cred.DeletedAt.UTC(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		cred.OwnerID, cred.SecondaryUserID, cred.Email,
		nullString(cred.AccessToken), nullString(cred.RefreshToken), cred.Scope,
		cred.ExpiresAt.UTC(), cred.CreatedAt.UTC(), cred.UpdatedAt.UTC(), deletedAt,
	)
	if err != nil {
		return unavailable("save credential", err)
	}
	return nil
}

// Get retrieves the owner's record, including soft-deleted records.
func (r *CredentialRepository) Get(ctx context.Context, ownerID string) (*models.LinkedCredential, error) {
	query := `
		SELECT owner_id, secondary_user_id, email, access_token, refresh_token, scope,
			expires_at, created_at, updated_at, deleted_at
		FROM linked_credentials
		WHERE owner_id = ?
	`

	var (
		cred         models.LinkedCredential
		accessToken  sql.NullString
		refreshToken sql.NullString
		deletedAt    sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(
		&cred.OwnerID, &cred.SecondaryUserID, &cred.Email, &accessToken, &refreshToken, &cred.Scope,
		&cred.ExpiresAt, &cred.CreatedAt, &cred.UpdatedAt, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, notFound(ownerID)
	}
	if err != nil {
		return nil, unavailable("query credential", err)
	}

	cred.AccessToken = accessToken.String
	cred.RefreshToken = refreshToken.String
	if deletedAt.Valid {
		cred.DeletedAt = &deletedAt.Time
	}

	return &cred, nil
}

// Update replaces the access token and expiry of a live record.
func (r *CredentialRepository) Update(ctx context.Context, ownerID string, patch models.CredentialPatch) error {
	if err := validatePatch(patch); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE linked_credentials
		SET access_token = ?, expires_at = ?, updated_at = ?
		WHERE owner_id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, patch.AccessToken, patch.ExpiresAt.UTC(), patch.UpdatedAt.UTC(), ownerID)
	if err != nil {
		return unavailable("update credential", err)
	}

	return requireRow(result, ownerID)
}

// Invalidate nulls both tokens and stamps deleted_at. The row stays in place.
func (r *CredentialRepository) Invalidate(ctx context.Context, ownerID string, at time.Time) error {
	query := `
		UPDATE linked_credentials
		SET access_token = NULL, refresh_token = NULL, deleted_at = ?, updated_at = ?
		WHERE owner_id = ?
	`

	result, err := r.db.ExecContext(ctx, query, at.UTC(), at.UTC(), ownerID)
	if err != nil {
		return unavailable("invalidate credential", err)
	}

	return requireRow(result, ownerID)
}

func requireRow(result sql.Result, ownerID string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notFound(ownerID)
	}
	return nil
}

// nullString stores empty tokens as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
