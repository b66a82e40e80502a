package models

import (
	"errors"
	"fmt"
	"time"
)

// MaxCredentialLifetime caps how long a stored access token is honored.
const MaxCredentialLifetime = time.Hour

var (
	ErrMissingOwner     = errors.New("credential owner id is required")
	ErrLifetimeExceeded = errors.New("credential lifetime exceeds ceiling")
)

// CredentialState is the lifecycle stage of a [LinkedCredential].
type CredentialState int

const (
	CredentialActive CredentialState = iota
	CredentialExpired
	CredentialUnlinked
)

func (s CredentialState) String() string {
	switch s {
	case CredentialActive:
		return "active"
	case CredentialExpired:
		return "expired"
	case CredentialUnlinked:
		return "unlinked"
	default:
		return fmt.Sprintf("CredentialState(%d)", int(s))
	}
}

// LinkedCredential is the secondary account session stored under the primary identity id.
type LinkedCredential struct {
	OwnerID         string     `json:"owner_id"`
	SecondaryUserID string     `json:"spotify_user_id"`
	Email           string     `json:"email,omitempty"`
	AccessToken     string     `json:"access_token,omitempty"`
	RefreshToken    string     `json:"refresh_token,omitempty"`
	Scope           string     `json:"scope,omitempty"`
	ExpiresAt       time.Time  `json:"expires_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// NewLinkedCredential builds a credential written at now, clamping expiresIn to [MaxCredentialLifetime].
func NewLinkedCredential(ownerID, secondaryUserID, accessToken, refreshToken string, expiresIn int, now time.Time) *LinkedCredential {
	return &LinkedCredential{
		OwnerID:         ownerID,
		SecondaryUserID: secondaryUserID,
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		ExpiresAt:       CredentialExpiry(now, expiresIn),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// CredentialExpiry returns now + min(expiresIn seconds, [MaxCredentialLifetime]).
//
// Non-positive lifetimes expire immediately.
func CredentialExpiry(now time.Time, expiresIn int) time.Time {
	if expiresIn <= 0 {
		return now
	}
	if expiresIn >= int(MaxCredentialLifetime/time.Second) {
		return now.Add(MaxCredentialLifetime)
	}
	return now.Add(time.Duration(expiresIn) * time.Second)
}

// State derives the lifecycle stage at now.
func (c *LinkedCredential) State(now time.Time) CredentialState {
	if c.DeletedAt != nil || c.AccessToken == "" {
		return CredentialUnlinked
	}
	if !now.Before(c.ExpiresAt) {
		return CredentialExpired
	}
	return CredentialActive
}

// Valid reports whether the credential can gate a protected page at now.
func (c *LinkedCredential) Valid(now time.Time) bool {
	return c != nil && c.State(now) == CredentialActive
}

// Validate checks the owner key and the lifetime ceiling relative to the last write.
func (c *LinkedCredential) Validate() error {
	if c.OwnerID == "" {
		return ErrMissingOwner
	}
	if c.DeletedAt != nil {
		return nil
	}
	if c.ExpiresAt.Sub(c.UpdatedAt) > MaxCredentialLifetime {
		return fmt.Errorf("%w: expires %s after write", ErrLifetimeExceeded, c.ExpiresAt.Sub(c.UpdatedAt))
	}
	return nil
}

// CredentialPatch carries the fields a token refresh may change.
type CredentialPatch struct {
	AccessToken string
	ExpiresAt   time.Time
	UpdatedAt   time.Time
}
