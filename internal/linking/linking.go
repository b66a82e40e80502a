// Package linking joins a primary identity and a linked Spotify account into one session.
//
// The [Controller] owns the whole lifecycle: primary sign-in through an [identity.Transport], the redirect to the
// secondary login, storing the resulting credential with a one-hour ceiling, refreshing it, and tearing both
// sessions down. Provider and store failures never leave a caller stuck; sign-in failures come back as a
// [SignInResult] and sign-out always completes.
package linking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/moodring/internal/identity"
	"github.com/desertthunder/moodring/internal/models"
	"github.com/desertthunder/moodring/internal/repositories"
	"github.com/desertthunder/moodring/internal/services"
	"github.com/desertthunder/moodring/internal/shared"
)

// SecondaryAuth addresses the secondary provider's login and logout endpoints.
type SecondaryAuth interface {
	LoginURL(primaryUserID string) string
	Logout(ctx context.Context) error
}

// TokenRefresher exchanges a refresh token for a new access token.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// SignInResult is the outcome of [Controller.SignInPrimary].
type SignInResult struct {
	Success bool             `json:"success"`
	User    *models.Identity `json:"user,omitempty"`
	Token   string           `json:"token,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// Grant is what the secondary OAuth callback hands over for storage.
type Grant struct {
	SecondaryUserID string
	Email           string
	AccessToken     string
	RefreshToken    string
	Scope           string
	ExpiresIn       int
}

// DefaultLogoutTimeout bounds the secondary logout during [Controller.SignOut].
const DefaultLogoutTimeout = 2 * time.Second

type Controller struct {
	store         repositories.CredentialStore
	auth          SecondaryAuth
	refresher     TokenRefresher
	logger        *log.Logger
	now           func() time.Time
	logoutTimeout time.Duration
}

type Option func(*Controller)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogoutTimeout replaces [DefaultLogoutTimeout].
func WithLogoutTimeout(d time.Duration) Option {
	return func(c *Controller) { c.logoutTimeout = d }
}

// WithRefresher enables [Controller.RefreshFromProvider].
func WithRefresher(r TokenRefresher) Option {
	return func(c *Controller) { c.refresher = r }
}

func NewController(store repositories.CredentialStore, auth SecondaryAuth, logger *log.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	c := &Controller{
		store:  store,
		auth:   auth,
		logger: logger.With("component", "linking"),
		now:    time.Now,

		logoutTimeout: DefaultLogoutTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SignInPrimary completes transport's sign-in on r and records the user on client.
//
// Every failure, a panic from the transport included, is reported through the result.
func (c *Controller) SignInPrimary(ctx context.Context, client *identity.Client, transport identity.Transport, r *http.Request) (result SignInResult) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("sign-in panicked", "transport", transport.Name(), "panic", rec)
			result = SignInResult{Error: fmt.Sprintf("%v: unexpected provider failure", shared.ErrSignInFailed)}
		}
	}()

	assertion, err := transport.Complete(ctx, r)
	if err != nil {
		c.logger.Warn("sign-in failed", "transport", transport.Name(), "err", err)
		return SignInResult{Error: err.Error()}
	}

	client.SetUser(assertion.User, assertion.Token)
	c.logger.Info("signed in", "uid", assertion.User.ID, "transport", transport.Name())

	user := assertion.User
	return SignInResult{Success: true, User: &user, Token: assertion.Token}
}

// LinkURL is the secondary login URL for primaryUserID.
func (c *Controller) LinkURL(primaryUserID string) string {
	return c.auth.LoginURL(primaryUserID)
}

// BeginSecondaryLink redirects the browser to the secondary login with primaryUserID as correlation id.
//
// Without a primary user nothing is written and [shared.ErrPrimaryRequired] is returned.
func (c *Controller) BeginSecondaryLink(w http.ResponseWriter, r *http.Request, primaryUserID string) error {
	if primaryUserID == "" {
		return shared.ErrPrimaryRequired
	}
	http.Redirect(w, r, c.LinkURL(primaryUserID), http.StatusFound)
	return nil
}

// GetLinkedCredential returns the active credential for primaryUserID.
//
// Absent, expired and unlinked records all yield nil without error; only store failures are errors.
func (c *Controller) GetLinkedCredential(ctx context.Context, primaryUserID string) (*models.LinkedCredential, error) {
	if primaryUserID == "" {
		return nil, nil
	}

	cred, err := c.store.Get(ctx, primaryUserID)
	if errors.Is(err, shared.ErrCredentialNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !cred.Valid(c.now()) {
		return nil, nil
	}
	return cred, nil
}

// CredentialState reports the stored lifecycle stage, treating a missing record as unlinked.
func (c *Controller) CredentialState(ctx context.Context, primaryUserID string) (models.CredentialState, *models.LinkedCredential, error) {
	cred, err := c.store.Get(ctx, primaryUserID)
	if errors.Is(err, shared.ErrCredentialNotFound) {
		return models.CredentialUnlinked, nil, nil
	}
	if err != nil {
		return models.CredentialUnlinked, nil, err
	}
	return cred.State(c.now()), cred, nil
}

// RefreshAccessToken stores a new access token expiring min(expiresIn, one hour) from now.
//
// The refresh token and creation time are left alone.
func (c *Controller) RefreshAccessToken(ctx context.Context, primaryUserID, newAccessToken string, expiresIn int) error {
	now := c.now()
	patch := models.CredentialPatch{
		AccessToken: newAccessToken,
		ExpiresAt:   models.CredentialExpiry(now, expiresIn),
		UpdatedAt:   now,
	}
	if err := c.store.Update(ctx, primaryUserID, patch); err != nil {
		return fmt.Errorf("failed to refresh access token: %w", err)
	}
	return nil
}

// Unlink soft-deletes the credential; the record remains with both tokens cleared.
func (c *Controller) Unlink(ctx context.Context, primaryUserID string) error {
	if err := c.store.Invalidate(ctx, primaryUserID, c.now()); err != nil {
		return fmt.Errorf("failed to unlink: %w", err)
	}
	c.logger.Info("unlinked spotify", "uid", primaryUserID)
	return nil
}

// SignOut tears down the combined session: unlink, secondary logout, then primary sign-out.
//
// Each step is best effort and logged on failure; the secondary logout gets at most the logout timeout, so an
// unresponsive auth service cannot hold up the primary sign-out. With nobody signed in it does nothing.
func (c *Controller) SignOut(ctx context.Context, client *identity.Client) {
	user := client.CurrentUser()
	if user == nil {
		return
	}

	if err := c.Unlink(ctx, user.ID); err != nil && !errors.Is(err, shared.ErrCredentialNotFound) {
		c.logger.Warn("unlink during sign-out failed", "uid", user.ID, "err", err)
	}

	logoutCtx, cancel := context.WithTimeout(ctx, c.logoutTimeout)
	err := c.auth.Logout(logoutCtx)
	cancel()
	if err != nil {
		c.logger.Warn("secondary logout failed", "uid", user.ID, "err", err)
	}
	if err := client.SignOut(ctx); err != nil {
		c.logger.Warn("primary sign-out failed", "uid", user.ID, "err", err)
	}
	c.logger.Info("signed out", "uid", user.ID)
}

// CompleteLink stores the credential produced by a finished secondary OAuth flow.
func (c *Controller) CompleteLink(ctx context.Context, ownerID string, grant Grant) (*models.LinkedCredential, error) {
	if ownerID == "" {
		return nil, shared.ErrPrimaryRequired
	}
	if grant.AccessToken == "" {
		return nil, fmt.Errorf("%w: grant has no access token", shared.ErrInvalidInput)
	}

	cred := models.NewLinkedCredential(ownerID, grant.SecondaryUserID, grant.AccessToken, grant.RefreshToken, grant.ExpiresIn, c.now())
	cred.Email = grant.Email
	cred.Scope = grant.Scope

	if err := c.store.Save(ctx, cred); err != nil {
		return nil, fmt.Errorf("failed to store linked credential: %w", err)
	}

	c.logger.Info("linked spotify", "uid", ownerID, "spotify_user", grant.SecondaryUserID, "expires_at", cred.ExpiresAt)
	return cred, nil
}

// RefreshFromProvider uses the stored refresh token to obtain and store a new access token.
func (c *Controller) RefreshFromProvider(ctx context.Context, ownerID string) error {
	if c.refresher == nil {
		return fmt.Errorf("%w: no token refresher configured", shared.ErrMissingCredentials)
	}

	cred, err := c.store.Get(ctx, ownerID)
	if err != nil {
		return err
	}
	if cred.State(c.now()) == models.CredentialUnlinked {
		return fmt.Errorf("%w: %s", shared.ErrCredentialNotFound, ownerID)
	}
	if cred.RefreshToken == "" {
		return shared.ErrNoRefreshToken
	}

	token, err := c.refresher.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return err
	}

	return c.RefreshAccessToken(ctx, ownerID, token.AccessToken, services.TokenLifetime(token, c.now()))
}
