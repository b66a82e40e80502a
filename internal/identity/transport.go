package identity

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/desertthunder/moodring/internal/models"
	"github.com/desertthunder/moodring/internal/shared"
)

const (
	TransportPopup    = "popup"
	TransportRedirect = "redirect"

	signInStateCookie = "moodring_signin_state"
	csrfCookie        = "g_csrf_token"
	signInStateTTL    = 10 * time.Minute
)

// Assertion is a verified sign-in result.
type Assertion struct {
	User  models.Identity
	Token string
}

// Transport carries a federated sign-in from the browser to a verified [Assertion].
type Transport interface {
	Name() string
	// Begin starts the flow, either by describing the popup config or by redirecting to the provider.
	Begin(w http.ResponseWriter, r *http.Request) error
	// Complete validates the provider's response on r.
	Complete(ctx context.Context, r *http.Request) (*Assertion, error)
}

// Provider holds the identity provider configuration and builds transports.
type Provider struct {
	cfg      shared.IdentityConfig
	verifier TokenVerifier
	endpoint oauth2.Endpoint
	secure   bool
}

// NewProvider runs OIDC discovery against the configured issuer.
func NewProvider(ctx context.Context, cfg shared.IdentityConfig, secureCookies bool) (*Provider, error) {
	if cfg.Issuer == "" || cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: identity issuer and client_id", shared.ErrMissingConfig)
	}

	oidcProvider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init oidc provider: %w", err)
	}

	verifier := NewOIDCVerifier(oidcProvider.Verifier(&oidc.Config{ClientID: cfg.ClientID}))
	return NewProviderWith(cfg, verifier, oidcProvider.Endpoint(), secureCookies), nil
}

// NewProviderWith builds a provider from an existing verifier and endpoint.
func NewProviderWith(cfg shared.IdentityConfig, verifier TokenVerifier, endpoint oauth2.Endpoint, secureCookies bool) *Provider {
	return &Provider{cfg: cfg, verifier: verifier, endpoint: endpoint, secure: secureCookies}
}

// Transport returns the configured default transport.
func (p *Provider) Transport() Transport {
	if p.cfg.Transport == TransportPopup {
		return p.Popup()
	}
	return p.Redirect()
}

func (p *Provider) Popup() *PopupTransport {
	return &PopupTransport{cfg: p.cfg, verifier: p.verifier}
}

func (p *Provider) Redirect() *RedirectTransport {
	return &RedirectTransport{
		oauth: &oauth2.Config{
			ClientID:     p.cfg.ClientID,
			ClientSecret: p.cfg.ClientSecret,
			RedirectURL:  p.cfg.RedirectURI,
			Endpoint:     p.endpoint,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: p.verifier,
		secure:   p.secure,
	}
}

// PopupTransport accepts an ID token posted back by the provider's popup.
type PopupTransport struct {
	cfg      shared.IdentityConfig
	verifier TokenVerifier
}

func (t *PopupTransport) Name() string { return TransportPopup }

// Begin writes the browser SDK configuration the popup needs.
func (t *PopupTransport) Begin(w http.ResponseWriter, _ *http.Request) error {
	body, err := shared.MarshalJSON(map[string]string{
		"transport":   TransportPopup,
		"client_id":   t.cfg.ClientID,
		"api_key":     t.cfg.APIKey,
		"auth_domain": t.cfg.AuthDomain,
		"project_id":  t.cfg.ProjectID,
		"app_id":      t.cfg.AppID,
		"login_uri":   "/auth/signin/popup",
	}, false)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(body)
	return err
}

// Complete reads the posted credential. A posted error (popup closed, provider rejection) fails the sign-in.
func (t *PopupTransport) Complete(ctx context.Context, r *http.Request) (*Assertion, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: malformed form: %v", shared.ErrSignInFailed, err)
	}

	if msg := r.PostFormValue("error"); msg != "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrSignInFailed, msg)
	}

	if posted := r.PostFormValue(csrfCookie); posted != "" {
		cookie, err := r.Cookie(csrfCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(posted)) != 1 {
			return nil, fmt.Errorf("%w: csrf token mismatch", shared.ErrInvalidState)
		}
	}

	raw := r.PostFormValue("credential")
	if raw == "" {
		return nil, fmt.Errorf("%w: no credential posted", shared.ErrSignInFailed)
	}

	user, err := t.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSignInFailed, err)
	}
	return &Assertion{User: *user, Token: raw}, nil
}

// RedirectTransport runs the authorization code flow with PKCE.
type RedirectTransport struct {
	oauth    *oauth2.Config
	verifier TokenVerifier
	secure   bool
}

func (t *RedirectTransport) Name() string { return TransportRedirect }

// Begin stores state and the PKCE verifier in a short-lived cookie and redirects to the provider.
func (t *RedirectTransport) Begin(w http.ResponseWriter, r *http.Request) error {
	state, err := shared.GenerateState()
	if err != nil {
		return err
	}
	verifier := oauth2.GenerateVerifier()

	http.SetCookie(w, &http.Cookie{
		Name:     signInStateCookie,
		Value:    state + "." + verifier,
		Path:     "/auth/signin",
		MaxAge:   int(signInStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	})

	url := t.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
	http.Redirect(w, r, url, http.StatusFound)
	return nil
}

// Complete checks state, exchanges the code, and verifies the returned ID token.
func (t *RedirectTransport) Complete(ctx context.Context, r *http.Request) (*Assertion, error) {
	q := r.URL.Query()
	if msg := q.Get("error"); msg != "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrSignInFailed, msg)
	}

	cookie, err := r.Cookie(signInStateCookie)
	if err != nil {
		return nil, fmt.Errorf("%w: missing state cookie", shared.ErrInvalidState)
	}
	state, verifier, ok := strings.Cut(cookie.Value, ".")
	if !ok || state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(q.Get("state"))) != 1 {
		return nil, shared.ErrInvalidState
	}

	code := q.Get("code")
	if code == "" {
		return nil, fmt.Errorf("%w: no authorization code", shared.ErrSignInFailed)
	}

	token, err := t.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", shared.ErrSignInFailed, err)
	}

	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, fmt.Errorf("%w: provider did not return id_token", shared.ErrSignInFailed)
	}

	user, err := t.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSignInFailed, err)
	}
	return &Assertion{User: *user, Token: raw}, nil
}
