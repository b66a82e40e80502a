package server

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/moodring/internal/linking"
	"github.com/desertthunder/moodring/internal/models"
	"github.com/desertthunder/moodring/internal/services"
	"github.com/desertthunder/moodring/internal/shared"
)

const (
	// LinkStateCookie pairs the OAuth state with the primary user id for the round trip.
	LinkStateCookie = "spotify_auth_state"
	linkStateMaxAge = 600
)

// SpotifyOAuth is the part of [services.SpotifyService] the callback receiver needs.
type SpotifyOAuth interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	UserProfile(ctx context.Context, accessToken string) (*services.SpotifyUser, error)
}

// Linker stores the credential produced by a finished flow.
type Linker interface {
	CompleteLink(ctx context.Context, ownerID string, grant linking.Grant) (*models.LinkedCredential, error)
}

// LinkHandler serves the Spotify login, callback and logout endpoints.
type LinkHandler struct {
	oauth         SpotifyOAuth
	linker        Linker
	logger        *log.Logger
	successURL    string
	secureCookies bool
	now           func() time.Time
}

// NewLinkHandler creates a handler that sends the browser to successURL once the account is linked.
func NewLinkHandler(oauth SpotifyOAuth, linker Linker, logger *log.Logger, successURL string, secureCookies bool) *LinkHandler {
	if successURL == "" {
		successURL = "/dashboard"
	}
	return &LinkHandler{
		oauth:         oauth,
		linker:        linker,
		logger:        logger.With("component", "link"),
		successURL:    successURL,
		secureCookies: secureCookies,
		now:           time.Now,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *LinkHandler) Routes() []string {
	return []string{
		"GET /auth/spotify/login",
		"GET /auth/spotify/callback",
		"GET /auth/spotify/logout",
	}
}

func (h *LinkHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/spotify/login":
		h.login(w, r)
	case "/auth/spotify/callback":
		h.callback(w, r)
	case "/auth/spotify/logout":
		h.logout(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *LinkHandler) login(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("firebase_user_id")
	if uid == "" {
		WriteError(w, http.StatusBadRequest, "firebase_user_id is required")
		return
	}

	state, err := shared.GenerateState()
	if err != nil {
		h.logger.Error("failed to generate state", "err", err)
		WriteError(w, http.StatusInternalServerError, "failed to start login")
		return
	}

	h.setStateCookie(w, encodeLinkState(state, uid), linkStateMaxAge)
	h.logger.Debug("redirecting to spotify", "uid", uid)
	http.Redirect(w, r, h.oauth.AuthURL(state), http.StatusFound)
}

func (h *LinkHandler) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.setStateCookie(w, "", -1)

	if errParam := q.Get("error"); errParam != "" {
		h.logger.Warn("spotify authorization failed", "error", errParam, "description", q.Get("error_description"))
		WriteError(w, http.StatusBadRequest, "authorization failed: "+errParam)
		return
	}

	uid, err := h.checkState(r, q.Get("state"))
	if err != nil {
		h.logger.Warn("rejected callback", "err", err)
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	code := q.Get("code")
	if code == "" {
		WriteError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	ctx := r.Context()
	token, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		h.logger.Error("token exchange failed", "uid", uid, "err", err)
		WriteError(w, http.StatusBadGateway, "token exchange failed")
		return
	}

	profile, err := h.oauth.UserProfile(ctx, token.AccessToken)
	if err != nil {
		h.logger.Error("failed to fetch spotify profile", "uid", uid, "err", err)
		WriteError(w, http.StatusBadGateway, "failed to fetch spotify profile")
		return
	}

	scope, _ := token.Extra("scope").(string)
	grant := linking.Grant{
		SecondaryUserID: profile.ID,
		Email:           profile.Email,
		AccessToken:     token.AccessToken,
		RefreshToken:    token.RefreshToken,
		Scope:           scope,
		ExpiresIn:       services.TokenLifetime(token, h.now()),
	}

	if _, err := h.linker.CompleteLink(ctx, uid, grant); err != nil {
		h.logger.Error("failed to store credential", "uid", uid, "err", err)
		WriteError(w, http.StatusInternalServerError, "failed to store credential")
		return
	}

	http.Redirect(w, r, h.successURL, http.StatusFound)
}

func (h *LinkHandler) logout(w http.ResponseWriter, _ *http.Request) {
	h.setStateCookie(w, "", -1)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// checkState returns the primary user id bound to state.
func (h *LinkHandler) checkState(r *http.Request, state string) (string, error) {
	cookie, err := r.Cookie(LinkStateCookie)
	if err != nil || state == "" {
		return "", shared.ErrInvalidState
	}

	stored, uid, err := decodeLinkState(cookie.Value)
	if err != nil || stored != state || uid == "" {
		return "", shared.ErrInvalidState
	}
	return uid, nil
}

func (h *LinkHandler) setStateCookie(w http.ResponseWriter, value string, maxAge int) {
	setLinkStateCookie(w, value, maxAge, h.secureCookies)
}

// ClearLinkState expires the browser's pending link state cookie.
func ClearLinkState(w http.ResponseWriter, secureCookies bool) {
	setLinkStateCookie(w, "", -1, secureCookies)
}

func setLinkStateCookie(w http.ResponseWriter, value string, maxAge int, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     LinkStateCookie,
		Value:    value,
		Path:     "/auth/spotify",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func encodeLinkState(state, uid string) string {
	return state + "." + base64.RawURLEncoding.EncodeToString([]byte(uid))
}

func decodeLinkState(value string) (state, uid string, err error) {
	state, enc, ok := strings.Cut(value, ".")
	if !ok {
		return "", "", errors.New("malformed state cookie")
	}
	raw, err := base64.RawURLEncoding.DecodeString(enc)
	if err != nil {
		return "", "", err
	}
	return state, string(raw), nil
}
