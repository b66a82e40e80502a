// Package web serves the browser-facing pages of the mood client.
//
// Each browser session owns an [identity.Client] held by [Sessions]. Public routes cover the landing page,
// primary sign-in, account linking and sign-out. The dashboard, analytics and collections pages sit behind
// [RequireLinkedSession]; their backend reads fall back to canned data when the API fails.
//
// Routes
//
//	GET      /                      landing state, auto-link when enabled
//	GET      /login                 sign-in transports
//	GET      /auth/signin           start sign-in (?transport=popup|redirect)
//	POST     /auth/signin/popup     popup credential post-back
//	GET      /auth/signin/callback  redirect transport callback
//	GET      /link                  start Spotify linking
//	GET|POST /logout                combined sign-out
//	GET      /dashboard             recently played and mood recommendations (guarded)
//	GET      /analytics             listening overview (guarded)
//	GET      /collections           mood collections (guarded)
//	GET      /healthz               liveness
package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/moodring/internal/identity"
	"github.com/desertthunder/moodring/internal/linking"
	"github.com/desertthunder/moodring/internal/models"
	"github.com/desertthunder/moodring/internal/server"
	"github.com/desertthunder/moodring/internal/services"
	"github.com/desertthunder/moodring/internal/shared"
)

const recommendationLimit = 10

// Options configures an [App].
type Options struct {
	// AutoLink sends signed-in users without a valid credential straight to the Spotify login.
	AutoLink bool
	// SignInLimit rate limits the sign-in routes per client IP.
	SignInLimit server.RateLimitConfig
	Logger      *log.Logger
}

// App wires the pages to the linking controller and the backend API.
type App struct {
	controller       *linking.Controller
	api              services.MusicAPI
	sessions         *Sessions
	transports       map[string]identity.Transport
	order            []string
	defaultTransport string
	opts             Options
	logger           *log.Logger
}

// New builds the app. The first transport is the default.
func New(controller *linking.Controller, api services.MusicAPI, sessions *Sessions, transports []identity.Transport, opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.SignInLimit.Requests == 0 {
		opts.SignInLimit = server.SignInLimit
	}

	a := &App{
		controller: controller,
		api:        api,
		sessions:   sessions,
		transports: make(map[string]identity.Transport, len(transports)),
		opts:       opts,
		logger:     opts.Logger.With("component", "web"),
	}
	for _, t := range transports {
		if a.defaultTransport == "" {
			a.defaultTransport = t.Name()
		}
		a.transports[t.Name()] = t
		a.order = append(a.order, t.Name())
	}
	return a
}

// Register adds every route to r.
func (a *App) Register(r *server.BasicRouter) {
	limit := server.RateLimit(a.opts.SignInLimit, server.ClientIP, a.logger)

	r.HandleFunc(http.MethodGet, "/", a.landing)
	r.HandleFunc(http.MethodGet, "/login", a.login)
	r.Handle(http.MethodGet, "/auth/signin", limit(http.HandlerFunc(a.beginSignIn)))
	r.Handle(http.MethodPost, "/auth/signin/popup", limit(a.completeSignIn(identity.TransportPopup)))
	r.Handle(http.MethodGet, "/auth/signin/callback", limit(a.completeSignIn(identity.TransportRedirect)))
	r.HandleFunc(http.MethodGet, "/link", a.link)
	r.HandleFunc("GET|POST", "/logout", a.logout)
	r.HandleFunc(http.MethodGet, "/healthz", a.health)

	r.Handle(http.MethodGet, "/dashboard", a.guarded(a.dashboard))
	r.Handle(http.MethodGet, "/analytics", a.guarded(a.analytics))
	r.Handle(http.MethodGet, "/collections", a.guarded(a.collections))
}

func (a *App) guarded(page PageFunc) http.Handler {
	return RequireLinkedSession(a.controller, a.sessions, a.logger, page)
}

type landingView struct {
	User    *models.Identity `json:"user"`
	Linked  bool             `json:"linked"`
	State   string           `json:"state,omitempty"`
	LinkURL string           `json:"link_url,omitempty"`
}

func (a *App) landing(w http.ResponseWriter, r *http.Request) {
	var view landingView
	client := a.sessions.Lookup(r)
	if client != nil {
		view.User = client.CurrentUser()
	}

	if view.User == nil {
		server.WriteJSON(w, http.StatusOK, view)
		return
	}

	ctx := r.Context()
	state, _, err := a.controller.CredentialState(ctx, view.User.ID)
	if err != nil {
		a.logger.Warn("credential state unavailable", "uid", view.User.ID, "err", err)
		server.WriteError(w, http.StatusServiceUnavailable, "credential store unavailable")
		return
	}

	view.State = state.String()
	view.Linked = state == models.CredentialActive
	view.LinkURL = a.controller.LinkURL(view.User.ID)

	if !view.Linked && a.opts.AutoLink {
		if err := a.controller.BeginSecondaryLink(w, r, view.User.ID); err == nil {
			return
		}
	}
	server.WriteJSON(w, http.StatusOK, view)
}

type transportView struct {
	Name     string `json:"name"`
	StartURL string `json:"start_url"`
	Default  bool   `json:"default"`
}

func (a *App) login(w http.ResponseWriter, _ *http.Request) {
	views := make([]transportView, 0, len(a.order))
	for _, name := range a.order {
		views = append(views, transportView{
			Name:     name,
			StartURL: "/auth/signin?transport=" + name,
			Default:  name == a.defaultTransport,
		})
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"transports": views})
}

func (a *App) transport(name string) (identity.Transport, bool) {
	if name == "" {
		name = a.defaultTransport
	}
	t, ok := a.transports[name]
	return t, ok
}

func (a *App) beginSignIn(w http.ResponseWriter, r *http.Request) {
	t, ok := a.transport(r.URL.Query().Get("transport"))
	if !ok {
		server.WriteError(w, http.StatusBadRequest, "unknown sign-in transport")
		return
	}
	if err := t.Begin(w, r); err != nil {
		a.logger.Error("failed to start sign-in", "transport", t.Name(), "err", err)
		server.WriteError(w, http.StatusInternalServerError, "failed to start sign-in")
	}
}

func (a *App) completeSignIn(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := a.transports[name]
		if !ok {
			http.NotFound(w, r)
			return
		}

		client, err := a.sessions.Client(w, r)
		if err != nil {
			a.logger.Error("failed to start session", "err", err)
			server.WriteError(w, http.StatusInternalServerError, "failed to start session")
			return
		}

		result := a.controller.SignInPrimary(r.Context(), client, t, r)
		if !result.Success {
			server.WriteJSON(w, http.StatusUnauthorized, result)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

func (a *App) link(w http.ResponseWriter, r *http.Request) {
	var uid string
	if client := a.sessions.Lookup(r); client != nil {
		if user := client.CurrentUser(); user != nil {
			uid = user.ID
		}
	}

	if err := a.controller.BeginSecondaryLink(w, r, uid); err != nil {
		if errors.Is(err, shared.ErrPrimaryRequired) {
			server.WriteError(w, http.StatusUnauthorized, "sign in before connecting Spotify")
			return
		}
		server.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	if client := a.sessions.Lookup(r); client != nil {
		a.controller.SignOut(r.Context(), client)
	}
	a.sessions.End(w, r)
	server.ClearLinkState(w, a.sessions.secure)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *App) health(w http.ResponseWriter, _ *http.Request) {
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type dashboardView struct {
	UserID          string                   `json:"user_id"`
	Mood            models.Mood              `json:"mood"`
	Intensity       int                      `json:"intensity"`
	Color           string                   `json:"color"`
	RecentlyPlayed  *models.RecentlyPlayed   `json:"recently_played"`
	Recommendations *models.RecommendationSet `json:"recommendations"`
	Fallback        []string                 `json:"fallback,omitempty"`
}

func (a *App) dashboard(w http.ResponseWriter, r *http.Request, userID string) {
	q := r.URL.Query()
	mood := models.MoodHappy
	if name := q.Get("mood"); name != "" {
		m, err := models.ParseMood(name)
		if err != nil {
			server.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		mood = m
	}

	intensity := models.DefaultIntensity
	if raw := q.Get("intensity"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			server.WriteError(w, http.StatusBadRequest, "intensity must be a number")
			return
		}
		intensity = models.ClampIntensity(v)
	}

	ctx := r.Context()
	view := dashboardView{UserID: userID, Mood: mood, Intensity: intensity, Color: mood.Color()}

	recent, err := a.api.RecentlyPlayed(ctx, userID)
	if err != nil {
		a.fetchFailed(ctx, "recently played", userID, err)
		recent = &models.RecentlyPlayed{Items: []models.PlayHistory{}}
		view.Fallback = append(view.Fallback, "recently_played")
	}
	view.RecentlyPlayed = recent

	recs, err := a.api.Recommendations(ctx, mood, recommendationLimit, userID)
	if err != nil {
		a.fetchFailed(ctx, "recommendations", userID, err)
		recs = &models.RecommendationSet{Mood: mood, Recommendations: []models.Recommendation{}}
		view.Fallback = append(view.Fallback, "recommendations")
	}
	view.Recommendations = recs

	server.WriteJSON(w, http.StatusOK, view)
}

func (a *App) analytics(w http.ResponseWriter, r *http.Request, userID string) {
	filter := r.URL.Query().Get("time_filter")
	if filter == "" {
		filter = models.DefaultTimeFilter
	}

	overview, err := a.api.AnalyticsOverview(r.Context(), filter)
	fallback := false
	if err != nil {
		a.fetchFailed(r.Context(), "analytics", userID, err)
		overview = fallbackAnalytics()
		fallback = true
	}

	server.WriteJSON(w, http.StatusOK, map[string]any{
		"time_filter": filter,
		"analytics":   overview,
		"fallback":    fallback,
	})
}

func (a *App) collections(w http.ResponseWriter, r *http.Request, userID string) {
	collections, err := a.api.Collections(r.Context())
	fallback := false
	if err != nil {
		a.fetchFailed(r.Context(), "collections", userID, err)
		collections = fallbackCollections()
		fallback = true
	}

	server.WriteJSON(w, http.StatusOK, map[string]any{
		"collections": collections,
		"fallback":    fallback,
	})
}

func (a *App) fetchFailed(ctx context.Context, what, userID string, err error) {
	kv := []any{"uid", userID, "request_id", server.RequestIDFrom(ctx), "err", err}
	if errors.Is(err, shared.ErrUnauthorized) {
		a.logger.Warn(what+": backend rejected credentials, using fallback", kv...)
		return
	}
	a.logger.Warn(what+": fetch failed, using fallback", kv...)
}
