package web

import (
	"context"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/moodring/internal/guard"
	"github.com/desertthunder/moodring/internal/identity"
)

// PageFunc renders a protected page for the signed-in, linked user.
type PageFunc func(w http.ResponseWriter, r *http.Request, userID string)

// RequireLinkedSession runs one [guard.Guard] for the request's session.
//
// Denied redirects to the landing page and Granted renders page, each at most once. The response is decided
// by the first settled generation; anything left undecided redirects.
func RequireLinkedSession(source guard.CredentialSource, sessions *Sessions, logger *log.Logger, page PageFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := sessions.Lookup(r)
		if client == nil {
			client = identity.NewClient()
		}

		var (
			once    sync.Once
			decided bool
		)
		g := guard.New(source, guard.Options{
			OnDenied: func() {
				once.Do(func() {
					decided = true
					http.Redirect(w, r, "/", http.StatusFound)
				})
			},
			OnGranted: func(ctx context.Context, userID string) {
				once.Do(func() {
					decided = true
					page(w, r.WithContext(ctx), userID)
				})
			},
			Logger: logger,
		})

		g.Start(r.Context(), client)
		state, err := g.Wait(r.Context())
		g.Stop()

		if err != nil {
			logger.Debug("guard did not settle", "path", r.URL.Path, "state", state, "err", err)
		}
		if !decided {
			http.Redirect(w, r, "/", http.StatusFound)
		}
	})
}
