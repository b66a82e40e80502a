package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/moodring/internal/identity"
	"github.com/desertthunder/moodring/internal/linking"
	"github.com/desertthunder/moodring/internal/server"
	"github.com/desertthunder/moodring/internal/shared"
	"github.com/desertthunder/moodring/internal/web"
	"github.com/urfave/cli/v3"
)

const sessionSweepInterval = 5 * time.Minute

// Serve runs the web client until interrupted.
//
// A missing or unreachable identity provider is fatal.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := r.config.Validate(); err != nil {
		r.logger.Fatal("invalid configuration", "err", err)
	}

	provider, err := identity.NewProvider(ctx, r.config.Identity, r.config.Session.SecureCookies)
	if err != nil {
		r.logger.Fatal("identity provider init failed", "issuer", r.config.Identity.Issuer, "err", err)
	}

	controller, err := r.controller(ctx)
	if err != nil {
		return err
	}

	handler, sessions := r.buildHandler(provider, controller)
	go sessions.RunJanitor(ctx, sessionSweepInterval)

	srv := server.NewServer(r.config.Server.Addr(), handler, r.logger)
	if cmd.Bool("open") {
		go func() {
			if err := shared.OpenBrowser(r.config.Server.BaseURL); err != nil {
				r.logger.Warn("could not open browser", "url", r.config.Server.BaseURL, "err", err)
			}
		}()
	}

	r.logger.Info("moodring starting", "url", r.config.Server.BaseURL, "store", r.config.Store.Driver)
	return srv.Run(ctx)
}

// buildHandler assembles the router: pages, sign-in routes and, when embedded, the Spotify link receiver.
func (r *Runner) buildHandler(provider *identity.Provider, controller *linking.Controller) (http.Handler, *web.Sessions) {
	cfg := r.config
	sessions := web.NewSessions(cfg.Session.TTL(), cfg.Session.SecureCookies)

	app := web.New(controller, r.musicAPI(), sessions, r.transports(provider), web.Options{
		AutoLink: cfg.Link.AutoLink,
		Logger:   r.logger,
	})

	router := server.NewBasicRouter()
	router.Use(server.RequestID, server.Logging(r.logger), server.Recover(r.logger))
	app.Register(router)

	if cfg.Link.Embedded {
		if spotify := r.spotifyService(); spotify != nil {
			router.Handler(server.NewLinkHandler(spotify, controller, r.logger, "/dashboard", cfg.Session.SecureCookies))
		} else {
			r.logger.Warn("embedded link receiver disabled: spotify credentials missing")
		}
	}

	return router, sessions
}

// transports lists the configured default first.
func (r *Runner) transports(provider *identity.Provider) []identity.Transport {
	id := r.config.Identity
	transports := []identity.Transport{provider.Transport()}

	switch id.Transport {
	case identity.TransportRedirect:
		transports = append(transports, provider.Popup())
	default:
		if id.ClientSecret != "" && id.RedirectURI != "" {
			transports = append(transports, provider.Redirect())
		}
	}
	return transports
}
