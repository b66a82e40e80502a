package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodring/internal/linking"
	"github.com/desertthunder/moodring/internal/repositories"
	"github.com/desertthunder/moodring/internal/services"
	"github.com/desertthunder/moodring/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Stores and services not supplied through [RunnerOpts] are built from the config on first use.
type Runner struct {
	config     *shared.Config
	configPath string
	store      repositories.CredentialStore
	api        services.MusicAPI
	spotify    *services.SpotifyService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	closers    []io.Closer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      repositories.CredentialStore
	API        services.MusicAPI
	Spotify    *services.SpotifyService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		store:      opts.Store,
		api:        opts.API,
		spotify:    opts.Spotify,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Override the configured log level (debug, info, warn, error)",
		},
	}
}

// Before applies the root flags before any subcommand runs.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.IsSet("config") {
		path := cmd.String("config")
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.configPath = path
		shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Log.Level))
	}
	if cmd.IsSet("log-level") {
		shared.SetLogLevel(r.logger, shared.ParseLogLevel(cmd.String("log-level")))
	}
	return ctx, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, linkCommand, recentCommand, collectionsCommand, moodCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the logger used by subsequent commands.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the stores opened by the runner.
func (r *Runner) Close() {
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			r.logger.Warn("failed to close resource", "err", err)
		}
	}
	r.closers = nil
}

// credentialStore opens the configured backend once.
func (r *Runner) credentialStore(ctx context.Context) (repositories.CredentialStore, error) {
	if r.store != nil {
		return r.store, nil
	}

	switch r.config.Store.Driver {
	case "sqlite":
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
		}
		r.closers = append(r.closers, db)
		r.store = repositories.NewCredentialRepository(db)
	case "redis":
		client, err := repositories.NewRedisClient(ctx, r.config.Redis.Addr, r.config.Redis.Password, r.config.Redis.DB)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, client)
		r.store = repositories.NewRedisCredentialStore(client, r.config.Redis.Prefix)
	case "memory":
		r.logger.Warn("using in-memory credential store; links are lost on exit")
		r.store = repositories.NewMemoryCredentialStore()
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", shared.ErrInvalidConfig, r.config.Store.Driver)
	}

	r.logger.Debug("credential store ready", "driver", r.config.Store.Driver)
	return r.store, nil
}

// spotifyService builds the Spotify client when credentials are configured; it may return nil.
func (r *Runner) spotifyService() *services.SpotifyService {
	if r.spotify != nil {
		return r.spotify
	}

	creds := r.config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil
	}
	svc, err := services.NewSpotifyService(creds.Map(), creds.Scopes)
	if err != nil {
		r.logger.Warn("spotify service unavailable", "err", err)
		return nil
	}
	r.spotify = svc
	return svc
}

func (r *Runner) musicAPI() services.MusicAPI {
	if r.api == nil {
		client := &http.Client{Timeout: r.config.API.Timeout()}
		r.api = services.NewAPIService(r.config.API.BaseURL, client, r.config.API.RateLimit)
	}
	return r.api
}

func (r *Runner) controller(ctx context.Context) (*linking.Controller, error) {
	store, err := r.credentialStore(ctx)
	if err != nil {
		return nil, err
	}

	authClient := &http.Client{Transport: r.httpClient.Transport, Timeout: r.config.API.Timeout()}
	auth := services.NewAuthService(r.config.Link.AuthServiceURL, authClient)
	var opts []linking.Option
	if svc := r.spotifyService(); svc != nil {
		opts = append(opts, linking.WithRefresher(svc))
	}
	return linking.NewController(store, auth, r.logger, opts...), nil
}

// openDatabase is used by the setup commands, which work on the sqlite file regardless of the store driver.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
