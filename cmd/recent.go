package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/moodring/internal/formatter"
	"github.com/desertthunder/moodring/internal/models"
	"github.com/desertthunder/moodring/internal/shared"
	"github.com/urfave/cli/v3"
)

// Recent prints or exports the user's recently played tracks.
func (r *Runner) Recent(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")
	format := strings.ToLower(cmd.String("format"))
	output := cmd.String("output")

	var history *models.RecentlyPlayed
	var err error
	if cmd.Bool("direct") {
		history, err = r.recentFromSpotify(ctx, userID, int(cmd.Int("limit")))
	} else {
		history, err = r.musicAPI().RecentlyPlayed(ctx, userID)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch recently played: %w", err)
	}

	r.logger.Debug("fetched recently played", "uid", userID, "tracks", len(history.Items))

	if output == "" {
		data, err := formatter.Format(format, history)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	if format == formatter.FormatMarkdown || format == "md" {
		result, err := formatter.WriteMarkdownExport(history, output, func(err error) {
			r.logger.Warn("cover art skipped", "err", err)
		})
		if err != nil {
			return err
		}
		for _, f := range result.Files {
			r.writePlain("✓ wrote %s\n", f)
		}
		return nil
	}

	if err := formatter.WriteExport(format, history, output); err != nil {
		return err
	}
	return r.writePlain("✓ wrote %s\n", output)
}

// recentFromSpotify reads history with the stored access token; only an active credential is used.
func (r *Runner) recentFromSpotify(ctx context.Context, userID string, limit int) (*models.RecentlyPlayed, error) {
	spotify := r.spotifyService()
	if spotify == nil {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingCredentials)
	}

	controller, err := r.controller(ctx)
	if err != nil {
		return nil, err
	}
	cred, err := controller.GetLinkedCredential(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, fmt.Errorf("%w: no active spotify link for %s (try 'moodring link refresh')", shared.ErrNotAuthenticated, userID)
	}

	return spotify.RecentlyPlayed(ctx, cred.AccessToken, limit)
}

// Collections prints the curated mood collections.
func (r *Runner) Collections(ctx context.Context, cmd *cli.Command) error {
	collections, err := r.musicAPI().Collections(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch collections: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(collections, cmd.Bool("pretty"))
	}
	_, err = r.output.Write(formatter.CollectionsToMarkdown(collections))
	return err
}
