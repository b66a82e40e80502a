package main

import (
	"context"
	"errors"
	"time"

	"github.com/desertthunder/moodring/internal/models"
	"github.com/desertthunder/moodring/internal/shared"
	"github.com/desertthunder/moodring/internal/ui"
	"github.com/urfave/cli/v3"
)

type linkStatus struct {
	UserID          string     `json:"user_id"`
	State           string     `json:"state"`
	SpotifyUserID   string     `json:"spotify_user_id,omitempty"`
	Email           string     `json:"email,omitempty"`
	Scope           string     `json:"scope,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	HasRefreshToken bool       `json:"has_refresh_token"`
	UnlinkedAt      *time.Time `json:"unlinked_at,omitempty"`
}

// LinkStatus reports whether the user's Spotify credential is active, expired or unlinked.
func (r *Runner) LinkStatus(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")
	controller, err := r.controller(ctx)
	if err != nil {
		return err
	}

	state, cred, err := controller.CredentialState(ctx, userID)
	if err != nil {
		return err
	}

	status := linkStatus{UserID: userID, State: state.String()}
	if cred != nil {
		status.SpotifyUserID = cred.SecondaryUserID
		status.Email = cred.Email
		status.Scope = cred.Scope
		status.HasRefreshToken = cred.RefreshToken != ""
		status.UnlinkedAt = cred.DeletedAt
		if state != models.CredentialUnlinked {
			expires := cred.ExpiresAt
			status.ExpiresAt = &expires
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlainHeader("Spotify link: " + userID)
	r.writePlain("State:         %s\n", ui.StateStyle(state).Render(status.State))
	if cred == nil {
		return r.writePlain("Run 'moodring serve' and connect Spotify to link this account.\n")
	}
	r.writePlain("Spotify user:  %s\n", status.SpotifyUserID)
	if status.Email != "" {
		r.writePlain("Email:         %s\n", status.Email)
	}
	switch state {
	case models.CredentialActive:
		remaining := time.Until(cred.ExpiresAt)
		r.writePlain("Expires in:    %s\n", shared.FormatDuration(int(remaining.Milliseconds())))
	case models.CredentialExpired:
		r.writePlain("Expired at:    %s\n", cred.ExpiresAt.Local().Format(time.RFC1123))
	case models.CredentialUnlinked:
		if cred.DeletedAt != nil {
			r.writePlain("Unlinked at:   %s\n", cred.DeletedAt.Local().Format(time.RFC1123))
		}
	}
	return r.writePlain("Refreshable:   %v\n", status.HasRefreshToken)
}

// LinkRefresh trades the stored refresh token for a new access token.
func (r *Runner) LinkRefresh(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")
	controller, err := r.controller(ctx)
	if err != nil {
		return err
	}

	if err := controller.RefreshFromProvider(ctx, userID); err != nil {
		if errors.Is(err, shared.ErrCredentialNotFound) {
			r.logger.Warn("no linked credential", "uid", userID)
		}
		return err
	}

	r.logger.Info("access token refreshed", "uid", userID)
	return r.writePlain("✓ Access token refreshed for %s\n", userID)
}

// LinkUnlink soft-deletes the user's credential.
func (r *Runner) LinkUnlink(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")
	controller, err := r.controller(ctx)
	if err != nil {
		return err
	}

	if err := controller.Unlink(ctx, userID); err != nil {
		return err
	}
	return r.writePlain("✓ Spotify unlinked for %s\n", userID)
}
