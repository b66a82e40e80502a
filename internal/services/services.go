// package services defines the backend, auth service and Spotify clients
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/moodring/internal/models"
	"github.com/desertthunder/moodring/internal/shared"
)

// MusicAPI is the read side of the backend used by pages and the CLI.
type MusicAPI interface {
	RecentlyPlayed(ctx context.Context, userID string) (*models.RecentlyPlayed, error)
	Recommendations(ctx context.Context, mood models.Mood, limit int, userID string) (*models.RecommendationSet, error)
	AnalyticsOverview(ctx context.Context, timeFilter string) (*models.AnalyticsOverview, error)
	Collections(ctx context.Context) ([]models.Collection, error)
}

// doJSON sends req and decodes a 2xx JSON body into result.
//
// 401 and 403 map to [shared.ErrUnauthorized].
func doJSON(client *http.Client, req *http.Request, result any) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s %s returned %d", shared.ErrUnauthorized, req.Method, req.URL.Path, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: %s %s returned %d", shared.ErrAPIRequest, req.Method, req.URL.Path, resp.StatusCode)
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
