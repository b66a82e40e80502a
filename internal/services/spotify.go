// Spotify Web API client for linked accounts
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/moodring/internal/models"
	"github.com/desertthunder/moodring/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// DefaultSpotifyScopes are requested when the config lists none.
var DefaultSpotifyScopes = []string{
	"user-read-email",
	"user-read-private",
	"user-read-recently-played",
	"user-top-read",
}

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []models.Image `json:"images"`
}

// SpotifyService runs the Spotify OAuth flow and reads linked account data.
type SpotifyService struct {
	config     *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, scopes []string) (*SpotifyService, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/auth/spotify/callback"
	}

	if len(scopes) == 0 {
		scopes = DefaultSpotifyScopes
	}

	return &SpotifyService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyAuthURL,
				TokenURL: spotifyTokenURL,
			},
		},
		apiBaseURL: spotifyBaseURL,
		httpClient: http.DefaultClient,
	}, nil
}

// WithEndpoints points the service at different accounts and API hosts.
func (s *SpotifyService) WithEndpoints(endpoint oauth2.Endpoint, apiBaseURL string) *SpotifyService {
	s.config.Endpoint = endpoint
	s.apiBaseURL = strings.TrimRight(apiBaseURL, "/")
	return s
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthURL returns the authorization URL for state.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for tokens.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return token, nil
}

// Refresh obtains a new access token from refreshToken.
func (s *SpotifyService) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	token, err := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	return token, nil
}

// TokenLifetime returns the token's remaining lifetime in seconds at now.
//
// Tokens without an expiry are treated as one-hour tokens.
func TokenLifetime(token *oauth2.Token, now time.Time) int {
	if token.Expiry.IsZero() {
		return int(models.MaxCredentialLifetime.Seconds())
	}
	secs := int(token.Expiry.Sub(now).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}

// doRequest performs a GET against the Web API with accessToken.
func (s *SpotifyService) doRequest(ctx context.Context, accessToken, endpoint string, result any) error {
	if accessToken == "" {
		return shared.ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBaseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	return doJSON(s.httpClient, req, result)
}

// UserProfile retrieves the profile of the account behind accessToken.
func (s *SpotifyService) UserProfile(ctx context.Context, accessToken string) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, accessToken, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RecentlyPlayed retrieves up to limit (1..50, default 20) recently played tracks.
func (s *SpotifyService) RecentlyPlayed(ctx context.Context, accessToken string, limit int) (*models.RecentlyPlayed, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	var out models.RecentlyPlayed
	if err := s.doRequest(ctx, accessToken, fmt.Sprintf("/me/player/recently-played?limit=%d", limit), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
