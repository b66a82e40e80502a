package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// AuthService addresses the secondary login endpoints.
type AuthService struct {
	baseURL    string
	httpClient *http.Client
}

func NewAuthService(baseURL string, client *http.Client) *AuthService {
	if client == nil {
		client = http.DefaultClient
	}
	return &AuthService{baseURL: strings.TrimRight(baseURL, "/"), httpClient: client}
}

// LoginURL is where the browser goes to link a Spotify account for primaryUserID.
func (s *AuthService) LoginURL(primaryUserID string) string {
	return s.baseURL + "/auth/spotify/login?" + url.Values{"firebase_user_id": {primaryUserID}}.Encode()
}

// Logout notifies the auth service that the secondary session ended.
//
// The request is server to server and carries no browser cookies; browser-side link state is cleared by the
// sign-out response itself.
func (s *AuthService) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/auth/spotify/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return doJSON(s.httpClient, req, nil)
}
