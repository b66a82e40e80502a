package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/moodring/internal/models"
)

const defaultAPIBaseURL = "http://127.0.0.1:8000"

// APIService calls the music backend.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewAPIService creates a backend client allowing requestsPerSecond (unlimited when <= 0).
func NewAPIService(baseURL string, client *http.Client, requestsPerSecond float64) *APIService {
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

func (a *APIService) get(ctx context.Context, path string, query url.Values, result any) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	fullURL := a.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return doJSON(a.httpClient, req, result)
}

// RecentlyPlayed fetches the linked account's play history keyed by the primary identity id.
func (a *APIService) RecentlyPlayed(ctx context.Context, userID string) (*models.RecentlyPlayed, error) {
	var out models.RecentlyPlayed
	q := url.Values{"firebase_user_id": {userID}}
	if err := a.get(ctx, "/api/me/recently-played", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Recommendations fetches tracks for mood. userID personalizes the result when set.
func (a *APIService) Recommendations(ctx context.Context, mood models.Mood, limit int, userID string) (*models.RecommendationSet, error) {
	q := url.Values{"mood": {string(mood)}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if userID != "" {
		q.Set("firebase_user_id", userID)
	}

	var out models.RecommendationSet
	if err := a.get(ctx, "/api/recommendations", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyticsOverview fetches listening statistics for timeFilter.
func (a *APIService) AnalyticsOverview(ctx context.Context, timeFilter string) (*models.AnalyticsOverview, error) {
	if timeFilter == "" {
		timeFilter = models.DefaultTimeFilter
	}

	var out struct {
		Analytics models.AnalyticsOverview `json:"analytics"`
	}
	if err := a.get(ctx, "/api/analytics/overview", url.Values{"time_filter": {timeFilter}}, &out); err != nil {
		return nil, err
	}
	return &out.Analytics, nil
}

// Collections fetches the mood collections.
func (a *APIService) Collections(ctx context.Context) ([]models.Collection, error) {
	var out struct {
		Collections []models.Collection `json:"collections"`
	}
	if err := a.get(ctx, "/api/collections", nil, &out); err != nil {
		return nil, err
	}
	return out.Collections, nil
}
