package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/moodring/internal/models"
	"github.com/desertthunder/moodring/internal/shared"
	tu "github.com/desertthunder/moodring/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com/", customClient, 5)

			if srv.baseURL != "http://example.com" {
				t.Errorf("expected trimmed baseURL 'http://example.com', got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			srv := NewAPIService("", nil, 0)
			if srv.baseURL != defaultAPIBaseURL {
				t.Errorf("expected default baseURL, got %s", srv.baseURL)
			}
			if srv.httpClient == nil {
				t.Error("expected a default client")
			}
		})
	})

	t.Run("RecentlyPlayed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/me/recently-played" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.URL.Query().Get("firebase_user_id") != "u1" {
				t.Errorf("expected firebase_user_id=u1, got %s", r.URL.RawQuery)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"items":[{"played_at":"2025-03-01T10:00:00.000Z","track":{"name":"Levitating","artists":[{"name":"Dua Lipa"}],"duration_ms":203000,"album":{"images":[{"url":"https://i.scdn.co/x","height":64,"width":64}]},"uri":"spotify:track:1"}}]}`))
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil, 0)
		got, err := srv.RecentlyPlayed(context.Background(), "u1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got.Items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(got.Items))
		}
		item := got.Items[0]
		if item.Track.Name != "Levitating" || item.Track.ArtistNames() != "Dua Lipa" {
			t.Errorf("unexpected track %+v", item.Track)
		}
		if !item.PlayedAt.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected played_at %s", item.PlayedAt)
		}
		if item.Track.Album.Images[0].Height != 64 {
			t.Errorf("expected album image, got %+v", item.Track.Album)
		}
	})

	t.Run("Recommendations", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("mood") != "Calm" || q.Get("limit") != "10" || q.Get("firebase_user_id") != "u1" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			w.Write([]byte(`{"mood":"Calm","count":1,"personalized":true,"recommendations":[{"track_id":"t1","track_name":"Sunflower","artists":"Post Malone","similarity_percent":91.5}]}`))
		}))
		defer server.Close()

		got, err := NewAPIService(server.URL, nil, 0).Recommendations(context.Background(), models.MoodCalm, 10, "u1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !got.Personalized || len(got.Recommendations) != 1 || got.Recommendations[0].SimilarityPercent != 91.5 {
			t.Errorf("unexpected recommendations %+v", got)
		}
	})

	t.Run("Recommendations without user", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Has("firebase_user_id") || r.URL.Query().Has("limit") {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			w.Write([]byte(`{"mood":"Happy","recommendations":[]}`))
		}))
		defer server.Close()

		if _, err := NewAPIService(server.URL, nil, 0).Recommendations(context.Background(), models.MoodHappy, 0, ""); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("AnalyticsOverview", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("time_filter") != "This Week" {
				t.Errorf("expected default time filter, got %s", r.URL.RawQuery)
			}
			w.Write([]byte(`{"analytics":{"total_listening_hours":41.0,"top_mood":"Happy","mood_stats":[{"mood":"Happy","percentage":35,"color":"#4CAF50","hours":14.2}]},"time_filter":"This Week"}`))
		}))
		defer server.Close()

		got, err := NewAPIService(server.URL, nil, 0).AnalyticsOverview(context.Background(), "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.TotalListeningHours != 41.0 || got.TopMood != models.MoodHappy || len(got.MoodStats) != 1 {
			t.Errorf("unexpected overview %+v", got)
		}
	})

	t.Run("Collections", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"collections":[{"id":1,"name":"Happy Vibes","mood":"Happy","songCount":25,"color":"#4CAF50","songs":[{"title":"Levitating","artist":"Dua Lipa","duration":"3:23"}]}]}`))
		}))
		defer server.Close()

		got, err := NewAPIService(server.URL, nil, 0).Collections(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 1 || got[0].SongCount != 25 || got[0].Songs[0].Title != "Levitating" {
			t.Errorf("unexpected collections %+v", got)
		}
	})

	t.Run("Unauthorized", func(t *testing.T) {
		for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))

			_, err := NewAPIService(server.URL, nil, 0).RecentlyPlayed(context.Background(), "u1")
			if !errors.Is(err, shared.ErrUnauthorized) {
				t.Errorf("status %d: expected ErrUnauthorized, got %v", status, err)
			}
			server.Close()
		}
	})

	t.Run("Server Error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := NewAPIService(server.URL, nil, 0).Collections(context.Background())
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(tu.JSONResponse(http.StatusOK, "{not json"), nil)}
		if _, err := NewAPIService("http://api.test", client, 0).Collections(context.Background()); err == nil {
			t.Error("expected decode error")
		}
	})

	t.Run("Body Read Error", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: &tu.FCloser{}}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
		if _, err := NewAPIService("http://api.test", client, 0).Collections(context.Background()); err == nil {
			t.Error("expected read error")
		}
	})

	t.Run("Transport Error", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		_, err := NewAPIService("http://api.test", client, 0).Collections(context.Background())
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Rate Limiter Honors Context", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(tu.JSONResponse(http.StatusOK, `{"collections":[]}`), nil)}
		srv := NewAPIService("http://api.test", client, 0.001)

		if _, err := srv.Collections(context.Background()); err != nil {
			t.Fatalf("first request should use the burst, got %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if _, err := srv.Collections(ctx); err == nil {
			t.Error("expected limiter wait to fail once the context expires")
		}
	})
}

func TestAuthService(t *testing.T) {
	t.Run("LoginURL", func(t *testing.T) {
		srv := NewAuthService("http://auth.test/", nil)
		want := "http://auth.test/auth/spotify/login?firebase_user_id=user%2F1"
		if got := srv.LoginURL("user/1"); got != want {
			t.Errorf("LoginURL() = %s, want %s", got, want)
		}
	})

	t.Run("Logout", func(t *testing.T) {
		hit := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hit = r.URL.Path == "/auth/spotify/logout" && r.Method == http.MethodGet
			w.Write([]byte(`{"status":"logged_out"}`))
		}))
		defer server.Close()

		if err := NewAuthService(server.URL, nil).Logout(context.Background()); err != nil {
			t.Fatalf("Logout() error = %v", err)
		}
		if !hit {
			t.Error("expected GET /auth/spotify/logout")
		}
	})

	t.Run("Logout Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("down"))}
		if err := NewAuthService("http://auth.test", client).Logout(context.Background()); err == nil {
			t.Error("expected error")
		}
	})
}
