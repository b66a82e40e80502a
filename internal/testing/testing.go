// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/moodring/internal/models"
)

// MockMusicAPI is a test double for services.MusicAPI.
//
// A nil payload with a nil Err returns empty results; Err is returned from every call.
type MockMusicAPI struct {
	mu sync.Mutex

	Recent          *models.RecentlyPlayed
	Recommended     *models.RecommendationSet
	Overview        *models.AnalyticsOverview
	CollectionsList []models.Collection
	Err             error

	Calls map[string][]string
}

func NewMockMusicAPI() *MockMusicAPI {
	return &MockMusicAPI{Calls: make(map[string][]string)}
}

func (m *MockMusicAPI) record(method, arg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Calls == nil {
		m.Calls = make(map[string][]string)
	}
	m.Calls[method] = append(m.Calls[method], arg)
}

// CallCount reports how many times method was invoked.
func (m *MockMusicAPI) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls[method])
}

// CallArgs returns the primary argument of each call to method.
func (m *MockMusicAPI) CallArgs(method string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Calls[method]...)
}

func (m *MockMusicAPI) RecentlyPlayed(_ context.Context, userID string) (*models.RecentlyPlayed, error) {
	m.record("RecentlyPlayed", userID)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Recent == nil {
		return &models.RecentlyPlayed{}, nil
	}
	return m.Recent, nil
}

func (m *MockMusicAPI) Recommendations(_ context.Context, mood models.Mood, _ int, _ string) (*models.RecommendationSet, error) {
	m.record("Recommendations", string(mood))
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Recommended == nil {
		return &models.RecommendationSet{Mood: mood}, nil
	}
	return m.Recommended, nil
}

func (m *MockMusicAPI) AnalyticsOverview(_ context.Context, timeFilter string) (*models.AnalyticsOverview, error) {
	m.record("AnalyticsOverview", timeFilter)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Overview == nil {
		return &models.AnalyticsOverview{}, nil
	}
	return m.Overview, nil
}

func (m *MockMusicAPI) Collections(_ context.Context) ([]models.Collection, error) {
	m.record("Collections", "")
	if m.Err != nil {
		return nil, m.Err
	}
	return m.CollectionsList, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// JSONResponse builds a response with body and status for [MockRoundTripper].
func JSONResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
