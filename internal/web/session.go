package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/desertthunder/moodring/internal/identity"
	"github.com/desertthunder/moodring/internal/shared"
)

// SessionCookie names the browser session.
const SessionCookie = "moodring_session"

type session struct {
	client  *identity.Client
	expires time.Time
}

// Sessions maps browser session cookies to per-session identity clients.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	secure   bool
	now      func() time.Time
}

func NewSessions(ttl time.Duration, secureCookies bool) *Sessions {
	return &Sessions{
		sessions: make(map[string]*session),
		ttl:      ttl,
		secure:   secureCookies,
		now:      time.Now,
	}
}

// Lookup returns the client for r's session, or nil when there is none or it expired.
func (s *Sessions) Lookup(r *http.Request) *identity.Client {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[cookie.Value]
	if !ok {
		return nil
	}
	if s.now().After(sess.expires) {
		delete(s.sessions, cookie.Value)
		return nil
	}
	return sess.client
}

// Client returns r's session client, starting a new session and setting its cookie when needed.
func (s *Sessions) Client(w http.ResponseWriter, r *http.Request) (*identity.Client, error) {
	if c := s.Lookup(r); c != nil {
		return c, nil
	}

	id, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	client := identity.NewClient()
	s.mu.Lock()
	s.sessions[id] = &session{client: client, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()

	s.setCookie(w, id, int(s.ttl.Seconds()))
	return client, nil
}

// End drops r's session and expires its cookie.
func (s *Sessions) End(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}
	s.setCookie(w, "", -1)
}

// Len reports the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *Sessions) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.sessions {
		if now.After(sess.expires) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// RunJanitor sweeps every interval until ctx is done.
func (s *Sessions) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Sessions) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
