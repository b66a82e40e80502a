// Package identity wraps the primary sign-in provider.
//
// A [Client] holds one session's current [models.Identity] and notifies subscribers when it changes.
// Sign-in happens through a [Transport]; the popup and redirect flows share that interface so callers do not
// depend on how the provider's assertion reaches the server.
package identity

import (
	"context"
	"sync"

	"github.com/desertthunder/moodring/internal/models"
)

// Listener receives the current user, or nil when signed out.
type Listener func(user *models.Identity)

// Client is the identity state for a single browser session.
type Client struct {
	mu        sync.Mutex
	user      *models.Identity
	idToken   string
	listeners map[uint64]Listener
	nextID    uint64
}

func NewClient() *Client {
	return &Client{listeners: make(map[uint64]Listener)}
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (c *Client) CurrentUser() *models.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyIdentity(c.user)
}

// IDToken returns the raw assertion from the last sign-in.
func (c *Client) IDToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idToken
}

// Subscribe registers fn and immediately delivers the current snapshot to it.
//
// The returned func removes the listener and is safe to call more than once.
func (c *Client) Subscribe(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	snapshot := copyIdentity(c.user)
	c.mu.Unlock()

	fn(snapshot)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// SetUser records a completed sign-in and notifies listeners.
func (c *Client) SetUser(user models.Identity, idToken string) {
	c.mu.Lock()
	c.user = &user
	c.idToken = idToken
	c.mu.Unlock()
	c.notify()
}

// SignOut clears the session. Listeners are only notified when a user was signed in.
func (c *Client) SignOut(_ context.Context) error {
	c.mu.Lock()
	wasSignedIn := c.user != nil
	c.user = nil
	c.idToken = ""
	c.mu.Unlock()

	if wasSignedIn {
		c.notify()
	}
	return nil
}

// Listeners reports how many subscriptions are active.
func (c *Client) Listeners() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

// notify delivers a snapshot outside the lock so listeners may call back into the client.
func (c *Client) notify() {
	c.mu.Lock()
	snapshot := c.user
	fns := make([]Listener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(copyIdentity(snapshot))
	}
}

func copyIdentity(u *models.Identity) *models.Identity {
	if u == nil {
		return nil
	}
	out := *u
	return &out
}
