// Package guard gates protected pages behind a combined session check.
//
// A [Guard] follows one identity [Subscriber]. Every identity callback starts a new generation in [Checking]:
// no user settles [Denied] at once, otherwise the linked credential is looked up and the generation settles
// [Granted] or [Denied]. A lookup that finishes after a newer callback is discarded, so the last callback wins.
// Store failures deny access.
package guard

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/moodring/internal/identity"
	"github.com/desertthunder/moodring/internal/models"
)

// State is the guard's position in the check.
type State int

const (
	Checking State = iota
	Denied
	Granted
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Denied:
		return "denied"
	case Granted:
		return "granted"
	default:
		return "unknown"
	}
}

var ErrStopped = errors.New("guard stopped")

// CredentialSource looks up the active linked credential; nil means none.
type CredentialSource interface {
	GetLinkedCredential(ctx context.Context, primaryUserID string) (*models.LinkedCredential, error)
}

// Subscriber delivers identity changes. [identity.Client] implements it.
type Subscriber interface {
	Subscribe(fn identity.Listener) (unsubscribe func())
}

// Options configures the effects fired when a generation settles.
//
// Effects run on the settling goroutine and must not call [Guard.Stop] or change the followed identity.
type Options struct {
	OnDenied  func()
	OnGranted func(ctx context.Context, userID string)
	Logger    *log.Logger
}

type Guard struct {
	source CredentialSource
	opts   Options

	// fireMu serializes effects with Stop.
	fireMu sync.Mutex

	mu          sync.Mutex
	state       State
	userID      string
	generation  uint64
	cancel      context.CancelFunc
	baseCtx     context.Context
	settled     chan struct{}
	closed      bool
	stopped     bool
	unsubscribe func()
}

func New(source CredentialSource, opts Options) *Guard {
	return &Guard{
		source:  source,
		opts:    opts,
		settled: make(chan struct{}),
		baseCtx: context.Background(),
	}
}

// Start subscribes to sub. Lookups are cancelled when ctx is done or the guard stops.
func (g *Guard) Start(ctx context.Context, sub Subscriber) {
	g.mu.Lock()
	g.baseCtx = ctx
	g.mu.Unlock()

	unsubscribe := sub.Subscribe(g.handle)

	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		unsubscribe()
		return
	}
	g.unsubscribe = unsubscribe
	g.mu.Unlock()
}

// Stop unsubscribes and cancels in-flight work. No effect fires once Stop returns.
func (g *Guard) Stop() {
	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		return
	}
	g.stopped = true
	if g.cancel != nil {
		g.cancel()
	}
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	if !g.closed {
		close(g.settled)
		g.closed = true
	}
	g.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}

	// wait out an effect that is already running
	g.fireMu.Lock()
	g.fireMu.Unlock()
}

func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// UserID is the user of the latest callback.
func (g *Guard) UserID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.userID
}

// Generation counts identity callbacks seen so far.
func (g *Guard) Generation() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generation
}

// Wait blocks until the current generation settles, and returns its state.
func (g *Guard) Wait(ctx context.Context) (State, error) {
	for {
		g.mu.Lock()
		ch, closed, stopped, state := g.settled, g.closed, g.stopped, g.state
		g.mu.Unlock()

		if stopped {
			return state, ErrStopped
		}
		if closed {
			return state, nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return Checking, ctx.Err()
		}
	}
}

// handle starts a new generation for user.
func (g *Guard) handle(user *models.Identity) {
	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		return
	}
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}

	g.generation++
	gen := g.generation
	g.state = Checking
	g.userID = ""
	if user != nil {
		g.userID = user.ID
	}
	if g.closed {
		g.settled = make(chan struct{})
		g.closed = false
	}

	if user == nil {
		g.mu.Unlock()
		g.settle(context.Background(), gen, Denied, "")
		return
	}

	ctx, cancel := context.WithCancel(g.baseCtx)
	g.cancel = cancel
	g.mu.Unlock()

	go g.lookup(ctx, gen, user.ID)
}

func (g *Guard) lookup(ctx context.Context, gen uint64, userID string) {
	cred, err := g.source.GetLinkedCredential(ctx, userID)
	switch {
	case err != nil:
		g.logf("credential lookup failed", "uid", userID, "generation", gen, "err", err)
		g.settle(ctx, gen, Denied, userID)
	case cred == nil:
		g.settle(ctx, gen, Denied, userID)
	default:
		g.settle(ctx, gen, Granted, userID)
	}
}

// settle records the outcome for gen and fires its effect, unless gen is stale or the guard stopped.
func (g *Guard) settle(ctx context.Context, gen uint64, state State, userID string) {
	g.fireMu.Lock()
	defer g.fireMu.Unlock()

	g.mu.Lock()
	if g.stopped || gen != g.generation {
		g.mu.Unlock()
		return
	}
	g.state = state
	g.mu.Unlock()

	switch state {
	case Denied:
		if g.opts.OnDenied != nil {
			g.opts.OnDenied()
		}
	case Granted:
		if g.opts.OnGranted != nil {
			g.opts.OnGranted(ctx, userID)
		}
	}

	g.mu.Lock()
	if gen == g.generation && !g.closed {
		close(g.settled)
		g.closed = true
	}
	g.mu.Unlock()
}

func (g *Guard) logf(msg string, kv ...any) {
	if g.opts.Logger != nil {
		g.opts.Logger.Warn(msg, kv...)
	}
}
