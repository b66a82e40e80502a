package guard

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/moodring/internal/identity"
	"github.com/desertthunder/moodring/internal/linking"
	"github.com/desertthunder/moodring/internal/models"
	"github.com/desertthunder/moodring/internal/repositories"
	"github.com/desertthunder/moodring/internal/services"
	"github.com/desertthunder/moodring/internal/shared"
)

type effects struct {
	denied  atomic.Int32
	granted atomic.Int32
	mu      sync.Mutex
	ids     []string
}

func (e *effects) options() Options {
	return Options{
		OnDenied: func() { e.denied.Add(1) },
		OnGranted: func(_ context.Context, userID string) {
			e.granted.Add(1)
			e.mu.Lock()
			e.ids = append(e.ids, userID)
			e.mu.Unlock()
		},
		Logger: shared.NewLogger(io.Discard),
	}
}

func (e *effects) grantedIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.ids...)
}

// gatedSource blocks lookups for a user until its gate is closed.
type gatedSource struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	creds map[string]*models.LinkedCredential
	err   error
	calls []string
}

func newGatedSource() *gatedSource {
	return &gatedSource{gates: map[string]chan struct{}{}, creds: map[string]*models.LinkedCredential{}}
}

func (s *gatedSource) gate(userID string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.gates[userID] = ch
	return ch
}

func (s *gatedSource) GetLinkedCredential(_ context.Context, userID string) (*models.LinkedCredential, error) {
	s.mu.Lock()
	s.calls = append(s.calls, userID)
	gate := s.gates[userID]
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds[userID], s.err
}

func (s *gatedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func controllerWithStore(t *testing.T) (*linking.Controller, *repositories.MemoryCredentialStore) {
	t.Helper()
	store := repositories.NewMemoryCredentialStore()
	auth := services.NewAuthService("http://auth.test", nil)
	return linking.NewController(store, auth, shared.NewLogger(io.Discard)), store
}

func waitSettled(t *testing.T, g *Guard) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	state, err := g.Wait(ctx)
	require.NoError(t, err)
	return state
}

func TestGuardNoUser(t *testing.T) {
	src := newGatedSource()
	fx := &effects{}
	g := New(src, fx.options())

	g.Start(context.Background(), identity.NewClient())
	defer g.Stop()

	assert.Equal(t, Denied, waitSettled(t, g))
	assert.Equal(t, int32(1), fx.denied.Load())
	assert.Equal(t, int32(0), fx.granted.Load())
	assert.Equal(t, 0, src.callCount(), "no credential check without a user")
}

func TestGuardSignedInWithoutCredential(t *testing.T) {
	ctrl, _ := controllerWithStore(t)
	fx := &effects{}
	client := identity.NewClient()
	client.SetUser(models.Identity{ID: "u1"}, "tok")

	g := New(ctrl, fx.options())
	g.Start(context.Background(), client)
	defer g.Stop()

	assert.Equal(t, Denied, waitSettled(t, g))
	assert.Equal(t, int32(1), fx.denied.Load(), "redirect fires exactly once")
	assert.Equal(t, int32(0), fx.granted.Load())
}

func TestGuardSignedInWithValidCredential(t *testing.T) {
	ctrl, store := controllerWithStore(t)
	now := time.Now()
	require.NoError(t, store.Save(context.Background(), models.NewLinkedCredential("u1", "spotify-1", "access", "refresh", 1800, now)))

	fx := &effects{}
	client := identity.NewClient()
	client.SetUser(models.Identity{ID: "u1"}, "tok")

	g := New(ctrl, fx.options())
	g.Start(context.Background(), client)
	defer g.Stop()

	assert.Equal(t, Granted, waitSettled(t, g))
	assert.Equal(t, int32(1), fx.granted.Load(), "dependent fetch fires exactly once")
	assert.Equal(t, []string{"u1"}, fx.grantedIDs())
	assert.Equal(t, int32(0), fx.denied.Load())
	assert.Equal(t, "u1", g.UserID())
}

func TestGuardExpiredCredential(t *testing.T) {
	ctrl, store := controllerWithStore(t)
	written := time.Now().Add(-2 * time.Hour)
	require.NoError(t, store.Save(context.Background(), models.NewLinkedCredential("u1", "spotify-1", "access", "refresh", 3600, written)))

	fx := &effects{}
	client := identity.NewClient()
	client.SetUser(models.Identity{ID: "u1"}, "tok")

	g := New(ctrl, fx.options())
	g.Start(context.Background(), client)
	defer g.Stop()

	assert.Equal(t, Denied, waitSettled(t, g))
	assert.Equal(t, int32(1), fx.denied.Load())
}

func TestGuardStoreFailureFailsClosed(t *testing.T) {
	src := newGatedSource()
	src.err = shared.ErrStoreUnavailable
	src.creds["u1"] = &models.LinkedCredential{OwnerID: "u1", AccessToken: "a", ExpiresAt: time.Now().Add(time.Hour)}

	fx := &effects{}
	client := identity.NewClient()
	client.SetUser(models.Identity{ID: "u1"}, "tok")

	g := New(src, fx.options())
	g.Start(context.Background(), client)
	defer g.Stop()

	assert.Equal(t, Denied, waitSettled(t, g))
	assert.Equal(t, int32(0), fx.granted.Load())
}

func TestGuardLastCallbackWins(t *testing.T) {
	src := newGatedSource()
	src.creds["u2"] = &models.LinkedCredential{OwnerID: "u2", AccessToken: "a", ExpiresAt: time.Now().Add(time.Hour)}
	slow := src.gate("u1")

	fx := &effects{}
	client := identity.NewClient()
	client.SetUser(models.Identity{ID: "u1"}, "tok")

	g := New(src, fx.options())
	g.Start(context.Background(), client)
	defer g.Stop()

	require.Eventually(t, func() bool { return src.callCount() == 1 }, time.Second, time.Millisecond)

	// sign out then sign in as someone else while u1's lookup is still pending
	require.NoError(t, client.SignOut(context.Background()))
	client.SetUser(models.Identity{ID: "u2"}, "tok2")

	assert.Equal(t, Granted, waitSettled(t, g))
	assert.Equal(t, "u2", g.UserID())
	assert.Equal(t, uint64(3), g.Generation())

	close(slow)

	assert.Never(t, func() bool { return g.State() != Granted }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, []string{"u2"}, fx.grantedIDs())
	// the sign-out generation settled denied before u2 arrived
	assert.Equal(t, int32(1), fx.denied.Load())
}

func TestGuardStopPreventsEffects(t *testing.T) {
	src := newGatedSource()
	src.creds["u1"] = &models.LinkedCredential{OwnerID: "u1", AccessToken: "a", ExpiresAt: time.Now().Add(time.Hour)}
	gate := src.gate("u1")

	fx := &effects{}
	client := identity.NewClient()
	client.SetUser(models.Identity{ID: "u1"}, "tok")

	g := New(src, fx.options())
	g.Start(context.Background(), client)
	require.Eventually(t, func() bool { return src.callCount() == 1 }, time.Second, time.Millisecond)

	g.Stop()
	g.Stop()
	close(gate)

	assert.Never(t, func() bool { return fx.granted.Load() > 0 || fx.denied.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, 0, client.Listeners(), "stop unsubscribes")

	_, err := g.Wait(context.Background())
	assert.ErrorIs(t, err, ErrStopped)

	client.SetUser(models.Identity{ID: "u9"}, "tok")
	assert.Equal(t, int32(0), fx.granted.Load()+fx.denied.Load())
}

func TestGuardWaitHonorsContext(t *testing.T) {
	src := newGatedSource()
	gate := src.gate("u1")
	defer close(gate)

	client := identity.NewClient()
	client.SetUser(models.Identity{ID: "u1"}, "tok")

	g := New(src, Options{})
	g.Start(context.Background(), client)
	defer g.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	state, err := g.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Checking, state)
	assert.Equal(t, Checking, g.State())
}

func TestGuardReevaluatesOnSignOut(t *testing.T) {
	src := newGatedSource()
	src.creds["u1"] = &models.LinkedCredential{OwnerID: "u1", AccessToken: "a", ExpiresAt: time.Now().Add(time.Hour)}

	fx := &effects{}
	client := identity.NewClient()
	client.SetUser(models.Identity{ID: "u1"}, "tok")

	g := New(src, fx.options())
	g.Start(context.Background(), client)
	defer g.Stop()

	require.Equal(t, Granted, waitSettled(t, g))

	require.NoError(t, client.SignOut(context.Background()))
	assert.Equal(t, Denied, waitSettled(t, g))
	assert.Equal(t, int32(1), fx.denied.Load())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "checking", Checking.String())
	assert.Equal(t, "denied", Denied.String())
	assert.Equal(t, "granted", Granted.String())
}
