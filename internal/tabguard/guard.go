// Package tabguard prevents a long-running mutation from being interrupted by
// a concurrent navigation change. Locks are scoped tokens rather than a bare
// global flag: every caller that locks holds a token whose release is
// structurally enforced by Preserve.
package tabguard

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/stride/internal/log"
)

// View identifies one navigable view of the application.
type View string

// Navigator exposes the active view. The presentation layer implements it;
// the guard never renders anything itself.
type Navigator interface {
	ActiveView() View
	SetActiveView(View)
}

// Guard gates navigation on a navigator. While any token is outstanding,
// Navigate requests are silently ignored: not queued, not errors.
type Guard struct {
	mu     sync.Mutex
	nav    Navigator
	holds  map[string]struct{}
	logger *log.Logger
}

// New creates a guard over the given navigator.
func New(nav Navigator, logger *log.Logger) *Guard {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Guard{
		nav:    nav,
		holds:  make(map[string]struct{}),
		logger: logger.With("component", "tabguard"),
	}
}

// Token is one scoped lock acquisition. Unlock is idempotent.
type Token struct {
	guard *Guard
	id    string
	once  sync.Once
}

// Lock acquires the guard and returns the releasing token. Locks stack:
// navigation stays gated until every outstanding token is released.
func (g *Guard) Lock() *Token {
	id := uuid.NewString()
	g.mu.Lock()
	g.holds[id] = struct{}{}
	g.mu.Unlock()
	return &Token{guard: g, id: id}
}

// Unlock releases the token. Safe to call more than once.
func (t *Token) Unlock() {
	t.once.Do(func() {
		t.guard.mu.Lock()
		delete(t.guard.holds, t.id)
		t.guard.mu.Unlock()
	})
}

// Locked reports whether any token is outstanding.
func (g *Guard) Locked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.holds) > 0
}

// Navigate changes the active view unless the guard is locked. It returns
// whether the navigation was applied.
func (g *Guard) Navigate(view View) bool {
	g.mu.Lock()
	locked := len(g.holds) > 0
	g.mu.Unlock()

	if locked {
		g.logger.Debug("navigation ignored while locked", "view", string(view))
		return false
	}
	g.nav.SetActiveView(view)
	return true
}

// Preserve snapshots the active view, locks, awaits fn, restores the view if
// it drifted during the await, and unlocks. A multi-step mutation wrapped
// here cannot leave the application showing an inconsistent view, even when
// fn itself navigates or fails.
func Preserve[T any](ctx context.Context, g *Guard, fn func(context.Context) (T, error)) (T, error) {
	snapshot := g.nav.ActiveView()
	token := g.Lock()
	defer token.Unlock()

	result, err := fn(ctx)

	if current := g.nav.ActiveView(); current != snapshot {
		g.logger.Debug("restoring view after guarded operation",
			"from", string(current), "to", string(snapshot))
		g.nav.SetActiveView(snapshot)
	}

	return result, err
}
