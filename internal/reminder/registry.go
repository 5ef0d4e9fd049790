// Package reminder associates at most one pending deferred callback per
// user identity.
//
// Instead of arming a runtime timer per reminder, the registry keeps an
// explicit map of scheduled events that a single polling loop drains. A
// cancelled entry is removed under the registry mutex before its action can
// be popped, so a stale reminder can never fire after Cancel, even when the
// loop is about to wake.
package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultPollInterval is how often the run loop checks for due reminders.
const DefaultPollInterval = time.Second

// Clock abstracts the time source so tests can drive FireDue directly.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type entry struct {
	fireAt time.Time
	action func()
}

// Registry holds at most one pending reminder per identity.
type Registry struct {
	mu           sync.Mutex
	pending      map[string]entry
	clock        Clock
	pollInterval time.Duration
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source (for tests).
func WithClock(c Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithPollInterval overrides how often the run loop polls.
func WithPollInterval(d time.Duration) Option {
	return func(r *Registry) { r.pollInterval = d }
}

// NewRegistry creates an empty reminder registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		pending:      make(map[string]entry),
		clock:        systemClock{},
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Schedule arms a reminder for identity after delay, replacing any pending
// reminder for the same identity.
func (r *Registry) Schedule(identity string, delay time.Duration, action func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fireAt := r.clock.Now().Add(delay)
	if _, exists := r.pending[identity]; exists {
		slog.Debug("Reminder replaced", "identity", identity, "fire_at", fireAt)
	} else {
		slog.Debug("Reminder scheduled", "identity", identity, "fire_at", fireAt)
	}
	r.pending[identity] = entry{fireAt: fireAt, action: action}
}

// Cancel removes any pending reminder for identity. It is idempotent.
func (r *Registry) Cancel(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pending[identity]; exists {
		delete(r.pending, identity)
		slog.Debug("Reminder cancelled", "identity", identity)
	}
}

// Pending reports whether a reminder is armed for identity.
func (r *Registry) Pending(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.pending[identity]
	return exists
}

// Len returns the number of armed reminders.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// FireDue pops every reminder due at now and runs its action. Actions run
// outside the registry mutex; a popped entry is already removed, so a
// concurrent Cancel cannot race with its execution. Returns the number of
// fired reminders.
func (r *Registry) FireDue(now time.Time) int {
	r.mu.Lock()
	var due []func()
	for identity, e := range r.pending {
		if !e.fireAt.After(now) {
			due = append(due, e.action)
			delete(r.pending, identity)
			slog.Debug("Reminder due", "identity", identity)
		}
	}
	r.mu.Unlock()

	for _, action := range due {
		action()
	}
	return len(due)
}

// Run polls for due reminders until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	slog.Info("Reminder registry loop started", "poll_interval", r.pollInterval)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.FireDue(r.clock.Now())
		case <-ctx.Done():
			slog.Info("Reminder registry loop stopped")
			return
		}
	}
}
