// Package session provides the idle reaper that expires inactive sessions.
package session

import (
	"log/slog"
	"time"

	"github.com/carebridge/healthmate/internal/models"
	"github.com/robfig/cron/v3"
)

// Reaper configuration defaults.
const (
	// DefaultIdleThreshold is how long a session may stay inactive before
	// it is destroyed.
	DefaultIdleThreshold = 24 * time.Hour
	// DefaultSweepSchedule runs the sweep at the top of every hour.
	DefaultSweepSchedule = "0 * * * *"
)

// Reaper periodically destroys sessions whose last activity is older than
// the idle threshold. Destruction also cancels any pending reminder via the
// injected cancel callback.
type Reaper struct {
	sessions       Store
	cancelReminder func(identity string)
	threshold      time.Duration
	schedule       string
	now            func() time.Time
	cron           *cron.Cron
}

// ReaperOption configures a Reaper.
type ReaperOption func(*Reaper)

// WithIdleThreshold overrides the inactivity threshold.
func WithIdleThreshold(d time.Duration) ReaperOption {
	return func(r *Reaper) { r.threshold = d }
}

// WithSweepSchedule overrides the cron expression driving the sweep.
func WithSweepSchedule(expr string) ReaperOption {
	return func(r *Reaper) { r.schedule = expr }
}

// WithClock overrides the time source (for tests).
func WithClock(now func() time.Time) ReaperOption {
	return func(r *Reaper) { r.now = now }
}

// NewReaper creates a Reaper over the given session store. cancelReminder is
// invoked for every destroyed session and may be nil.
func NewReaper(sessions Store, cancelReminder func(identity string), opts ...ReaperOption) *Reaper {
	r := &Reaper{
		sessions:       sessions,
		cancelReminder: cancelReminder,
		threshold:      DefaultIdleThreshold,
		schedule:       DefaultSweepSchedule,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins the periodic sweep using a standard 5-field cron schedule.
func (r *Reaper) Start() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := c.AddFunc(r.schedule, func() { r.Sweep() }); err != nil {
		return err
	}
	c.Start()
	r.cron = c
	slog.Info("Idle reaper started", "schedule", r.schedule, "threshold", r.threshold)
	return nil
}

// Stop stops the periodic sweep.
func (r *Reaper) Stop() {
	if r.cron != nil {
		r.cron.Stop()
		slog.Info("Idle reaper stopped")
	}
}

// Sweep destroys every session idle for strictly longer than the threshold.
// A session whose inactivity equals the threshold exactly is retained; it is
// collected by a later sweep. Returns the number of destroyed sessions.
func (r *Reaper) Sweep() int {
	now := r.now()
	swept := 0

	for _, identity := range r.sessions.Identities() {
		expired := false
		r.sessions.Update(identity, func(s *models.Session) {
			if now.Sub(s.LastActivity) > r.threshold {
				expired = true
				s.ClearFlow()
				s.Flags = nil
			}
		})
		if expired {
			if r.cancelReminder != nil {
				r.cancelReminder(identity)
			}
			swept++
			slog.Info("Idle session expired", "identity", identity)
		}
	}

	slog.Debug("Idle reaper sweep finished", "swept", swept)
	return swept
}
