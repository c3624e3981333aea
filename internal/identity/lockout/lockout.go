// Package lockout throttles repeated failed logins. Failures are counted
// per username and client IP; crossing the threshold locks the pair out
// for a fixed duration.
package lockout

import (
	"context"
	"log/slog"
	"strings"
	"time"

	dErrors "impact/pkg/domain-errors"
	"impact/pkg/requestcontext"
)

// Store tracks failure counts and locks. Implementations are pure I/O;
// the thresholds live in the Guard.
type Store interface {
	// LockedUntil reports the lock expiry for a key, or nil when the key
	// is not locked at the given time.
	LockedUntil(ctx context.Context, key string, now time.Time) (*time.Time, error)
	// AddFailure counts a failed attempt and returns the running total.
	// The count restarts once the window since the first counted failure
	// has lapsed.
	AddFailure(ctx context.Context, key string, now time.Time, window time.Duration) (int, error)
	// Lock blocks the key until the given time and resets its count.
	Lock(ctx context.Context, key string, until time.Time) error
	// Clear removes the failure count and any lock for the key.
	Clear(ctx context.Context, key string) error
}

// Config carries the lockout thresholds.
type Config struct {
	MaxFailures  int
	Window       time.Duration
	LockDuration time.Duration
}

// DefaultConfig allows five attempts per fifteen minutes before a
// fifteen minute lock.
func DefaultConfig() Config {
	return Config{
		MaxFailures:  5,
		Window:       15 * time.Minute,
		LockDuration: 15 * time.Minute,
	}
}

// Guard enforces the lockout policy. A nil Guard disables it.
type Guard struct {
	store  Store
	cfg    Config
	logger *slog.Logger
}

type Option func(*Guard)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

func New(store Store, cfg Config, opts ...Option) *Guard {
	g := &Guard{
		store:  store,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check rejects the attempt with a throttled error while the caller is
// locked out.
func (g *Guard) Check(ctx context.Context, username string) error {
	if g == nil {
		return nil
	}
	now := requestcontext.Now(ctx)
	until, err := g.store.LockedUntil(ctx, g.key(ctx, username), now)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check login lockout")
	}
	if until == nil {
		return nil
	}
	remaining := int(until.Sub(now) / time.Second)
	if remaining < 1 {
		remaining = 1
	}
	return dErrors.Throttled(remaining, "too many failed login attempts")
}

// NoteFailure records a failed attempt and applies the lock once the
// threshold is reached.
func (g *Guard) NoteFailure(ctx context.Context, username string) error {
	if g == nil {
		return nil
	}
	key := g.key(ctx, username)
	now := requestcontext.Now(ctx)
	count, err := g.store.AddFailure(ctx, key, now, g.cfg.Window)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login failure")
	}
	if count < g.cfg.MaxFailures {
		return nil
	}
	until := now.Add(g.cfg.LockDuration)
	if err := g.store.Lock(ctx, key, until); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply login lockout")
	}
	g.logger.WarnContext(ctx, "login lockout applied",
		"username", username,
		"failures", count,
		"locked_until", until,
	)
	return nil
}

// Reset clears the failure history after a successful login.
func (g *Guard) Reset(ctx context.Context, username string) error {
	if g == nil {
		return nil
	}
	if err := g.store.Clear(ctx, g.key(ctx, username)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear login failures")
	}
	return nil
}

func (g *Guard) key(ctx context.Context, username string) string {
	return strings.ToLower(strings.TrimSpace(username)) + "|" + requestcontext.ClientIP(ctx)
}
