package testutil

import (
	"os"
	"testing"
	"time"
)

// WithEnv sets env var to val for the duration of the test scope.
// Returns a cleanup func to restore previous value.
func WithEnv(t *testing.T, key, val string) func() {
	t.Helper()
	old, had := os.LookupEnv(key)
	if val == "" {
		_ = os.Unsetenv(key)
	} else {
		_ = os.Setenv(key, val)
	}
	return func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	}
}

// Clock is a settable time source for code that takes a func() time.Time.
type Clock struct {
	t time.Time
}

// FixedClock starts a Clock at t.
func FixedClock(t time.Time) *Clock { return &Clock{t: t} }

// Now returns the current clock time.
func (c *Clock) Now() time.Time { return c.t }

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) { c.t = c.t.Add(d) }
