// Package ratelimit enforces a fixed-window request quota per caller key.
//
// Fixed-window means the counter resets at wall-clock boundaries, so up to
// 2x the nominal limit can pass inside a window-length interval straddling a
// reset. That burst tolerance is an accepted property of the design, not a
// defect; tests pin it.
package ratelimit

import (
	"context"
	"time"
)

// Result reports the outcome of a quota check.
type Result struct {
	OK        bool
	Remaining int
	ResetAt   time.Time
}

// Store is the quota table. The in-memory implementation serves a single
// process; the Postgres implementation shares one table across instances.
// Callers never touch the table directly, so the backend can be swapped
// without changing call sites.
type Store interface {
	// Check admits or rejects one request for key. On first observation of
	// key, or once the window has elapsed, the counter resets to 1 and the
	// request is admitted. A rejected request does not increment the counter.
	Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}
