package rotation

import "time"

// Clock abstracts the current time so that expiration arithmetic and the
// in-memory secret store's CreatedOn/UpdatedOn stamps are deterministic in
// tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock, backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock is a test double that always returns the same instant.
type FixedClock struct {
	At time.Time
}

// Now returns the fixed instant this clock was constructed with.
func (f FixedClock) Now() time.Time { return f.At }
