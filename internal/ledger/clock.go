package ledger

import "time"

// Clock supplies the current time. It must not go backwards across calls.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
