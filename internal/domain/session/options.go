package session

import "time"

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides time.Now for UpdatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithOnChange registers a callback invoked after every successful transition.
// It runs under the tracker lock and must not call back into the tracker.
func WithOnChange(fn func(to State)) Option {
	return func(t *Tracker) {
		t.onChange = fn
	}
}
