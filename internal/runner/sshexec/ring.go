package sshexec

import "sync"

// boundedRing captures at most limit bytes, keeping only the tail once
// exceeded and marking Truncated so callers can prefix a marker (spec §4.3
// — "records the tail only, with a truncation marker at the head").
type boundedRing struct {
	mu        sync.Mutex
	limit     int
	buf       []byte
	truncated bool
}

func newBoundedRing(limit int) *boundedRing {
	return &boundedRing{limit: limit}
}

func (r *boundedRing) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = append(r.buf, p...)
	if len(r.buf) > r.limit {
		overflow := len(r.buf) - r.limit
		r.buf = r.buf[overflow:]
		r.truncated = true
	}
	return len(p), nil
}

// Summary returns the captured tail, prefixed with a truncation marker if
// the ring ever overflowed.
func (r *boundedRing) Summary() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.truncated {
		return string(r.buf), false
	}
	return "...[truncated]...\n" + string(r.buf), true
}
