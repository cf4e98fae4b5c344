package tracking

import "time"

// Session records the lifetime of one tracking engagement. It is created
// when a detection first triggers tracking and discarded when tracking
// exits, either by reaching the tracking duration or by losing the target.
type Session struct {
	StartedAt  time.Time
	LastSeenAt time.Time
}

// NewSession opens a session at the moment of first detection.
func NewSession(now time.Time) *Session {
	return &Session{StartedAt: now, LastSeenAt: now}
}

// Seen records a confirmed detection.
func (s *Session) Seen(now time.Time) {
	s.LastSeenAt = now
}

// Elapsed is the total time the session has been open.
func (s *Session) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}

// SinceSeen is the time since the last confirmed detection.
func (s *Session) SinceSeen(now time.Time) time.Duration {
	return now.Sub(s.LastSeenAt)
}
