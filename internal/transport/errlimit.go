package transport

import (
	"sync"
	"time"
)

// Error noise control: identical errors inside the coalesce window are
// merged, and a fingerprint map suppresses repeats for a longer span.
const (
	coalesceWindow   = 5 * time.Second
	suppressWindow   = 5 * time.Minute
	errorHistoryKeep = 10
)

// errLimiter decides whether a connection-layer error is worth reporting.
type errLimiter struct {
	mu   sync.Mutex
	seen map[string]time.Time
	last string
	at   time.Time

	now func() time.Time
}

func newErrLimiter() *errLimiter {
	return &errLimiter{
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

// allow reports whether an error with the given fingerprint should reach
// observers. The history map keeps at most errorHistoryKeep fingerprints;
// the oldest is evicted when a new one arrives.
func (l *errLimiter) allow(fingerprint string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if fingerprint == l.last && now.Sub(l.at) < coalesceWindow {
		return false
	}
	if at, ok := l.seen[fingerprint]; ok && now.Sub(at) < suppressWindow {
		return false
	}

	if len(l.seen) >= errorHistoryKeep {
		oldestKey := ""
		var oldestAt time.Time
		for k, at := range l.seen {
			if oldestKey == "" || at.Before(oldestAt) {
				oldestKey, oldestAt = k, at
			}
		}
		delete(l.seen, oldestKey)
	}

	l.seen[fingerprint] = now
	l.last = fingerprint
	l.at = now
	return true
}
