package daraja

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Outbound call budgets per business short code. Daraja enforces its own
// throttling on the sandbox and production hosts; this limiter keeps a
// single misbehaving landlord from exhausting that shared budget for
// every other landlord on the platform.
const (
	defaultOutboundRatePerMinute = 60
	defaultOutboundBurst         = 5
	limiterCleanupInterval       = 5 * time.Minute
	limiterTTL                   = 10 * time.Minute
)

// outboundLimiter rate-limits outbound Daraja calls per business short
// code, keeping one x/time/rate limiter per short code in a map that a
// background loop prunes after limiterTTL of inactivity.
type outboundLimiter struct {
	mu       sync.Mutex
	entries  map[string]*limiterEntry
	stopCh   chan struct{}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newOutboundLimiter() *outboundLimiter {
	l := &outboundLimiter{
		entries: make(map[string]*limiterEntry),
		stopCh:  make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// allow reports whether a call for shortCode may proceed now.
func (l *outboundLimiter) allow(shortCode string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[shortCode]
	if !ok {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(float64(defaultOutboundRatePerMinute)/60.0), defaultOutboundBurst),
		}
		l.entries[shortCode] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

func (l *outboundLimiter) cleanup() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for code, entry := range l.entries {
				if now.Sub(entry.lastSeen) > limiterTTL {
					delete(l.entries, code)
				}
			}
			l.mu.Unlock()
		case <-l.stopCh:
			return
		}
	}
}

func (l *outboundLimiter) stop() {
	close(l.stopCh)
}
