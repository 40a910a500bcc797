package transport

import (
	"net"
	"sync"

	"golang.org/x/time/rate"
)

// AcceptLimiter throttles inbound stream connections per remote address.
// The ring's churn-repair protocol is entirely best-effort and
// self-healing, so nothing above the transport needs to retry — but
// nothing stops a misbehaving or compromised peer from opening
// connections faster than the ~1s accept loop can usefully drain, each
// one consuming a goroutine. AcceptLimiter caps that per source.
type AcceptLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	r        rate.Limit
	burst    int
}

// NewAcceptLimiter creates a limiter allowing r connections/sec, with at
// most burst connections accepted back-to-back, per distinct remote IP.
func NewAcceptLimiter(r rate.Limit, burst int) *AcceptLimiter {
	return &AcceptLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        r,
		burst:    burst,
	}
}

// Allow reports whether a new connection from addr should be accepted.
func (a *AcceptLimiter) Allow(addr net.Addr) bool {
	host := hostOf(addr)

	a.mu.Lock()
	lim, ok := a.limiters[host]
	if !ok {
		lim = rate.NewLimiter(a.r, a.burst)
		a.limiters[host] = lim
	}
	a.mu.Unlock()

	return lim.Allow()
}

func hostOf(addr net.Addr) string {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.IP.String()
	}
	return addr.String()
}
