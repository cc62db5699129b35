// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter hands out one token bucket per key. It is safe for concurrent use.
// Idle buckets are dropped by Sweep.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	burst   int
	now     func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New allows perMinute events per key with bursts up to burst. A
// non-positive perMinute disables limiting.
func New(perMinute float64, burst int) *Limiter {
	every := rate.Inf
	if perMinute > 0 {
		every = rate.Limit(perMinute / 60)
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		every:   every,
		burst:   burst,
		now:     time.Now,
	}
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = l.now()
	return b.lim
}

// Allow reports whether one more event for key may happen now.
func (l *Limiter) Allow(key string) bool {
	if l == nil || l.every == rate.Inf {
		return true
	}
	return l.get(key).AllowN(l.now(), 1)
}

// Reset forgets key's bucket.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Sweep removes buckets not used for idle and returns how many were removed.
func (l *Limiter) Sweep(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-idle)
	n := 0
	for k, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, k)
			n++
		}
	}
	return n
}

// Len is the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// LoginLimiter tracks attempts both per client IP and per username.
type LoginLimiter struct {
	ip      *Limiter
	user    *Limiter
	proxies *TrustedProxies
}

// NewLoginLimiter allows 10 attempts per IP per minute and 5 per username
// per 5 minutes. proxies may be nil.
func NewLoginLimiter(proxies *TrustedProxies) *LoginLimiter {
	return &LoginLimiter{ip: New(10, 10), user: New(1, 5), proxies: proxies}
}

// Check returns false with a user-facing reason when the attempt is blocked.
func (ll *LoginLimiter) Check(r *http.Request, username string) (bool, string) {
	if !ll.ip.Allow(ll.proxies.ClientIP(r)) {
		return false, "Too many login attempts. Please wait a minute before trying again."
	}
	if key := strings.ToLower(strings.TrimSpace(username)); key != "" {
		if !ll.user.Allow(key) {
			return false, "Too many login attempts for this account. Please wait a few minutes."
		}
	}
	return true, ""
}

// ResetUser clears the username bucket after a successful login.
func (ll *LoginLimiter) ResetUser(username string) {
	if key := strings.ToLower(strings.TrimSpace(username)); key != "" {
		ll.user.Reset(key)
	}
}

// Sweep drops idle buckets from both limiters.
func (ll *LoginLimiter) Sweep(idle time.Duration) int {
	return ll.ip.Sweep(idle) + ll.user.Sweep(idle)
}
