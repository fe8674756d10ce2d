// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Limiter counts requests per key in fixed windows that start at the
// key's first request. It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int           // max requests per window
	duration time.Duration // window duration
	now      func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit requests per key per duration and
// starts its sweeper. Call Stop to end the sweeper.
func New(limit int, duration time.Duration) *Limiter {
	l := newLimiter(limit, duration, time.Now)
	go l.sweep(duration * 2)
	return l
}

func newLimiter(limit int, duration time.Duration, now func() time.Time) *Limiter {
	return &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      now,
		stop:     make(chan struct{}),
	}
}

// Allow records a request for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// RetryAfter returns how long until key's window resets. Zero when key is
// not currently limited.
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || w.count < l.limit {
		return 0
	}
	d := w.expiresAt.Sub(l.now())
	if d < 0 {
		return 0
	}
	return d
}

// Reset clears the window for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Stop ends the background sweeper.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// TrustedProxies lists the networks whose forwarding headers are believed.
// The zero value trusts nobody, so the peer address is always used.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies reads a comma-separated list of CIDRs or bare IPs.
func ParseTrustedProxies(csv string) (TrustedProxies, error) {
	var out TrustedProxies
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "/") {
			addr, err := netip.ParseAddr(part)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", part, err)
			}
			out = append(out, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}
		p, err := netip.ParsePrefix(part)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", part, err)
		}
		out = append(out, p.Masked())
	}
	return out, nil
}

func (tp TrustedProxies) contains(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range tp {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the client address for r.
//
// X-Forwarded-For and X-Real-IP are honoured only when the direct peer is a
// trusted proxy. X-Forwarded-For is walked right to left and the first hop
// that is not itself a trusted proxy wins.
func ClientIP(r *http.Request, trusted TrustedProxies) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if !trusted.contains(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for k := len(hops) - 1; k >= 0; k-- {
			hop := strings.TrimSpace(hops[k])
			if hop == "" {
				continue
			}
			if !trusted.contains(hop) {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

// AuthLimiter guards credential endpoints by client IP and by account email.
type AuthLimiter struct {
	ip      *Limiter
	email   *Limiter
	proxies TrustedProxies
}

// NewAuthLimiter uses 10 attempts per IP per minute and 5 per email per
// 5 minutes.
func NewAuthLimiter() *AuthLimiter {
	return NewAuthLimiterWithConfig(10, time.Minute, 5, 5*time.Minute)
}

// NewAuthLimiterWithConfig creates an AuthLimiter with custom limits.
func NewAuthLimiterWithConfig(ipLimit int, ipWindow time.Duration, emailLimit int, emailWindow time.Duration) *AuthLimiter {
	return &AuthLimiter{
		ip:    New(ipLimit, ipWindow),
		email: New(emailLimit, emailWindow),
	}
}

// TrustProxies makes Check read the client address from forwarding headers
// set by the given proxies. Call it before serving requests.
func (al *AuthLimiter) TrustProxies(tp TrustedProxies) {
	if al == nil {
		return
	}
	al.proxies = tp
}

// Check records an attempt and returns (allowed, reason, retryAfter).
// A nil AuthLimiter allows everything.
func (al *AuthLimiter) Check(r *http.Request, email string) (bool, string, time.Duration) {
	if al == nil {
		return true, "", 0
	}
	ip := ClientIP(r, al.proxies)
	if !al.ip.Allow(ip) {
		return false, "too many attempts, please wait a minute", al.ip.RetryAfter(ip)
	}
	if key := emailKey(email); key != "" {
		if !al.email.Allow(key) {
			return false, "too many attempts for this account, please wait a few minutes", al.email.RetryAfter(key)
		}
	}
	return true, "", 0
}

// ResetEmail clears the per-email window after a successful sign-in.
func (al *AuthLimiter) ResetEmail(email string) {
	if al == nil {
		return
	}
	if key := emailKey(email); key != "" {
		al.email.Reset(key)
	}
}

// Stop ends both sweepers.
func (al *AuthLimiter) Stop() {
	if al == nil {
		return
	}
	al.ip.Stop()
	al.email.Stop()
}

// RetryAfterHeader formats d as whole seconds for a Retry-After header,
// rounding up and never below 1.
func RetryAfterHeader(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
