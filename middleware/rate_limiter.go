package middleware

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/duwit-online/engageloop-sub001/utils"
)

// In-memory sliding-window rate limiting, per IP or per authenticated user.
// Intentionally simple; can be swapped for Redis without changing callers.

func trustedProxies() []string {
	raw := os.Getenv("TRUSTED_PROXIES")
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isTrustedProxy(ip string, trusted []string) bool {
	parsed := net.ParseIP(ip)
	for _, t := range trusted {
		if strings.Contains(t, "/") {
			if _, cidr, err := net.ParseCIDR(t); err == nil && parsed != nil && cidr.Contains(parsed) {
				return true
			}
		} else if t == ip {
			return true
		}
	}
	return false
}

// clientIPGeneric returns the caller's IP, honouring X-Forwarded-For only
// when the direct peer is a trusted proxy.
func clientIPGeneric(r *http.Request, trusted []string) string {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" && isTrustedProxy(ip, trusted) {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	return ip
}

type window struct {
	mu     sync.Mutex
	hits   map[string][]int64 // key -> unix nanos inside the window
	max    int
	length time.Duration
}

func newWindow(max int, length time.Duration) *window {
	return &window{hits: make(map[string][]int64), max: max, length: length}
}

// allow prunes expired hits and admits the call if the window has room.
func (w *window) allow(key string) bool {
	now := time.Now().UnixNano()
	cutoff := now - w.length.Nanoseconds()

	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.hits[key][:0]
	for _, ts := range w.hits[key] {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= w.max {
		w.hits[key] = kept
		return false
	}
	w.hits[key] = append(kept, now)
	return true
}

// IPRateLimiter limits requests per client IP.
type IPRateLimiter struct {
	win     *window
	trusted []string
}

func NewIPRateLimiter(maxReq int, windowLen time.Duration) *IPRateLimiter {
	return &IPRateLimiter{win: newWindow(maxReq, windowLen), trusted: trustedProxies()}
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.win.allow(clientIPGeneric(r, l.trusted)) {
			utils.WriteError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserRateLimiter limits per authenticated user, with separate budgets for
// reads and writes; unauthenticated calls fall back to the client IP.
type UserRateLimiter struct {
	reads   *window
	writes  *window
	trusted []string
}

func NewUserRateLimiter(maxRead, maxWrite int, windowSec int) *UserRateLimiter {
	length := time.Duration(windowSec) * time.Second
	return &UserRateLimiter{
		reads:   newWindow(maxRead, length),
		writes:  newWindow(maxWrite, length),
		trusted: trustedProxies(),
	}
}

func (l *UserRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIPGeneric(r, l.trusted)
		if uid, ok := utils.GetUserID(r); ok && uid != 0 {
			key = "u:" + strconv.FormatUint(uint64(uid), 10)
		}
		win := l.reads
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			win = l.writes
		}
		if !win.allow(key) {
			utils.WriteError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
