package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"nomina/internal/transport/http/api"
)

// Scopes returned by WriteScope for routes with their own budget.
const (
	ScopeCrewMembers      = "cuadrillas:miembros"
	ScopePeriodActivation = "periodos:activacion"
)

const (
	defaultWindowCapacity = 10000
	maxLoginBody          = 16 << 10
)

var catalogs = map[string]bool{
	"empleados":   true,
	"actividades": true,
	"cuadrillas":  true,
	"periodos":    true,
}

// Quota is the state of one caller's window after a request was counted.
type Quota struct {
	Limit     int
	Remaining int
	Reset     time.Duration
	Allowed   bool
}

// Window counts requests per key in fixed windows.
type Window struct {
	limit    int
	length   time.Duration
	now      func() time.Time
	capacity int

	mu      sync.Mutex
	buckets map[string]windowBucket
}

type windowBucket struct {
	used  int
	start time.Time
}

func NewWindow(limit int, length time.Duration, now func() time.Time) *Window {
	if now == nil {
		now = time.Now
	}
	return &Window{
		limit:    limit,
		length:   length,
		now:      now,
		capacity: defaultWindowCapacity,
		buckets:  map[string]windowBucket{},
	}
}

// Take counts one request for key. A non-positive limit never rejects.
func (w *Window) Take(key string) Quota {
	if w.limit <= 0 {
		return Quota{Allowed: true}
	}
	now := w.now()

	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.buckets[key]
	if !ok || now.Sub(b.start) >= w.length {
		if !ok && len(w.buckets) >= w.capacity {
			w.evict(now)
		}
		b = windowBucket{start: now}
	}
	b.used++
	w.buckets[key] = b

	return Quota{
		Limit:     w.limit,
		Remaining: max(w.limit-b.used, 0),
		Reset:     b.start.Add(w.length).Sub(now),
		Allowed:   b.used <= w.limit,
	}
}

func (w *Window) evict(now time.Time) {
	for key, b := range w.buckets {
		if now.Sub(b.start) >= w.length {
			delete(w.buckets, key)
		}
	}
}

// LimitOption tunes the rate limiting middlewares.
type LimitOption func(*limitOptions)

type limitOptions struct {
	now func() time.Time
	log *zap.Logger
}

func WithClock(now func() time.Time) LimitOption {
	return func(o *limitOptions) { o.now = now }
}

func WithLimitLogger(log *zap.Logger) LimitOption {
	return func(o *limitOptions) { o.log = log }
}

func buildOptions(opts []LimitOption) limitOptions {
	o := limitOptions{now: time.Now, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	return o
}

// RateLimit is the general API budget, counted per signed-in user or per
// client IP for anonymous calls.
func RateLimit(limit int, length time.Duration, opts ...LimitOption) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	win := NewWindow(limit, length, o.now)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !admit(w, r, o.log, win, callerKey(r), "api") {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CatalogWriteLimit caps how many writes one caller makes to each catalog in
// a window. Period activation rewrites every period's flag, so it draws from
// a separate, smaller budget. Reads pass through untouched.
func CatalogWriteLimit(writes, activations int, length time.Duration, opts ...LimitOption) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	perScope := NewWindow(writes, length, o.now)
	activation := NewWindow(activations, length, o.now)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := WriteScope(r)
			win := perScope
			switch scope {
			case "":
				next.ServeHTTP(w, r)
				return
			case ScopePeriodActivation:
				win = activation
			}
			if !admit(w, r, o.log, win, callerKey(r)+"|"+scope, scope) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoginRateLimit throttles credential attempts per client IP and per
// submitted email, whichever runs out first.
func LoginRateLimit(limit int, length time.Duration, opts ...LimitOption) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	byIP := NewWindow(limit, length, o.now)
	byEmail := NewWindow(limit, length, o.now)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !admit(w, r, o.log, byIP, "ip:"+ClientIP(r), "login") {
				return
			}
			if email := peekEmail(r); email != "" {
				if !admit(w, r, o.log, byEmail, "email:"+email, "login") {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteScope names the catalog a mutating request targets under /api/v1,
// or "" for reads and for routes outside the catalogs.
func WriteScope(r *http.Request) string {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return ""
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if !catalogs[parts[0]] {
		return ""
	}
	if len(parts) == 4 && parts[0] == "cuadrillas" && parts[2] == "empleados" {
		return ScopeCrewMembers
	}
	if len(parts) == 3 && parts[0] == "periodos" {
		switch parts[2] {
		case "activar", "desactivar", "toggle":
			return ScopePeriodActivation
		}
	}
	return parts[0]
}

func admit(w http.ResponseWriter, r *http.Request, log *zap.Logger, win *Window, key, scope string) bool {
	q := win.Take(key)
	if q.Limit == 0 {
		return true
	}
	reset := ceilSeconds(q.Reset)
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(q.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(q.Remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(reset))
	if q.Allowed {
		return true
	}

	retry := max(reset, 1)
	h.Set("Retry-After", strconv.Itoa(retry))
	reqID := GetRequestID(r.Context())
	log.Warn("rate limit exceeded",
		zap.String("scope", scope),
		zap.String("key", key),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("requestId", reqID),
	)
	api.FailWithDetails(w, http.StatusTooManyRequests, "rate_limited", "Demasiadas solicitudes, intenta más tarde",
		map[string]any{"scope": scope, "retryAfter": retry}, reqID)
	return false
}

func callerKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != 0 {
		return "user:" + strconv.FormatInt(user.UserID, 10)
	}
	return "ip:" + ClientIP(r)
}

// ClientIP prefers the first X-Forwarded-For hop over the socket address.
func ClientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

// peekEmail reads the login email and puts the body back for the handler.
func peekEmail(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxLoginBody))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))
	if err != nil {
		return ""
	}
	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(raw, &payload) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(payload.Email))
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
