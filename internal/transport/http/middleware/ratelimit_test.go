package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"nomina/internal/domain/auth"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)}
}

var accepted = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func request(method, path string, user int64, ip string) *http.Request {
	r := httptest.NewRequest(method, path, strings.NewReader("{}"))
	r.RemoteAddr = ip + ":5100"
	if user != 0 {
		r = r.WithContext(WithUser(context.Background(), auth.UserContext{UserID: user, Role: auth.RoleCapturista}))
	}
	return r
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestWindowTake(t *testing.T) {
	clock := newClock()
	win := NewWindow(2, time.Minute, clock.now)

	q := win.Take("user:1")
	assert.True(t, q.Allowed)
	assert.Equal(t, 1, q.Remaining)
	assert.Equal(t, time.Minute, q.Reset)

	clock.advance(20 * time.Second)
	assert.True(t, win.Take("user:1").Allowed)
	q = win.Take("user:1")
	assert.False(t, q.Allowed)
	assert.Equal(t, 0, q.Remaining)
	assert.Equal(t, 40*time.Second, q.Reset)
	assert.True(t, win.Take("user:2").Allowed)

	clock.advance(40 * time.Second)
	q = win.Take("user:1")
	assert.True(t, q.Allowed)
	assert.Equal(t, 1, q.Remaining)
}

func TestWindowEvictsExpiredKeys(t *testing.T) {
	clock := newClock()
	win := NewWindow(1, time.Minute, clock.now)
	win.capacity = 2
	win.Take("ip:10.0.0.1")
	win.Take("ip:10.0.0.2")

	clock.advance(time.Minute)
	win.Take("ip:10.0.0.3")
	assert.Len(t, win.buckets, 1)
}

func TestWindowWithoutLimit(t *testing.T) {
	win := NewWindow(0, time.Minute, nil)
	for i := 0; i < 5; i++ {
		assert.True(t, win.Take("ip:10.0.0.1").Allowed)
	}
}

func TestWriteScope(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/api/v1/empleados", ""},
		{http.MethodPost, "/api/v1/empleados", "empleados"},
		{http.MethodPut, "/api/v1/empleados/4", "empleados"},
		{http.MethodPost, "/api/v1/empleados/4/toggle", "empleados"},
		{http.MethodPost, "/api/v1/actividades", "actividades"},
		{http.MethodPut, "/api/v1/cuadrillas/2", "cuadrillas"},
		{http.MethodPut, "/api/v1/cuadrillas/2/empleados/7", ScopeCrewMembers},
		{http.MethodDelete, "/api/v1/cuadrillas/2/empleados/7", ScopeCrewMembers},
		{http.MethodGet, "/api/v1/cuadrillas/2/organizador", ""},
		{http.MethodPost, "/api/v1/periodos", "periodos"},
		{http.MethodPost, "/api/v1/periodos/3/activar", ScopePeriodActivation},
		{http.MethodPost, "/api/v1/periodos/3/desactivar", ScopePeriodActivation},
		{http.MethodPost, "/api/v1/periodos/3/toggle", ScopePeriodActivation},
		{http.MethodGet, "/api/v1/periodos/preview", ""},
		{http.MethodPost, "/api/v1/auth/login", ""},
		{http.MethodPost, "/", ""},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, WriteScope(httptest.NewRequest(tc.method, tc.path, nil)))
		})
	}
}

func TestCatalogWriteLimitPerUserAndScope(t *testing.T) {
	h := CatalogWriteLimit(2, 1, time.Minute, WithClock(newClock().now))(accepted)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusNoContent, serve(h, request(http.MethodPost, "/api/v1/empleados", 7, "10.1.1.1")).Code)
	}
	w := serve(h, request(http.MethodPut, "/api/v1/empleados/3", 7, "10.1.1.2"))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rate_limited", body.Error.Code)
	assert.Equal(t, "empleados", body.Error.Details["scope"])

	assert.Equal(t, http.StatusNoContent, serve(h, request(http.MethodPost, "/api/v1/cuadrillas", 7, "10.1.1.1")).Code)
	assert.Equal(t, http.StatusNoContent, serve(h, request(http.MethodPut, "/api/v1/cuadrillas/1/empleados/3", 7, "10.1.1.1")).Code)
	assert.Equal(t, http.StatusNoContent, serve(h, request(http.MethodPost, "/api/v1/empleados", 8, "10.1.1.1")).Code)
	assert.Equal(t, http.StatusNoContent, serve(h, request(http.MethodGet, "/api/v1/empleados", 7, "10.1.1.1")).Code)
}

func TestCatalogWriteLimitActivationBudget(t *testing.T) {
	clock := newClock()
	core, logs := observer.New(zap.WarnLevel)
	h := CatalogWriteLimit(10, 1, time.Minute, WithClock(clock.now), WithLimitLogger(zap.New(core)))(accepted)

	assert.Equal(t, http.StatusNoContent, serve(h, request(http.MethodPost, "/api/v1/periodos/1/activar", 2, "10.2.0.1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, request(http.MethodPost, "/api/v1/periodos/2/toggle", 2, "10.2.0.1")).Code)
	assert.Equal(t, http.StatusNoContent, serve(h, request(http.MethodPost, "/api/v1/periodos", 2, "10.2.0.1")).Code)

	entries := logs.FilterMessage("rate limit exceeded").All()
	require.Len(t, entries, 1)
	assert.Equal(t, ScopePeriodActivation, entries[0].ContextMap()["scope"])
	assert.Equal(t, "user:2|"+ScopePeriodActivation, entries[0].ContextMap()["key"])

	clock.advance(time.Minute)
	assert.Equal(t, http.StatusNoContent, serve(h, request(http.MethodPost, "/api/v1/periodos/2/desactivar", 2, "10.2.0.1")).Code)
}

func TestRateLimitKeysByUserThenIP(t *testing.T) {
	h := RateLimit(1, time.Minute, WithClock(newClock().now))(accepted)

	assert.Equal(t, http.StatusNoContent, serve(h, request(http.MethodGet, "/api/v1/cuadrillas/activas", 4, "10.3.0.1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, request(http.MethodGet, "/api/v1/cuadrillas/activas", 4, "10.3.0.2")).Code)

	assert.Equal(t, http.StatusNoContent, serve(h, request(http.MethodGet, "/api/v1/periodos/activo", 0, "10.3.0.9")).Code)
	w := serve(h, request(http.MethodGet, "/api/v1/periodos/activo", 0, "10.3.0.9"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestLoginRateLimitByEmail(t *testing.T) {
	var seen []string
	h := LoginRateLimit(2, time.Minute, WithClock(newClock().now))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		seen = append(seen, string(raw))
		w.WriteHeader(http.StatusNoContent)
	}))

	login := func(email, ip string) int {
		body := `{"email":"` + email + `","password":"x"}`
		r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
		r.RemoteAddr = ip + ":443"
		return serve(h, r).Code
	}

	assert.Equal(t, http.StatusNoContent, login("ana@nomina.local", "10.4.0.1"))
	assert.Equal(t, http.StatusNoContent, login("Ana@Nomina.local ", "10.4.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, login("ANA@nomina.local", "10.4.0.3"))
	assert.Equal(t, http.StatusNoContent, login("beto@nomina.local", "10.4.0.3"))
	assert.Equal(t, http.StatusTooManyRequests, login("carla@nomina.local", "10.4.0.3"))

	require.Len(t, seen, 3)
	assert.Equal(t, `{"email":"ana@nomina.local","password":"x"}`, seen[0])
}
