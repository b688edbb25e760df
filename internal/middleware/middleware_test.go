package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"jobmate/offer-service/internal/middleware"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func request(user, remote string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/offers", nil)
	if user != "" {
		r.Header.Set("x-user-id", user)
	}
	r.RemoteAddr = remote
	return r
}

// ── Rate limiting ──────────────────────────────────────────────────────────

func TestRateLimiter_PerUserBuckets(t *testing.T) {
	rl := middleware.NewRateLimiter(0.001, 2, nil, nil)
	defer rl.Close()
	h := rl.Middleware(ok)

	codes := func(user string) []int {
		var out []int
		for i := 0; i < 3; i++ {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, request(user, "10.0.0.1:1234"))
			out = append(out, rec.Code)
		}
		return out
	}

	got := codes("alice")
	if got[0] != http.StatusOK || got[1] != http.StatusOK || got[2] != http.StatusTooManyRequests {
		t.Errorf("alice codes = %v, want [200 200 429]", got)
	}
	if got := codes("bob"); got[0] != http.StatusOK {
		t.Errorf("bob shares alice's bucket: %v", got)
	}
}

func TestRateLimiter_FallsBackToIP(t *testing.T) {
	rl := middleware.NewRateLimiter(0.001, 1, nil, nil)
	defer rl.Close()

	if !rl.Allow("ip:1.2.3.4") {
		t.Fatal("first request should pass")
	}
	rec := httptest.NewRecorder()
	r := request("", "9.9.9.9:80")
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	rl.Middleware(ok).ServeHTTP(rec, r)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429 for forwarded IP", rec.Code)
	}
	rl.Close()
}

// ── Access log ─────────────────────────────────────────────────────────────

func TestAccessLog_AssignsRequestID(t *testing.T) {
	var seen string
	h := middleware.AccessLog(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request("u1", "10.0.0.1:1"))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
	if _, err := uuid.Parse(seen); err != nil || rec.Header().Get(middleware.RequestIDHeader) != seen {
		t.Errorf("request id %q not propagated (header %q)", seen, rec.Header().Get(middleware.RequestIDHeader))
	}

	given := uuid.NewString()
	r := request("u1", "10.0.0.1:1")
	r.Header.Set(middleware.RequestIDHeader, given)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if seen != given {
		t.Errorf("request id = %q, want caller's %q", seen, given)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	middleware.Chain(ok, mw("outer"), mw("inner")).ServeHTTP(httptest.NewRecorder(), request("", "1.1.1.1:1"))
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("order = %v", order)
	}
}
