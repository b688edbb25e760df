package app_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jobmate/offer-service/internal/app"
	"jobmate/offer-service/internal/config"
	"jobmate/offer-service/internal/logging"
	"jobmate/offer-service/internal/market"
	"jobmate/offer-service/internal/metrics"
	"jobmate/offer-service/internal/offer"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Port:     "0",
		GRPCPort: "0",
		Store:    config.StoreMemory,
		RateLimit: config.RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 0.001,
			Burst:             2,
		},
	}
}

func newRoutes(t *testing.T, cfg *config.Config) (*httptest.Server, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	svc := offer.NewService(offer.NewMemoryStore(), offer.Options{Metrics: m})
	h, release := app.Routes(svc, cfg, "test", logging.NewNop(), m)
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		srv.Close()
		release()
	})
	return srv, m
}

func get(t *testing.T, url, userID string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	if userID != "" {
		req.Header.Set("x-user-id", userID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// ── Routes ─────────────────────────────────────────────────────────────────

func TestRoutes_Health(t *testing.T) {
	srv, _ := newRoutes(t, memoryConfig())
	resp := get(t, srv.URL+"/health", "")
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusOK || body["service"] != app.ServiceName || body["version"] != "test" {
		t.Errorf("health = %d %v", resp.StatusCode, body)
	}
}

func TestRoutes_OffersRateLimitedAndMetered(t *testing.T) {
	srv, _ := newRoutes(t, memoryConfig())

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		if resp := get(t, srv.URL+"/offers", "u1"); resp.StatusCode != want {
			t.Errorf("request %d status = %d, want %d", i, resp.StatusCode, want)
		}
	}
	if resp := get(t, srv.URL+"/health", "u1"); resp.StatusCode != http.StatusOK {
		t.Errorf("health is rate limited: %d", resp.StatusCode)
	}

	resp := get(t, srv.URL+"/metrics", "")
	b, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"offer_service_http_requests_total", "offer_service_rate_limited_requests_total 1"} {
		if !strings.Contains(string(b), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestRoutes_RequestIDHeader(t *testing.T) {
	cfg := memoryConfig()
	cfg.RateLimit.Enabled = false
	srv, _ := newRoutes(t, cfg)
	if resp := get(t, srv.URL+"/offers", ""); resp.StatusCode != http.StatusUnauthorized || resp.Header.Get("X-Request-Id") == "" {
		t.Errorf("status = %d, request id %q", resp.StatusCode, resp.Header.Get("X-Request-Id"))
	}
}

// ── Builders ───────────────────────────────────────────────────────────────

func TestPrepGenerator_TemplateWithoutKey(t *testing.T) {
	gen, err := app.PrepGenerator(context.Background(), memoryConfig(), logging.NewNop(), nil)
	if err != nil {
		t.Fatalf("PrepGenerator: %v", err)
	}
	if gen.Name() != "template" {
		t.Errorf("generator = %q, want template", gen.Name())
	}
}

func TestMarketProvider_NoCredentialsYieldsNoData(t *testing.T) {
	p := app.MarketProvider(memoryConfig(), market.NewMemoryCache(), logging.NewNop(), nil)
	d, err := p.Lookup(context.Background(), market.Query{Role: "Backend Engineer", Location: "Austin, TX"})
	if err != nil || d != nil {
		t.Errorf("Lookup = %v, %v; want nil, nil", d, err)
	}
}

// ── Serve ──────────────────────────────────────────────────────────────────

func TestServe_MemoryModeShutsDownOnCancel(t *testing.T) {
	cfg := memoryConfig()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, cfg, nil, "test", logging.NewNop()) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	_, port, _ := net.SplitHostPort(l.Addr().String())
	return port
}

func TestServe_BadScheduleReleasesPorts(t *testing.T) {
	cfg := memoryConfig()
	cfg.Port, cfg.GRPCPort = freePort(t), freePort(t)
	cfg.Rescore.Enabled = true
	cfg.Rescore.Schedule = "every night"

	done := make(chan error, 1)
	go func() { done <- app.Serve(context.Background(), cfg, nil, "test", logging.NewNop()) }()
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Serve accepted an invalid schedule")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve kept running after the scheduler failed")
	}

	for _, port := range []string{cfg.Port, cfg.GRPCPort} {
		l, err := net.Listen("tcp", ":"+port)
		if err != nil {
			t.Errorf("port %s still bound: %v", port, err)
			continue
		}
		l.Close()
	}
}
