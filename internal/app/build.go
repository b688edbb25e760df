package app

import (
	"context"
	"fmt"
	"net/http"

	"jobmate/offer-service/internal/config"
	"jobmate/offer-service/internal/logging"
	"jobmate/offer-service/internal/market"
	"jobmate/offer-service/internal/mcptools"
	"jobmate/offer-service/internal/metrics"
	"jobmate/offer-service/internal/middleware"
	"jobmate/offer-service/internal/observability"
	"jobmate/offer-service/internal/offer"
	"jobmate/offer-service/internal/prep"
)

// MarketProvider layers the Adzuna client behind a circuit breaker and a
// cache. Cache hits never touch the breaker.
func MarketProvider(cfg *config.Config, cache market.Cache, log *logging.Logger, m *metrics.Metrics) market.Provider {
	adzuna := market.NewAdzunaProvider(cfg.Adzuna, log)
	guarded := market.NewBreakerProvider(adzuna, cfg.Market.Breaker, log, m)
	return market.NewCachedProvider(guarded, cache, cfg.Market.CacheTTL, log, m)
}

// PrepGenerator returns Gemini with the template as fallback, or just the
// template when no Gemini key is configured.
func PrepGenerator(ctx context.Context, cfg *config.Config, log *logging.Logger, m *metrics.Metrics) (prep.Generator, error) {
	tmpl := prep.NewTemplateGenerator()
	gemini, err := prep.NewGeminiGenerator(ctx, cfg.Gemini, log, m)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	if gemini == nil {
		log.Info("GEMINI_API_KEY not set, negotiation prep uses templates only")
		return tmpl, nil
	}
	return prep.NewFallbackGenerator(gemini, tmpl, log, m), nil
}

// Routes mounts every HTTP surface on one handler:
//
//	GET  /health    → liveness
//	GET  /metrics   → Prometheus scrape
//	     /mcp       → MCP streamable HTTP
//	     /offers... → REST API (rate limited when enabled)
//
// The returned func releases the rate limiter.
func Routes(svc *offer.Service, cfg *config.Config, version string, log *logging.Logger, m *metrics.Metrics) (http.Handler, func()) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler(version))
	mux.Handle("/metrics", m.Handler())

	api := http.NewServeMux()
	offer.NewHandler(svc, log).RegisterRoutes(api)
	mcp := mcptools.Handler(mcptools.NewServer(svc, version, log))

	release := func() {}
	var limited http.Handler = api
	if cfg.RateLimit.Enabled {
		rl := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log, m)
		limited = rl.Middleware(api)
		mcp = rl.Middleware(mcp)
		release = rl.Close
	}
	mux.Handle("/offers", limited)
	mux.Handle("/offers/", limited)
	mux.Handle(mcptools.Path, mcp)

	h := middleware.Chain(mux, middleware.AccessLog(log, m))
	return observability.HTTPHandler(h, "offer-service"), release
}
