// Package prep produces negotiation talking points, scripts and confidence
// exercises. The texts are handed to the user as-is; nothing downstream parses
// them, negotiation.Assess only counts them.
package prep

import (
	"context"

	"jobmate/offer-service/internal/compensation"
	"jobmate/offer-service/internal/logging"
	"jobmate/offer-service/internal/market"
	"jobmate/offer-service/internal/metrics"
	"jobmate/offer-service/internal/negotiation"
	"jobmate/offer-service/internal/scoring"
)

// Request is everything a generator may draw on.
type Request struct {
	Company         string                 `json:"company"`
	Role            string                 `json:"role"`
	Location        string                 `json:"location"`
	YearsExperience int                    `json:"yearsExperience"`
	Breakdown       compensation.Breakdown `json:"breakdown"`
	Score           scoring.OfferScore     `json:"score"`
	Focus           negotiation.Focus      `json:"focus"`
	Market          *market.SalaryData     `json:"market,omitempty"`
}

// Materials is generated prep content.
type Materials struct {
	TalkingPoints       []string `json:"talkingPoints"`
	Scripts             []string `json:"scripts"`
	ConfidenceExercises []string `json:"confidenceExercises"`
}

// Generator produces Materials for a Request.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (Materials, error)
}

// ─── Fallback ────────────────────────────────────────────────────────────────

// FallbackGenerator tries primary and, on error or an empty result, serves
// fallback instead. The primary error is logged, not returned.
type FallbackGenerator struct {
	primary  Generator
	fallback Generator
	log      *logging.Logger
	metrics  *metrics.Metrics
}

func NewFallbackGenerator(primary, fallback Generator, log *logging.Logger, m *metrics.Metrics) *FallbackGenerator {
	return &FallbackGenerator{primary: primary, fallback: fallback, log: log, metrics: m}
}

func (g *FallbackGenerator) Name() string { return g.primary.Name() + "+" + g.fallback.Name() }

func (g *FallbackGenerator) Generate(ctx context.Context, req Request) (Materials, error) {
	m, err := g.primary.Generate(ctx, req)
	g.metrics.ObservePrep(g.primary.Name(), err)
	if err == nil && !m.empty() {
		return m, nil
	}
	if err != nil {
		g.log.Warn("prep generator failed, using fallback",
			"generator", g.primary.Name(), "fallback", g.fallback.Name(), "err", err)
	}
	m, err = g.fallback.Generate(ctx, req)
	g.metrics.ObservePrep(g.fallback.Name(), err)
	return m, err
}

func (m Materials) empty() bool {
	return len(m.TalkingPoints) == 0 && len(m.Scripts) == 0 && len(m.ConfidenceExercises) == 0
}
