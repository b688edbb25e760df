package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"jobmate/offer-service/internal/offer"
	"jobmate/offer-service/internal/scoring"
)

func (r *registry) evaluateOffer() {
	sdkmcp.AddTool(r.server, &sdkmcp.Tool{
		Name:        "evaluate_offer",
		Description: "Value a job offer (salary, bonus, equity, benefits, cost of living) and score it against the market with a recommendation",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, p *EvaluateOfferParams) (*sdkmcp.CallToolResult, any, error) {
		ev, err := r.svc.EvaluateInput(ctx, offer.SourceMCP, p.Offer.input())
		if err != nil {
			return r.failure("evaluate_offer", err), nil, nil
		}
		summary := fmt.Sprintf("%s: %.0f/100, %s. First-year value %s.",
			label(p.Offer), ev.Score.WeightedTotalScore, ev.Score.Recommendation, money(ev.Valuation.Breakdown.Year1Total))
		return jsonResult(summary, ev), ev, nil
	})
}

func (r *registry) compareOffers() {
	sdkmcp.AddTool(r.server, &sdkmcp.Tool{
		Name:        "compare_offers",
		Description: "Rank two or more job offers and return a metric-by-metric comparison matrix",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, p *CompareOffersParams) (*sdkmcp.CallToolResult, any, error) {
		inputs := make([]offer.Input, 0, len(p.Offers))
		for _, o := range p.Offers {
			inputs = append(inputs, o.input())
		}
		cmp, err := r.svc.CompareInputs(ctx, inputs)
		if err != nil {
			return r.failure("compare_offers", err), nil, nil
		}
		summary := "No winner."
		if cmp.WinnerIndex >= 0 && cmp.WinnerIndex < len(p.Offers) {
			summary = fmt.Sprintf("Best offer: %s.", label(p.Offers[cmp.WinnerIndex]))
		}
		return jsonResult(summary, cmp), cmp, nil
	})
}

func (r *registry) runScenarios() {
	sdkmcp.AddTool(r.server, &sdkmcp.Tool{
		Name:        "run_scenarios",
		Description: "Recompute an offer's total compensation under what-if changes, e.g. a higher base salary or a stipend",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, p *RunScenariosParams) (*sdkmcp.CallToolResult, any, error) {
		if len(p.Scenarios) == 0 {
			return errorResult("at least one scenario is required"), nil, nil
		}
		scenarios := make([]scoring.Scenario, 0, len(p.Scenarios))
		for _, s := range p.Scenarios {
			scenarios = append(scenarios, scoring.Scenario{Name: s.Name, Changes: s.Changes})
		}
		results, err := r.svc.ScenariosInput(ctx, p.Offer.input(), scenarios)
		if err != nil {
			return r.failure("run_scenarios", err), nil, nil
		}
		lines := make([]string, 0, len(results))
		for _, res := range results {
			lines = append(lines, fmt.Sprintf("%s: %+.0f per year", res.ScenarioName, res.AnnualTotalDelta))
		}
		out := map[string]any{"scenarios": results}
		return jsonResult(strings.Join(lines, "\n"), out), out, nil
	})
}

func (r *registry) negotiationPrep() {
	sdkmcp.AddTool(r.server, &sdkmcp.Tool{
		Name:        "negotiation_prep",
		Description: "Pick what to negotiate for an offer and produce talking points, scripts, confidence exercises and a readiness score",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, p *NegotiationPrepParams) (*sdkmcp.CallToolResult, any, error) {
		n, err := r.svc.PrepareInput(ctx, offer.SourceMCP, p.Offer.input())
		if err != nil {
			return r.failure("negotiation_prep", err), nil, nil
		}
		summary := fmt.Sprintf("Focus on %s (%s urgency). Readiness %.0f/100.",
			n.Focus.Primary, n.Focus.Urgency, n.Readiness.ReadinessScore)
		return jsonResult(summary, n), n, nil
	})
}

// ─── Results ─────────────────────────────────────────────────────────────────

// failure reports validation problems to the agent verbatim and hides
// everything else behind a generic message.
func (r *registry) failure(tool string, err error) *sdkmcp.CallToolResult {
	var ve *offer.ValidationError
	if errors.As(err, &ve) {
		return errorResult(ve.Msg)
	}
	r.log.Error("mcp tool failed", "tool", tool, "err", err)
	return errorResult("internal error")
}

// jsonResult returns a one-line summary followed by the full JSON payload.
func jsonResult(summary string, v any) *sdkmcp.CallToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return textResult(summary)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: summary},
			&sdkmcp.TextContent{Text: string(b)},
		},
	}
}

func textResult(msg string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: msg},
		},
	}
}

func errorResult(msg string) *sdkmcp.CallToolResult {
	res := textResult(msg)
	res.IsError = true
	return res
}

func label(p OfferParams) string {
	switch {
	case p.Label != "":
		return p.Label
	case p.Company != "":
		return p.Company
	}
	return "Offer"
}

func money(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 && s[i-1] != '-' {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return "$" + b.String()
}
