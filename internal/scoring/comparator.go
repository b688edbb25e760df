package scoring

import (
	"fmt"
	"sort"
	"strings"

	"jobmate/offer-service/internal/compensation"
)

// ─── Scenarios ───────────────────────────────────────────────────────────────

// Scenario is a named set of field-level changes applied on top of an offer.
//
// Keys are offer fields in either camelCase or snake_case ("baseSalary",
// "base_salary"). A "benefits" map is merged into the offer's benefits and
// "benefits.<name>" sets a single benefit. "equityGrant" replaces fields of
// the grant, and "equityGrant.<field>" sets one of them.
type Scenario struct {
	Name    string         `json:"name"`
	Changes map[string]any `json:"changes"`
}

// ScenarioResult is the recomputed breakdown of one scenario.
type ScenarioResult struct {
	ScenarioName      string                 `json:"scenarioName"`
	Changes           map[string]any         `json:"changes"`
	TotalCompensation compensation.Breakdown `json:"totalCompensation"`
	AnnualTotalDelta  float64                `json:"annualTotalDelta"`
	Warnings          []string               `json:"warnings,omitempty"`
}

// Comparator runs what-if scenarios and side-by-side comparisons through a
// single Evaluator.
type Comparator struct {
	eval *compensation.Evaluator
}

// NewComparator returns a Comparator. A nil evaluator uses the built-in
// location table.
func NewComparator(eval *compensation.Evaluator) *Comparator {
	if eval == nil {
		eval = compensation.NewEvaluator(nil)
	}
	return &Comparator{eval: eval}
}

// RunScenarios recomputes base under each scenario. base is never modified
// and the same inputs always give the same results.
func (c *Comparator) RunScenarios(base compensation.Offer, scenarios []Scenario) []ScenarioResult {
	baseline := c.eval.Evaluate(base).Breakdown
	out := make([]ScenarioResult, 0, len(scenarios))
	for _, sc := range scenarios {
		modified, warnings := ApplyChanges(base, sc.Changes)
		b := c.eval.Evaluate(modified).Breakdown
		out = append(out, ScenarioResult{
			ScenarioName:      sc.Name,
			Changes:           sc.Changes,
			TotalCompensation: b,
			AnnualTotalDelta:  b.AnnualTotal - baseline.AnnualTotal,
			Warnings:          warnings,
		})
	}
	return out
}

// ApplyChanges returns a copy of o with changes applied, plus one warning per
// change that could not be applied.
func ApplyChanges(o compensation.Offer, changes map[string]any) (compensation.Offer, []string) {
	out := o.Clone()
	var warnings []string

	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := applyChange(&out, key, changes[key]); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", key, err))
		}
	}
	return out, warnings
}

func normalizeKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), "_", "")
}

func applyChange(o *compensation.Offer, key string, v any) error {
	head, field, dotted := strings.Cut(key, ".")
	switch normalizeKey(head) {
	case "basesalary":
		return setFloat(&o.BaseSalary, v)
	case "signingbonus":
		return setFloat(&o.SigningBonus, v)
	case "annualbonus":
		o.AnnualBonus = v
		return nil
	case "ptodays":
		var f float64
		if err := setFloat(&f, v); err != nil {
			return err
		}
		o.PTODays = int(f)
		return nil
	case "location":
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected a string, got %T", v)
		}
		o.Location = s
		return nil
	case "benefits":
		if o.Benefits == nil {
			o.Benefits = map[string]any{}
		}
		if dotted {
			o.Benefits[field] = v
			return nil
		}
		m, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("expected an object, got %T", v)
		}
		for name, amount := range m {
			o.Benefits[name] = amount
		}
		return nil
	case "equitygrant", "equity":
		if v == nil && !dotted {
			o.EquityGrant = nil
			return nil
		}
		if o.EquityGrant == nil {
			o.EquityGrant = &compensation.EquityGrant{}
		}
		if dotted {
			return setEquityField(o.EquityGrant, field, v)
		}
		m, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("expected an object, got %T", v)
		}
		names := make([]string, 0, len(m))
		for name := range m {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := setEquityField(o.EquityGrant, name, m[name]); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		return nil
	}
	return fmt.Errorf("unknown field")
}

func setEquityField(g *compensation.EquityGrant, field string, v any) error {
	var f float64
	switch normalizeKey(field) {
	case "type":
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected a string, got %T", v)
		}
		g.Type = compensation.EquityType(s)
		return nil
	case "shares":
		if err := setFloat(&f, v); err != nil {
			return err
		}
		g.Shares = int64(f)
		return nil
	case "currentprice":
		return setFloat(&g.CurrentPrice, v)
	case "strikeprice":
		return setFloat(&g.StrikePrice, v)
	case "vestingyears":
		return setFloat(&g.VestingYears, v)
	case "cliffmonths":
		if err := setFloat(&f, v); err != nil {
			return err
		}
		g.CliffMonths = int(f)
		return nil
	}
	return fmt.Errorf("unknown equity field %q", field)
}

func setFloat(dst *float64, v any) error {
	f, ok := compensation.AsFloat(v)
	if !ok {
		return fmt.Errorf("expected a number, got %v", v)
	}
	*dst = f
	return nil
}

// ─── Comparison ──────────────────────────────────────────────────────────────

// Candidate is one offer entered into a comparison.
type Candidate struct {
	Label        string             `json:"label"`
	Offer        compensation.Offer `json:"offer"`
	Factors      Factors            `json:"factors"`
	MarketMedian float64            `json:"marketMedian,omitempty"`
	Weights      *Weights           `json:"weights,omitempty"`
}

// ScoredOffer is a candidate after evaluation.
type ScoredOffer struct {
	Label       string                    `json:"label"`
	OfferID     string                    `json:"offerId,omitempty"`
	Breakdown   compensation.Breakdown    `json:"breakdown"`
	Score       OfferScore                `json:"score"`
	Diagnostics []compensation.Diagnostic `json:"diagnostics,omitempty"`
}

// MatrixRow holds one metric across every compared offer. BestIndex is the
// first offer with the highest value.
type MatrixRow struct {
	Metric    string    `json:"metric"`
	Values    []float64 `json:"values"`
	BestIndex int       `json:"bestIndex"`
}

// Comparison ranks offers by weighted total score.
//
// Ties go to the first offer in input order. TiedWith lists the indexes of the
// other offers that share the winning score, so callers can surface the tie.
type Comparison struct {
	Offers      []ScoredOffer `json:"offers"`
	Winner      *ScoredOffer  `json:"winner"`
	WinnerIndex int           `json:"winnerIndex"`
	TiedWith    []int         `json:"tiedWith,omitempty"`
	Matrix      []MatrixRow   `json:"comparisonMatrix"`
}

var matrixMetrics = []struct {
	name  string
	value func(ScoredOffer) float64
}{
	{"baseSalary", func(s ScoredOffer) float64 { return s.Breakdown.BaseSalary }},
	{"signingBonus", func(s ScoredOffer) float64 { return s.Breakdown.SigningBonus }},
	{"annualBonusExpected", func(s ScoredOffer) float64 { return s.Breakdown.AnnualBonusExpected }},
	{"annualEquity", func(s ScoredOffer) float64 { return s.Breakdown.AnnualEquity }},
	{"totalBenefits", func(s ScoredOffer) float64 { return s.Breakdown.TotalBenefits }},
	{"year1Total", func(s ScoredOffer) float64 { return s.Breakdown.Year1Total }},
	{"annualTotal", func(s ScoredOffer) float64 { return s.Breakdown.AnnualTotal }},
	{"fourYearTotal", func(s ScoredOffer) float64 { return s.Breakdown.FourYearTotal }},
	{"financialScore", func(s ScoredOffer) float64 { return s.Score.FinancialScore }},
	{"nonFinancialScore", func(s ScoredOffer) float64 { return s.Score.NonFinancialScore }},
	{"weightedTotalScore", func(s ScoredOffer) float64 { return s.Score.WeightedTotalScore }},
}

// Compare evaluates and scores every candidate. An empty input yields a
// Comparison with no winner and WinnerIndex -1.
func (c *Comparator) Compare(candidates []Candidate) Comparison {
	cmp := Comparison{Offers: make([]ScoredOffer, 0, len(candidates)), WinnerIndex: -1}
	for i, cand := range candidates {
		v := c.eval.Evaluate(cand.Offer)
		label := cand.Label
		if label == "" {
			label = cand.Offer.OfferID
		}
		if label == "" {
			label = fmt.Sprintf("Offer %d", i+1)
		}
		cmp.Offers = append(cmp.Offers, ScoredOffer{
			Label:       label,
			OfferID:     cand.Offer.OfferID,
			Breakdown:   v.Breakdown,
			Score:       Score(v.Breakdown, cand.Factors, cand.MarketMedian, cand.Weights),
			Diagnostics: v.Diagnostics,
		})
	}
	if len(cmp.Offers) == 0 {
		return cmp
	}

	best := 0
	for i := 1; i < len(cmp.Offers); i++ {
		if cmp.Offers[i].Score.WeightedTotalScore > cmp.Offers[best].Score.WeightedTotalScore {
			best = i
		}
	}
	cmp.WinnerIndex = best
	cmp.Winner = &cmp.Offers[best]
	for i := best + 1; i < len(cmp.Offers); i++ {
		if cmp.Offers[i].Score.WeightedTotalScore == cmp.Offers[best].Score.WeightedTotalScore {
			cmp.TiedWith = append(cmp.TiedWith, i)
		}
	}

	for _, m := range matrixMetrics {
		row := MatrixRow{Metric: m.name, Values: make([]float64, len(cmp.Offers))}
		for i, so := range cmp.Offers {
			row.Values[i] = m.value(so)
			if row.Values[i] > row.Values[row.BestIndex] {
				row.BestIndex = i
			}
		}
		cmp.Matrix = append(cmp.Matrix, row)
	}
	return cmp
}
