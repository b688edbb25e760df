package scoring_test

import (
	"reflect"
	"testing"

	"jobmate/offer-service/internal/compensation"
	"jobmate/offer-service/internal/scoring"
)

func baseOffer() compensation.Offer {
	return compensation.Offer{
		OfferID:      "acme",
		BaseSalary:   100000,
		SigningBonus: 5000,
		AnnualBonus:  "10%",
		EquityGrant:  &compensation.EquityGrant{Type: compensation.EquityRSU, Shares: 400, CurrentPrice: 100, VestingYears: 4, CliffMonths: 12},
		Benefits:     map[string]any{"health": 6000},
		PTODays:      15,
		Location:     "Denver, CO",
	}
}

// ── RunScenarios ───────────────────────────────────────────────────────────

func TestRunScenarios_AppliesChanges(t *testing.T) {
	c := scoring.NewComparator(nil)
	results := c.RunScenarios(baseOffer(), []scoring.Scenario{
		{Name: "raise", Changes: map[string]any{"baseSalary": 110000.0}},
		{Name: "more equity", Changes: map[string]any{"equityGrant.shares": 800}},
		{Name: "better health", Changes: map[string]any{"benefits": map[string]any{"health": 9000}}},
	})
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	raise := results[0]
	if raise.TotalCompensation.BaseSalary != 110000 {
		t.Errorf("raise: BaseSalary = %v, want 110000", raise.TotalCompensation.BaseSalary)
	}
	// 10% bonus follows the base; PTO day rate too.
	if raise.TotalCompensation.AnnualBonusExpected != 11000 {
		t.Errorf("raise: AnnualBonusExpected = %v, want 11000", raise.TotalCompensation.AnnualBonusExpected)
	}
	if raise.AnnualTotalDelta <= 10000 {
		t.Errorf("raise: AnnualTotalDelta = %v, want > 10000", raise.AnnualTotalDelta)
	}

	if got := results[1].TotalCompensation.AnnualEquity; got != 20000 {
		t.Errorf("more equity: AnnualEquity = %v, want 20000", got)
	}
	if got := results[2].AnnualTotalDelta; !approxEq(got, 3000) {
		t.Errorf("better health: AnnualTotalDelta = %v, want 3000", got)
	}
}

func TestRunScenarios_PureAndDeterministic(t *testing.T) {
	c := scoring.NewComparator(nil)
	o := baseOffer()
	before := o.Clone()
	scenarios := []scoring.Scenario{
		{Name: "all", Changes: map[string]any{
			"base_salary":             120000,
			"benefits.wellness":       500,
			"equityGrant":             map[string]any{"shares": 1000, "currentPrice": 50},
			"annualBonus":             "$10k-$20k",
			"pto_days":                25,
			"location":                "Remote",
			"signingBonus":            "$15k",
			"equityGrant.cliffMonths": 0,
		}},
	}

	first := c.RunScenarios(o, scenarios)
	second := c.RunScenarios(o, scenarios)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("RunScenarios is not deterministic:\n%+v\n%+v", first, second)
	}
	if !reflect.DeepEqual(o, before) {
		t.Errorf("RunScenarios mutated the base offer:\n got  %+v\n want %+v", o, before)
	}
	if len(first[0].Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", first[0].Warnings)
	}
}

func TestRunScenarios_UnknownFieldsWarn(t *testing.T) {
	c := scoring.NewComparator(nil)
	results := c.RunScenarios(baseOffer(), []scoring.Scenario{
		{Name: "typo", Changes: map[string]any{"salary": 1, "baseSalary": "lots"}},
	})
	if len(results[0].Warnings) != 2 {
		t.Errorf("got warnings %v, want 2", results[0].Warnings)
	}
	if results[0].TotalCompensation.BaseSalary != 100000 {
		t.Errorf("failed change should leave BaseSalary alone, got %v", results[0].TotalCompensation.BaseSalary)
	}
}

func TestApplyChanges_RemoveEquity(t *testing.T) {
	got, warnings := scoring.ApplyChanges(baseOffer(), map[string]any{"equityGrant": nil})
	if got.EquityGrant != nil || len(warnings) != 0 {
		t.Errorf("equityGrant: nil should drop the grant; got %+v, %v", got.EquityGrant, warnings)
	}
}

// ── Compare ────────────────────────────────────────────────────────────────

func TestCompare_PicksHighestWeightedScore(t *testing.T) {
	low := baseOffer()
	low.OfferID = "low"
	high := baseOffer()
	high.OfferID = "high"
	high.BaseSalary = 250000

	cmp := scoring.NewComparator(nil).Compare([]scoring.Candidate{
		{Offer: low, Factors: scoring.Factors{CultureFit: 5}},
		{Offer: high, Factors: scoring.Factors{CultureFit: 5}},
	})
	if cmp.WinnerIndex != 1 || cmp.Winner == nil || cmp.Winner.OfferID != "high" {
		t.Errorf("winner = %d (%+v), want index 1", cmp.WinnerIndex, cmp.Winner)
	}
	if len(cmp.TiedWith) != 0 {
		t.Errorf("TiedWith = %v, want empty", cmp.TiedWith)
	}
	if len(cmp.Matrix) == 0 {
		t.Fatal("comparison matrix is empty")
	}
	for _, row := range cmp.Matrix {
		if len(row.Values) != 2 {
			t.Errorf("matrix row %s has %d values, want 2", row.Metric, len(row.Values))
		}
		if row.Metric == "baseSalary" && row.BestIndex != 1 {
			t.Errorf("baseSalary BestIndex = %d, want 1", row.BestIndex)
		}
	}
}

func TestCompare_TieGoesToFirstOccurrence(t *testing.T) {
	a, b, c := baseOffer(), baseOffer(), baseOffer()
	a.OfferID, b.OfferID, c.OfferID = "a", "b", "c"
	a.BaseSalary = 50000

	cmp := scoring.NewComparator(nil).Compare([]scoring.Candidate{
		{Offer: a}, {Offer: b}, {Offer: c},
	})
	if cmp.WinnerIndex != 1 {
		t.Errorf("WinnerIndex = %d, want 1 (first of the tied offers)", cmp.WinnerIndex)
	}
	if !reflect.DeepEqual(cmp.TiedWith, []int{2}) {
		t.Errorf("TiedWith = %v, want [2]", cmp.TiedWith)
	}
}

func TestCompare_LabelsAndEmptyInput(t *testing.T) {
	cmp := scoring.NewComparator(nil).Compare(nil)
	if cmp.Winner != nil || cmp.WinnerIndex != -1 {
		t.Errorf("empty comparison should have no winner, got %+v", cmp)
	}

	o := baseOffer()
	o.OfferID = ""
	cmp = scoring.NewComparator(nil).Compare([]scoring.Candidate{{Offer: o}, {Offer: o, Label: "Named"}})
	if cmp.Offers[0].Label != "Offer 1" || cmp.Offers[1].Label != "Named" {
		t.Errorf("labels = %q, %q", cmp.Offers[0].Label, cmp.Offers[1].Label)
	}
}

func approxEq(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}
