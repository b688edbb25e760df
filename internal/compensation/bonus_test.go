package compensation_test

import (
	"encoding/json"
	"math"
	"testing"

	"jobmate/offer-service/internal/compensation"
)

const eps = 1e-6

func approx(a, b float64) bool { return math.Abs(a-b) <= eps }

func assertRange(t *testing.T, name string, got compensation.BonusRange, min, max, expected float64) {
	t.Helper()
	if !approx(got.Min, min) || !approx(got.Max, max) || !approx(got.Expected, expected) {
		t.Errorf("%s = (%v, %v, %v), want (%v, %v, %v)",
			name, got.Min, got.Max, got.Expected, min, max, expected)
	}
}

// ── Absent values ──────────────────────────────────────────────────────────

func TestParseBonus_NilIsZeroForAnyBase(t *testing.T) {
	for _, base := range []float64{0, 1, 85000, 1e7} {
		got := compensation.ParseBonus(nil, base)
		assertRange(t, "ParseBonus(nil)", got, 0, 0, 0)
		if !got.Parsed {
			t.Errorf("ParseBonus(nil, %v).Parsed = false, want true", base)
		}
	}
}

func TestParseBonus_EmptyString(t *testing.T) {
	for _, raw := range []string{"", "   "} {
		got := compensation.ParseBonus(raw, 100000)
		assertRange(t, "ParseBonus(empty)", got, 0, 0, 0)
		if !got.Parsed || got.Diagnostic != "" {
			t.Errorf("ParseBonus(%q) = %+v, want parsed with no diagnostic", raw, got)
		}
	}
}

// ── Numbers ────────────────────────────────────────────────────────────────

func TestParseBonus_Numeric(t *testing.T) {
	cases := []any{12000.0, 12000, int64(12000), json.Number("12000")}
	for _, raw := range cases {
		got := compensation.ParseBonus(raw, 100000)
		assertRange(t, "ParseBonus(number)", got, 12000, 12000, 12000)
	}
}

// ── Percentages ────────────────────────────────────────────────────────────

func TestParseBonus_SinglePercent(t *testing.T) {
	assertRange(t, `ParseBonus("15%")`, compensation.ParseBonus("15%", 100000), 15000, 15000, 15000)
}

func TestParseBonus_PercentRange(t *testing.T) {
	assertRange(t, `ParseBonus("10-20%")`, compensation.ParseBonus("10-20%", 100000), 10000, 20000, 15000)
	assertRange(t, `ParseBonus("10% - 20%")`, compensation.ParseBonus("10% - 20%", 100000), 10000, 20000, 15000)
	assertRange(t, `ParseBonus("7.5-12.5%")`, compensation.ParseBonus("7.5-12.5%", 200000), 15000, 25000, 20000)
}

// A percent range must win over the dollar-range pattern it also matches.
func TestParseBonus_PercentRangeTakesPrecedence(t *testing.T) {
	got := compensation.ParseBonus("10-20%", 50000)
	assertRange(t, `ParseBonus("10-20%", 50000)`, got, 5000, 10000, 7500)
}

// ── Dollar amounts ─────────────────────────────────────────────────────────

func TestParseBonus_DollarRangeWithK(t *testing.T) {
	for _, base := range []float64{0, 90000, 250000} {
		assertRange(t, `ParseBonus("$10k-$20k")`, compensation.ParseBonus("$10k-$20k", base), 10000, 20000, 15000)
	}
}

func TestParseBonus_DollarRangeWithCommas(t *testing.T) {
	assertRange(t, `ParseBonus("$10,000 - $20,000")`,
		compensation.ParseBonus("$10,000 - $20,000", 100000), 10000, 20000, 15000)
}

// The k scaling is keyed off the whole string, so a single k scales both ends.
func TestParseBonus_KAnywhereScalesBothNumbers(t *testing.T) {
	assertRange(t, `ParseBonus("$10-$20k")`, compensation.ParseBonus("$10-$20k", 100000), 10000, 20000, 15000)
}

func TestParseBonus_SingleDollar(t *testing.T) {
	assertRange(t, `ParseBonus("$15k")`, compensation.ParseBonus("$15k", 100000), 15000, 15000, 15000)
	assertRange(t, `ParseBonus("$7,500")`, compensation.ParseBonus("$7,500", 100000), 7500, 7500, 7500)
}

// ── Unparseable ────────────────────────────────────────────────────────────

func TestParseBonus_UnparseableFallsBackToZero(t *testing.T) {
	for _, raw := range []any{"discretionary", "TBD", true, []string{"x"}} {
		got := compensation.ParseBonus(raw, 100000)
		assertRange(t, "ParseBonus(unparseable)", got, 0, 0, 0)
		if got.Parsed {
			t.Errorf("ParseBonus(%v).Parsed = true, want false", raw)
		}
		if got.Diagnostic == "" {
			t.Errorf("ParseBonus(%v) has no diagnostic", raw)
		}
	}
}
