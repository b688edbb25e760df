package compensation_test

import (
	"testing"

	"jobmate/offer-service/internal/compensation"
)

func TestValueBenefits_FlatAmountsAndPercentMatch(t *testing.T) {
	got := compensation.ValueBenefits(map[string]any{
		"health":                8000,
		"dental_vision":         "$1,200",
		"retirement_401k_match": "5%",
	}, 120000, 20)

	if !approx(got.HealthInsurance, 8000) {
		t.Errorf("HealthInsurance = %v, want 8000", got.HealthInsurance)
	}
	if !approx(got.DentalVision, 1200) {
		t.Errorf("DentalVision = %v, want 1200", got.DentalVision)
	}
	if !approx(got.Retirement401kMatch, 6000) {
		t.Errorf("Retirement401kMatch = %v, want 6000", got.Retirement401kMatch)
	}
	wantPTO := 120000.0 / 260 * 20
	if !approx(got.PTOMonetaryValue, wantPTO) {
		t.Errorf("PTOMonetaryValue = %v, want %v", got.PTOMonetaryValue, wantPTO)
	}
	if !approx(got.TotalBenefitsValue, 8000+1200+6000+wantPTO) {
		t.Errorf("TotalBenefitsValue = %v, want %v", got.TotalBenefitsValue, 8000+1200+6000+wantPTO)
	}
	if len(got.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %+v", got.Diagnostics)
	}
}

func TestValueBenefits_FlatRetirementMatch(t *testing.T) {
	got := compensation.ValueBenefits(map[string]any{"401k_match": 4500.0}, 100000, 0)
	if !approx(got.Retirement401kMatch, 4500) {
		t.Errorf("Retirement401kMatch = %v, want 4500", got.Retirement401kMatch)
	}
}

func TestValueBenefits_AliasesAndSpelling(t *testing.T) {
	got := compensation.ValueBenefits(map[string]any{
		"Health Insurance":    5000,
		"home-office stipend": 500,
		"Wellness":            300,
		"tuition":             2000,
		"HSA":                 1000,
		"commuter":            600,
		"life_insurance":      200,
		"disability":          150,
	}, 0, 0)
	want := 5000.0 + 500 + 300 + 2000 + 1000 + 600 + 200 + 150
	if !approx(got.TotalBenefitsValue, want) {
		t.Errorf("TotalBenefitsValue = %v, want %v", got.TotalBenefitsValue, want)
	}
	if !approx(got.HomeOfficeStipend, 500) || !approx(got.EducationStipend, 2000) {
		t.Errorf("aliases not resolved: %+v", got)
	}
}

func TestValueBenefits_EmptyIsZero(t *testing.T) {
	got := compensation.ValueBenefits(nil, 0, 0)
	if got.TotalBenefitsValue != 0 {
		t.Errorf("TotalBenefitsValue = %v, want 0", got.TotalBenefitsValue)
	}
}

func TestValueBenefits_UnknownAndUnparseableReported(t *testing.T) {
	got := compensation.ValueBenefits(map[string]any{
		"gym":    1000,
		"health": "a lot",
	}, 100000, 0)
	if got.TotalBenefitsValue != 0 {
		t.Errorf("TotalBenefitsValue = %v, want 0", got.TotalBenefitsValue)
	}
	if len(got.Diagnostics) != 2 {
		t.Fatalf("got %d diagnostics, want 2: %+v", len(got.Diagnostics), got.Diagnostics)
	}
	// Sorted by benefit name.
	if got.Diagnostics[0].Field != "benefits.gym" || got.Diagnostics[1].Field != "benefits.health" {
		t.Errorf("diagnostics out of order: %+v", got.Diagnostics)
	}
}
