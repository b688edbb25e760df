package compensation

import (
	"fmt"
	"sort"
	"strings"
)

// WorkingDaysPerYear converts salary into a daily rate for PTO.
const WorkingDaysPerYear = 260.0

type benefitField int

const (
	benefitHealth benefitField = iota
	benefitDentalVision
	benefitLife
	benefitDisability
	benefitHSA
	benefitCommuter
	benefitEducation
	benefitWellness
	benefitHomeOffice
	benefitRetirement
)

// benefitAliases maps normalized benefit names to the field they feed.
var benefitAliases = map[string]benefitField{
	"health":                benefitHealth,
	"health_insurance":      benefitHealth,
	"medical":               benefitHealth,
	"dental_vision":         benefitDentalVision,
	"dental":                benefitDentalVision,
	"vision":                benefitDentalVision,
	"life":                  benefitLife,
	"life_insurance":        benefitLife,
	"disability":            benefitDisability,
	"disability_insurance":  benefitDisability,
	"hsa":                   benefitHSA,
	"hsa_contribution":      benefitHSA,
	"commuter":              benefitCommuter,
	"commuter_benefits":     benefitCommuter,
	"education":             benefitEducation,
	"education_stipend":     benefitEducation,
	"tuition":               benefitEducation,
	"wellness":              benefitWellness,
	"wellness_stipend":      benefitWellness,
	"home_office":           benefitHomeOffice,
	"home_office_stipend":   benefitHomeOffice,
	"retirement_401k_match": benefitRetirement,
	"401k_match":            benefitRetirement,
	"401k":                  benefitRetirement,
	"retirement_match":      benefitRetirement,
	"retirement":            benefitRetirement,
}

// BenefitsValue is a benefits package expressed in annual dollars.
type BenefitsValue struct {
	HealthInsurance     float64      `json:"healthInsurance"`
	DentalVision        float64      `json:"dentalVision"`
	LifeInsurance       float64      `json:"lifeInsurance"`
	Disability          float64      `json:"disabilityInsurance"`
	HSAContribution     float64      `json:"hsaContribution"`
	Commuter            float64      `json:"commuterBenefits"`
	EducationStipend    float64      `json:"educationStipend"`
	WellnessStipend     float64      `json:"wellnessStipend"`
	HomeOfficeStipend   float64      `json:"homeOfficeStipend"`
	Retirement401kMatch float64      `json:"retirement401kMatch"`
	PTOMonetaryValue    float64      `json:"ptoMonetaryValue"`
	TotalBenefitsValue  float64      `json:"totalBenefitsValue"`
	Diagnostics         []Diagnostic `json:"diagnostics,omitempty"`
}

func normalizeBenefitName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "-", "_", "/", "_").Replace(name)
}

// ValueBenefits monetizes benefits. Absent items count as zero. PTO is valued
// at the salary's day rate over WorkingDaysPerYear days.
func ValueBenefits(benefits map[string]any, baseSalary float64, ptoDays int) BenefitsValue {
	var out BenefitsValue

	// Sorted so diagnostics come out in a stable order.
	names := make([]string, 0, len(benefits))
	for name := range benefits {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		raw := benefits[name]
		field, known := benefitAliases[normalizeBenefitName(name)]
		if !known {
			out.Diagnostics = append(out.Diagnostics, Diagnostic{
				Field:   "benefits." + name,
				Message: "unrecognized benefit; not included in the total",
			})
			continue
		}

		if field == benefitRetirement {
			v, diag := retirementMatch(raw, baseSalary)
			out.Retirement401kMatch += v
			if diag != "" {
				out.Diagnostics = append(out.Diagnostics, Diagnostic{Field: "benefits." + name, Message: diag})
			}
			continue
		}

		if raw == nil {
			continue
		}
		v, ok := AsFloat(raw)
		if !ok {
			out.Diagnostics = append(out.Diagnostics, Diagnostic{
				Field:   "benefits." + name,
				Message: fmt.Sprintf("could not interpret amount %v", raw),
			})
			continue
		}
		*out.slot(field) += v
	}

	out.PTOMonetaryValue = baseSalary / WorkingDaysPerYear * float64(ptoDays)
	out.TotalBenefitsValue = out.HealthInsurance + out.DentalVision + out.LifeInsurance +
		out.Disability + out.HSAContribution + out.Commuter + out.EducationStipend +
		out.WellnessStipend + out.HomeOfficeStipend + out.Retirement401kMatch +
		out.PTOMonetaryValue
	return out
}

func (b *BenefitsValue) slot(f benefitField) *float64 {
	switch f {
	case benefitHealth:
		return &b.HealthInsurance
	case benefitDentalVision:
		return &b.DentalVision
	case benefitLife:
		return &b.LifeInsurance
	case benefitDisability:
		return &b.Disability
	case benefitHSA:
		return &b.HSAContribution
	case benefitCommuter:
		return &b.Commuter
	case benefitEducation:
		return &b.EducationStipend
	case benefitWellness:
		return &b.WellnessStipend
	case benefitHomeOffice:
		return &b.HomeOfficeStipend
	}
	return &b.Retirement401kMatch
}

// retirementMatch resolves "5%" against baseSalary; anything else is a flat
// dollar amount.
func retirementMatch(raw any, baseSalary float64) (float64, string) {
	if raw == nil {
		return 0, ""
	}
	if s, ok := raw.(string); ok && strings.Contains(s, "%") {
		m := percentRe.FindStringSubmatch(s)
		if m == nil {
			return 0, fmt.Sprintf("could not interpret match %q", s)
		}
		pct, ok := parseNumber(m[1])
		if !ok {
			return 0, fmt.Sprintf("could not interpret match %q", s)
		}
		return baseSalary * pct / 100, ""
	}
	v, ok := AsFloat(raw)
	if !ok {
		return 0, fmt.Sprintf("could not interpret match %v", raw)
	}
	return v, ""
}
