package mcptools

import (
	"strings"

	"jobmate/offer-service/internal/compensation"
	"jobmate/offer-service/internal/offer"
	"jobmate/offer-service/internal/scoring"
)

// OfferParams is one offer as an agent describes it.
type OfferParams struct {
	Label           string         `json:"label,omitempty" jsonschema:"Display name for the offer, defaults to the company"`
	Company         string         `json:"company,omitempty" jsonschema:"Company making the offer"`
	Role            string         `json:"role,omitempty" jsonschema:"Job title, used for market salary lookup"`
	YearsExperience int            `json:"years_experience,omitempty" jsonschema:"Candidate's years of experience"`
	BaseSalary      float64        `json:"base_salary" jsonschema:"Annual base salary in USD"`
	SigningBonus    float64        `json:"signing_bonus,omitempty" jsonschema:"One-time signing bonus in USD"`
	AnnualBonus     string         `json:"annual_bonus,omitempty" jsonschema:"Target bonus as a percentage, range or amount, e.g. 10-15% or $20,000"`
	Equity          *EquityParams  `json:"equity,omitempty" jsonschema:"Equity grant, if any"`
	Benefits        map[string]any `json:"benefits,omitempty" jsonschema:"Benefits by name, e.g. health_insurance, retirement_match, home_office_stipend"`
	PTODays         int            `json:"pto_days,omitempty" jsonschema:"Paid time off in days per year"`
	Location        string         `json:"location,omitempty" jsonschema:"City or region, used for cost-of-living adjustment"`
	Factors         *FactorParams  `json:"factors,omitempty" jsonschema:"Non-financial ratings from 1 to 10"`
	FinancialWeight *float64       `json:"financial_weight,omitempty" jsonschema:"Share of the total score taken by compensation, 0 to 1, default 0.6"`
}

type EquityParams struct {
	Type         string  `json:"type" jsonschema:"RSU, ISO, NSO or StockOption"`
	Shares       int64   `json:"shares" jsonschema:"Number of shares or options granted"`
	CurrentPrice float64 `json:"current_price" jsonschema:"Current share price in USD"`
	StrikePrice  float64 `json:"strike_price,omitempty" jsonschema:"Exercise price for options"`
	VestingYears float64 `json:"vesting_years,omitempty" jsonschema:"Vesting period in years, default 4"`
	CliffMonths  int     `json:"cliff_months,omitempty" jsonschema:"Vesting cliff in months"`
}

type FactorParams struct {
	CultureFit            float64 `json:"culture_fit,omitempty"`
	GrowthPotential       float64 `json:"growth_potential,omitempty"`
	WorkLifeBalance       float64 `json:"work_life_balance,omitempty"`
	TeamQuality           float64 `json:"team_quality,omitempty"`
	MissionAlignment      float64 `json:"mission_alignment,omitempty"`
	Commute               float64 `json:"commute,omitempty"`
	JobSecurity           float64 `json:"job_security,omitempty"`
	LearningOpportunities float64 `json:"learning_opportunities,omitempty"`
}

func (p OfferParams) input() offer.Input {
	in := offer.Input{
		Label:           p.Label,
		Company:         p.Company,
		Role:            p.Role,
		YearsExperience: p.YearsExperience,
		Offer: compensation.Offer{
			BaseSalary:   p.BaseSalary,
			SigningBonus: p.SigningBonus,
			Benefits:     p.Benefits,
			PTODays:      p.PTODays,
			Location:     p.Location,
		},
	}
	if in.Label == "" {
		in.Label = p.Company
	}
	if b := strings.TrimSpace(p.AnnualBonus); b != "" {
		in.Offer.AnnualBonus = b
	}
	if e := p.Equity; e != nil {
		in.Offer.EquityGrant = &compensation.EquityGrant{
			Type:         compensation.EquityType(e.Type),
			Shares:       e.Shares,
			CurrentPrice: e.CurrentPrice,
			StrikePrice:  e.StrikePrice,
			VestingYears: e.VestingYears,
			CliffMonths:  e.CliffMonths,
		}
	}
	if f := p.Factors; f != nil {
		in.Factors = scoring.Factors{
			CultureFit:            f.CultureFit,
			GrowthPotential:       f.GrowthPotential,
			WorkLifeBalance:       f.WorkLifeBalance,
			TeamQuality:           f.TeamQuality,
			MissionAlignment:      f.MissionAlignment,
			Commute:               f.Commute,
			JobSecurity:           f.JobSecurity,
			LearningOpportunities: f.LearningOpportunities,
		}
	}
	if p.FinancialWeight != nil {
		w := *p.FinancialWeight
		in.Weights = &scoring.Weights{Financial: &w}
	}
	return in
}

type EvaluateOfferParams struct {
	Offer OfferParams `json:"offer" jsonschema:"The offer to evaluate"`
}

type CompareOffersParams struct {
	Offers []OfferParams `json:"offers" jsonschema:"Two or more offers to rank"`
}

type ScenarioParams struct {
	Name    string         `json:"name" jsonschema:"Short name for the what-if"`
	Changes map[string]any `json:"changes" jsonschema:"Offer fields to override, e.g. base_salary or benefits.home_office_stipend"`
}

type RunScenariosParams struct {
	Offer     OfferParams      `json:"offer" jsonschema:"The offer the scenarios start from"`
	Scenarios []ScenarioParams `json:"scenarios" jsonschema:"What-if scenarios to run"`
}

type NegotiationPrepParams struct {
	Offer OfferParams `json:"offer" jsonschema:"The offer to prepare a negotiation for"`
}
