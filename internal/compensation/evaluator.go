package compensation

// Valuation is the full result of running an Offer through the pipeline.
type Valuation struct {
	Bonus        BonusRange    `json:"bonus"`
	Equity       EquityValue   `json:"equity"`
	Benefits     BenefitsValue `json:"benefits"`
	CostOfLiving COLAdjustment `json:"costOfLiving"`
	Breakdown    Breakdown     `json:"breakdown"`
	Diagnostics  []Diagnostic  `json:"diagnostics,omitempty"`
}

// Evaluator is the one place offers are turned into a Breakdown. Scoring,
// comparison, scenarios and display all go through it so the numbers used to
// score an offer are the numbers shown to the user.
type Evaluator struct {
	adjuster *Adjuster
}

// NewEvaluator returns an Evaluator using locations for cost-of-living data
// (nil selects the built-in table).
func NewEvaluator(locations LocationProvider) *Evaluator {
	return &Evaluator{adjuster: NewAdjuster(locations)}
}

// Evaluate values o. It does not modify o.
func (e *Evaluator) Evaluate(o Offer) Valuation {
	v := Valuation{
		Bonus:        ParseBonus(o.AnnualBonus, o.BaseSalary),
		Equity:       ValueEquity(o.EquityGrant),
		Benefits:     ValueBenefits(o.Benefits, o.BaseSalary, o.PTODays),
		CostOfLiving: e.adjuster.Adjust(o.Location, o.BaseSalary),
	}

	v.Breakdown = Calculate(Components{
		BaseSalary:    o.BaseSalary,
		SigningBonus:  o.SigningBonus,
		Bonus:         v.Bonus,
		Year1Equity:   v.Equity.Year1Value,
		AnnualEquity:  v.Equity.AnnualValue,
		TotalBenefits: v.Benefits.TotalBenefitsValue,
	})

	if !v.Bonus.Parsed {
		v.Diagnostics = append(v.Diagnostics, Diagnostic{Field: "annualBonus", Message: v.Bonus.Diagnostic})
	}
	if v.Equity.Diagnostic != "" {
		v.Diagnostics = append(v.Diagnostics, Diagnostic{Field: "equityGrant.type", Message: v.Equity.Diagnostic})
	}
	v.Diagnostics = append(v.Diagnostics, v.Benefits.Diagnostics...)
	if o.Location != "" && !v.CostOfLiving.Known {
		v.Diagnostics = append(v.Diagnostics, Diagnostic{
			Field:   "location",
			Message: "unknown location; national-average cost of living and tax rate used",
		})
	}
	return v
}
