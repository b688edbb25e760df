package compensation

// Components are the already-normalized inputs of Calculate.
type Components struct {
	BaseSalary    float64
	SigningBonus  float64
	Bonus         BonusRange
	Year1Equity   float64
	AnnualEquity  float64
	TotalBenefits float64
}

// Breakdown is the derived compensation summary of an offer. It is computed,
// never stored as a source of truth.
type Breakdown struct {
	BaseSalary          float64 `json:"baseSalary"`
	SigningBonus        float64 `json:"signingBonus"`
	AnnualBonusMin      float64 `json:"annualBonusMin"`
	AnnualBonusMax      float64 `json:"annualBonusMax"`
	AnnualBonusExpected float64 `json:"annualBonusExpected"`
	Year1Equity         float64 `json:"year1Equity"`
	AnnualEquity        float64 `json:"annualEquity"`
	TotalBenefits       float64 `json:"totalBenefits"`
	Year1Total          float64 `json:"year1Total"`
	AnnualTotal         float64 `json:"annualTotal"`
	FourYearTotal       float64 `json:"fourYearTotal"`
}

// Calculate aggregates c. The signing bonus only counts toward year one:
//
//	year1Total    = base + signing + expected bonus + year-1 equity + benefits
//	annualTotal   = base + expected bonus + annual equity + benefits
//	fourYearTotal = year1Total + 3*annualTotal
func Calculate(c Components) Breakdown {
	b := Breakdown{
		BaseSalary:          c.BaseSalary,
		SigningBonus:        c.SigningBonus,
		AnnualBonusMin:      c.Bonus.Min,
		AnnualBonusMax:      c.Bonus.Max,
		AnnualBonusExpected: c.Bonus.Expected,
		Year1Equity:         c.Year1Equity,
		AnnualEquity:        c.AnnualEquity,
		TotalBenefits:       c.TotalBenefits,
	}
	b.Year1Total = c.BaseSalary + c.SigningBonus + c.Bonus.Expected + c.Year1Equity + c.TotalBenefits
	b.AnnualTotal = c.BaseSalary + c.Bonus.Expected + c.AnnualEquity + c.TotalBenefits
	b.FourYearTotal = b.Year1Total + 3*b.AnnualTotal
	return b
}
