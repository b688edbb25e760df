// Package compensation turns the free-form compensation fields of a job offer
// into normalized dollar figures.
//
// Every function in this package is pure: it reads an Offer and returns new
// values. Nothing here performs I/O or mutates its input, so the same Offer can
// be valued repeatedly for what-if scenarios.
//
// Pipeline:
//
//	Offer ──► ParseBonus ─────┐
//	      ──► ValueEquity ────┤
//	      ──► ValueBenefits ──┼──► Calculate ──► Breakdown
//	      ──► Adjuster.Adjust ┘
package compensation

// Offer is one job offer under evaluation.
//
// AnnualBonus accepts a number, a percentage string ("10-20%") or a dollar
// string ("$10k-$20k"). Benefits maps a benefit name to a flat dollar amount;
// the retirement match may also be a percentage string ("5%").
type Offer struct {
	OfferID      string         `json:"offerId,omitempty"`
	BaseSalary   float64        `json:"baseSalary"`
	SigningBonus float64        `json:"signingBonus"`
	AnnualBonus  any            `json:"annualBonus,omitempty"`
	EquityGrant  *EquityGrant   `json:"equityGrant,omitempty"`
	Benefits     map[string]any `json:"benefits,omitempty"`
	PTODays      int            `json:"ptoDays"`
	Location     string         `json:"location,omitempty"`
}

// Clone returns a deep copy of o. Scenario runs apply their changes to the
// clone so the caller's offer is never touched.
func (o Offer) Clone() Offer {
	c := o
	if o.EquityGrant != nil {
		g := *o.EquityGrant
		c.EquityGrant = &g
	}
	if o.Benefits != nil {
		c.Benefits = make(map[string]any, len(o.Benefits))
		for k, v := range o.Benefits {
			c.Benefits[k] = v
		}
	}
	return c
}

// Diagnostic reports a field the pipeline could not interpret. The value that
// goes with it is always a usable best-effort number (usually zero), so callers
// can show a figure and still ask the user to double-check the field.
type Diagnostic struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
