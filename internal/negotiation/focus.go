// Package negotiation turns an offer's market position and the user's prep
// materials into negotiation guidance.
//
// Focus tiers by percentile vs market:
//
//	  0 ──── 25 ──── 50 ──── 75 ──── 99
//	  │ HIGH  │ MEDIUM │  LOW  │  LOW  │
//	  │ base  │ base   │ equity│ perks │
package negotiation

import "fmt"

// Urgency says how hard the user should push.
type Urgency string

const (
	UrgencyHigh   Urgency = "HIGH"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyLow    Urgency = "LOW"
)

// Component labels.
const (
	BaseSalary           = "Base Salary"
	SigningBonus         = "Signing Bonus"
	Equity               = "Equity"
	Benefits             = "Benefits"
	RemoteFlexibility    = "Remote Flexibility"
	EquityOrSigningBonus = "Equity or Signing Bonus"
	BenefitsFlexibility  = "Benefits and Flexibility"
)

// Focus names the compensation component to negotiate first.
type Focus struct {
	Primary     string   `json:"primary"`
	Secondary   []string `json:"secondary"`
	Urgency     Urgency  `json:"urgency"`
	ActionItems []string `json:"actionItems"`
	Reasoning   string   `json:"reasoning"`
}

// Plan picks the negotiation focus for an offer at percentile. A nil
// percentile means there was no market data; Plan then falls back to the
// medium base-salary tier and says so in Reasoning.
func Plan(percentile *float64) Focus {
	if percentile == nil {
		f := baseSalaryMedium()
		f.Reasoning = "No market data was available for this role and location. " +
			"Base salary is the safest lever until you have a market benchmark."
		return f
	}

	p := *percentile
	switch {
	case p < 25:
		return Focus{
			Primary:   BaseSalary,
			Secondary: []string{SigningBonus, Equity},
			Urgency:   UrgencyHigh,
			ActionItems: []string{
				"Open with a counter on base salary anchored at or above the market median",
				"Bring the market percentiles and two or three comparable offers to the conversation",
				"Ask for a signing bonus to close any remaining first-year gap",
				"Request additional equity if the base cannot move far enough",
			},
			Reasoning: fmt.Sprintf("The offer sits at the %.0fth percentile, well below market. "+
				"Base salary compounds every year and is the biggest gap to close.", p),
		}
	case p < 50:
		f := baseSalaryMedium()
		f.Reasoning = fmt.Sprintf("The offer sits at the %.0fth percentile, below the market median. "+
			"A modest base increase brings it in line.", p)
		return f
	case p < 75:
		return Focus{
			Primary:   EquityOrSigningBonus,
			Secondary: []string{Benefits, RemoteFlexibility},
			Urgency:   UrgencyLow,
			ActionItems: []string{
				"Acknowledge the competitive base and shift the ask to equity or a signing bonus",
				"Clarify the vesting schedule, cliff and refresh grant policy",
				"Ask about remote or hybrid flexibility and professional development budget",
			},
			Reasoning: fmt.Sprintf("The offer sits at the %.0fth percentile, above the market median. "+
				"Base has little room left; one-time and long-term components are easier to move.", p),
		}
	}
	return Focus{
		Primary:   BenefitsFlexibility,
		Secondary: []string{},
		Urgency:   UrgencyLow,
		ActionItems: []string{
			"Express enthusiasm; the compensation is already strong",
			"Focus any asks on start date, PTO, flexibility or title",
			"Confirm the details of benefits and equity in writing before accepting",
		},
		Reasoning: fmt.Sprintf("The offer sits at the %.0fth percentile, in the top quarter of the market. "+
			"Pushing hard on cash risks goodwill for little gain.", p),
	}
}

func baseSalaryMedium() Focus {
	return Focus{
		Primary:   BaseSalary,
		Secondary: []string{SigningBonus, Benefits},
		Urgency:   UrgencyMedium,
		ActionItems: []string{
			"Counter on base salary with a specific number near the market median",
			"Support the ask with your most relevant accomplishments",
			"Use a signing bonus or improved benefits as a fallback if base is capped",
		},
	}
}
