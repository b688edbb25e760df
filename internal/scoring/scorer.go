// Package scoring rates offers and ranks them against each other.
//
// Score is a pure function of a compensation.Breakdown, the user's
// non-financial ratings and an optional market median. Persisting a score is
// the caller's job.
package scoring

import "jobmate/offer-service/internal/compensation"

// Recommendation is the label attached to a weighted total score.
type Recommendation string

const (
	StrongAccept      Recommendation = "Strong Accept"
	Accept            Recommendation = "Accept"
	Negotiate         Recommendation = "Negotiate"
	ConsiderDeclining Recommendation = "Consider Declining"
)

// DefaultFinancialWeight is the share of the weighted total taken by the
// financial sub-score when the caller does not override it.
const DefaultFinancialWeight = 0.6

// Factors are the user's 1–10 ratings of the non-financial side of an offer.
// Zero means "not rated" and is left out of the average.
type Factors struct {
	CultureFit            float64 `json:"cultureFit,omitempty"`
	GrowthPotential       float64 `json:"growthPotential,omitempty"`
	WorkLifeBalance       float64 `json:"workLifeBalance,omitempty"`
	TeamQuality           float64 `json:"teamQuality,omitempty"`
	MissionAlignment      float64 `json:"missionAlignment,omitempty"`
	Commute               float64 `json:"commute,omitempty"`
	JobSecurity           float64 `json:"jobSecurity,omitempty"`
	LearningOpportunities float64 `json:"learningOpportunities,omitempty"`
}

func (f Factors) values() []float64 {
	return []float64{
		f.CultureFit, f.GrowthPotential, f.WorkLifeBalance, f.TeamQuality,
		f.MissionAlignment, f.Commute, f.JobSecurity, f.LearningOpportunities,
	}
}

// Weights overrides the default weighting. A nil *Weights uses the defaults.
type Weights struct {
	Financial *float64 `json:"financial,omitempty"`
}

// FinancialWeight resolves the financial weight, clamped to [0, 1].
func (w *Weights) FinancialWeight() float64 {
	if w == nil || w.Financial == nil {
		return DefaultFinancialWeight
	}
	return clamp(*w.Financial, 0, 1)
}

// OfferScore is the result of Score. PercentileVsMarket is nil when no market
// median was available.
type OfferScore struct {
	FinancialScore     float64        `json:"financialScore"`
	NonFinancialScore  float64        `json:"nonFinancialScore"`
	WeightedTotalScore float64        `json:"weightedTotalScore"`
	PercentileVsMarket *float64       `json:"percentileVsMarket"`
	Recommendation     Recommendation `json:"recommendation"`
}

// Score rates b. marketMedian <= 0 means no market data; the financial score
// then falls back to absolute compensation breakpoints.
func Score(b compensation.Breakdown, f Factors, marketMedian float64, w *Weights) OfferScore {
	var s OfferScore
	if marketMedian > 0 {
		ratio := b.AnnualTotal / marketMedian
		s.FinancialScore = marketScore(ratio)
		p := clamp((ratio-0.5)*100, 0, 99)
		s.PercentileVsMarket = &p
	} else {
		s.FinancialScore = absoluteScore(b.AnnualTotal)
	}
	s.NonFinancialScore = nonFinancialScore(f)

	weight := w.FinancialWeight()
	s.WeightedTotalScore = s.FinancialScore*weight + s.NonFinancialScore*(1-weight)
	s.Recommendation = Recommend(s.WeightedTotalScore)
	return s
}

// Recommend maps a weighted total to a label. Each tier includes its lower
// bound.
func Recommend(total float64) Recommendation {
	switch {
	case total >= 85:
		return StrongAccept
	case total >= 70:
		return Accept
	case total >= 55:
		return Negotiate
	}
	return ConsiderDeclining
}

func marketScore(ratio float64) float64 {
	switch {
	case ratio >= 1.2:
		return 100
	case ratio >= 1.1:
		return 90
	case ratio >= 1.0:
		return 80
	case ratio >= 0.95:
		return 70
	case ratio >= 0.9:
		return 60
	}
	return clamp(50*ratio/0.9, 0, 50)
}

func absoluteScore(annual float64) float64 {
	switch {
	case annual >= 300000:
		return 100
	case annual >= 200000:
		return 85
	case annual >= 150000:
		return 70
	case annual >= 100000:
		return 55
	}
	return clamp(55*annual/100000, 0, 55)
}

func nonFinancialScore(f Factors) float64 {
	var sum float64
	var n int
	for _, v := range f.values() {
		if v <= 0 {
			continue
		}
		sum += clamp(v, 0, 10)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n) * 10
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
