package negotiation

import (
	"jobmate/offer-service/internal/market"
	"jobmate/offer-service/internal/scoring"
)

// PrepMaterials are the artifacts a user has to negotiate with. The texts are
// opaque here: only their presence and count matter.
type PrepMaterials struct {
	TalkingPoints       []string           `json:"talkingPoints"`
	Scripts             []string           `json:"scripts"`
	ConfidenceExercises []string           `json:"confidenceExercises"`
	MarketData          *market.SalaryData `json:"marketData,omitempty"`
}

// Interpretation labels a readiness score.
type Interpretation string

const (
	Excellent Interpretation = "Excellent"
	Strong    Interpretation = "Strong"
	Good      Interpretation = "Good"
	Fair      Interpretation = "Fair"
)

// Per-component caps; they add up to 100.
const (
	maxTalkingPoints = 25
	marketDataPoints = 25
	maxScripts       = 20
	maxExercises     = 15
	maxExperience    = 15
)

// ReadinessComponents is the score breakdown.
type ReadinessComponents struct {
	TalkingPoints       float64 `json:"talkingPoints"`
	MarketData          float64 `json:"marketData"`
	Scripts             float64 `json:"scripts"`
	ConfidenceExercises float64 `json:"confidenceExercises"`
	Experience          float64 `json:"experience"`
}

// Readiness scores how complete a user's preparation is. It measures
// completeness only and must not be shown as a chance of success.
type Readiness struct {
	ReadinessScore      float64                `json:"readinessScore"`
	Interpretation      Interpretation         `json:"interpretation"`
	Components          ReadinessComponents    `json:"components"`
	OfferRecommendation scoring.Recommendation `json:"offerRecommendation,omitempty"`
}

// Assess scores p. offerScore is optional and only echoed back as
// OfferRecommendation; it does not change the readiness score.
func Assess(p PrepMaterials, offerScore *scoring.OfferScore, yearsExperience int) Readiness {
	c := ReadinessComponents{
		TalkingPoints:       capAt(float64(len(p.TalkingPoints))*5, maxTalkingPoints),
		Scripts:             capAt(float64(len(p.Scripts))*7, maxScripts),
		ConfidenceExercises: capAt(float64(len(p.ConfidenceExercises))*5, maxExercises),
		Experience:          capAt(float64(yearsExperience-1)*2, maxExperience),
	}
	if c.Experience < 0 {
		c.Experience = 0
	}
	if p.MarketData.WellFormed() {
		c.MarketData = marketDataPoints
	}

	total := capAt(c.TalkingPoints+c.MarketData+c.Scripts+c.ConfidenceExercises+c.Experience, 100)
	r := Readiness{
		ReadinessScore: total,
		Interpretation: Interpret(total),
		Components:     c,
	}
	if offerScore != nil {
		r.OfferRecommendation = offerScore.Recommendation
	}
	return r
}

// Interpret maps a readiness score to its label.
func Interpret(score float64) Interpretation {
	switch {
	case score >= 85:
		return Excellent
	case score >= 70:
		return Strong
	case score >= 50:
		return Good
	}
	return Fair
}

func capAt(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}
