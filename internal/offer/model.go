package offer

import (
	"time"

	"jobmate/offer-service/internal/compensation"
	"jobmate/offer-service/internal/market"
	"jobmate/offer-service/internal/negotiation"
	"jobmate/offer-service/internal/prep"
	"jobmate/offer-service/internal/scoring"
)

// Record is a stored offer. The compensation sub-fields in Offer are only ever
// changed by the user; evaluations are derived and stored alongside.
type Record struct {
	ID              string             `json:"id"`
	UserID          string             `json:"userId"`
	Company         string             `json:"company"`
	Role            string             `json:"role"`
	YearsExperience int                `json:"yearsExperience"`
	Status          Status             `json:"status"`
	Offer           compensation.Offer `json:"offer"`
	Factors         scoring.Factors    `json:"factors"`
	Weights         *scoring.Weights   `json:"weights,omitempty"`
	Evaluation      *Evaluation        `json:"evaluation,omitempty"`
	History         []HistoryEntry     `json:"history"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// HistoryEntry records one status change.
type HistoryEntry struct {
	From Status    `json:"from"`
	To   Status    `json:"to"`
	At   time.Time `json:"at"`
	Note string    `json:"note,omitempty"`
}

// Evaluation is a valuation plus score at a point in time.
type Evaluation struct {
	Valuation   compensation.Valuation `json:"valuation"`
	Score       scoring.OfferScore     `json:"score"`
	MarketData  *market.SalaryData     `json:"marketData,omitempty"`
	EvaluatedAt time.Time              `json:"evaluatedAt"`
}

// Input is an offer submitted for evaluation without being stored. Stored
// records are evaluated through the same path via Record.input.
type Input struct {
	Label           string             `json:"label,omitempty"`
	Company         string             `json:"company,omitempty"`
	Role            string             `json:"role,omitempty"`
	YearsExperience int                `json:"yearsExperience,omitempty"`
	Offer           compensation.Offer `json:"offer"`
	Factors         scoring.Factors    `json:"factors"`
	Weights         *scoring.Weights   `json:"weights,omitempty"`
}

func (r *Record) input() Input {
	o := r.Offer
	if o.OfferID == "" {
		o.OfferID = r.ID
	}
	return Input{
		Label:           r.Company,
		Company:         r.Company,
		Role:            r.Role,
		YearsExperience: r.YearsExperience,
		Offer:           o,
		Factors:         r.Factors,
		Weights:         r.Weights,
	}
}

// Patch is a partial update. Nil fields are left unchanged; a non-nil Offer
// replaces the compensation sub-fields wholesale.
type Patch struct {
	Company         *string             `json:"company"`
	Role            *string             `json:"role"`
	YearsExperience *int                `json:"yearsExperience"`
	Offer           *compensation.Offer `json:"offer"`
	Factors         *scoring.Factors    `json:"factors"`
	Weights         *scoring.Weights    `json:"weights"`
}

// apply writes the patch onto r. It reports whether any field feeding the
// valuation or score changed, which makes a stored evaluation stale.
func (p Patch) apply(r *Record) (stale bool) {
	if p.Company != nil {
		r.Company = *p.Company
	}
	if p.Role != nil {
		r.Role = *p.Role
		stale = true
	}
	if p.YearsExperience != nil {
		r.YearsExperience = *p.YearsExperience
		stale = true
	}
	if p.Offer != nil {
		r.Offer = p.Offer.Clone()
		stale = true
	}
	if p.Factors != nil {
		r.Factors = *p.Factors
		stale = true
	}
	if p.Weights != nil {
		w := *p.Weights
		r.Weights = &w
		stale = true
	}
	return stale
}

// Negotiation is the full prep package for one offer.
type Negotiation struct {
	OfferID    string                `json:"offerId,omitempty"`
	Evaluation Evaluation            `json:"evaluation"`
	Focus      negotiation.Focus     `json:"focus"`
	Materials  prep.Materials        `json:"materials"`
	Generator  string                `json:"generator"`
	Readiness  negotiation.Readiness `json:"readiness"`
}
