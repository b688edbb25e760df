package prep

import (
	"context"
	"fmt"
	"math"

	"jobmate/offer-service/internal/negotiation"
)

// TemplateGenerator fills fixed templates with the offer's numbers. It never
// fails and needs no network, so it backs up the AI generator.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator { return &TemplateGenerator{} }

func (*TemplateGenerator) Name() string { return "template" }

func (*TemplateGenerator) Generate(_ context.Context, req Request) (Materials, error) {
	company := req.Company
	if company == "" {
		company = "the company"
	}
	role := req.Role
	if role == "" {
		role = "this role"
	}
	b := req.Breakdown

	var m Materials
	m.TalkingPoints = append(m.TalkingPoints,
		fmt.Sprintf("The offer's first-year value is %s and %s a year after that.", money(b.Year1Total), money(b.AnnualTotal)),
	)
	if req.Market.WellFormed() {
		m.TalkingPoints = append(m.TalkingPoints,
			fmt.Sprintf("The market median for %s is %s; the 75th percentile is %s.",
				role, money(req.Market.MedianSalary), money(req.Market.Percentile75)))
		if req.Score.PercentileVsMarket != nil {
			m.TalkingPoints = append(m.TalkingPoints,
				fmt.Sprintf("This offer lands around the %.0fth percentile of the market.", *req.Score.PercentileVsMarket))
		}
	}
	if req.YearsExperience > 0 {
		m.TalkingPoints = append(m.TalkingPoints,
			fmt.Sprintf("I bring %d years of directly relevant experience.", req.YearsExperience))
	}
	m.TalkingPoints = append(m.TalkingPoints,
		fmt.Sprintf("My priority in this conversation is %s.", lower(req.Focus.Primary)))

	target := b.BaseSalary * 1.1
	if req.Market.WellFormed() && req.Market.Percentile75 > target {
		target = req.Market.Percentile75
	}

	switch req.Focus.Primary {
	case negotiation.BaseSalary:
		m.Scripts = append(m.Scripts,
			fmt.Sprintf("Thank you for the offer. I'm excited about joining %s. Based on my research and experience, "+
				"I was expecting a base salary closer to %s. Is there flexibility there?", company, money(roundTo(target, 1000))),
			"If the base is fixed, could we look at a signing bonus to bridge the difference in the first year?",
		)
	case negotiation.EquityOrSigningBonus:
		m.Scripts = append(m.Scripts,
			fmt.Sprintf("The base salary is competitive and I appreciate that. To make this an easy yes, "+
				"would %s consider an additional equity grant or a signing bonus?", company),
			"Could you walk me through the vesting schedule and how refresh grants work?",
		)
	default:
		m.Scripts = append(m.Scripts,
			fmt.Sprintf("I'm very happy with the compensation and ready to move forward with %s.", company),
			"Before I sign, could we discuss flexibility on the start date, remote work and PTO?",
		)
	}

	m.ConfidenceExercises = []string{
		"Say your target number out loud three times before the call.",
		"Write down your walk-away number and the reason behind it.",
		"Role-play the conversation with a friend, including a firm no.",
	}
	return m, nil
}

func money(v float64) string {
	neg := v < 0
	n := int64(math.Round(math.Abs(v)))
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "-$" + s
	}
	return "$" + s
}

func roundTo(v, step float64) float64 { return math.Round(v/step) * step }

func lower(s string) string {
	if s == "" {
		return "total compensation"
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
