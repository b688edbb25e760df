// Package market supplies salary percentiles for a role and location.
//
// A Provider returns (nil, nil) when it has no data for a query. Callers
// treat that, and any provider error, as "no market context" and score the
// offer on absolute compensation instead.
package market

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SalaryData is a snapshot of market pay for one query. The percentiles are
// expected to be non-decreasing but nothing enforces it.
type SalaryData struct {
	MedianSalary float64   `json:"medianSalary"`
	Percentile25 float64   `json:"percentile25"`
	Percentile75 float64   `json:"percentile75"`
	Percentile90 float64   `json:"percentile90"`
	SampleSize   int       `json:"sampleSize,omitempty"`
	Source       string    `json:"source,omitempty"`
	FetchedAt    time.Time `json:"fetchedAt,omitempty"`
}

// WellFormed reports whether d can back a negotiation: it must exist, carry a
// positive median and no negative percentile.
func (d *SalaryData) WellFormed() bool {
	if d == nil || d.MedianSalary <= 0 {
		return false
	}
	return d.Percentile25 >= 0 && d.Percentile75 >= 0 && d.Percentile90 >= 0
}

// Median returns the median salary, or 0 for nil data.
func (d *SalaryData) Median() float64 {
	if d == nil {
		return 0
	}
	return d.MedianSalary
}

// Query identifies a market lookup.
type Query struct {
	Role            string `json:"role"`
	Location        string `json:"location"`
	YearsExperience int    `json:"yearsExperience"`
}

// Key is a normalized cache key for q.
func (q Query) Key() string {
	norm := func(s string) string { return strings.Join(strings.Fields(strings.ToLower(s)), "-") }
	return fmt.Sprintf("%s|%s|%d", norm(q.Role), norm(q.Location), q.YearsExperience)
}

// Provider looks up market salary data.
type Provider interface {
	Lookup(ctx context.Context, q Query) (*SalaryData, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, q Query) (*SalaryData, error)

func (f ProviderFunc) Lookup(ctx context.Context, q Query) (*SalaryData, error) { return f(ctx, q) }
