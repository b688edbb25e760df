package compensation

import (
	"fmt"
	"strings"
)

// EquityType names the kind of equity grant.
type EquityType string

const (
	EquityRSU         EquityType = "RSU"
	EquityISO         EquityType = "ISO"
	EquityNSO         EquityType = "NSO"
	EquityStockOption EquityType = "StockOption"
)

// DefaultVestingYears replaces a missing or non-positive vesting period.
const DefaultVestingYears = 4.0

// EquityGrant describes shares granted with an offer. StrikePrice only
// applies to options.
type EquityGrant struct {
	Type         EquityType `json:"type"`
	Shares       int64      `json:"shares"`
	CurrentPrice float64    `json:"currentPrice"`
	StrikePrice  float64    `json:"strikePrice,omitempty"`
	VestingYears float64    `json:"vestingYears,omitempty"`
	CliffMonths  int        `json:"cliffMonths,omitempty"`
}

// EquityValue is the dollar value of a grant at issuance and per year of
// vesting.
type EquityValue struct {
	TotalValue  float64 `json:"totalValue"`
	Year1Value  float64 `json:"year1Value"`
	AnnualValue float64 `json:"annualEquityValue"`
	Diagnostic  string  `json:"diagnostic,omitempty"`
}

type equityKind int

const (
	kindUnknown equityKind = iota
	kindRSU
	kindOption
)

// classifyEquity accepts the spellings users actually type:
// "RSU", "Restricted Stock Units", "ISO", "NSO", "Stock Options", ...
func classifyEquity(t EquityType) equityKind {
	key := strings.ToLower(string(t))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	switch key {
	case "rsu", "rsus", "restrictedstockunit", "restrictedstockunits":
		return kindRSU
	case "iso", "isos", "nso", "nsos", "nqso", "stockoption", "stockoptions", "options",
		"incentivestockoption", "incentivestockoptions",
		"nonqualifiedstockoption", "nonqualifiedstockoptions":
		return kindOption
	}
	return kindUnknown
}

// ValueEquity values g. A nil grant is worth nothing.
//
// Options at or under water are worth zero. With a cliff of at least twelve
// months the first year vests as one lump equal to a full year; shorter cliffs
// vest monthly from day one.
//
// Negative share counts or prices are not rejected.
func ValueEquity(g *EquityGrant) EquityValue {
	if g == nil {
		return EquityValue{}
	}

	var perShare float64
	switch classifyEquity(g.Type) {
	case kindRSU:
		perShare = g.CurrentPrice
	case kindOption:
		if g.CurrentPrice <= g.StrikePrice {
			return EquityValue{}
		}
		perShare = g.CurrentPrice - g.StrikePrice
	default:
		return EquityValue{Diagnostic: fmt.Sprintf("unknown equity type %q", g.Type)}
	}

	vestingYears := g.VestingYears
	if vestingYears <= 0 {
		vestingYears = DefaultVestingYears
	}

	shares := float64(g.Shares)
	total := shares * perShare
	annual := total / vestingYears

	year1 := annual
	if g.CliffMonths < 12 {
		monthly := shares / (vestingYears * 12)
		year1 = monthly * 12 * perShare
	}

	return EquityValue{TotalValue: total, Year1Value: year1, AnnualValue: annual}
}
