package compensation

import (
	"fmt"
	"regexp"
	"strings"
)

// Bonus patterns, tried in declaration order. The first match wins.
var (
	percentRangeRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%?\s*(?:-|–|to)\s*(\d+(?:\.\d+)?)\s*%`)
	percentRe      = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	dollarRangeRe  = regexp.MustCompile(`\$?\s*(\d[\d,]*(?:\.\d+)?)\s*[kK]?\s*(?:-|–|to)\s*\$?\s*(\d[\d,]*(?:\.\d+)?)`)
	dollarRe       = regexp.MustCompile(`\$?\s*(\d[\d,]*(?:\.\d+)?)`)
)

// BonusRange is a normalized annual bonus. Expected is the midpoint of Min and
// Max.
//
// Parsed is false when the raw value could not be interpreted; the amounts are
// then zero and Diagnostic says why. An absent bonus is Parsed with zeros.
type BonusRange struct {
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Expected   float64 `json:"expected"`
	Parsed     bool    `json:"parsed"`
	Diagnostic string  `json:"diagnostic,omitempty"`
}

// ParseBonus normalizes an annual bonus field against baseSalary. It never
// fails: unrecognized input yields a zero range with Parsed set to false.
//
// Percentages are taken of baseSalary. In dollar strings a letter "k" anywhere
// in the raw text scales every number by 1000, so "$10-$20k" reads as
// 10000-20000.
func ParseBonus(raw any, baseSalary float64) BonusRange {
	switch v := raw.(type) {
	case nil:
		return BonusRange{Parsed: true}
	case string:
		return parseBonusText(v, baseSalary)
	}

	if n, ok := AsFloat(raw); ok {
		return BonusRange{Min: n, Max: n, Expected: n, Parsed: true}
	}
	return unparsedBonus(fmt.Sprintf("unsupported bonus value of type %T", raw))
}

func parseBonusText(raw string, baseSalary float64) BonusRange {
	s := strings.TrimSpace(raw)
	if s == "" {
		return BonusRange{Parsed: true}
	}

	if m := percentRangeRe.FindStringSubmatch(s); m != nil {
		lo, okLo := parseNumber(m[1])
		hi, okHi := parseNumber(m[2])
		if okLo && okHi {
			return newBonusRange(baseSalary*lo/100, baseSalary*hi/100)
		}
	}

	if m := percentRe.FindStringSubmatch(s); m != nil {
		if pct, ok := parseNumber(m[1]); ok {
			v := baseSalary * pct / 100
			return newBonusRange(v, v)
		}
	}

	scale := 1.0
	if strings.Contains(strings.ToLower(s), "k") {
		scale = 1000
	}

	if m := dollarRangeRe.FindStringSubmatch(s); m != nil {
		lo, okLo := parseNumber(m[1])
		hi, okHi := parseNumber(m[2])
		if okLo && okHi {
			return newBonusRange(lo*scale, hi*scale)
		}
	}

	if m := dollarRe.FindStringSubmatch(s); m != nil {
		if v, ok := parseNumber(m[1]); ok {
			return newBonusRange(v*scale, v*scale)
		}
	}

	return unparsedBonus(fmt.Sprintf("could not interpret bonus %q", raw))
}

func newBonusRange(lo, hi float64) BonusRange {
	return BonusRange{Min: lo, Max: hi, Expected: (lo + hi) / 2, Parsed: true}
}

func unparsedBonus(msg string) BonusRange {
	return BonusRange{Parsed: false, Diagnostic: msg}
}
