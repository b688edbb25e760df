package compensation

import (
	"strings"
	"sync/atomic"
	"unicode"
)

// National-average defaults for locations the table does not know.
const (
	DefaultCOLIndex = 100.0
	DefaultTaxRate  = 0.28
)

// LocationProfile is the cost-of-living data for one metro area. A COLIndex
// of 100 is the national average.
type LocationProfile struct {
	Name     string   `mapstructure:"name" json:"name"`
	COLIndex float64  `mapstructure:"colIndex" json:"colIndex"`
	TaxRate  float64  `mapstructure:"taxRate" json:"taxRate"`
	Aliases  []string `mapstructure:"aliases" json:"aliases,omitempty"`
}

// LocationProvider resolves a free-text location to a profile.
type LocationProvider interface {
	Lookup(location string) (LocationProfile, bool)
}

// DefaultLocations is the built-in metro snapshot. Deployments replace it with
// the locations list of the config file.
func DefaultLocations() []LocationProfile {
	return []LocationProfile{
		{Name: "San Francisco, CA", COLIndex: 179, TaxRate: 0.35, Aliases: []string{"SF", "Bay Area", "San Jose, CA"}},
		{Name: "New York, NY", COLIndex: 168, TaxRate: 0.36, Aliases: []string{"NYC", "Manhattan", "Brooklyn"}},
		{Name: "Los Angeles, CA", COLIndex: 166, TaxRate: 0.34, Aliases: []string{"LA"}},
		{Name: "Boston, MA", COLIndex: 152, TaxRate: 0.33},
		{Name: "Seattle, WA", COLIndex: 150, TaxRate: 0.30},
		{Name: "Washington, DC", COLIndex: 148, TaxRate: 0.33},
		{Name: "San Diego, CA", COLIndex: 145, TaxRate: 0.34},
		{Name: "Denver, CO", COLIndex: 128, TaxRate: 0.30},
		{Name: "Chicago, IL", COLIndex: 123, TaxRate: 0.31},
		{Name: "Austin, TX", COLIndex: 119, TaxRate: 0.26},
		{Name: "Portland, OR", COLIndex: 118, TaxRate: 0.33},
		{Name: "Miami, FL", COLIndex: 116, TaxRate: 0.26},
		{Name: "Atlanta, GA", COLIndex: 107, TaxRate: 0.29},
		{Name: "Dallas, TX", COLIndex: 106, TaxRate: 0.26},
		{Name: "Raleigh, NC", COLIndex: 103, TaxRate: 0.29},
		{Name: "Remote", COLIndex: DefaultCOLIndex, TaxRate: DefaultTaxRate},
		{Name: "Other", COLIndex: DefaultCOLIndex, TaxRate: DefaultTaxRate},
	}
}

// LocationTable is an immutable LocationProvider built from a list of
// profiles. Lookups try an exact (case-insensitive) name or alias first and
// then the city part of each name, in list order. A city match only counts
// when the input names no region or the same region as the profile.
type LocationTable struct {
	exact    map[string]LocationProfile
	profiles []LocationProfile
}

// NewLocationTable builds a table. Later duplicates of a name are ignored.
func NewLocationTable(profiles []LocationProfile) *LocationTable {
	t := &LocationTable{
		exact:    make(map[string]LocationProfile, len(profiles)),
		profiles: make([]LocationProfile, 0, len(profiles)),
	}
	for _, p := range profiles {
		key := normalizeLocation(p.Name)
		if key == "" {
			continue
		}
		if _, dup := t.exact[key]; dup {
			continue
		}
		t.exact[key] = p
		for _, a := range p.Aliases {
			if ak := normalizeLocation(a); ak != "" {
				if _, dup := t.exact[ak]; !dup {
					t.exact[ak] = p
				}
			}
		}
		t.profiles = append(t.profiles, p)
	}
	return t
}

// Lookup implements LocationProvider.
func (t *LocationTable) Lookup(location string) (LocationProfile, bool) {
	key := normalizeLocation(location)
	if key == "" {
		return LocationProfile{}, false
	}
	if p, ok := t.exact[key]; ok {
		return p, true
	}
	city, region := splitLocation(key)
	words := " " + city + " "
	for _, p := range t.profiles {
		pCity, pRegion := splitLocation(normalizeLocation(p.Name))
		if pCity == "" || !strings.Contains(words, " "+pCity+" ") {
			continue
		}
		// A qualified location must name the profile's region too, so
		// "Portland, ME" never resolves to "Portland, OR".
		if region == "" || region == pRegion {
			return p, true
		}
	}
	return LocationProfile{}, false
}

// splitLocation separates the city words from a region qualifier. The region
// is whatever follows the first comma or, without a comma, a trailing state
// name, state code or the word "state". It is returned as a state code when
// it names a US state, and empty when absent or only a country.
func splitLocation(s string) (city, region string) {
	if i := strings.IndexByte(s, ','); i >= 0 {
		return wordsOf(s[:i]), regionCode(wordsOf(s[i+1:]))
	}
	words := strings.Fields(wordsOf(s))
	for n := 3; n >= 1; n-- {
		if len(words) <= n {
			continue
		}
		tail := strings.Join(words[len(words)-n:], " ")
		if _, ok := usStates[tail]; ok || tail == "state" {
			return strings.Join(words[:len(words)-n], " "), regionCode(tail)
		}
	}
	return strings.Join(words, " "), ""
}

func regionCode(r string) string {
	var words []string
	letters := true
	for _, w := range strings.Fields(r) {
		if strings.Trim(w, "0123456789") == "" {
			continue // zip code
		}
		letters = letters && len(w) == 1
		words = append(words, w)
	}
	if letters && len(words) > 1 {
		words = []string{strings.Join(words, "")} // "d c" from "D.C."
	}
	for _, c := range countrySuffixes {
		cw := strings.Fields(c)
		if len(words) >= len(cw) && strings.Join(words[len(words)-len(cw):], " ") == c {
			words = words[:len(words)-len(cw)]
			break
		}
	}
	r = strings.Join(words, " ")
	if code, ok := usStates[r]; ok {
		return code
	}
	return r
}

// Profiles returns the table contents in lookup order.
func (t *LocationTable) Profiles() []LocationProfile {
	out := make([]LocationProfile, len(t.profiles))
	copy(out, t.profiles)
	return out
}

func normalizeLocation(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// wordsOf lowercases s and keeps only its letter/digit runs, space separated.
func wordsOf(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}

// ReloadableLocations swaps its whole table atomically, so a config reload
// never exposes a half-updated table to concurrent lookups.
type ReloadableLocations struct {
	table atomic.Pointer[LocationTable]
}

// NewReloadableLocations starts with the given profiles, or the defaults when
// the list is empty.
func NewReloadableLocations(profiles []LocationProfile) *ReloadableLocations {
	r := &ReloadableLocations{}
	r.Replace(profiles)
	return r
}

// Replace installs a new table.
func (r *ReloadableLocations) Replace(profiles []LocationProfile) {
	if len(profiles) == 0 {
		profiles = DefaultLocations()
	}
	r.table.Store(NewLocationTable(profiles))
}

// Lookup implements LocationProvider.
func (r *ReloadableLocations) Lookup(location string) (LocationProfile, bool) {
	return r.table.Load().Lookup(location)
}

// COLAdjustment reports how a salary compares in national-average terms.
type COLAdjustment struct {
	Location       string  `json:"location"`
	MatchedProfile string  `json:"matchedProfile,omitempty"`
	Known          bool    `json:"known"`
	COLIndex       float64 `json:"colIndex"`
	TaxRate        float64 `json:"taxRate"`
	AdjustedSalary float64 `json:"adjustedSalary"`
	AfterTaxSalary float64 `json:"afterTaxSalary"`
}

// Adjuster rescales salaries by cost of living.
type Adjuster struct {
	provider LocationProvider
}

// NewAdjuster returns an Adjuster over p, or over the default table when p is
// nil.
func NewAdjuster(p LocationProvider) *Adjuster {
	if p == nil {
		p = NewLocationTable(DefaultLocations())
	}
	return &Adjuster{provider: p}
}

// Adjust looks up location and rescales baseSalary. A higher index lowers the
// adjusted value of the same nominal salary.
func (a *Adjuster) Adjust(location string, baseSalary float64) COLAdjustment {
	out := COLAdjustment{
		Location: location,
		COLIndex: DefaultCOLIndex,
		TaxRate:  DefaultTaxRate,
	}
	if p, ok := a.provider.Lookup(location); ok {
		out.Known = true
		out.MatchedProfile = p.Name
		if p.COLIndex > 0 {
			out.COLIndex = p.COLIndex
		}
		if p.TaxRate >= 0 && p.TaxRate < 1 {
			out.TaxRate = p.TaxRate
		}
	}
	out.AdjustedSalary = baseSalary * (100 / out.COLIndex)
	out.AfterTaxSalary = baseSalary * (1 - out.TaxRate)
	return out
}
