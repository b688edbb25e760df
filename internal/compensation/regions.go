package compensation

var countrySuffixes = []string{"united states of america", "united states", "usa", "us"}

// usStates maps state names and postal codes to the lowercase postal code.
var usStates = func() map[string]string {
	names := map[string]string{
		"al": "alabama", "ak": "alaska", "az": "arizona", "ar": "arkansas", "ca": "california",
		"co": "colorado", "ct": "connecticut", "de": "delaware", "dc": "district of columbia",
		"fl": "florida", "ga": "georgia", "hi": "hawaii", "id": "idaho", "il": "illinois",
		"in": "indiana", "ia": "iowa", "ks": "kansas", "ky": "kentucky", "la": "louisiana",
		"me": "maine", "md": "maryland", "ma": "massachusetts", "mi": "michigan", "mn": "minnesota",
		"ms": "mississippi", "mo": "missouri", "mt": "montana", "ne": "nebraska", "nv": "nevada",
		"nh": "new hampshire", "nj": "new jersey", "nm": "new mexico", "ny": "new york",
		"nc": "north carolina", "nd": "north dakota", "oh": "ohio", "ok": "oklahoma", "or": "oregon",
		"pa": "pennsylvania", "ri": "rhode island", "sc": "south carolina", "sd": "south dakota",
		"tn": "tennessee", "tx": "texas", "ut": "utah", "vt": "vermont", "va": "virginia",
		"wa": "washington", "wv": "west virginia", "wi": "wisconsin", "wy": "wyoming",
	}
	m := make(map[string]string, 2*len(names))
	for code, name := range names {
		m[code] = code
		m[name] = code
	}
	return m
}()
