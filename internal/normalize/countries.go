package normalize

import "strings"

// isoCountries maps ISO 3166-1 alpha-2 codes to full country names. Only
// codes we've actually seen in event pages need to be here; unknown codes
// pass through unchanged.
var isoCountries = map[string]string{
	"at": "Austria",
	"au": "Australia",
	"be": "Belgium",
	"br": "Brazil",
	"ca": "Canada",
	"ch": "Switzerland",
	"cn": "China",
	"cz": "Czech Republic",
	"de": "Germany",
	"dk": "Denmark",
	"es": "Spain",
	"fi": "Finland",
	"fr": "France",
	"gb": "United Kingdom",
	"uk": "United Kingdom",
	"ie": "Ireland",
	"in": "India",
	"it": "Italy",
	"jp": "Japan",
	"kr": "South Korea",
	"mx": "Mexico",
	"nl": "Netherlands",
	"no": "Norway",
	"pl": "Poland",
	"pt": "Portugal",
	"se": "Sweden",
	"sg": "Singapore",
	"us": "United States",
	"ae": "United Arab Emirates",
	"za": "South Africa",
}

// CountryName expands a two-letter country code to its full name. Values
// that are not two-letter codes are returned as-is (already full names).
func CountryName(s string) string {
	s = strings.TrimSpace(s)
	if len(s) != 2 {
		return s
	}
	if name, ok := isoCountries[strings.ToLower(s)]; ok {
		return name
	}
	return s
}

// CountryForTLD guesses a country name from a hostname's top-level domain.
// Generic TLDs return "".
func CountryForTLD(host string) string {
	idx := strings.LastIndex(host, ".")
	if idx < 0 {
		return ""
	}
	tld := strings.ToLower(host[idx+1:])
	if name, ok := isoCountries[tld]; ok {
		return name
	}
	return ""
}
