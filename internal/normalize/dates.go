package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// monthNames maps localized month names (and common abbreviations) to month
// numbers. Covers English, German, French, Spanish, and Italian.
var monthNames = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7, "aug": 8,
	"sep": 9, "sept": 9, "oct": 10, "nov": 11, "dec": 12,
	"januar": 1, "februar": 2, "märz": 3, "maerz": 3, "mai": 5, "juni": 6,
	"juli": 7, "oktober": 10, "dezember": 12,
	"janvier": 1, "février": 2, "fevrier": 2, "mars": 3, "avril": 4,
	"juin": 6, "juillet": 7, "août": 8, "aout": 8, "septembre": 9,
	"octobre": 10, "novembre": 11, "décembre": 12, "decembre": 12,
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4, "mayo": 5, "junio": 6,
	"julio": 7, "agosto": 8, "septiembre": 9, "octubre": 10, "noviembre": 11, "diciembre": 12,
	"gennaio": 1, "febbraio": 2, "aprile": 4, "maggio": 5, "giugno": 6,
	"luglio": 7, "settembre": 9, "ottobre": 10, "dicembre": 12,
}

var (
	isoDateRe = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})`)
	// 25.09.2025 or 25.9.25
	dottedRe = regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{2,4})\b`)
	// 18./19.09.2025 and 18.-20.09.2025 day ranges
	dottedRangeRe = regexp.MustCompile(`\b(\d{1,2})\.\s*[/\-–]\s*(\d{1,2})\.(\d{1,2})\.(\d{2,4})\b`)
	// "25. September 2025", "25 September 2025", "25 de septiembre de 2025"
	dayMonthYearRe = regexp.MustCompile(`(?i)\b(\d{1,2})\.?\s+(?:de\s+)?(\p{L}+)\s+(?:de\s+)?(\d{4})\b`)
	// "September 25, 2025", "September 25 2025"
	monthDayYearRe = regexp.MustCompile(`(?i)\b(\p{L}+)\s+(\d{1,2}),?\s+(\d{4})\b`)
)

// ToISODate parses a date token in one of the supported shapes and returns
// it as YYYY-MM-DD, or "" when nothing parseable is found. Time-of-day and
// timezone suffixes are dropped.
func ToISODate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		return isoDateFromParts(m[3], m[2], m[1])
	}
	if m := dottedRe.FindStringSubmatch(s); m != nil {
		return isoDateFromParts(m[1], m[2], m[3])
	}
	if m := dayMonthYearRe.FindStringSubmatch(s); m != nil {
		if mon, ok := monthNames[strings.ToLower(m[2])]; ok {
			return isoDateFromParts(m[1], strconv.Itoa(mon), m[3])
		}
	}
	if m := monthDayYearRe.FindStringSubmatch(s); m != nil {
		if mon, ok := monthNames[strings.ToLower(m[1])]; ok {
			return isoDateFromParts(m[2], strconv.Itoa(mon), m[3])
		}
	}
	return ""
}

// ToISODateRange parses a date or day-range token and returns ISO start and
// end dates. Single dates return end == "". "18./19.09.2025" yields
// 2025-09-18 / 2025-09-19.
func ToISODateRange(s string) (start, end string) {
	if m := dottedRangeRe.FindStringSubmatch(s); m != nil {
		start = isoDateFromParts(m[1], m[3], m[4])
		end = isoDateFromParts(m[2], m[3], m[4])
		if start != "" && end != "" {
			return start, end
		}
	}
	return ToISODate(s), ""
}

// isoDateFromParts validates day/month/year strings and formats them. Two
// digit years are pinned to the 2000s.
func isoDateFromParts(day, month, year string) string {
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return ""
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return ""
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return ""
	}
	if y < 100 {
		y += 2000
	}
	if y < 1990 || y > 2100 {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}
