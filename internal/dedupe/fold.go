package dedupe

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldT strips diacritics so "Müller" and "Mueller"-adjacent "Muller"
// spellings compare equal.
var foldT = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// honorifics are stripped from names before matching.
var honorifics = map[string]bool{
	"dr": true, "dr.": true, "prof": true, "prof.": true,
	"mr": true, "mr.": true, "ms": true, "ms.": true, "mrs": true, "mrs.": true,
	"herr": true, "frau": true, "sir": true,
}

// fold lowercases and removes diacritics.
func fold(s string) string {
	out, _, err := transform.String(foldT, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// normalizeName folds a person name and drops honorific prefixes.
func normalizeName(s string) string {
	fields := strings.Fields(fold(s))
	for len(fields) > 0 && honorifics[fields[0]] {
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

// namesMatch implements the fuzzy name contract: equal after
// normalization, containment, or a shared multi-character token when both
// names have at least two tokens (middle names, initials, nicknames).
func namesMatch(a, b string) bool {
	na, nb := normalizeName(a), normalizeName(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}

	ta, tb := strings.Fields(na), strings.Fields(nb)
	if len(ta) < 2 || len(tb) < 2 {
		return false
	}
	for _, x := range ta {
		if len(x) < 3 {
			continue
		}
		for _, y := range tb {
			if x == y {
				return true
			}
		}
	}
	return false
}

// orgsCompatible reports whether two organization strings can belong to the
// same person: either is empty, they fold equal, or one contains the other
// ("Acme" vs "Acme Inc").
func orgsCompatible(a, b string) bool {
	fa, fb := fold(a), fold(b)
	if fa == "" || fb == "" {
		return true
	}
	return fa == fb || strings.Contains(fa, fb) || strings.Contains(fb, fa)
}
