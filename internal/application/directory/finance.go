package directory

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// The finance department is identified by name, not by a flag in the
// directory data. Both the English and Spanish spellings occur in
// production data, with inconsistent casing and accents.
var financeNameFragments = []string{"accounting", "contabilidad"}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldName lower-cases a department name and strips diacritics so that
// "Contabilidad" and "contabilidád" match the same fragment.
func foldName(name string) string {
	folded, _, err := transform.String(foldTransformer, name)
	if err != nil {
		folded = name
	}
	return strings.ToLower(folded)
}

// isFinanceName reports whether a department name designates the finance
// department under the case- and accent-insensitive substring rule.
func isFinanceName(name string) bool {
	folded := foldName(name)
	for _, fragment := range financeNameFragments {
		if strings.Contains(folded, fragment) {
			return true
		}
	}
	return false
}
