package classify

import (
	"strings"
	"unicode"

	"github.com/KaramelBytes/defstat/internal/census"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Rule maps a substring of the folded ethnicity text to a category.
type Rule struct {
	Substring string
	Category  census.Category
}

// Rules is evaluated in order; the first rule whose substring occurs wins.
type Rules []Rule

// DefaultRules is the classification priority order.
var DefaultRules = Rules{
	{"hispanic", census.Hispanic},
	{"latino", census.Hispanic},
	{"black", census.Black},
	{"african american", census.Black},
	{"asian", census.Asian},
	{"american indian", census.AmericanIndian},
	{"alaska", census.AmericanIndian},
	{"hawaiian", census.PacificIslander},
	{"pacific", census.PacificIslander},
	{"white", census.White},
}

// Classify returns the category of the first matching rule.
func (rs Rules) Classify(text string) (census.Category, bool) {
	t := Fold(text)
	if t == "" {
		return 0, false
	}
	for _, r := range rs {
		if r.Substring != "" && strings.Contains(t, r.Substring) {
			return r.Category, true
		}
	}
	return 0, false
}

// Fold lower-cases s, strips diacritics and collapses runs of whitespace.
func Fold(s string) string {
	// Chained transformers carry state, so each call builds its own.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripMarks, strings.ToLower(s))
	if err != nil {
		out = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(out), " ")
}
