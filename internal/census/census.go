package census

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Category is one of the six Census race/ethnicity buckets.
type Category int

const (
	White Category = iota
	Black
	Asian
	Hispanic
	AmericanIndian
	PacificIslander

	// NumCategories is the size of the closed category set.
	NumCategories = 6
)

var labels = [NumCategories]string{
	White:           "White",
	Black:           "Black or African American",
	Asian:           "Asian",
	Hispanic:        "Hispanic or Latino",
	AmericanIndian:  "American Indian and Alaska Native",
	PacificIslander: "Native Hawaiian and Other Pacific Islander",
}

// ErrInvalidPopulation is returned when a population table breaks its invariants.
var ErrInvalidPopulation = eris.New("invalid reference population")

// Categories returns the canonical category order.
func Categories() []Category {
	out := make([]Category, NumCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// Labels returns the category labels in canonical order.
func Labels() []string {
	out := make([]string, NumCategories)
	copy(out, labels[:])
	return out
}

// Valid reports whether c is inside the closed set.
func (c Category) Valid() bool { return c >= 0 && c < NumCategories }

// Index returns the canonical position of c.
func (c Category) Index() int { return int(c) }

func (c Category) String() string {
	if !c.Valid() {
		return "Unknown"
	}
	return labels[c]
}

// Parse resolves a canonical label (case-insensitive) back to its Category.
func Parse(label string) (Category, bool) {
	l := strings.TrimSpace(label)
	for i, s := range labels {
		if strings.EqualFold(s, l) {
			return Category(i), true
		}
	}
	return 0, false
}

// Population holds a count per category, indexed by Category.
type Population [NumCategories]int

// CountyPopulation is the county census baseline the defendant sample is compared against.
var CountyPopulation = Population{
	White:           16813,
	Black:           4362,
	Asian:           3049,
	Hispanic:        153027,
	AmericanIndian:  4266,
	PacificIslander: 165,
}

// Total returns the sum of all counts.
func (p Population) Total() int {
	var n int
	for _, v := range p {
		n += v
	}
	return n
}

// Validate checks that every count is non-negative and the total is positive.
func (p Population) Validate() error {
	for i, v := range p {
		if v < 0 {
			return eris.Wrapf(ErrInvalidPopulation, "negative count %d for %s", v, Category(i))
		}
	}
	if p.Total() == 0 {
		return eris.Wrap(ErrInvalidPopulation, "total is zero")
	}
	return nil
}

// Distribution holds a percentage in [0, 100] per category.
type Distribution [NumCategories]float64

// Sum returns the sum of all percentages.
func (d Distribution) Sum() float64 {
	var s float64
	for _, v := range d {
		s += v
	}
	return s
}

// Percentages normalizes counts against total. Callers guarantee total > 0.
func Percentages(counts Population, total int) Distribution {
	var d Distribution
	for i, v := range counts {
		d[i] = 100 * float64(v) / float64(total)
	}
	return d
}
