package analysis

import (
	"github.com/KaramelBytes/defstat/internal/census"
	"github.com/KaramelBytes/defstat/internal/classify"
	"github.com/rotisserie/eris"
)

// ErrEmptyClassifiableSet means no record could be classified, so no percentage exists.
var ErrEmptyClassifiableSet = eris.New("no classifiable records: every row has a missing or unrecognised ethnicity")

// Result is the aggregated comparison for one load. It is not modified after Aggregate returns.
type Result struct {
	Counts       census.Population
	Total        int
	Unclassified int
	Sample       census.Distribution
	Reference    census.Distribution
}

// Aggregate tallies classified records and computes the sample and reference distributions.
// Unclassified records count towards neither numerator nor denominator.
func Aggregate(records []classify.NormalizedRecord, ref census.Population) (*Result, error) {
	if err := ref.Validate(); err != nil {
		return nil, eris.Wrap(err, "aggregate")
	}
	res := &Result{}
	for _, r := range records {
		if !r.OK || !r.Ethnicity.Valid() {
			res.Unclassified++
			continue
		}
		res.Counts[r.Ethnicity]++
		res.Total++
	}
	if res.Total == 0 {
		return nil, eris.Wrapf(ErrEmptyClassifiableSet, "aggregate %d rows", len(records))
	}
	res.Sample = census.Percentages(res.Counts, res.Total)
	res.Reference = census.Percentages(ref, ref.Total())
	return res, nil
}

// Row is one category of the comparison.
type Row struct {
	Category  census.Category
	Label     string
	Count     int
	Sample    float64
	Reference float64
}

// Diff returns the sample share minus the reference share, in percentage points.
func (r Row) Diff() float64 { return r.Sample - r.Reference }

// Rows zips the result in canonical category order.
func (r *Result) Rows() []Row {
	out := make([]Row, 0, census.NumCategories)
	for _, c := range census.Categories() {
		out = append(out, Row{
			Category:  c,
			Label:     c.String(),
			Count:     r.Counts[c],
			Sample:    r.Sample[c],
			Reference: r.Reference[c],
		})
	}
	return out
}
