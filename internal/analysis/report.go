package analysis

import (
	"fmt"
	"strings"
)

// Markdown renders the comparison as a compact text summary.
func (r *Result) Markdown(name string) string {
	var b strings.Builder
	b.WriteString("[DEFENDANT ETHNICITY SUMMARY]\n")
	if name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", name))
	}
	seen := r.Total + r.Unclassified
	b.WriteString(fmt.Sprintf("Rows: %d (classified %d, excluded %d)\n\n", seen, r.Total, r.Unclassified))

	b.WriteString("[COMPARISON]\n")
	b.WriteString("| Category | Defendants | Defendants % | County % | Diff (pts) |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, row := range r.Rows() {
		b.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.2f | %+.2f |\n",
			row.Label, row.Count, row.Sample, row.Reference, row.Diff()))
	}
	if r.Unclassified > 0 && seen > 0 {
		pct := float64(r.Unclassified) * 100.0 / float64(seen)
		b.WriteString(fmt.Sprintf("\nNote: %.1f%% of rows had no recognised Census category and were excluded.\n", pct))
	}
	return b.String()
}
