package classify

import (
	"sort"
	"strings"

	"github.com/KaramelBytes/defstat/internal/census"
)

// RawRecord is one decoded spreadsheet row keyed by header. Blank cells are "".
type RawRecord map[string]string

// NormalizedRecord carries the classified ethnicity of one row.
// OK is false when the row could not be classified.
type NormalizedRecord struct {
	Ethnicity census.Category
	OK        bool
}

// DefaultColumns lists the headers searched for the ethnicity value, in order.
var DefaultColumns = []string{"ethnicity", "race", "race/ethnicity", "race_ethnicity", "defendant race"}

// Normalizer turns raw rows into normalized records.
type Normalizer struct {
	Columns []string
	Rules   Rules
}

// NewNormalizer builds a Normalizer; nil arguments fall back to the defaults.
func NewNormalizer(columns []string, rules Rules) *Normalizer {
	if len(columns) == 0 {
		columns = DefaultColumns
	}
	if len(rules) == 0 {
		rules = DefaultRules
	}
	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			cols = append(cols, c)
		}
	}
	return &Normalizer{Columns: cols, Rules: rules}
}

// Normalize classifies raw. It never fails: anything unusable is unclassified.
func (n *Normalizer) Normalize(raw RawRecord) NormalizedRecord {
	col := n.Column(raw)
	if col == "" {
		return NormalizedRecord{}
	}
	c, ok := n.Rules.Classify(raw[col])
	return NormalizedRecord{Ethnicity: c, OK: ok}
}

// NormalizeAll maps Normalize over rows.
func (n *Normalizer) NormalizeAll(rows []RawRecord) []NormalizedRecord {
	out := make([]NormalizedRecord, len(rows))
	for i, r := range rows {
		out[i] = n.Normalize(r)
	}
	return out
}

// Column returns the raw header that supplies the ethnicity value, or "".
// A header equal to the wanted name wins; otherwise headers differing only in
// case or surrounding space are tried in sorted order.
func (n *Normalizer) Column(raw RawRecord) string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, want := range n.Columns {
		if _, ok := raw[want]; ok {
			return want
		}
		for _, k := range keys {
			if strings.ToLower(strings.TrimSpace(k)) == want {
				return k
			}
		}
	}
	return ""
}
