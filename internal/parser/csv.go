package parser

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/KaramelBytes/defstat/internal/classify"
	"github.com/rotisserie/eris"
)

type csvDecoder struct{}

func (csvDecoder) CanDecode(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvDecoder) Decode(content []byte) ([]classify.RawRecord, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = sniffDelimiter(content)
	table, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read")
	}
	return Records(table)
}

// sniffDelimiter picks tab, semicolon or comma by which occurs most in the first line.
func sniffDelimiter(content []byte) rune {
	line := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		line = content[:i]
	}
	best, bestN := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{'\t', ';'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}
