package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/defstat/internal/classify"
	"github.com/rotisserie/eris"
)

// Decoder turns a spreadsheet buffer into header-keyed rows.
type Decoder interface {
	CanDecode(filename string) bool
	Decode(content []byte) ([]classify.RawRecord, error)
}

var registry []Decoder

// Register adds a decoder implementation to the registry.
func Register(d Decoder) {
	registry = append(registry, d)
}

// DecodeError reports a buffer that is not a usable spreadsheet.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "decode failed"
	}
	if e.Name != "" {
		return fmt.Sprintf("decode %s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrUnsupported indicates no decoder accepts the file name.
var ErrUnsupported = eris.New("unsupported spreadsheet format")

// ErrNoRows indicates the sheet has no header row.
var ErrNoRows = eris.New("spreadsheet has no rows")

// Decode picks a decoder by file name and decodes data.
func Decode(name string, data []byte) ([]classify.RawRecord, error) {
	for _, d := range registry {
		if d.CanDecode(name) {
			rows, err := d.Decode(data)
			if err != nil {
				return nil, &DecodeError{Name: filepath.Base(name), Err: err}
			}
			return rows, nil
		}
	}
	return nil, &DecodeError{Name: filepath.Base(name), Err: eris.Wrapf(ErrUnsupported, "extension %q", filepath.Ext(name))}
}

// Records pairs a header row with data rows. Blank rows are skipped and short rows are padded with "".
// A table without at least one non-blank data row is ErrNoRows.
func Records(table [][]string) ([]classify.RawRecord, error) {
	if len(table) == 0 {
		return nil, ErrNoRows
	}
	header := make([]string, len(table[0]))
	blank := true
	for i, h := range table[0] {
		header[i] = strings.TrimSpace(h)
		if header[i] != "" {
			blank = false
		}
	}
	if blank {
		return nil, eris.Wrap(ErrNoRows, "header row is empty")
	}
	out := make([]classify.RawRecord, 0, len(table)-1)
	for _, row := range table[1:] {
		if isBlank(row) {
			continue
		}
		rec := make(classify.RawRecord, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			var v string
			if i < len(row) {
				v = row[i]
			}
			rec[h] = v
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, eris.Wrap(ErrNoRows, "header row has no data rows below it")
	}
	return out, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func init() {
	Register(xlsxDecoder{})
	Register(csvDecoder{})
}
