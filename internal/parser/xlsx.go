package parser

import (
	"strings"

	"github.com/KaramelBytes/defstat/internal/classify"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

type xlsxDecoder struct{}

func (xlsxDecoder) CanDecode(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Decode reads the first sheet only.
func (xlsxDecoder) Decode(content []byte) ([]classify.RawRecord, error) {
	f, err := xlsx.OpenBinary(content)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	sheet := f.Sheets[0]
	table := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			table = append(table, nil)
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			if cell != nil {
				cells[j] = cell.String()
			}
		}
		table = append(table, cells)
	}
	rows, err := Records(table)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: sheet %q", sheet.Name)
	}
	return rows, nil
}
