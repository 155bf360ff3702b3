package ingest

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/claimsight/denials-cli/internal/model"
)

// ReadXLSXFile parses claims from the named sheet of an XLSX workbook.
// An empty sheet name selects the first sheet.
func ReadXLSXFile(path, sheetName string) ([]model.RawClaim, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}

	sheet, err := pickSheet(f, sheetName)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, cell.String())
		}
		rows = append(rows, cells)
	}

	return FromRows(rows)
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("ingest: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("ingest: workbook has no sheets")
	}
	return f.Sheets[0], nil
}
