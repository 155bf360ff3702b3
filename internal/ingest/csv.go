package ingest

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/claimsight/denials-cli/internal/model"
)

// ReadCSV parses claims from a CSV stream. The delimiter defaults to a
// comma; pass a non-zero rune to override.
func ReadCSV(r io.Reader, delimiter rune) ([]model.RawClaim, error) {
	reader := csv.NewReader(r)
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow variable fields

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "ingest: read csv row")
		}
		rows = append(rows, record)
	}

	claims, err := FromRows(rows)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ReadCSVFile parses claims from a CSV file on disk.
func ReadCSVFile(path string) ([]model.RawClaim, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()

	return ReadCSV(f, 0)
}
