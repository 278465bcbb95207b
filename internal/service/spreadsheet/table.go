package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mamadbah2/partstock/internal/domain/models"
)

const utf8BOM = "\ufeff"

// Table is a header row plus data rows keyed by header name.
type Table struct {
	Header []string
	Rows   []map[string]string
}

// Candidates sniffs the header once and maps every row.
func (t Table) Candidates(now time.Time) []models.ItemCandidate {
	if len(t.Rows) == 0 {
		return nil
	}
	m := NewMapper(t.Header)
	out := make([]models.ItemCandidate, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, m.Map(row, now))
	}
	return out
}

// ErrNoHeader is returned when the source has no header row.
var ErrNoHeader = errors.New("missing header row")

// ReadCSV parses a CSV document whose first record is the header. Rows with
// every cell blank are skipped; short rows are padded with empty cells.
func ReadCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return Table{}, ErrNoHeader
	}

	cells := make([][]interface{}, len(records))
	for i, record := range records {
		row := make([]interface{}, len(record))
		for j, cell := range record {
			row[j] = cell
		}
		cells[i] = row
	}
	return TableFromValues(cells)
}

// TableFromValues builds a Table from a rectangular value range such as the
// one returned by the Sheets API.
func TableFromValues(values [][]interface{}) (Table, error) {
	if len(values) == 0 {
		return Table{}, ErrNoHeader
	}

	header := make([]string, len(values[0]))
	blankHeader := true
	for i, v := range values[0] {
		raw := fmt.Sprint(v)
		if i == 0 {
			raw = strings.TrimPrefix(raw, utf8BOM)
		}
		h := CleanCell(raw)
		header[i] = h
		if h != "" {
			blankHeader = false
		}
	}
	if blankHeader {
		return Table{}, ErrNoHeader
	}

	table := Table{Header: header}
	for _, values := range values[1:] {
		row := make(map[string]string, len(header))
		blank := true
		for i, col := range header {
			if col == "" {
				continue
			}
			cell := ""
			if i < len(values) && values[i] != nil {
				cell = CleanCell(fmt.Sprint(values[i]))
			}
			if cell != "" {
				blank = false
			}
			row[col] = cell
		}
		if blank {
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
