// Package spreadsheet converts spreadsheet and CSV data to and from inventory items.
package spreadsheet

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/partstock/internal/domain/models"
	"github.com/mamadbah2/partstock/pkg/format"
)

// Field is a canonical item attribute an import column can feed.
type Field string

const (
	FieldDate        Field = "date"
	FieldPartsNumber Field = "partsNumber"
	FieldPartsName   Field = "partsName"
	FieldComponent   Field = "component"
	FieldQuantity    Field = "quantity"
	FieldItemPrice   Field = "itemPrice"
	FieldRack        Field = "rack"
	FieldTax         Field = "tax"
	FieldTotalAmount Field = "totalAmount"
	FieldPIC         Field = "pic"
	FieldPONumber    Field = "poNumber"
	FieldCTPLNumber  Field = "ctplNumber"
)

type fieldSpec struct {
	field    Field
	synonyms []string
}

// fieldSpecs is ordered so that specific synonyms claim their column before
// broad ones ("name", "total") get a chance to.
var fieldSpecs = []fieldSpec{
	{FieldPartsNumber, []string{"partnumber", "partsnumber", "partno", "partsno", "pn", "serial", "sku"}},
	{FieldCTPLNumber, []string{"ctplnumber", "ctpl"}},
	{FieldPONumber, []string{"ponumber", "pono", "purchaseorder"}},
	{FieldTotalAmount, []string{"totalamount", "total", "amount"}},
	{FieldItemPrice, []string{"itemprice", "unitprice", "price", "cost"}},
	{FieldPartsName, []string{"partname", "partsname", "itemname", "description", "name"}},
	{FieldDate, []string{"date", "entrydate", "dateadded"}},
	{FieldComponent, []string{"component", "category", "type"}},
	{FieldQuantity, []string{"quantity", "qty", "stock", "units", "count"}},
	{FieldRack, []string{"rack", "bin", "location", "shelf"}},
	{FieldTax, []string{"tax", "vat"}},
	{FieldPIC, []string{"pic", "personincharge", "incharge", "owner"}},
}

var dateLayouts = []string{
	format.ISODateLayout,
	format.DisplayDateLayout,
	"2/1/2006",
	"2006/01/02",
	"02-01-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

// Mapper maps rows with arbitrary headers onto item candidates. The column
// assignment is decided once, from a header set, and reused for every row.
type Mapper struct {
	columns map[Field]string
}

// NewMapper sniffs header and assigns at most one column per field. For each
// field the first unclaimed column (in header order) whose normalized name
// contains one of the field's synonyms wins.
func NewMapper(header []string) *Mapper {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = normalizeHeader(h)
	}

	claimed := make([]bool, len(header))
	columns := make(map[Field]string, len(fieldSpecs))

	for _, spec := range fieldSpecs {
		for i, name := range normalized {
			if claimed[i] || name == "" {
				continue
			}
			if containsAny(name, spec.synonyms) {
				columns[spec.field] = header[i]
				claimed[i] = true
				break
			}
		}
	}

	return &Mapper{columns: columns}
}

// NewMapperFromRow sniffs the keys of a single row. A map carries no column
// order, so keys are sniffed in alphabetical order: when two columns match the
// same field, the alphabetically first one wins, not the leftmost one of the
// original file. Callers that know the real order should use NewMapper.
func NewMapperFromRow(row map[string]string) *Mapper {
	header := make([]string, 0, len(row))
	for key := range row {
		header = append(header, key)
	}
	sort.Strings(header)
	return NewMapper(header)
}

// Column returns the source column assigned to field, if any.
func (m *Mapper) Column(field Field) (string, bool) {
	col, ok := m.columns[field]
	return col, ok
}

// Map converts one row. Missing or unparsable values fall back to zero
// values, and so do quantities outside the int32 range; a missing date falls
// back to the day of now.
func (m *Mapper) Map(row map[string]string, now time.Time) models.ItemCandidate {
	c := models.ItemCandidate{
		PartsNumber: m.text(row, FieldPartsNumber),
		PartsName:   m.text(row, FieldPartsName),
		Component:   models.Component(m.text(row, FieldComponent)),
		Quantity:    m.quantity(row),
		ItemPrice:   m.number(row, FieldItemPrice),
		Rack:        m.text(row, FieldRack),
		Tax:         m.number(row, FieldTax),
		TotalAmount: m.number(row, FieldTotalAmount),
		PIC:         m.text(row, FieldPIC),
		PONumber:    m.text(row, FieldPONumber),
		CTPLNumber:  m.text(row, FieldCTPLNumber),
	}

	if date, ok := parseCellDate(m.text(row, FieldDate)); ok {
		c.Date = date
	} else {
		c.Date = models.NewDate(now)
	}

	return c
}

// MapRows sniffs the first row's keys, alphabetically, and maps every row with
// that layout.
func MapRows(rows []map[string]string, now time.Time) []models.ItemCandidate {
	return MapRowsWithHeader(nil, rows, now)
}

// MapRowsWithHeader maps rows with the layout sniffed from header. An empty
// header falls back to the first row's keys in alphabetical order.
func MapRowsWithHeader(header []string, rows []map[string]string, now time.Time) []models.ItemCandidate {
	if len(rows) == 0 {
		return nil
	}
	var m *Mapper
	if len(header) > 0 {
		m = NewMapper(header)
	} else {
		m = NewMapperFromRow(rows[0])
	}
	out := make([]models.ItemCandidate, 0, len(rows))
	for _, row := range rows {
		out = append(out, m.Map(row, now))
	}
	return out
}

func (m *Mapper) text(row map[string]string, field Field) string {
	col, ok := m.columns[field]
	if !ok {
		return ""
	}
	return CleanCell(row[col])
}

func (m *Mapper) number(row map[string]string, field Field) decimal.Decimal {
	return ParseNumber(m.text(row, field))
}

var (
	minQuantity = decimal.NewFromInt(math.MinInt32)
	maxQuantity = decimal.NewFromInt(math.MaxInt32)
)

func (m *Mapper) quantity(row map[string]string) int {
	d := m.number(row, FieldQuantity).Truncate(0)
	if d.LessThan(minQuantity) || d.GreaterThan(maxQuantity) {
		return 0
	}
	return int(d.IntPart())
}

// ParseNumber keeps digits, the decimal point and minus signs, then parses.
// Anything unparsable is zero.
func ParseNumber(raw string) decimal.Decimal {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CleanCell trims whitespace, the Excel ="..." text prefix and wrapping quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

func parseCellDate(raw string) (models.Date, bool) {
	if raw == "" {
		return models.Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return models.NewDate(t), true
		}
	}
	if serial, err := decimal.NewFromString(raw); err == nil && serial.IsPositive() {
		// Spreadsheet serial day numbers count from 1899-12-30.
		days := int(serial.IntPart())
		return models.NewDate(time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)), true
	}
	return models.Date{}, false
}

func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func containsAny(name string, synonyms []string) bool {
	for _, synonym := range synonyms {
		if strings.Contains(name, synonym) {
			return true
		}
	}
	return false
}
