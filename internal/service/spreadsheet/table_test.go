package spreadsheet

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/partstock/internal/domain/models"
	pkgerrors "github.com/mamadbah2/partstock/pkg/errors"
)

func TestReadCSV(t *testing.T) {
	input := "\ufeffPart Number,Parts Name,QTY\r\n" +
		"ENG-104,\"Filter, oil\",4\r\n" +
		",,\r\n" +
		"HYD-221,Pump\r\n"

	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Part Number", "Parts Name", "QTY"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Filter, oil", table.Rows[0]["Parts Name"])
	assert.Equal(t, "", table.Rows[1]["QTY"])

	candidates := table.Candidates(mapperNow)
	require.Len(t, candidates, 2)
	assert.Equal(t, "ENG-104", candidates[0].PartsNumber)
	assert.Equal(t, "Filter, oil", candidates[0].PartsName)
	assert.Equal(t, 4, candidates[0].Quantity)
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestTableFromValues(t *testing.T) {
	values := [][]interface{}{
		{"Parts Number", "Quantity", ""},
		{"A1", 3, "ignored"},
		{"B2"},
		{},
	}

	table, err := TableFromValues(values)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, map[string]string{"Parts Number": "A1", "Quantity": "3"}, table.Rows[0])
	assert.Equal(t, map[string]string{"Parts Number": "B2", "Quantity": ""}, table.Rows[1])

	_, err = TableFromValues([][]interface{}{{"", " "}})
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestWriteCSVRoundTripsThroughMapper(t *testing.T) {
	items := []models.InventoryItem{
		{
			ID:          "1",
			Date:        models.NewDate(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)),
			PartsNumber: "ENG-104",
			PartsName:   "Engine Oil Filter, large",
			Component:   models.ComponentEngine,
			Quantity:    15,
			ItemPrice:   decimal.NewFromInt(1250),
			Rack:        "A1",
			Tax:         decimal.NewFromInt(150),
			TotalAmount: decimal.NewFromInt(18900),
			PIC:         "John Doe",
			PONumber:    "PO-2025-001",
			CTPLNumber:  "CTPL-001",
		},
		{ID: "2", PartsNumber: "HYD-221", PartsName: "Hydraulic Pump", Quantity: 3},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, items))

	lines := strings.Split(strings.TrimRight(buf.String(), "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Parts Number,Parts Name,Component,Quantity,Item Price,Rack,Tax,Total Amount,PIC,PO Number,CTPL Number", lines[0])
	assert.Equal(t, `01/03/2025,ENG-104,"Engine Oil Filter, large",Engine,15,1250.00,A1,150.00,18900.00,John Doe,PO-2025-001,CTPL-001`, lines[1])

	table, err := ReadCSV(&buf)
	require.NoError(t, err)
	candidates := table.Candidates(mapperNow)
	require.Len(t, candidates, 2)

	got := candidates[0]
	assert.Equal(t, "2025-03-01", got.Date.String())
	assert.Equal(t, "ENG-104", got.PartsNumber)
	assert.Equal(t, "Engine Oil Filter, large", got.PartsName)
	assert.Equal(t, models.ComponentEngine, got.Component)
	assert.Equal(t, 15, got.Quantity)
	assert.True(t, got.ItemPrice.Equal(decimal.NewFromInt(1250)))
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(18900)))
	assert.Equal(t, "CTPL-001", got.CTPLNumber)
}

func TestWriteCSVSelectedIDs(t *testing.T) {
	items := []models.InventoryItem{{ID: "1", PartsNumber: "A"}, {ID: "2", PartsNumber: "B"}, {ID: "3", PartsNumber: "C"}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, items, "3", "1", "missing"))

	table, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "A", table.Rows[0]["Parts Number"])
	assert.Equal(t, "C", table.Rows[1]["Parts Number"])
}

type fakeImporter struct {
	batches [][]models.ItemCandidate
}

func (f *fakeImporter) ImportItems(candidates []models.ItemCandidate) models.ImportResult {
	f.batches = append(f.batches, candidates)
	return models.ImportResult{Created: len(candidates)}
}

type fakeInventorySheet struct {
	values [][]interface{}
	err    error
	calls  int
}

func (f *fakeInventorySheet) InventoryValues(context.Context) ([][]interface{}, error) {
	f.calls++
	return f.values, f.err
}

func TestImporterCSV(t *testing.T) {
	store := &fakeImporter{}
	imp := NewImporter(store, nil, nil)
	imp.now = func() time.Time { return mapperNow }

	result, err := imp.ImportCSV(strings.NewReader("PN,Qty\nA1,2\nB2,5\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	require.Len(t, store.batches, 1)
	assert.Equal(t, "B2", store.batches[0][1].PartsNumber)
	assert.Equal(t, 5, store.batches[0][1].Quantity)

	_, err = imp.ImportCSV(strings.NewReader(""))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestImporterRows(t *testing.T) {
	store := &fakeImporter{}
	imp := NewImporter(store, nil, nil)

	result := imp.ImportRows(nil, []map[string]string{{"Part Number": "X1", "QTY": "4"}})
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 4, store.batches[0][0].Quantity)

	imp.ImportRows([]string{"PN", "Stock", "Count"}, []map[string]string{{"PN": "X2", "Stock": "3", "Count": "8"}})
	require.Len(t, store.batches, 2)
	assert.Equal(t, 3, store.batches[1][0].Quantity)
}

func TestImporterSheet(t *testing.T) {
	store := &fakeImporter{}

	_, err := NewImporter(store, nil, nil).ImportSheet(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	sheet := &fakeInventorySheet{values: [][]interface{}{{"Parts Number", "Quantity"}, {"A1", "7"}}}
	result, err := NewImporter(store, sheet, nil).ImportSheet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, sheet.calls)

	failing := &fakeInventorySheet{err: errors.New("quota exceeded")}
	_, err = NewImporter(store, failing, nil).ImportSheet(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	empty := &fakeInventorySheet{}
	_, err = NewImporter(store, empty, nil).ImportSheet(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
