package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/mamadbah2/partstock/internal/domain/models"
)

// ExportHeader is the column layout of inventory exports. It maps back onto
// the same fields when the file is imported again.
var ExportHeader = []string{
	"Date", "Parts Number", "Parts Name", "Component", "Quantity", "Item Price",
	"Rack", "Tax", "Total Amount", "PIC", "PO Number", "CTPL Number",
}

// ExportRow renders one item in ExportHeader order.
func ExportRow(item models.InventoryItem) []string {
	return []string{
		item.Date.Display(),
		item.PartsNumber,
		item.PartsName,
		string(item.Component),
		strconv.Itoa(item.Quantity),
		item.ItemPrice.StringFixed(2),
		item.Rack,
		item.Tax.StringFixed(2),
		item.TotalAmount.StringFixed(2),
		item.PIC,
		item.PONumber,
		item.CTPLNumber,
	}
}

// WriteCSV writes items with a header row. When ids is non-empty only the
// matching items are written, in their list order.
func WriteCSV(w io.Writer, items []models.InventoryItem, ids ...string) error {
	selected := filterByID(items, ids)

	writer := csv.NewWriter(w)
	writer.UseCRLF = true

	if err := writer.Write(ExportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, item := range selected {
		if err := writer.Write(ExportRow(item)); err != nil {
			return fmt.Errorf("write csv row %s: %w", item.ID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func filterByID(items []models.InventoryItem, ids []string) []models.InventoryItem {
	if len(ids) == 0 {
		return items
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := make([]models.InventoryItem, 0, len(ids))
	for _, item := range items {
		if _, ok := wanted[item.ID]; ok {
			out = append(out, item)
		}
	}
	return out
}
