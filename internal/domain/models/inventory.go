package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxQuantity bounds every stored quantity so totals fit in a 32-bit column.
const MaxQuantity = math.MaxInt32

// Component enumerates the part families tracked in the store.
type Component string

const (
	ComponentEngine     Component = "Engine"
	ComponentHydraulic  Component = "Hydraulic"
	ComponentElectrical Component = "Electrical"
	ComponentMechanical Component = "Mechanical"
	ComponentBody       Component = "Body"
)

var validComponents = []Component{
	ComponentEngine,
	ComponentHydraulic,
	ComponentElectrical,
	ComponentMechanical,
	ComponentBody,
}

// IsValid reports whether c is one of the known components.
func (c Component) IsValid() bool {
	for _, candidate := range validComponents {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseComponent matches value case-insensitively against the known components.
func ParseComponent(value string) (Component, error) {
	value = strings.TrimSpace(value)
	for _, candidate := range validComponents {
		if strings.EqualFold(string(candidate), value) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid component %q", value)
}

// InventoryItem is one stocked part.
type InventoryItem struct {
	ID          string          `json:"id"`
	Date        Date            `json:"date"`
	PartsNumber string          `json:"partsNumber"`
	PartsName   string          `json:"partsName"`
	Component   Component       `json:"component"`
	Quantity    int             `json:"quantity"`
	ItemPrice   decimal.Decimal `json:"itemPrice"`
	Rack        string          `json:"rack"`
	Tax         decimal.Decimal `json:"tax"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	PIC         string          `json:"pic"`
	PONumber    string          `json:"poNumber"`
	CTPLNumber  string          `json:"ctplNumber"`
	ImageData   string          `json:"imageData,omitempty"`
}

// Recalculate refreshes the denormalized total from price, quantity and tax.
func (i *InventoryItem) Recalculate() {
	i.TotalAmount = ComputeTotal(i.ItemPrice, i.Quantity, i.Tax)
}

// ComputeTotal returns itemPrice * quantity + tax.
func ComputeTotal(itemPrice decimal.Decimal, quantity int, tax decimal.Decimal) decimal.Decimal {
	return itemPrice.Mul(decimal.NewFromInt(int64(quantity))).Add(tax)
}

// ItemCandidate is an item as supplied by a form, an import row or a scan,
// before the store assigns it an id.
type ItemCandidate struct {
	Date        Date            `json:"date"`
	PartsNumber string          `json:"partsNumber" validate:"required"`
	PartsName   string          `json:"partsName" validate:"required"`
	Component   Component       `json:"component"`
	Quantity    int             `json:"quantity" validate:"min=1,max=2147483647"`
	ItemPrice   decimal.Decimal `json:"itemPrice"`
	Rack        string          `json:"rack"`
	Tax         decimal.Decimal `json:"tax"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	PIC         string          `json:"pic"`
	PONumber    string          `json:"poNumber"`
	CTPLNumber  string          `json:"ctplNumber"`
	ImageData   string          `json:"imageData,omitempty"`
}

// Trimmed returns a copy with surrounding whitespace removed from every text field.
func (c ItemCandidate) Trimmed() ItemCandidate {
	c.PartsNumber = strings.TrimSpace(c.PartsNumber)
	c.PartsName = strings.TrimSpace(c.PartsName)
	c.Component = Component(strings.TrimSpace(string(c.Component)))
	c.Rack = strings.TrimSpace(c.Rack)
	c.PIC = strings.TrimSpace(c.PIC)
	c.PONumber = strings.TrimSpace(c.PONumber)
	c.CTPLNumber = strings.TrimSpace(c.CTPLNumber)
	return c
}

// StockStatistics is the running ledger kept alongside the item list.
// ItemsInHand tracks current units; StockIn and StockOut only ever grow.
type StockStatistics struct {
	ItemsInHand int64 `json:"itemsInHand"`
	StockIn     int64 `json:"stockIn"`
	StockOut    int64 `json:"stockOut"`
}

// RejectedRow records why an import candidate was skipped.
type RejectedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportResult summarizes one import batch.
type ImportResult struct {
	Merged     int           `json:"merged"`
	Created    int           `json:"created"`
	Rejected   int           `json:"rejected"`
	Rejections []RejectedRow `json:"rejections,omitempty"`
}

// SearchParams filters and paginates the item list.
type SearchParams struct {
	Query   string
	Page    int
	PerPage int
}

// ItemPage is one page of search results.
type ItemPage struct {
	Items      []InventoryItem `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PerPage    int             `json:"perPage"`
	TotalPages int             `json:"totalPages"`
}
