package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// LabelPayload is the JSON printed inside item QR labels. Field names are part
// of the contract with already printed labels and must not change.
type LabelPayload struct {
	ID          string          `json:"id"`
	PartsName   string          `json:"partsName"`
	PartsNumber string          `json:"partsNumber"`
	Component   Component       `json:"component"`
	Quantity    int             `json:"quantity"`
	ItemPrice   decimal.Decimal `json:"itemPrice"`
	Rack        string          `json:"rack"`
	PIC         string          `json:"pic"`
	Date        string          `json:"date"`
	PONumber    string          `json:"poNumber"`
	CTPLNumber  string          `json:"ctplNumber"`
	Tax         decimal.Decimal `json:"tax"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// labelJSON mirrors LabelPayload with prices as plain JSON numbers, which
// is what scanners reading printed labels expect.
type labelJSON struct {
	ID          string      `json:"id"`
	PartsName   string      `json:"partsName"`
	PartsNumber string      `json:"partsNumber"`
	Component   Component   `json:"component"`
	Quantity    int         `json:"quantity"`
	ItemPrice   json.Number `json:"itemPrice"`
	Rack        string      `json:"rack"`
	PIC         string      `json:"pic"`
	Date        string      `json:"date"`
	PONumber    string      `json:"poNumber"`
	CTPLNumber  string      `json:"ctplNumber"`
	Tax         json.Number `json:"tax"`
	TotalAmount json.Number `json:"totalAmount"`
}

// MarshalJSON writes prices unquoted without touching the package-wide
// decimal encoding used by every other response.
func (p LabelPayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(labelJSON{
		ID:          p.ID,
		PartsName:   p.PartsName,
		PartsNumber: p.PartsNumber,
		Component:   p.Component,
		Quantity:    p.Quantity,
		ItemPrice:   json.Number(p.ItemPrice.String()),
		Rack:        p.Rack,
		PIC:         p.PIC,
		Date:        p.Date,
		PONumber:    p.PONumber,
		CTPLNumber:  p.CTPLNumber,
		Tax:         json.Number(p.Tax.String()),
		TotalAmount: json.Number(p.TotalAmount.String()),
	})
}

// NewLabelPayload projects item onto the label field set.
func NewLabelPayload(item InventoryItem) LabelPayload {
	return LabelPayload{
		ID:          item.ID,
		PartsName:   item.PartsName,
		PartsNumber: item.PartsNumber,
		Component:   item.Component,
		Quantity:    item.Quantity,
		ItemPrice:   item.ItemPrice,
		Rack:        item.Rack,
		PIC:         item.PIC,
		Date:        item.Date.Display(),
		PONumber:    item.PONumber,
		CTPLNumber:  item.CTPLNumber,
		Tax:         item.Tax,
		TotalAmount: item.TotalAmount,
	}
}

// Encode returns the compact JSON string encoded into the QR code.
func (p LabelPayload) Encode() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode label payload: %w", err)
	}
	return string(raw), nil
}

// ScanCode is what a scanner or a chat user handed us, resolved to the keys the store can look up.
type ScanCode struct {
	ItemID      string
	PartsNumber string
}

// ParseScanCode accepts either a label payload or a bare part number.
func ParseScanCode(raw string) (ScanCode, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ScanCode{}, fmt.Errorf("empty scan code")
	}

	if strings.HasPrefix(raw, "{") {
		var payload LabelPayload
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return ScanCode{}, fmt.Errorf("decode label payload: %w", err)
		}
		code := ScanCode{ItemID: strings.TrimSpace(payload.ID), PartsNumber: strings.TrimSpace(payload.PartsNumber)}
		if code.ItemID == "" && code.PartsNumber == "" {
			return ScanCode{}, fmt.Errorf("label payload has neither id nor partsNumber")
		}
		return code, nil
	}

	return ScanCode{PartsNumber: raw}, nil
}
