package models

import (
	"fmt"
	"time"
)

// NotificationType classifies feed entries.
type NotificationType string

const (
	NotificationStockIn     NotificationType = "stock-in"
	NotificationStockOut    NotificationType = "stock-out"
	NotificationLowStock    NotificationType = "low-stock"
	NotificationMaintenance NotificationType = "maintenance"
)

var validNotificationTypes = []NotificationType{
	NotificationStockIn,
	NotificationStockOut,
	NotificationLowStock,
	NotificationMaintenance,
}

func (t NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationEvent is one user-visible entry in the feed.
//
// QuantityDelta is the display string ("+15 units"); Units carries the same
// signed amount as a number so reports can aggregate without reparsing.
// Removal marks the stock-out emitted when a record is deleted: the units
// leave the ledger but were never issued, so reports skip it.
type NotificationEvent struct {
	ID            string           `json:"id"`
	Type          NotificationType `json:"type"`
	Title         string           `json:"title"`
	Subject       string           `json:"subject"`
	QuantityDelta string           `json:"quantityDelta"`
	Timestamp     time.Time        `json:"timestamp"`
	Unread        bool             `json:"unread"`

	ItemID      string `json:"itemId,omitempty"`
	PartsNumber string `json:"partsNumber,omitempty"`
	PartsName   string `json:"partsName,omitempty"`
	Units       int    `json:"units"`
	Actor       string `json:"actor,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Removal     bool   `json:"removal,omitempty"`
}

// IsMovement reports whether the event is a stock transaction that reports count.
func (e NotificationEvent) IsMovement() bool {
	if e.Removal {
		return false
	}
	return e.Type == NotificationStockIn || e.Type == NotificationStockOut
}

// PartSubject renders the subject line referencing a part number.
func PartSubject(partsNumber string) string {
	return "Part #" + partsNumber
}

// TransactionType is the direction of a scanned stock movement.
type TransactionType string

const (
	TransactionIn  TransactionType = "in"
	TransactionOut TransactionType = "out"
)

func (t TransactionType) IsValid() bool {
	return t == TransactionIn || t == TransactionOut
}

// TransactionRequest moves stock for an existing item identified by a scanned
// code or a typed part number.
type TransactionRequest struct {
	Code     string          `json:"code" validate:"required"`
	Type     TransactionType `json:"type" validate:"required,oneof=in out"`
	Quantity int             `json:"quantity" validate:"min=1,max=2147483647"`
	Actor    string          `json:"actor"`
	Notes    string          `json:"notes"`
}

// TransactionResult reports the item after the movement and whether it crossed the low-stock threshold.
type TransactionResult struct {
	Item     InventoryItem `json:"item"`
	LowStock bool          `json:"lowStock"`
}
