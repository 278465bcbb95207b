package inventory

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/partstock/internal/domain/models"
	"github.com/mamadbah2/partstock/internal/validation"
	"github.com/mamadbah2/partstock/pkg/format"
	"github.com/mamadbah2/partstock/pkg/metrics"
)

const (
	opAddItem    = "add_item"
	opUpdateItem = "update_item"
	opDeleteItem = "delete_item"
)

// AddItem validates candidate, stores it as a new item at the head of the
// list and records it as a stock-in. A non-zero TotalAmount must agree with
// itemPrice * quantity + tax; a zero one is computed.
func (s *Store) AddItem(candidate models.ItemCandidate) (models.InventoryItem, error) {
	c := candidate.Trimmed()

	if err := validateAdd(c); err != nil {
		s.metrics.ObserveOperation(opAddItem, metrics.OutcomeInvalid)
		return models.InventoryItem{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := models.InventoryItem{
		ID:          s.newID(),
		Date:        c.Date,
		PartsNumber: c.PartsNumber,
		PartsName:   c.PartsName,
		Component:   c.Component,
		Quantity:    c.Quantity,
		ItemPrice:   c.ItemPrice,
		Rack:        c.Rack,
		Tax:         c.Tax,
		PIC:         c.PIC,
		PONumber:    c.PONumber,
		CTPLNumber:  c.CTPLNumber,
		ImageData:   c.ImageData,
	}
	if item.Date.IsZero() {
		item.Date = s.today()
	}
	item.Recalculate()

	s.items = append([]models.InventoryItem{item}, s.items...)
	s.stats.StockIn += int64(item.Quantity)
	s.stats.ItemsInHand += int64(item.Quantity)

	s.feed.Append(models.NotificationEvent{
		Type:          models.NotificationStockIn,
		Title:         "Stock In: " + displayName(item),
		Subject:       models.PartSubject(item.PartsNumber),
		QuantityDelta: format.SignedUnits(item.Quantity),
		ItemID:        item.ID,
		PartsNumber:   item.PartsNumber,
		PartsName:     item.PartsName,
		Units:         item.Quantity,
		Actor:         item.PIC,
	})

	s.metrics.ObserveOperation(opAddItem, metrics.OutcomeOK)
	s.publishLevels()
	s.logger.Info("item added",
		zap.String("id", item.ID),
		zap.String("parts_number", item.PartsNumber),
		zap.Int("quantity", item.Quantity))

	return item, nil
}

// UpdateItem replaces the stored record with the same id. The quantity
// difference is applied to itemsInHand as a silent correction; stockIn and
// stockOut are untouched and no notification is emitted.
func (s *Store) UpdateItem(item models.InventoryItem) (models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByID(item.ID)
	if idx < 0 {
		s.metrics.ObserveOperation(opUpdateItem, metrics.OutcomeNotFound)
		return models.InventoryItem{}, itemNotFound(item.ID)
	}

	item = trimItem(item)
	if err := validateUpdate(item); err != nil {
		s.metrics.ObserveOperation(opUpdateItem, metrics.OutcomeInvalid)
		return models.InventoryItem{}, err
	}

	previous := s.items[idx]
	if item.Date.IsZero() {
		item.Date = previous.Date
	}
	item.Recalculate()

	s.items[idx] = item
	s.stats.ItemsInHand += int64(item.Quantity - previous.Quantity)

	s.metrics.ObserveOperation(opUpdateItem, metrics.OutcomeOK)
	s.publishLevels()
	s.logger.Debug("item updated",
		zap.String("id", item.ID),
		zap.String("parts_number", item.PartsNumber),
		zap.Int("previous_quantity", previous.Quantity),
		zap.Int("quantity", item.Quantity))

	return item, nil
}

// DeleteItem removes an item and records its quantity leaving the shelf.
// Deleting the same id twice fails the second time.
func (s *Store) DeleteItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByID(id)
	if idx < 0 {
		s.metrics.ObserveOperation(opDeleteItem, metrics.OutcomeNotFound)
		return itemNotFound(id)
	}

	removed := s.items[idx]
	s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	s.stats.ItemsInHand -= int64(removed.Quantity)

	s.feed.Append(models.NotificationEvent{
		Type:          models.NotificationStockOut,
		Title:         "Removed: " + displayName(removed),
		Subject:       models.PartSubject(removed.PartsNumber),
		QuantityDelta: format.SignedUnits(-removed.Quantity),
		ItemID:        removed.ID,
		PartsNumber:   removed.PartsNumber,
		PartsName:     removed.PartsName,
		Units:         -removed.Quantity,
		Removal:       true,
	})

	s.metrics.ObserveOperation(opDeleteItem, metrics.OutcomeOK)
	s.publishLevels()
	s.logger.Info("item deleted",
		zap.String("id", removed.ID),
		zap.String("parts_number", removed.PartsNumber),
		zap.Int("quantity", removed.Quantity))

	return nil
}

func validateAdd(c models.ItemCandidate) error {
	extra := validation.Fields{}
	checkComponent(extra, c.Component)
	checkAmounts(extra, c.ItemPrice, c.Tax)

	if !c.TotalAmount.IsZero() {
		expected := models.ComputeTotal(c.ItemPrice, c.Quantity, c.Tax)
		if !c.TotalAmount.Equal(expected) {
			extra.Add("totalAmount", fmt.Sprintf("must equal itemPrice * quantity + tax (%s)", expected.StringFixed(2)))
		}
	}

	return validation.Merge(validation.Struct(c), extra)
}

func validateUpdate(item models.InventoryItem) error {
	extra := validation.Fields{}
	if item.PartsNumber == "" {
		extra.Add("partsNumber", "is required")
	}
	if item.PartsName == "" {
		extra.Add("partsName", "is required")
	}
	if item.Quantity < 0 {
		extra.Add("quantity", "must not be negative")
	}
	if item.Quantity > models.MaxQuantity {
		extra.Add("quantity", fmt.Sprintf("must be at most %d", models.MaxQuantity))
	}
	checkComponent(extra, item.Component)
	checkAmounts(extra, item.ItemPrice, item.Tax)
	return extra.Err()
}

func checkComponent(extra validation.Fields, component models.Component) {
	if component != "" && !component.IsValid() {
		extra.Add("component", "must be one of Engine, Hydraulic, Electrical, Mechanical, Body")
	}
}

func checkAmounts(extra validation.Fields, itemPrice, tax decimal.Decimal) {
	if itemPrice.IsNegative() {
		extra.Add("itemPrice", "must not be negative")
	}
	if tax.IsNegative() {
		extra.Add("tax", "must not be negative")
	}
}

func trimItem(item models.InventoryItem) models.InventoryItem {
	item.PartsNumber = strings.TrimSpace(item.PartsNumber)
	item.PartsName = strings.TrimSpace(item.PartsName)
	item.Component = models.Component(strings.TrimSpace(string(item.Component)))
	item.Rack = strings.TrimSpace(item.Rack)
	item.PIC = strings.TrimSpace(item.PIC)
	item.PONumber = strings.TrimSpace(item.PONumber)
	item.CTPLNumber = strings.TrimSpace(item.CTPLNumber)
	return item
}
