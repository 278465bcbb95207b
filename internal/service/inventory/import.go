package inventory

import (
	"go.uber.org/zap"

	"github.com/mamadbah2/partstock/internal/domain/models"
	"github.com/mamadbah2/partstock/pkg/format"
	"github.com/mamadbah2/partstock/pkg/metrics"
)

const opImportItems = "import_items"

// Rejection reasons reported in ImportResult.Rejections.
const (
	RejectMissingKey       = "partsNumber and partsName are both empty"
	RejectNegativeQuantity = "quantity must not be negative"
	RejectNegativeAmount   = "itemPrice and tax must not be negative"
	RejectQuantityOverflow = "quantity would exceed the maximum stock level"
)

// ImportItems reconciles a batch of candidates against the store.
//
// A candidate whose partsNumber matches an item (existing, or created earlier
// in the same batch) is merged: its quantity is added and every non-empty
// field overwrites the stored one, keeping id and entry date. Anything else
// becomes a new item. New items are placed ahead of the existing list in
// input order. Rejected candidates have no effect beyond the counts.
func (s *Store) ImportItems(candidates []models.ItemCandidate) models.ImportResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result models.ImportResult

	existing := cloneItems(s.items)
	existingIdx := firstIndexByPartsNumber(existing)

	var created []models.InventoryItem
	createdIdx := map[string]int{}
	var events []models.NotificationEvent
	accepted := 0

	for row, raw := range candidates {
		c := normalizeCandidate(raw)

		if reason := rejectReason(c); reason != "" {
			result.Rejected++
			result.Rejections = append(result.Rejections, models.RejectedRow{Row: row + 1, Reason: reason})
			s.logger.Debug("import candidate rejected", zap.Int("row", row+1), zap.String("reason", reason))
			continue
		}

		var target *models.InventoryItem
		if c.PartsNumber != "" {
			if idx, ok := existingIdx[c.PartsNumber]; ok {
				target = &existing[idx]
			} else if idx, ok := createdIdx[c.PartsNumber]; ok {
				target = &created[idx]
			}
		}

		current := 0
		if target != nil {
			current = target.Quantity
		}
		if !fitsQuantity(current, c.Quantity) {
			result.Rejected++
			result.Rejections = append(result.Rejections, models.RejectedRow{Row: row + 1, Reason: RejectQuantityOverflow})
			s.logger.Debug("import candidate rejected", zap.Int("row", row+1), zap.String("reason", RejectQuantityOverflow))
			continue
		}
		accepted += c.Quantity

		if target != nil {
			mergeCandidate(target, c)
			result.Merged++
			events = append(events, importEvent("Updated: ", *target, c.Quantity))
			continue
		}

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

		if item.PartsNumber != "" {
			createdIdx[item.PartsNumber] = len(created)
		}
		created = append(created, item)
		result.Created++
		events = append(events, importEvent("New Item: ", item, c.Quantity))
	}

	if result.Merged+result.Created > 0 {
		s.items = append(created, existing...)
		s.stats.ItemsInHand += int64(accepted)
		s.stats.StockIn += int64(accepted)
		for _, event := range events {
			s.feed.Append(event)
		}
	}

	s.metrics.ObserveOperation(opImportItems, metrics.OutcomeOK)
	s.metrics.ObserveImport(result.Merged, result.Created, result.Rejected)
	s.publishLevels()
	s.logger.Info("import reconciled",
		zap.Int("candidates", len(candidates)),
		zap.Int("merged", result.Merged),
		zap.Int("created", result.Created),
		zap.Int("rejected", result.Rejected),
		zap.Int("units", accepted))

	return result
}

// normalizeCandidate trims text fields and maps the component onto the known
// set. Components outside the set are dropped rather than failing the row.
func normalizeCandidate(raw models.ItemCandidate) models.ItemCandidate {
	c := raw.Trimmed()
	if c.Component != "" {
		component, err := models.ParseComponent(string(c.Component))
		if err != nil {
			component = ""
		}
		c.Component = component
	}
	return c
}

func rejectReason(c models.ItemCandidate) string {
	switch {
	case c.PartsNumber == "" && c.PartsName == "":
		return RejectMissingKey
	case c.Quantity < 0:
		return RejectNegativeQuantity
	case c.ItemPrice.IsNegative() || c.Tax.IsNegative():
		return RejectNegativeAmount
	}
	return ""
}

// fitsQuantity reports whether adding units to current stays within
// models.MaxQuantity. Both arguments are non-negative.
func fitsQuantity(current, units int) bool {
	return units <= models.MaxQuantity-current
}

func mergeCandidate(target *models.InventoryItem, c models.ItemCandidate) {
	target.Quantity += c.Quantity
	if c.PartsName != "" {
		target.PartsName = c.PartsName
	}
	if c.Component != "" {
		target.Component = c.Component
	}
	if !c.ItemPrice.IsZero() {
		target.ItemPrice = c.ItemPrice
	}
	if c.Rack != "" {
		target.Rack = c.Rack
	}
	if !c.Tax.IsZero() {
		target.Tax = c.Tax
	}
	if c.PIC != "" {
		target.PIC = c.PIC
	}
	if c.PONumber != "" {
		target.PONumber = c.PONumber
	}
	if c.CTPLNumber != "" {
		target.CTPLNumber = c.CTPLNumber
	}
	if c.ImageData != "" {
		target.ImageData = c.ImageData
	}
	target.Recalculate()
}

func firstIndexByPartsNumber(items []models.InventoryItem) map[string]int {
	idx := make(map[string]int, len(items))
	for i, item := range items {
		if item.PartsNumber == "" {
			continue
		}
		if _, seen := idx[item.PartsNumber]; !seen {
			idx[item.PartsNumber] = i
		}
	}
	return idx
}

func importEvent(prefix string, item models.InventoryItem, units int) models.NotificationEvent {
	return models.NotificationEvent{
		Type:          models.NotificationStockIn,
		Title:         prefix + displayName(item),
		Subject:       models.PartSubject(item.PartsNumber),
		QuantityDelta: format.SignedUnits(units),
		ItemID:        item.ID,
		PartsNumber:   item.PartsNumber,
		PartsName:     item.PartsName,
		Units:         units,
		Actor:         item.PIC,
	}
}
