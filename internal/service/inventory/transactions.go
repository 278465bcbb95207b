package inventory

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/partstock/internal/domain/models"
	"github.com/mamadbah2/partstock/internal/validation"
	pkgerrors "github.com/mamadbah2/partstock/pkg/errors"
	"github.com/mamadbah2/partstock/pkg/format"
	"github.com/mamadbah2/partstock/pkg/metrics"
)

const opTransaction = "transaction"

// RecordTransaction moves stock in or out of an existing item located by a
// scanned label or a part number. A stock-out leaving the item at or below
// the low-stock threshold also raises a low-stock alert.
func (s *Store) RecordTransaction(req models.TransactionRequest) (models.TransactionResult, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.Actor = strings.TrimSpace(req.Actor)
	req.Notes = strings.TrimSpace(req.Notes)

	if err := validation.Struct(req); err != nil {
		s.metrics.ObserveOperation(opTransaction, metrics.OutcomeInvalid)
		return models.TransactionResult{}, err
	}

	code, err := models.ParseScanCode(req.Code)
	if err != nil {
		s.metrics.ObserveOperation(opTransaction, metrics.OutcomeInvalid)
		return models.TransactionResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable code").
			WithDetails(map[string]string{"code": err.Error()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	if code.ItemID != "" {
		idx = s.indexByID(code.ItemID)
	}
	if idx < 0 {
		idx = s.indexByPartsNumber(code.PartsNumber)
	}
	if idx < 0 {
		s.metrics.ObserveOperation(opTransaction, metrics.OutcomeNotFound)
		return models.TransactionResult{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "no item matches code %s", req.Code)
	}

	item := s.items[idx]
	event := models.NotificationEvent{
		Subject:     models.PartSubject(item.PartsNumber),
		ItemID:      item.ID,
		PartsNumber: item.PartsNumber,
		PartsName:   item.PartsName,
		Actor:       req.Actor,
		Notes:       req.Notes,
	}

	var result models.TransactionResult
	switch req.Type {
	case models.TransactionIn:
		if !fitsQuantity(item.Quantity, req.Quantity) {
			s.metrics.ObserveOperation(opTransaction, metrics.OutcomeInvalid)
			return models.TransactionResult{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity too large").
				WithDetails(map[string]string{"quantity": fmt.Sprintf("must be at most %d", models.MaxQuantity-item.Quantity)})
		}
		item.Quantity += req.Quantity
		s.stats.StockIn += int64(req.Quantity)
		s.stats.ItemsInHand += int64(req.Quantity)

		event.Type = models.NotificationStockIn
		event.Title = "Stock In: " + displayName(item)
		event.QuantityDelta = format.SignedUnits(req.Quantity)
		event.Units = req.Quantity
	case models.TransactionOut:
		if req.Quantity > item.Quantity {
			s.metrics.ObserveOperation(opTransaction, metrics.OutcomeInvalid)
			return models.TransactionResult{}, pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
				WithDetails(map[string]string{"quantity": fmt.Sprintf("must be at most %d", item.Quantity)})
		}
		item.Quantity -= req.Quantity
		s.stats.StockOut += int64(req.Quantity)
		s.stats.ItemsInHand -= int64(req.Quantity)

		event.Type = models.NotificationStockOut
		event.Title = "Stock Out: " + displayName(item)
		event.QuantityDelta = format.SignedUnits(-req.Quantity)
		event.Units = -req.Quantity
		result.LowStock = item.Quantity <= s.lowStockThreshold
	}

	item.Recalculate()
	s.items[idx] = item
	s.feed.Append(event)

	if result.LowStock {
		s.feed.Append(models.NotificationEvent{
			Type:          models.NotificationLowStock,
			Title:         "Low Stock Alert: " + displayName(item),
			Subject:       models.PartSubject(item.PartsNumber),
			QuantityDelta: format.UnitsRemaining(item.Quantity),
			ItemID:        item.ID,
			PartsNumber:   item.PartsNumber,
			PartsName:     item.PartsName,
			Actor:         req.Actor,
		})
		s.logger.Warn("item below low-stock threshold",
			zap.String("parts_number", item.PartsNumber),
			zap.Int("remaining", item.Quantity),
			zap.Int("threshold", s.lowStockThreshold))
	}

	s.metrics.ObserveOperation(opTransaction, metrics.OutcomeOK)
	s.publishLevels()
	s.logger.Info("stock transaction recorded",
		zap.String("type", string(req.Type)),
		zap.String("parts_number", item.PartsNumber),
		zap.Int("quantity", req.Quantity),
		zap.Int("remaining", item.Quantity),
		zap.String("actor", req.Actor))

	result.Item = item
	return result, nil
}
