package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/partstock/internal/domain/models"
	"github.com/mamadbah2/partstock/internal/service/notifications"
	pkgerrors "github.com/mamadbah2/partstock/pkg/errors"
)

func TestStockInByPartsNumber(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddItem(models.ItemCandidate{PartsNumber: "ENG-104", PartsName: "Engine Oil Filter", Quantity: 15, ItemPrice: decimal.NewFromInt(10)})
	require.NoError(t, err)

	result, err := s.RecordTransaction(models.TransactionRequest{
		Code: "ENG-104", Type: models.TransactionIn, Quantity: 5, Actor: "Rico", Notes: "delivery",
	})
	require.NoError(t, err)

	assert.Equal(t, 20, result.Item.Quantity)
	assert.False(t, result.LowStock)
	assert.True(t, result.Item.TotalAmount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, models.StockStatistics{ItemsInHand: 20, StockIn: 20}, s.Statistics())

	events := s.Notifications(notifications.ListParams{})
	require.Len(t, events, 2)
	assert.Equal(t, "Stock In: Engine Oil Filter", events[0].Title)
	assert.Equal(t, "+5 units", events[0].QuantityDelta)
	assert.Equal(t, "Rico", events[0].Actor)
	assert.Equal(t, "delivery", events[0].Notes)
	assertConsistent(t, s)
}

func TestStockOutRaisesLowStockAlert(t *testing.T) {
	s := newTestStore(t, WithLowStockThreshold(3))
	_, err := s.AddItem(candidate("ENG-118", "Fuel Filter", 5))
	require.NoError(t, err)

	result, err := s.RecordTransaction(models.TransactionRequest{Code: "ENG-118", Type: models.TransactionOut, Quantity: 2})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Item.Quantity)
	assert.True(t, result.LowStock)
	assert.Equal(t, models.StockStatistics{ItemsInHand: 3, StockIn: 5, StockOut: 2}, s.Statistics())

	events := s.Notifications(notifications.ListParams{})
	require.Len(t, events, 3)
	assert.Equal(t, models.NotificationLowStock, events[0].Type)
	assert.Equal(t, "Low Stock Alert: Fuel Filter", events[0].Title)
	assert.Equal(t, "3 units remaining", events[0].QuantityDelta)
	assert.Equal(t, models.NotificationStockOut, events[1].Type)
	assert.Equal(t, "Stock Out: Fuel Filter", events[1].Title)
	assert.Equal(t, "-2 units", events[1].QuantityDelta)
	assertConsistent(t, s)
}

func TestStockOutAboveThresholdHasNoAlert(t *testing.T) {
	s := newTestStore(t, WithLowStockThreshold(3))
	_, err := s.AddItem(candidate("A1", "Alpha", 10))
	require.NoError(t, err)

	result, err := s.RecordTransaction(models.TransactionRequest{Code: "A1", Type: models.TransactionOut, Quantity: 1})
	require.NoError(t, err)
	assert.False(t, result.LowStock)
	assert.Len(t, s.Notifications(notifications.ListParams{}), 2)
}

func TestStockOutCannotExceedOnHand(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddItem(candidate("A1", "Alpha", 2))
	require.NoError(t, err)

	_, err = s.RecordTransaction(models.TransactionRequest{Code: "A1", Type: models.TransactionOut, Quantity: 3})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	item, err := s.FindByPartsNumber("A1")
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, models.StockStatistics{ItemsInHand: 2, StockIn: 2}, s.Statistics())
	assert.Len(t, s.Notifications(notifications.ListParams{}), 1)
}

func TestStockInCannotExceedMaxQuantity(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddItem(candidate("A1", "Alpha", models.MaxQuantity-2))
	require.NoError(t, err)

	_, err = s.RecordTransaction(models.TransactionRequest{Code: "A1", Type: models.TransactionIn, Quantity: 3})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]string{"quantity": "must be at most 2"}, typed.Details())

	_, err = s.RecordTransaction(models.TransactionRequest{Code: "A1", Type: models.TransactionIn, Quantity: models.MaxQuantity + 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	result, err := s.RecordTransaction(models.TransactionRequest{Code: "A1", Type: models.TransactionIn, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, models.MaxQuantity, result.Item.Quantity)
	assert.Len(t, s.Notifications(notifications.ListParams{}), 2)
	assertConsistent(t, s)
}

func TestTransactionByLabelPayload(t *testing.T) {
	s := newTestStore(t)
	first, err := s.AddItem(candidate("DUP", "First", 4))
	require.NoError(t, err)
	_, err = s.AddItem(candidate("DUP", "Second", 4))
	require.NoError(t, err)

	code, err := models.NewLabelPayload(first).Encode()
	require.NoError(t, err)

	result, err := s.RecordTransaction(models.TransactionRequest{Code: code, Type: models.TransactionIn, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, first.ID, result.Item.ID)
	assert.Equal(t, 5, result.Item.Quantity)
}

func TestTransactionFallsBackToPartsNumberWhenLabelIDIsStale(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddItem(candidate("A1", "Alpha", 4))
	require.NoError(t, err)

	result, err := s.RecordTransaction(models.TransactionRequest{
		Code: `{"id":"gone","partsNumber":"A1"}`, Type: models.TransactionIn, Quantity: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Item.Quantity)
}

func TestTransactionErrors(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddItem(candidate("A1", "Alpha", 4))
	require.NoError(t, err)

	tests := []struct {
		name string
		req  models.TransactionRequest
		code pkgerrors.Code
	}{
		{"unknown part", models.TransactionRequest{Code: "Z9", Type: models.TransactionIn, Quantity: 1}, pkgerrors.CodeNotFound},
		{"blank code", models.TransactionRequest{Code: "  ", Type: models.TransactionIn, Quantity: 1}, pkgerrors.CodeValidation},
		{"bad type", models.TransactionRequest{Code: "A1", Type: "transfer", Quantity: 1}, pkgerrors.CodeValidation},
		{"zero quantity", models.TransactionRequest{Code: "A1", Type: models.TransactionIn}, pkgerrors.CodeValidation},
		{"broken label", models.TransactionRequest{Code: "{nope", Type: models.TransactionIn, Quantity: 1}, pkgerrors.CodeValidation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.RecordTransaction(tc.req)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
		})
	}

	assert.Equal(t, models.StockStatistics{ItemsInHand: 4, StockIn: 4}, s.Statistics())
}

func TestLowStockListing(t *testing.T) {
	s := newTestStore(t, WithLowStockThreshold(2))
	_, err := s.AddItem(candidate("A1", "Alpha", 2))
	require.NoError(t, err)
	_, err = s.AddItem(candidate("B2", "Bravo", 9))
	require.NoError(t, err)

	low := s.LowStock()
	require.Len(t, low, 1)
	assert.Equal(t, "A1", low[0].PartsNumber)
	assert.Equal(t, 2, s.LowStockThreshold())
}
