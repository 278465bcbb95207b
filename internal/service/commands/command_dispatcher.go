package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/partstock/internal/domain/models"
	"github.com/mamadbah2/partstock/internal/service/reporting"
	"github.com/mamadbah2/partstock/pkg/format"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

// StockKeeper is the part of the inventory store commands act on.
type StockKeeper interface {
	RecordTransaction(req models.TransactionRequest) (models.TransactionResult, error)
	FindByPartsNumber(partsNumber string) (models.InventoryItem, error)
	LowStock() []models.InventoryItem
	LowStockThreshold() int
}

// ReportingAdapter defines the reporting functions required by the dispatcher.
type ReportingAdapter interface {
	Daily(day time.Time) models.DailyReport
}

// Dispatcher executes parsed commands.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Usage lines double as the /help text.
var usage = map[models.CommandType]string{
	models.CommandStockIn:  "/in <part number> <qty> [notes]",
	models.CommandStockOut: "/out <part number> <qty> [notes]",
	models.CommandStock:    "/stock <part number>",
	models.CommandReport:   "/report [DD/MM/YYYY]",
	models.CommandLowStock: "/lowstock",
}

var helpOrder = []models.CommandType{
	models.CommandStockIn,
	models.CommandStockOut,
	models.CommandStock,
	models.CommandReport,
	models.CommandLowStock,
}

// HelpReply lists every supported command.
func HelpReply() models.AutomationReply {
	lines := make([]string, 0, len(helpOrder))
	for _, kind := range helpOrder {
		lines = append(lines, usage[kind])
	}
	return models.AutomationReply{Title: "Inventory commands", Message: strings.Join(lines, "\n")}
}

// UsageFor returns the usage line of a command, or "" for commands without arguments.
func UsageFor(kind models.CommandType) string {
	return usage[kind]
}

// Service implements the Dispatcher interface.
type Service struct {
	store     StockKeeper
	reporting ReportingAdapter
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewService constructs a command dispatcher. reporting may be nil, in which
// case /report is unsupported.
func NewService(store StockKeeper, reporting ReportingAdapter, location *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &Service{
		store:     store,
		reporting: reporting,
		location:  location,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleCommand runs cmd on behalf of sender and returns the chat reply.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Any("args", cmd.Args))

	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch cmd.Type {
	case models.CommandStockIn:
		return s.transaction(cmd, models.TransactionIn, sender)
	case models.CommandStockOut:
		return s.transaction(cmd, models.TransactionOut, sender)
	case models.CommandStock:
		return s.stock(cmd)
	case models.CommandReport:
		return s.report(cmd)
	case models.CommandLowStock:
		return s.lowStock(), nil
	case models.CommandHelp:
		return HelpReply().String(), nil
	default:
		return "", ErrUnsupportedCommand
	}
}

func (s *Service) transaction(cmd models.Command, kind models.TransactionType, sender string) (string, error) {
	if len(cmd.Args) < 2 {
		return "", ErrInvalidArguments
	}

	quantity, err := strconv.Atoi(cmd.Args[1])
	if err != nil || quantity <= 0 {
		return "", ErrInvalidArguments
	}

	notes := ""
	if len(cmd.Args) > 2 {
		notes = strings.Join(cmd.Args[2:], " ")
	}

	result, err := s.store.RecordTransaction(models.TransactionRequest{
		Code:     cmd.Args[0],
		Type:     kind,
		Quantity: quantity,
		Actor:    sender,
		Notes:    notes,
	})
	if err != nil {
		return "", err
	}

	item := result.Item
	delta := quantity
	verb := "Stock in"
	if kind == models.TransactionOut {
		delta = -quantity
		verb = "Stock out"
	}

	message := fmt.Sprintf("%s recorded for %s (%s): %s. On hand: %s.",
		verb, item.PartsNumber, item.PartsName, format.SignedUnits(delta), format.Number(int64(item.Quantity)))
	if result.LowStock {
		message += fmt.Sprintf("\nLow stock alert: %s.", format.UnitsRemaining(item.Quantity))
	}
	return message, nil
}

func (s *Service) stock(cmd models.Command) (string, error) {
	if len(cmd.Args) != 1 {
		return "", ErrInvalidArguments
	}

	item, err := s.store.FindByPartsNumber(cmd.Args[0])
	if err != nil {
		return "", err
	}

	lines := []string{
		fmt.Sprintf("%s %s", item.PartsNumber, item.PartsName),
		fmt.Sprintf("On hand: %s", format.Number(int64(item.Quantity))),
	}
	if item.Component != "" {
		lines = append(lines, "Component: "+string(item.Component))
	}
	if item.Rack != "" {
		lines = append(lines, "Rack: "+item.Rack)
	}
	if !item.ItemPrice.IsZero() {
		lines = append(lines, "Price: "+format.Peso(item.ItemPrice))
	}
	if item.Quantity <= s.store.LowStockThreshold() {
		lines = append(lines, "Low stock")
	}
	return strings.Join(lines, "\n"), nil
}

func (s *Service) report(cmd models.Command) (string, error) {
	if s.reporting == nil {
		return "", ErrUnsupportedCommand
	}

	day := s.now().In(s.location)
	if len(cmd.Args) > 0 {
		parsed, err := format.ParseDisplayDate(cmd.Args[0])
		if err != nil {
			return "", ErrInvalidArguments
		}
		day = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 12, 0, 0, 0, s.location)
	}

	return reporting.Summary(s.reporting.Daily(day)), nil
}

func (s *Service) lowStock() string {
	digest := reporting.LowStockDigest(s.store.LowStock(), s.store.LowStockThreshold())
	if digest == "" {
		return fmt.Sprintf("No items at or below %d units.", s.store.LowStockThreshold())
	}
	return digest
}
