package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mamadbah2/partstock/internal/domain/models"
	"github.com/mamadbah2/partstock/pkg/format"
)

// DefaultChartMonths is the number of months plotted on the dashboard.
const DefaultChartMonths = 6

// ActivitySource is the read side of the inventory store used for reporting.
type ActivitySource interface {
	Activity(start, end time.Time) []models.NotificationEvent
	Statistics() models.StockStatistics
	UnreadCount() int
	LowStock() []models.InventoryItem
}

// Archive persists finished daily reports.
type Archive interface {
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}

// ReportSheet logs daily reports to a spreadsheet.
type ReportSheet interface {
	AppendDailyReport(ctx context.Context, report models.DailyReport) error
}

// Service derives reports from the notification feed. It keeps no history of
// its own: what the feed holds is what gets reported.
type Service struct {
	source   ActivitySource
	archive  Archive
	sheets   ReportSheet
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a reporting service. archive and sheets are optional.
func NewService(source ActivitySource, archive Archive, sheets ReportSheet, location *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &Service{
		source:   source,
		archive:  archive,
		sheets:   sheets,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

// Daily lists the stock movements of the calendar day containing day.
func (s *Service) Daily(day time.Time) models.DailyReport {
	start := s.startOfDay(day)
	end := start.AddDate(0, 0, 1)

	report := models.DailyReport{
		Date:        start,
		Entries:     []models.ReportEntry{},
		ItemsInHand: s.source.Statistics().ItemsInHand,
		CreatedAt:   s.now(),
	}

	for _, event := range s.source.Activity(start, end) {
		if event.Type == models.NotificationLowStock {
			report.LowStockAlerts++
			continue
		}
		if !event.IsMovement() {
			continue
		}
		if event.Type == models.NotificationStockIn {
			report.ItemsIn++
			report.UnitsIn += abs(event.Units)
		} else {
			report.ItemsOut++
			report.UnitsOut += abs(event.Units)
		}

		item := event.PartsName
		if item == "" {
			item = event.PartsNumber
		}
		report.Entries = append(report.Entries, models.ReportEntry{
			Time:        event.Timestamp.In(s.location),
			Item:        item,
			PartsNumber: event.PartsNumber,
			Type:        event.Type,
			Quantity:    event.Units,
			User:        event.Actor,
			Notes:       event.Notes,
		})
	}
	report.TotalTransactions = report.ItemsIn + report.ItemsOut

	return report
}

// Dashboard combines the ledger with monthly unit totals for the last months
// months, oldest first, ending with the current month.
func (s *Service) Dashboard(months int) models.Dashboard {
	if months <= 0 {
		months = DefaultChartMonths
	}

	now := s.now().In(s.location)
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.location)
	first := current.AddDate(0, -(months - 1), 0)

	chart := models.ChartSeries{
		Labels:       make([]string, months),
		StockInData:  make([]int, months),
		StockOutData: make([]int, months),
	}
	for i := 0; i < months; i++ {
		chart.Labels[i] = first.AddDate(0, i, 0).Format("Jan")
	}

	for _, event := range s.source.Activity(first, current.AddDate(0, 1, 0)) {
		ts := event.Timestamp.In(s.location)
		idx := (ts.Year()-first.Year())*12 + int(ts.Month()) - int(first.Month())
		if idx < 0 || idx >= months || !event.IsMovement() {
			continue
		}
		switch event.Type {
		case models.NotificationStockIn:
			chart.StockInData[idx] += abs(event.Units)
		case models.NotificationStockOut:
			chart.StockOutData[idx] += abs(event.Units)
		}
	}

	return models.Dashboard{
		Statistics:  s.source.Statistics(),
		UnreadCount: s.source.UnreadCount(),
		LowStock:    len(s.source.LowStock()),
		Chart:       chart,
	}
}

// ArchiveDaily builds the report for day and stores it in every configured
// sink. A failing sink does not stop the others; every sink error is returned.
func (s *Service) ArchiveDaily(ctx context.Context, day time.Time) (models.DailyReport, error) {
	report := s.Daily(day)

	var errs error
	if s.archive != nil {
		if err := s.archive.SaveDailyReport(ctx, report); err != nil {
			s.logger.Error("failed to archive daily report", zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("archive daily report: %w", err))
		}
	}

	if s.sheets != nil {
		if err := s.sheets.AppendDailyReport(ctx, report); err != nil {
			s.logger.Error("failed to write daily report row", zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("write daily report row: %w", err))
		}
	}

	s.logger.Info("daily report generated",
		zap.String("date", format.ISODate(report.Date)),
		zap.Int("transactions", report.TotalTransactions))

	return report, errs
}

// Summary renders report as a short chat message.
func Summary(report models.DailyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily report %s\n", format.DisplayDate(report.Date))
	fmt.Fprintf(&b, "Stock in: %s (%s)\n", countLabel(report.ItemsIn, "transaction"), format.SignedUnits(report.UnitsIn))
	fmt.Fprintf(&b, "Stock out: %s (%s)\n", countLabel(report.ItemsOut, "transaction"), format.SignedUnits(-report.UnitsOut))
	if report.LowStockAlerts > 0 {
		fmt.Fprintf(&b, "Low-stock alerts: %d\n", report.LowStockAlerts)
	}
	fmt.Fprintf(&b, "Items in hand: %s", format.Number(report.ItemsInHand))
	return b.String()
}

// LowStockDigest lists items at or below threshold, or returns "" when there are none.
func LowStockDigest(items []models.InventoryItem, threshold int) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Low stock (%d or fewer units): %s\n", threshold, countLabel(len(items), "item"))
	for _, item := range items {
		fmt.Fprintf(&b, "- %s %s, rack %s: %s\n", item.PartsNumber, item.PartsName, orDash(item.Rack), format.UnitsRemaining(item.Quantity))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Service) startOfDay(t time.Time) time.Time {
	local := t.In(s.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)
}

func countLabel(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
