package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/partstock/internal/config"
	"github.com/mamadbah2/partstock/internal/domain/models"
	"github.com/mamadbah2/partstock/pkg/format"
)

// ReportColumns is the header of the report range. AppendDailyReport writes
// its values in this order.
var ReportColumns = []string{
	"Date", "Items In", "Items Out", "Units In", "Units Out", "Transactions", "Items In Hand",
}

// Repository is the spreadsheet side of partstock: the inventory range that
// operators maintain by hand and the range daily reports are logged to.
type Repository interface {
	InventoryValues(ctx context.Context) ([][]interface{}, error)
	AppendDailyReport(ctx context.Context, report models.DailyReport) error
}

// GoogleSheetRepository implements Repository on top of the Sheets v4 API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	importRange   string
	reportRange   string
	logger        *zap.Logger
}

// NewGoogleSheetRepository connects to the spreadsheet named in cfg. Extra
// client options are appended after the credentials file option.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id must not be empty")
	}

	clientOpts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}
	if cfg.CredentialsPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		importRange:   cfg.ImportRange,
		reportRange:   cfg.ReportRange,
		logger:        logger.With(zap.String("spreadsheet_id", cfg.SpreadsheetID)),
	}, nil
}

// InventoryValues reads the inventory range, header row included.
func (r *GoogleSheetRepository) InventoryValues(ctx context.Context) ([][]interface{}, error) {
	if r.importRange == "" {
		return nil, fmt.Errorf("inventory range is not configured")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, r.importRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read inventory range %s: %w", r.importRange, err)
	}

	r.logger.Debug("inventory range read", zap.String("range", r.importRange), zap.Int("rows", len(resp.Values)))
	return resp.Values, nil
}

// AppendDailyReport logs report as one row of the report range.
func (r *GoogleSheetRepository) AppendDailyReport(ctx context.Context, report models.DailyReport) error {
	if r.reportRange == "" {
		return fmt.Errorf("report range is not configured")
	}

	row := dailyReportRow(report)
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{row}}

	// USER_ENTERED lets Sheets type the ISO date as a date cell.
	_, err := r.service.Spreadsheets.Values.Append(r.spreadsheetID, r.reportRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append daily report %s into %s: %w", row[0], r.reportRange, err)
	}

	r.logger.Debug("daily report row appended",
		zap.String("range", r.reportRange),
		zap.String("date", format.ISODate(report.Date)))
	return nil
}

func dailyReportRow(report models.DailyReport) []interface{} {
	return []interface{}{
		format.ISODate(report.Date),
		report.ItemsIn,
		report.ItemsOut,
		report.UnitsIn,
		report.UnitsOut,
		report.TotalTransactions,
		report.ItemsInHand,
	}
}
