package spreadsheet

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/partstock/internal/domain/models"
	pkgerrors "github.com/mamadbah2/partstock/pkg/errors"
)

// ItemImporter is the store operation the importer feeds.
type ItemImporter interface {
	ImportItems(candidates []models.ItemCandidate) models.ImportResult
}

// InventorySheet reads the operator-maintained inventory range, header row
// included.
type InventorySheet interface {
	InventoryValues(ctx context.Context) ([][]interface{}, error)
}

// Importer turns uploaded files, JSON rows and spreadsheet ranges into store imports.
type Importer struct {
	store  ItemImporter
	sheet  InventorySheet
	logger *zap.Logger
	now    func() time.Time
}

// NewImporter wires an importer. sheet may be nil when no spreadsheet is configured.
func NewImporter(store ItemImporter, sheet InventorySheet, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		store:  store,
		sheet:  sheet,
		logger: logger,
		now:    time.Now,
	}
}

// ImportCSV reads a CSV upload and imports its rows.
func (i *Importer) ImportCSV(r io.Reader) (models.ImportResult, error) {
	table, err := ReadCSV(r)
	if err != nil {
		if errors.Is(err, ErrNoHeader) {
			return models.ImportResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "csv file is empty")
		}
		return models.ImportResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "csv file could not be parsed")
	}
	return i.importTable(table, "csv"), nil
}

// ImportRows imports rows already decoded into header-keyed maps. header
// fixes the column order used for sniffing; when it is empty the keys of the
// first row are sniffed in alphabetical order.
func (i *Importer) ImportRows(header []string, rows []map[string]string) models.ImportResult {
	candidates := MapRowsWithHeader(header, rows, i.now())
	result := i.store.ImportItems(candidates)
	i.logResult("rows", len(rows), result)
	return result
}

// ImportSheet pulls the inventory range from the spreadsheet and imports it.
func (i *Importer) ImportSheet(ctx context.Context) (models.ImportResult, error) {
	if i.sheet == nil {
		return models.ImportResult{}, pkgerrors.New(pkgerrors.CodeDependency, "google sheets is not configured")
	}

	values, err := i.sheet.InventoryValues(ctx)
	if err != nil {
		return models.ImportResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read inventory sheet")
	}

	table, err := TableFromValues(values)
	if err != nil {
		return models.ImportResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "inventory sheet is empty").
			WithDetails(map[string]string{"sheet": "header row missing"})
	}
	return i.importTable(table, "sheet"), nil
}

func (i *Importer) importTable(table Table, source string) models.ImportResult {
	result := i.store.ImportItems(table.Candidates(i.now()))
	i.logResult(source, len(table.Rows), result)
	return result
}

func (i *Importer) logResult(source string, rows int, result models.ImportResult) {
	fields := []zap.Field{
		zap.String("source", source),
		zap.Int("rows", rows),
		zap.Int("merged", result.Merged),
		zap.Int("created", result.Created),
		zap.Int("rejected", result.Rejected),
	}
	if result.Rejected > 0 {
		i.logger.Warn("import finished with rejected rows", append(fields, zap.Any("rejections", result.Rejections))...)
		return
	}
	i.logger.Info("import finished", fields...)
}
