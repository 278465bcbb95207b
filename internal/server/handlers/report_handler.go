package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/partstock/internal/domain/models"
	pkgerrors "github.com/mamadbah2/partstock/pkg/errors"
	"github.com/mamadbah2/partstock/pkg/format"
)

// Reporter builds reports from the live store.
type Reporter interface {
	Daily(day time.Time) models.DailyReport
	Dashboard(months int) models.Dashboard
}

// ReportHistory reads archived daily reports.
type ReportHistory interface {
	RecentDailyReports(ctx context.Context, limit int64) ([]models.DailyReport, error)
}

// ReportHandler serves statistics and reports.
type ReportHandler struct {
	reports  Reporter
	history  ReportHistory
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportHandler wires the handler. history may be nil when no archive is configured.
func NewReportHandler(reports Reporter, history ReportHistory, location *time.Location, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &ReportHandler{
		reports:  reports,
		history:  history,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

// Stats returns the dashboard: ledger, unread count and ?months= of chart data.
func (h *ReportHandler) Stats(c *gin.Context) {
	months, err := queryInt(c, "months", 0)
	if err != nil || months < 0 || months > 24 {
		badRequest(c, h.logger, err, "months must be between 1 and 24")
		return
	}
	c.JSON(http.StatusOK, h.reports.Dashboard(months))
}

// Daily returns the report for ?date=YYYY-MM-DD, today by default.
func (h *ReportHandler) Daily(c *gin.Context) {
	day := h.now().In(h.location)
	if raw := c.Query("date"); raw != "" {
		parsed, err := format.ParseISODate(raw)
		if err != nil {
			badRequest(c, h.logger, err, "date must be YYYY-MM-DD")
			return
		}
		day = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 12, 0, 0, 0, h.location)
	}
	c.JSON(http.StatusOK, h.reports.Daily(day))
}

// History lists archived daily reports, newest first.
func (h *ReportHandler) History(c *gin.Context) {
	if h.history == nil {
		writeError(c, h.logger, pkgerrors.New(pkgerrors.CodeDependency, "report archive is not configured"))
		return
	}

	limit, err := queryInt(c, "limit", 30)
	if err != nil || limit <= 0 {
		badRequest(c, h.logger, err, "limit must be a positive number")
		return
	}

	reports, err := h.history.RecentDailyReports(c.Request.Context(), int64(limit))
	if err != nil {
		writeError(c, h.logger, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read report archive"))
		return
	}
	c.JSON(http.StatusOK, reports)
}
