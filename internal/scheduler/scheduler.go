package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mamadbah2/partstock/internal/config"
	"github.com/mamadbah2/partstock/internal/domain/models"
	"github.com/mamadbah2/partstock/internal/service/reporting"
	"github.com/mamadbah2/partstock/pkg/metrics"
)

const (
	JobDailyReport   = "daily_report"
	JobLowStockAlert = "low_stock_digest"

	jobTimeout = 2 * time.Minute
)

// ReportArchiver produces and stores the daily report.
type ReportArchiver interface {
	ArchiveDaily(ctx context.Context, day time.Time) (models.DailyReport, error)
}

// StockWatcher exposes the items that need reordering.
type StockWatcher interface {
	LowStock() []models.InventoryItem
	LowStockThreshold() int
}

// Notifier delivers a text message to the operations contact.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	reports  ReportArchiver
	stock    StockWatcher
	notifier Notifier
	cfg      config.ReportingConfig
	metrics  *metrics.JobMetrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance. notifier may be nil, in which
// case reports are archived but not sent.
func NewScheduler(cfg config.ReportingConfig, reports ReportArchiver, stock StockWatcher, notifier Notifier, jobMetrics *metrics.JobMetrics, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Standard 5-field cron expressions evaluated in the configured timezone.
	c := cron.New(cron.WithLocation(cfg.Location()))

	return &Scheduler{
		cron:     c,
		reports:  reports,
		stock:    stock,
		notifier: notifier,
		cfg:      cfg,
		metrics:  jobMetrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("report_schedule", s.cfg.CronSchedule),
		zap.String("low_stock_schedule", s.cfg.LowStockCronSchedule),
		zap.String("timezone", s.cfg.Timezone))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.job(JobDailyReport, s.RunDailyReport)); err != nil {
		return fmt.Errorf("schedule daily report: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.LowStockCronSchedule, s.job(JobLowStockAlert, s.RunLowStockDigest)); err != nil {
		return fmt.Errorf("schedule low-stock digest: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// RunDailyReport archives today's report and sends its summary.
func (s *Scheduler) RunDailyReport(ctx context.Context) error {
	report, err := s.reports.ArchiveDaily(ctx, s.now())
	if err != nil {
		// A failed sink is logged by the reporting service; the summary still goes out.
		s.logger.Warn("daily report archived with errors", zap.Error(err))
	}

	if s.notifier == nil {
		return err
	}
	if sendErr := s.notifier.Notify(ctx, reporting.Summary(report)); sendErr != nil {
		return multierr.Append(err, fmt.Errorf("send daily report: %w", sendErr))
	}

	s.logger.Info("daily report sent successfully")
	return err
}

// RunLowStockDigest sends the list of low items, if any.
func (s *Scheduler) RunLowStockDigest(ctx context.Context) error {
	items := s.stock.LowStock()
	digest := reporting.LowStockDigest(items, s.stock.LowStockThreshold())
	if digest == "" {
		s.logger.Debug("no low-stock items")
		return nil
	}
	if s.notifier == nil {
		s.logger.Warn("low-stock items found but no notifier configured", zap.Int("items", len(items)))
		return nil
	}
	if err := s.notifier.Notify(ctx, digest); err != nil {
		return fmt.Errorf("send low-stock digest: %w", err)
	}
	s.logger.Info("low-stock digest sent", zap.Int("items", len(items)))
	return nil
}

func (s *Scheduler) job(name string, run func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		s.logger.Info("running scheduled job", zap.String("job", name))
		err := s.metrics.Track(name, func() error { return run(ctx) })
		if err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
		}
	}
}
