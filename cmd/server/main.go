package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/mamadbah2/partstock/internal/config"
	"github.com/mamadbah2/partstock/internal/repository/mongodb"
	"github.com/mamadbah2/partstock/internal/repository/sheets"
	"github.com/mamadbah2/partstock/internal/scheduler"
	"github.com/mamadbah2/partstock/internal/server/handlers"
	"github.com/mamadbah2/partstock/internal/server/router"
	commandsvc "github.com/mamadbah2/partstock/internal/service/commands"
	"github.com/mamadbah2/partstock/internal/service/inventory"
	reportingsvc "github.com/mamadbah2/partstock/internal/service/reporting"
	"github.com/mamadbah2/partstock/internal/service/spreadsheet"
	whatsappsvc "github.com/mamadbah2/partstock/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/partstock/pkg/clients/whatsapp"
	"github.com/mamadbah2/partstock/pkg/logger"
	"github.com/mamadbah2/partstock/pkg/metrics"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	location := cfg.Reporting.Location()
	store := inventory.NewStore(baseLogger.Named("store"),
		inventory.WithMetrics(metrics.NewStoreMetrics(registry)),
		inventory.WithLowStockThreshold(cfg.Inventory.LowStockThreshold),
	)

	// Integrations are optional. Interface values stay nil when one is off.
	var (
		inventorySheet spreadsheet.InventorySheet
		reportSheet    reportingsvc.ReportSheet
		archive        reportingsvc.Archive
		history        handlers.ReportHistory
	)

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		inventorySheet = sheetsRepo
		reportSheet = sheetsRepo
	} else {
		baseLogger.Warn("google sheets not configured, sheet import and report rows disabled")
	}

	if cfg.MongoDB.Enabled() {
		connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mongoRepo, err := mongodb.Connect(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
		if err == nil {
			err = mongoRepo.EnsureIndexes(connectCtx)
		}
		cancel()
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		archive = mongoRepo
		history = mongoRepo
	} else {
		baseLogger.Warn("mongodb not configured, daily reports will not be archived")
	}

	reportingSvc := reportingsvc.NewService(store, archive, reportSheet, location, baseLogger.Named("svc.reporting"))
	importer := spreadsheet.NewImporter(store, inventorySheet, baseLogger.Named("svc.import"))

	routes := router.Handlers{
		Inventory:     handlers.NewInventoryHandler(store, importer, cfg.Inventory.MaxUploadBytes(), baseLogger.Named("handlers.inventory")),
		Notifications: handlers.NewNotificationHandler(store, baseLogger.Named("handlers.notifications")),
		Reports:       handlers.NewReportHandler(reportingSvc, history, location, baseLogger.Named("handlers.reports")),
	}

	var notifier scheduler.Notifier
	if cfg.WhatsApp.Enabled() {
		commandDispatcher := commandsvc.NewService(store, reportingSvc, location, baseLogger.Named("svc.commands"))
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))
		routes.Webhook = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
		if cfg.WhatsApp.AlertRecipient != "" {
			notifier = messagingSvc
		}
	} else {
		baseLogger.Warn("whatsapp not configured, chat commands and alerts disabled")
	}

	engine := router.New(routes, registry, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reporting, reportingSvc, store, notifier, metrics.NewJobMetrics(registry), baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.WithCORS(engine, cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
