package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/mamadbah2/partstock/internal/server/handlers"
)

// Handlers groups the HTTP handlers mounted on the engine. Webhook is nil
// when WhatsApp is not configured.
type Handlers struct {
	Inventory     *handlers.InventoryHandler
	Notifications *handlers.NotificationHandler
	Reports       *handlers.ReportHandler
	Webhook       *handlers.WebhookHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, gatherer prometheus.Gatherer, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		items := api.Group("/items")
		items.GET("", h.Inventory.List)
		items.POST("", h.Inventory.Create)
		items.GET("/export", h.Inventory.Export)
		items.GET("/low-stock", h.Inventory.LowStock)
		items.POST("/import", h.Inventory.Import)
		items.POST("/import/sheets", h.Inventory.ImportSheet)
		items.GET("/:id", h.Inventory.Get)
		items.PUT("/:id", h.Inventory.Update)
		items.DELETE("/:id", h.Inventory.Delete)
		items.GET("/:id/label", h.Inventory.Label)

		api.POST("/scan", h.Inventory.Scan)

		api.GET("/notifications", h.Notifications.List)
		api.POST("/notifications/read-all", h.Notifications.MarkAllRead)
		api.POST("/notifications/:id/read", h.Notifications.MarkRead)

		api.GET("/stats", h.Reports.Stats)
		api.GET("/reports/daily", h.Reports.Daily)
		api.GET("/reports/history", h.Reports.History)
	}

	if h.Webhook != nil {
		r.GET("/webhook", h.Webhook.Verify)
		r.POST("/webhook", h.Webhook.Receive)
		r.POST("/send-message", h.Webhook.SendMessage)
	}

	if logger != nil {
		logger.Info("router initialized", zap.Int("routes", len(r.Routes())))
	}

	return r
}

// WithCORS lets the browser frontend on origins call the API.
func WithCORS(next http.Handler, origins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}).Handler(next)
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
