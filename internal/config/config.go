package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Inventory InventoryConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	MongoDB   MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port           string
	LogLevel       string
	AllowedOrigins []string
}

// InventoryConfig tunes the inventory store and its import endpoint.
type InventoryConfig struct {
	LowStockThreshold int
	ImportMaxUploadMB int
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken    string
	PhoneNumberID  string
	VerifyToken    string
	BaseURL        string
	APIVersion     string
	AlertRecipient string
}

// Enabled reports whether the WhatsApp integration is configured.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != ""
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	ImportRange     string
	ReportRange     string
}

// Enabled reports whether the Google Sheets integration is configured.
func (c SheetsConfig) Enabled() bool {
	return c.SpreadsheetID != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule         string
	LowStockCronSchedule string
	Timezone             string
}

// Location resolves Timezone, falling back to UTC when it cannot be loaded.
func (c ReportingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Enabled reports whether the report archive is configured.
func (c MongoDBConfig) Enabled() bool {
	return c.URI != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	var problems []error

	threshold, err := getenvInt("LOW_STOCK_THRESHOLD", 5)
	if err != nil {
		problems = append(problems, err)
	}
	maxUpload, err := getenvInt("IMPORT_MAX_UPLOAD_MB", 10)
	if err != nil {
		problems = append(problems, err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getenvWithDefault("APP_PORT", "8080"),
			LogLevel:       getenvWithDefault("LOG_LEVEL", "info"),
			AllowedOrigins: splitList(getenvWithDefault("CORS_ALLOWED_ORIGINS", "*")),
		},
		Inventory: InventoryConfig{
			LowStockThreshold: threshold,
			ImportMaxUploadMB: maxUpload,
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:    os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:  os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:    os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:        getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:     getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			AlertRecipient: os.Getenv("WHATSAPP_ALERT_RECIPIENT"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			ImportRange:     getenvWithDefault("SHEETS_IMPORT_RANGE", "Inventory!A:L"),
			ReportRange:     getenvWithDefault("SHEETS_REPORT_RANGE", "Reports!A:G"),
		},
		Reporting: ReportingConfig{
			CronSchedule:         getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			LowStockCronSchedule: getenvWithDefault("LOW_STOCK_CRON_SCHEDULE", "0 8 * * *"),
			Timezone:             getenvWithDefault("TIMEZONE", "Asia/Manila"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "partstock"),
		},
	}

	if err := multierr.Append(multierr.Combine(problems...), cfg.Validate()); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated. Every
// violation is reported, not only the first one.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port <= 0 || port > 65535 {
		add("APP_PORT must be a port number, got %q", c.Server.Port)
	}

	if c.Inventory.LowStockThreshold < 0 {
		add("LOW_STOCK_THRESHOLD must not be negative")
	}
	if c.Inventory.ImportMaxUploadMB <= 0 {
		add("IMPORT_MAX_UPLOAD_MB must be positive")
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			add("WHATSAPP_PHONE_NUMBER_ID must be provided when WHATSAPP_TOKEN is set")
		case c.WhatsApp.VerifyToken == "":
			add("META_VERIFY_TOKEN must be provided when WHATSAPP_TOKEN is set")
		}
		if c.WhatsApp.BaseURL == "" {
			add("WHATSAPP_BASE_URL must not be empty")
		}
		if c.WhatsApp.APIVersion == "" {
			add("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if c.Sheets.Enabled() {
		if c.Sheets.CredentialsPath == "" {
			add("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when GOOGLE_SHEET_DATABASE_ID is set")
		}
		if !strings.Contains(c.Sheets.ImportRange, "!") {
			add("SHEETS_IMPORT_RANGE must be an A1 range such as Inventory!A:L")
		}
		if !strings.Contains(c.Sheets.ReportRange, "!") {
			add("SHEETS_REPORT_RANGE must be an A1 range such as Reports!A:G")
		}
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		add("MONGODB_DB_NAME must not be empty")
	}

	if _, err := cron.ParseStandard(c.Reporting.CronSchedule); err != nil {
		add("REPORT_CRON_SCHEDULE is invalid: %v", err)
	}
	if _, err := cron.ParseStandard(c.Reporting.LowStockCronSchedule); err != nil {
		add("LOW_STOCK_CRON_SCHEDULE is invalid: %v", err)
	}
	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil || c.Reporting.Timezone == "" {
		add("TIMEZONE %q cannot be loaded", c.Reporting.Timezone)
	}

	return multierr.Combine(problems...)
}

// MaxUploadBytes is the import upload limit in bytes.
func (c InventoryConfig) MaxUploadBytes() int64 {
	return int64(c.ImportMaxUploadMB) << 20
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
