package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

var managedKeys = []string{
	"APP_PORT", "LOG_LEVEL", "CORS_ALLOWED_ORIGINS", "LOW_STOCK_THRESHOLD", "IMPORT_MAX_UPLOAD_MB",
	"TIMEZONE", "REPORT_CRON_SCHEDULE", "LOW_STOCK_CRON_SCHEDULE",
	"GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID", "SHEETS_IMPORT_RANGE", "SHEETS_REPORT_RANGE",
	"MONGODB_URI", "MONGODB_DB_NAME",
	"WHATSAPP_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "META_VERIFY_TOKEN", "WHATSAPP_BASE_URL",
	"WHATSAPP_API_VERSION", "WHATSAPP_ALERT_RECIPIENT",
}

// clearEnv blanks every key Load reads. t.Setenv restores the previous values.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedKeys {
		t.Setenv(key, "")
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5, cfg.Inventory.LowStockThreshold)
	assert.Equal(t, int64(10<<20), cfg.Inventory.MaxUploadBytes())
	assert.Equal(t, "Asia/Manila", cfg.Reporting.Timezone)
	assert.Equal(t, "0 20 * * *", cfg.Reporting.CronSchedule)
	assert.Equal(t, "0 8 * * *", cfg.Reporting.LowStockCronSchedule)
	assert.Equal(t, "Inventory!A:L", cfg.Sheets.ImportRange)
	assert.Equal(t, "Reports!A:G", cfg.Sheets.ReportRange)
	assert.Equal(t, "partstock", cfg.MongoDB.DBName)

	assert.False(t, cfg.WhatsApp.Enabled())
	assert.False(t, cfg.Sheets.Enabled())
	assert.False(t, cfg.MongoDB.Enabled())
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	for _, key := range managedKeys {
		require.NoError(t, os.Unsetenv(key))
	}

	path := filepath.Join(t.TempDir(), ".env")
	content := "APP_PORT=9090\n" +
		"LOW_STOCK_THRESHOLD=3\n" +
		"CORS_ALLOWED_ORIGINS=http://localhost:5173, https://parts.example.com\n" +
		"WHATSAPP_TOKEN=token\n" +
		"WHATSAPP_PHONE_NUMBER_ID=123\n" +
		"META_VERIFY_TOKEN=verify\n" +
		"WHATSAPP_ALERT_RECIPIENT=639171234567\n" +
		"MONGODB_URI=mongodb://localhost:27017\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Inventory.LowStockThreshold)
	assert.Equal(t, []string{"http://localhost:5173", "https://parts.example.com"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.WhatsApp.Enabled())
	assert.Equal(t, "639171234567", cfg.WhatsApp.AlertRecipient)
	assert.True(t, cfg.MongoDB.Enabled())
}

func TestLoadReportsEveryProblem(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "http")
	t.Setenv("LOW_STOCK_THRESHOLD", "many")
	t.Setenv("REPORT_CRON_SCHEDULE", "every day")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	t.Setenv("WHATSAPP_TOKEN", "token")

	_, err := Load(missingEnvFile(t))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "LOW_STOCK_THRESHOLD must be an integer")
	assert.Contains(t, msg, "APP_PORT must be a port number")
	assert.Contains(t, msg, "REPORT_CRON_SCHEDULE is invalid")
	assert.Contains(t, msg, "TIMEZONE")
	assert.Contains(t, msg, "WHATSAPP_PHONE_NUMBER_ID must be provided")
	assert.GreaterOrEqual(t, len(multierr.Errors(err)), 5)
}

func TestValidatePartialSheets(t *testing.T) {
	cfg := validConfig()
	cfg.Sheets.SpreadsheetID = "sheet-id"
	cfg.Sheets.ImportRange = "A:L"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_SHEETS_CREDENTIALS_PATH")
	assert.Contains(t, err.Error(), "SHEETS_IMPORT_RANGE")
}

func TestValidateNil(t *testing.T) {
	var cfg *Config
	assert.Error(t, cfg.Validate())
}

func TestLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, ReportingConfig{Timezone: "Nowhere/Special"}.Location())
	assert.Equal(t, "UTC", ReportingConfig{Timezone: "UTC"}.Location().String())
}

func validConfig() *Config {
	return &Config{
		Server:    ServerConfig{Port: "8080"},
		Inventory: InventoryConfig{LowStockThreshold: 5, ImportMaxUploadMB: 10},
		Sheets:    SheetsConfig{ImportRange: "Inventory!A:L", ReportRange: "Reports!A:G"},
		Reporting: ReportingConfig{CronSchedule: "0 20 * * *", LowStockCronSchedule: "0 8 * * *", Timezone: "UTC"},
		MongoDB:   MongoDBConfig{DBName: "partstock"},
	}
}
