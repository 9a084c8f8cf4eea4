// Package cli holds the start-up steps shared by cmd/cuantrack and
// cmd/cuantrack-export.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"cuantrack/internal/advisor"
	"cuantrack/internal/amqp"
	"cuantrack/internal/backend"
	"cuantrack/internal/config"
	"cuantrack/internal/log"
	"cuantrack/internal/sheets"
	gsheet "cuantrack/internal/sheets/google"
)

// SetupLogger builds the process logger at the given level and makes it the
// slog default.
func SetupLogger(level string) *log.Logger {
	logger := log.New(log.Config{Level: log.ParseLevel(level), Component: log.ComponentApp})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend opens the configured snapshot store or exits the process.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize snapshot backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return result
}

// InitNotifier connects to the broker when AMQP_URL is set. Without it, or
// when the broker is unreachable, it returns nil and instances run unannounced.
func InitNotifier(logger *log.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP not configured, change notifications disabled")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.InstanceID)
	if err != nil {
		logger.Warn("Failed to connect to AMQP, change notifications disabled", log.FieldError, err)
		return nil
	}
	logger.Info("AMQP connected", "exchange", cfg.AMQPExchange, log.FieldOrigin, client.Origin())
	return client
}

// InitExporter returns the Google Sheets exporter, or nil when no spreadsheet
// is configured.
func InitExporter(ctx context.Context, logger *log.Logger, cfg *config.Config) (sheets.LedgerExporter, error) {
	if !cfg.SheetsExportEnabled() {
		return nil, nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:     cfg.GoogleSpreadsheetID,
		TransactionsSheet: cfg.GoogleSheetName,
		BudgetsSheet:      cfg.GoogleBudgetSheetName,
		CredentialsJSON:   cfg.GoogleServiceAccountJSON,
		CredentialsFile:   cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}

// InitAdvisor wires Gemini when GEMINI_API_KEY is set. A failed client falls
// back to the local summary only.
func InitAdvisor(ctx context.Context, logger *log.Logger, cfg *config.Config) *advisor.Advisor {
	if cfg.GeminiAPIKey == "" {
		return advisor.New(nil, logger)
	}
	gem, err := advisor.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Warn("Gemini unavailable, advisor limited to local summary", log.FieldError, err)
		return advisor.New(nil, logger)
	}
	logger.Info("Gemini advisor enabled", "model", cfg.GeminiModel)
	return advisor.New(gem, logger)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
func GracefulShutdown(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		if parent.Err() == nil {
			logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
		}
	}()
	return ctx, stop
}
