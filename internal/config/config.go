package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"

	"debiti/internal/calendar"
	"debiti/internal/log"
)

type Config struct {
	// Storage
	DataBackend  string
	SQLiteDBPath string
	PostgresDSN  string

	// AMQP; an empty URL disables event publishing.
	AMQPURL           string
	AMQPExchange      string
	AMQPPaymentQueue  string
	AMQPReminderQueue string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Calendar
	DueDatePolicy string
	HolidaysFile  string
	Timezone      string

	// Reminders
	ReminderLeadDays int
	ReminderHour     int
	QuietFrom        string
	QuietTo          string
	ReminderCron     string
	SweepCron        string

	// Worker
	CacheCleanupInterval time.Duration
	BackfillOnStartup    bool

	LogLevel string
}

var validBackends = []string{"memory", "sqlite", "postgres"}

func Load() *Config {
	return &Config{
		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/debiti.db"),
		PostgresDSN:  getEnv("POSTGRES_DSN", ""),

		AMQPURL:           getEnv("AMQP_URL", ""),
		AMQPExchange:      getEnv("AMQP_EXCHANGE", "debiti"),
		AMQPPaymentQueue:  getEnv("AMQP_PAYMENT_QUEUE", "payments_recorded"),
		AMQPReminderQueue: getEnv("AMQP_REMINDER_QUEUE", "reminders_due"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Payments"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		DueDatePolicy: getEnv("DUE_DATE_POLICY", string(calendar.RollBackward)),
		HolidaysFile:  getEnv("HOLIDAYS_FILE", ""),
		Timezone:      getEnv("TZ_NAME", "Asia/Kuwait"),

		ReminderLeadDays: getEnvInt("REMINDER_LEAD_DAYS", 3),
		ReminderHour:     getEnvInt("REMINDER_HOUR", 9),
		QuietFrom:        getEnv("QUIET_FROM", "22:00"),
		QuietTo:          getEnv("QUIET_TO", "07:00"),
		ReminderCron:     getEnv("REMINDER_CRON", "*/15 * * * *"),
		SweepCron:        getEnv("SWEEP_CRON", "5 0 * * *"),

		CacheCleanupInterval: getEnvDuration("CACHE_CLEANUP_INTERVAL", 10*time.Minute),
		BackfillOnStartup:    getEnvBool("BACKFILL_ON_STARTUP", true),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	if c.DataBackend == "sqlite" && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}
	if c.DataBackend == "postgres" && c.PostgresDSN == "" {
		errors = append(errors, "POSTGRES_DSN is required when using postgres backend")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPPaymentQueue == "" || c.AMQPReminderQueue == "" {
			errors = append(errors, "AMQP queue names cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := calendar.ParsePolicy(c.DueDatePolicy); err != nil {
		errors = append(errors, fmt.Sprintf("invalid due date policy: %v", err))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}
	if c.HolidaysFile != "" {
		if _, err := os.Stat(c.HolidaysFile); err != nil {
			errors = append(errors, fmt.Sprintf("holidays file not readable: %v", err))
		}
	}

	if c.ReminderLeadDays < 0 || c.ReminderLeadDays > 60 {
		errors = append(errors, fmt.Sprintf("invalid reminder lead days %d: must be between 0 and 60", c.ReminderLeadDays))
	}
	if c.ReminderHour < 0 || c.ReminderHour > 23 {
		errors = append(errors, fmt.Sprintf("invalid reminder hour %d: must be between 0 and 23", c.ReminderHour))
	}
	for name, v := range map[string]string{"QUIET_FROM": c.QuietFrom, "QUIET_TO": c.QuietTo} {
		if _, err := calendar.ParseTimeOfDay(v); err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s: %v", name, err))
		}
	}
	for name, expr := range map[string]string{"REMINDER_CRON": c.ReminderCron, "SWEEP_CRON": c.SweepCron} {
		if _, err := cron.ParseStandard(expr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': %v", name, expr, err))
		}
	}

	if c.CacheCleanupInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache cleanup interval %v: must be at least 1 second", c.CacheCleanupInterval))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %v", err))
	}

	if len(errors) > 0 {
		slices.Sort(errors)
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateSheets checks the settings only the sheets worker needs.
func (c *Config) ValidateSheets() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required to consume payment events")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required")
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	if len(errors) > 0 {
		return fmt.Errorf("sheets configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Location returns the configured timezone, UTC when it does not load.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
