package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath     string
	RawMailDir string
	OutputDir  string

	// Optional YAML file overriding the built-in header alias lists.
	AliasConfigPath string

	// Stage A accepts a capture row when |capture - dispute| < AmountTolerance.
	AmountTolerance float64

	BookingAPIBaseURL      string
	BookingAPIToken        string
	BookingRateLimitRPS    int
	BookingTimeoutMs       int
	BookingIncrementalDays int

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	MailWatchProvider     string
	MailWatchLabel        string
	MailWatchQuery        string
	MailWatchIntervalSec  int
	MailWatchFetchMax     int
	MailWatchProcessBatch int
	MailWatchAutoExport   bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		RawMailDir: getEnv("MAIL_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		AliasConfigPath: getEnv("ALIAS_CONFIG_PATH", ""),

		AmountTolerance: getEnvFloat("AMOUNT_TOLERANCE", 0.05),

		BookingAPIBaseURL:      getEnv("BOOKING_API_BASE_URL", "https://backoffice.example.com/api/v2"),
		BookingAPIToken:        getEnv("BOOKING_API_TOKEN", ""),
		BookingRateLimitRPS:    getEnvInt("BOOKING_RATE_LIMIT_RPS", 5),
		BookingTimeoutMs:       getEnvInt("BOOKING_TIMEOUT_MS", 30000),
		BookingIncrementalDays: getEnvInt("BOOKING_INCREMENTAL_DAYS", 2),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		MailWatchProvider:     getEnv("MAIL_WATCH_PROVIDER", "gmail"),
		MailWatchLabel:        getEnv("MAIL_WATCH_LABEL", "INBOX"),
		MailWatchQuery:        getEnv("MAIL_WATCH_QUERY", "has:attachment"),
		MailWatchIntervalSec:  getEnvInt("MAIL_WATCH_INTERVAL_SEC", 300),
		MailWatchFetchMax:     getEnvInt("MAIL_WATCH_FETCH_MAX", 20),
		MailWatchProcessBatch: getEnvInt("MAIL_WATCH_PROCESS_BATCH", 20),
		MailWatchAutoExport:   getEnvBool("MAIL_WATCH_AUTO_EXPORT", true),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
