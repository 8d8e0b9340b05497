package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port        string
	Debug       bool
	DataMode    string // "LIVE" or "MOCK", reported by the health endpoint
	CorsOrigins []string

	// Ingestion
	EntityName        string
	SlackMentionLimit int
	WebhookToken      string

	// Snapshot storage
	StorageBackend   string // "none", "file" or "azure"
	StorageDir       string
	StorageAccount   string
	StorageContainer string
	SnapshotInterval time.Duration
	SnapshotRetain   int

	// Schedule configuration
	ReportSchedule string // "daily" or "weekly"

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// Upstream providers
	MentionlyticsToken   string
	MentionlyticsBaseURL string
	BrandMentionsAPIKey  string
	BrandMentionsBaseURL string
	UpstreamTimeout      time.Duration

	// Crisis detection
	CrisisNegativeThreshold float64 // percent of negative mentions
	CrisisMinMentions       int
	CrisisCheckInterval     time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Debug:       getBoolEnv("DEBUG", false),
		DataMode:    getEnv("DATA_MODE", "MOCK"),
		CorsOrigins: getSliceEnv("CORS_ORIGINS", []string{"*"}),

		EntityName:        getEnv("ENTITY_NAME", "Jack Harrison"),
		SlackMentionLimit: getIntEnv("SLACK_MENTION_LIMIT", 100),
		WebhookToken:      getEnv("WEBHOOK_TOKEN", ""),

		StorageBackend:   getEnv("STORAGE_BACKEND", "none"),
		StorageDir:       getEnv("STORAGE_DIR", "data"),
		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "mentions"),
		SnapshotInterval: getDurationEnv("SNAPSHOT_INTERVAL", 5*time.Minute),
		SnapshotRetain:   getIntEnv("SNAPSHOT_RETAIN", 24),

		ReportSchedule: getEnv("REPORT_SCHEDULE", "daily"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		MentionlyticsToken:   getEnv("MENTIONLYTICS_API_TOKEN", ""),
		MentionlyticsBaseURL: getEnv("MENTIONLYTICS_BASE_URL", "https://api.mentionlytics.com/v1"),
		BrandMentionsAPIKey:  getEnv("BRANDMENTIONS_API_KEY", ""),
		BrandMentionsBaseURL: getEnv("BRANDMENTIONS_BASE_URL", "https://api.brandmentions.com/v1"),
		UpstreamTimeout:      getDurationEnv("UPSTREAM_TIMEOUT", 10*time.Second),

		CrisisNegativeThreshold: getFloatEnv("CRISIS_NEGATIVE_THRESHOLD", 40),
		CrisisMinMentions:       getIntEnv("CRISIS_MIN_MENTIONS", 10),
		CrisisCheckInterval:     getDurationEnv("CRISIS_CHECK_INTERVAL", 15*time.Minute),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ReportSchedule != "daily" && c.ReportSchedule != "weekly" {
		return fmt.Errorf("REPORT_SCHEDULE must be 'daily' or 'weekly'")
	}

	switch c.StorageBackend {
	case "none", "file":
	case "azure":
		if c.StorageAccount == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT is required when STORAGE_BACKEND is 'azure'")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be 'none', 'file' or 'azure'")
	}

	if c.SlackMentionLimit <= 0 {
		return fmt.Errorf("SLACK_MENTION_LIMIT must be positive")
	}

	if c.SnapshotInterval <= 0 || c.CrisisCheckInterval <= 0 {
		return fmt.Errorf("SNAPSHOT_INTERVAL and CRISIS_CHECK_INTERVAL must be positive")
	}

	if c.CrisisNegativeThreshold < 0 || c.CrisisNegativeThreshold > 100 {
		return fmt.Errorf("CRISIS_NEGATIVE_THRESHOLD must be between 0 and 100")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// NotificationsEnabled reports whether any outbound channel is configured
func (c *Config) NotificationsEnabled() bool {
	return c.TeamsWebhookURL != "" || c.NotificationEmail != ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
