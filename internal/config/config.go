package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// Lead storage
	LeadStore     string // postgres, dynamodb or memory
	DatabaseURL   string
	LeadsTable    string
	TenantID      string
	LandingPageID string

	// Downstream notifications
	LeadWebhookURL     string
	LeadWebhookTimeout time.Duration
	LeadQueueURL       string
	NotifyTimeout      time.Duration
	SalesNotifyEmail   string
	EmailProvider      string

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	// SES Email Configuration
	SESFromEmail string
	SESFromName  string

	// Lead-magnet guide
	GuideBucket string
	GuideKey    string
	GuideURLTTL time.Duration

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	RedisAddr            string
	RedisPassword        string
	RedisTLS             bool
	AssessmentSessionTTL time.Duration

	AdminJWTSecret     string
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real environment
// variables win over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		LeadStore:     strings.ToLower(strings.TrimSpace(getEnv("LEAD_STORE", "postgres"))),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		LeadsTable:    getEnv("LEADS_TABLE", "leads"),
		TenantID:      getEnv("TENANT_ID", ""),
		LandingPageID: getEnv("LANDING_PAGE_ID", ""),

		LeadWebhookURL:     getEnv("LEAD_WEBHOOK_URL", ""),
		LeadWebhookTimeout: getEnvAsDuration("LEAD_WEBHOOK_TIMEOUT", 5*time.Second),
		LeadQueueURL:       getEnv("LEAD_QUEUE_URL", ""),
		NotifyTimeout:      getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second),
		SalesNotifyEmail:   getEnv("SALES_NOTIFY_EMAIL", ""),
		EmailProvider:      strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Baja Build Leads"),

		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "Baja Build Leads"),

		GuideBucket: getEnv("GUIDE_BUCKET", ""),
		GuideKey:    getEnv("GUIDE_KEY", "guides/baja-build-guide.pdf"),
		GuideURLTTL: getEnvAsDuration("GUIDE_URL_TTL", 24*time.Hour),

		AWSRegion:           getEnv("AWS_REGION", "us-west-2"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisTLS:             getEnvAsBool("REDIS_TLS", false),
		AssessmentSessionTTL: getEnvAsDuration("ASSESSMENT_SESSION_TTL", 2*time.Hour),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
	}
}

// UsesAWS reports whether any configured component needs an AWS client.
func (c *Config) UsesAWS() bool {
	return c.LeadStore == "dynamodb" ||
		c.LeadQueueURL != "" ||
		c.GuideBucket != "" ||
		(c.EmailProvider == "ses" && c.SalesNotifyEmail != "")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
