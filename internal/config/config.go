package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	UseMemoryRepo bool

	CORSAllowedOrigins []string

	// Per-IP rate limiting; zero disables the limiter.
	RateLimitPerSecond float64
	RateLimitBurst     int

	// Slot grid defaults for availability queries. Times of day are
	// "HH:MM" strings in the clinic's local zone.
	SlotDayStart   string
	SlotDayEnd     string
	SlotDuration   time.Duration
	SlotBreakStart string
	SlotBreakEnd   string

	// Availability cache
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	AvailCacheTTL time.Duration

	// Notification pipeline
	UseMemoryQueue  bool
	NotifyQueueURL  string
	NotifyWorkers   int
	EmailProvider   string
	EmailFromAddr   string
	EmailFromName   string
	SendGridAPIKey  string
	NotifySendEmail bool

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		UseMemoryRepo: getEnvAsBool("USE_MEMORY_REPO", false),

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),

		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 0),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),

		SlotDayStart:   getEnv("SLOT_DAY_START", "08:00"),
		SlotDayEnd:     getEnv("SLOT_DAY_END", "18:00"),
		SlotDuration:   getEnvAsDuration("SLOT_DURATION", 30*time.Minute),
		SlotBreakStart: getEnv("SLOT_BREAK_START", "12:00"),
		SlotBreakEnd:   getEnv("SLOT_BREAK_END", "14:00"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		AvailCacheTTL: getEnvAsDuration("AVAILABILITY_CACHE_TTL", 30*time.Second),

		UseMemoryQueue:  getEnvAsBool("USE_MEMORY_QUEUE", false),
		NotifyQueueURL:  getEnv("NOTIFY_QUEUE_URL", ""),
		NotifyWorkers:   getEnvAsInt("NOTIFY_WORKERS", 2),
		EmailProvider:   strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "ses"))),
		EmailFromAddr:   getEnv("EMAIL_FROM_ADDR", ""),
		EmailFromName:   getEnv("EMAIL_FROM_NAME", "MedConsulta"),
		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		NotifySendEmail: getEnvAsBool("NOTIFY_SEND_EMAIL", true),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
