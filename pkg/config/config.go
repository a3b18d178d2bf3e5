package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration values
type Config struct {
	Port    string
	GinMode string

	EasyPostAPIKey  string
	EasyPostBaseURL string
	HTTPTimeout     time.Duration

	// ValidationMode is "strict" or "minimal"
	ValidationMode string

	// Sessions live in memory unless RedisAddr is set
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	CORSAllowOrigins []string
}

// LoadConfig reads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:    getenv("PORT", "8080"),
		GinMode: getenv("GIN_MODE", "release"),

		EasyPostAPIKey:  os.Getenv("EASYPOST_API_KEY"),
		EasyPostBaseURL: getenv("EASYPOST_BASE_URL", "https://api.easypost.com/v2"),
		HTTPTimeout:     parseDuration(os.Getenv("HTTP_TIMEOUT"), 30*time.Second),

		ValidationMode: getenv("VALIDATION_MODE", "strict"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       parseInt(os.Getenv("REDIS_DB"), 0),
		SessionTTL:    parseDuration(os.Getenv("SESSION_TTL"), 2*time.Hour),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),

		CORSAllowOrigins: splitCSV(getenv("CORS_ALLOW_ORIGINS", "*")),
	}
}

// SMSEnabled reports whether label receipts can be texted
func (c *Config) SMSEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return d
}

func parseInt(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}
