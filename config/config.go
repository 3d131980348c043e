package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "sjsage522/stockwatcher/pkg/errors"
)

// DefaultWhatsAppFrom is Twilio's WhatsApp sandbox sender
const DefaultWhatsAppFrom = "whatsapp:+14155238886"

// DefaultWatchList holds the products watched when WATCH_LIST is unset
var DefaultWatchList = []string{
	"Organic Bamboo Diapers- Large Size (8-12 kgs)",
	"Organic Bamboo Diapers- Medium Size (5-8 kgs)",
}

// TwilioConfig holds the notification credentials
type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	WhatsAppFrom string
	WhatsAppTo   string
}

// Config represents the application configuration
type Config struct {
	// Store configuration
	BaseURL        string
	CollectionPath string
	WatchList      []string

	// Crawler configuration
	PageDelay     time.Duration
	MaxPages      int
	HTTPTimeout   time.Duration
	CrawlInterval time.Duration

	// Export configuration
	DataDir string

	// Notification configuration
	Twilio TwilioConfig

	// Memcache configuration
	MemcacheAddr string
	PageCacheTTL time.Duration

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		BaseURL:        strings.TrimRight(getEnv("STORE_BASE_URL", "https://letsallter.com"), "/"),
		CollectionPath: getEnv("COLLECTION_PATH", "/collections/all"),
		WatchList:      parseWatchList(os.Getenv("WATCH_LIST")),

		PageDelay:     time.Duration(getEnvInt("PAGE_DELAY_SECONDS", 2)) * time.Second,
		MaxPages:      getEnvInt("MAX_PAGES", 0),
		HTTPTimeout:   time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 10)) * time.Second,
		CrawlInterval: time.Duration(getEnvInt("CRAWL_INTERVAL_SECONDS", 0)) * time.Second,

		DataDir: getEnv("DATA_DIR", "scraped_data"),

		Twilio: TwilioConfig{
			AccountSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
			WhatsAppFrom: getEnv("TWILIO_WHATSAPP_FROM", DefaultWhatsAppFrom),
			WhatsAppTo:   os.Getenv("YOUR_WHATSAPP_NUMBER"),
		},

		MemcacheAddr: os.Getenv("MEMCACHE_ADDR"),
		PageCacheTTL: time.Duration(getEnvInt("PAGE_CACHE_TTL_SECONDS", 0)) * time.Second,

		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "stockwatcher:products"),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),

		Environment: getEnv("STOCKWATCHER_ENVIRONMENT", "development"),
	}
}

// Validate checks that everything the process needs before crawling is present
func (c *Config) Validate() error {
	var missing []string
	if c.Twilio.AccountSID == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if c.Twilio.AuthToken == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if c.Twilio.WhatsAppTo == "" {
		missing = append(missing, "YOUR_WHATSAPP_NUMBER")
	}
	if len(missing) > 0 {
		return apperrors.NewConfiguration("missing required environment variables: "+strings.Join(missing, ", "), nil)
	}

	if c.BaseURL == "" {
		return apperrors.NewConfiguration("STORE_BASE_URL must not be empty", nil)
	}
	if len(c.WatchList) == 0 {
		return apperrors.NewConfiguration("WATCH_LIST must contain at least one title", nil)
	}
	if c.PageDelay < 0 || c.MaxPages < 0 || c.CrawlInterval < 0 {
		return apperrors.NewConfiguration("delays, intervals and page limits must not be negative", nil)
	}
	return nil
}

// parseWatchList splits a "|" separated list of exact product titles
func parseWatchList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return append([]string(nil), DefaultWatchList...)
	}

	var titles []string
	for _, part := range strings.Split(raw, "|") {
		if title := strings.TrimSpace(part); title != "" {
			titles = append(titles, title)
		}
	}
	return titles
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}
