package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration values.
type Config struct {
	Environment       string
	HTTPPort          string
	AppID             string
	SecretKey         string
	RedirectURI       string
	AuthURL           string
	TokenURL          string
	TokensDir         string
	StateTTL          time.Duration
	StateMaxPending   int
	ExchangeTimeout   time.Duration
	ServiceName       string
	RateLimitRPM      int
	LogFile           string
	LogMaxSizeMB      int
	LogMaxBackups     int
	TelemetryEndpoint string
	TelemetryInsecure bool
}

// Load reads configuration from environment variables with sane defaults.
// The Fyers credentials and registered redirect URI are required: their
// absence is a startup error, never a runtime one.
func Load() (Config, error) {
	_ = godotenv.Load()

	appID := firstEnv("APP_ID", "BROKER_API_KEY")
	secretKey := firstEnv("SECRET_KEY", "BROKER_API_SECRET")
	redirectURI := strings.TrimSpace(os.Getenv("REDIRECT_URI"))

	var missing []string
	if appID == "" {
		missing = append(missing, "APP_ID/BROKER_API_KEY")
	}
	if secretKey == "" {
		missing = append(missing, "SECRET_KEY/BROKER_API_SECRET")
	}
	if redirectURI == "" {
		missing = append(missing, "REDIRECT_URI")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	cfg := Config{
		Environment:       getEnv("APP_ENV", "development"),
		HTTPPort:          getEnv("HTTP_PORT", "5000"),
		AppID:             appID,
		SecretKey:         secretKey,
		RedirectURI:       redirectURI,
		AuthURL:           getEnv("AUTH_URL", "https://api-t1.fyers.in/api/v3/generate-authcode"),
		TokenURL:          getEnv("TOKEN_URL", "https://api-t1.fyers.in/api/v3/validate-authcode"),
		TokensDir:         getEnv("TOKENS_DIR", "data/tokens"),
		StateTTL:          getDuration("STATE_TTL", 10*time.Minute),
		StateMaxPending:   getInt("STATE_MAX_PENDING", 1000),
		ExchangeTimeout:   getDuration("EXCHANGE_TIMEOUT", 10*time.Second),
		ServiceName:       getEnv("SERVICE_NAME", "fyers-oauth"),
		RateLimitRPM:      getInt("RATE_LIMIT_RPM", 600),
		LogFile:           getEnv("LOG_FILE", "fyers_oauth.log"),
		LogMaxSizeMB:      getInt("LOG_MAX_SIZE_MB", 20),
		LogMaxBackups:     getInt("LOG_MAX_BACKUPS", 5),
		TelemetryEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure: getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
	}

	return cfg, nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}
