package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// RequestTimeout bounds every API request.
const RequestTimeout = 15 * time.Second

// MaxGeminiTimeout keeps a generation call inside RequestTimeout.
const MaxGeminiTimeout = RequestTimeout - 2*time.Second

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	JWTSecret string

	GeminiBase    string
	GeminiKey     string
	GeminiModel   string
	GeminiTimeout time.Duration

	PlacesBase    string
	PlacesKey     string
	PlacesTimeout time.Duration
	PlacesRPS     int

	BatchDelay        time.Duration
	InsightsPerMinute int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/venues?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisDB:     atoi("REDIS_DB", 0),
		RedisPass:   env("REDIS_PASSWORD", ""),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,

		JWTSecret: env("AUTH_JWT_SECRET", ""),

		GeminiBase:    env("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiKey:     env("GEMINI_API_KEY", ""),
		GeminiModel:   env("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTimeout: time.Duration(atoi("GEMINI_TIMEOUT_SECONDS", 12)) * time.Second,

		PlacesBase:    env("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
		PlacesKey:     env("PLACES_API_KEY", ""),
		PlacesTimeout: time.Duration(atoi("PLACES_TIMEOUT_SECONDS", 10)) * time.Second,
		PlacesRPS:     atoi("PLACES_RPS", 5),

		BatchDelay:        time.Duration(atoi("BATCH_DELAY_MS", 1000)) * time.Millisecond,
		InsightsPerMinute: atoi("INSIGHT_TRIGGER_PER_MINUTE", 5),
	}
	if c.GeminiTimeout <= 0 || c.GeminiTimeout > MaxGeminiTimeout {
		log.Warn().Dur("requested", c.GeminiTimeout).Dur("using", MaxGeminiTimeout).Msg("GEMINI_TIMEOUT_SECONDS out of range")
		c.GeminiTimeout = MaxGeminiTimeout
	}
	if c.GeminiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is empty")
	}
	if c.PlacesKey == "" {
		log.Warn().Msg("PLACES_API_KEY is empty")
	}
	if c.JWTSecret == "" {
		log.Warn().Msg("AUTH_JWT_SECRET is empty; authenticated routes will reject every request")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
