package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings read from the environment
type Config struct {
	Port        string
	DBDriver    string
	DatabaseURL string
	RedisURL    string
	// StatsCacheTTL bounds how long dashboard stats are served from Redis
	StatsCacheTTL time.Duration
	JWTSecret     string
	CORSOrigins   []string

	TelegramBotToken      string
	AppURL                string
	SchedulerEnabled      bool
	NotificationStartHour int
	NotificationEndHour   int

	LogLevel  string
	LogFormat string

	BatchReadyThreshold float64
	LearnedRepetitions  int
	DefaultBatchSize    int
	AnkiNewCardsPerDay  int
	FivePointAllowTwo   bool
	MatureIntervalDays  int
	SessionIdleTimeout  time.Duration
}

// Load reads .env (if present) and the process environment
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                  getEnv("PORT", "8080"),
		DBDriver:              getEnv("DB_DRIVER", "sqlite3"),
		DatabaseURL:           getEnv("DATABASE_URL", "data/lexibatch.db"),
		RedisURL:              getEnv("REDIS_URL", ""),
		StatsCacheTTL:         getEnvDuration("STATS_CACHE_TTL", 30*time.Second),
		JWTSecret:             getEnv("JWT_SECRET", "your-256-bit-secret-change-in-production"),
		CORSOrigins:           getEnvList("CORS_ORIGINS", []string{"*"}),
		TelegramBotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		AppURL:                getEnv("APP_URL", ""),
		SchedulerEnabled:      getEnvBool("ENABLE_SCHEDULER", false),
		NotificationStartHour: getEnvHour("NOTIFICATION_START_HOUR", 8),
		NotificationEndHour:   getEnvHour("NOTIFICATION_END_HOUR", 22),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "text"),
		BatchReadyThreshold:   getEnvFloat("BATCH_READY_THRESHOLD", 0.8),
		LearnedRepetitions:    getEnvInt("LEARNED_REPETITIONS", 1),
		DefaultBatchSize:      getEnvInt("DEFAULT_BATCH_SIZE", 25),
		AnkiNewCardsPerDay:    getEnvInt("ANKI_NEW_CARDS_PER_DAY", 20),
		FivePointAllowTwo:     getEnvBool("FIVE_POINT_ALLOW_TWO", false),
		MatureIntervalDays:    getEnvInt("MATURE_INTERVAL_DAYS", 21),
		SessionIdleTimeout:    getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

// getEnvHour accepts only 0-23
func getEnvHour(key string, defaultValue int) int {
	if h, err := strconv.Atoi(os.Getenv(key)); err == nil && h >= 0 && h <= 23 {
		return h
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
