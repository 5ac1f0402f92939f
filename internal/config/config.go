package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	AutoMigrate bool

	RedisURL string
	CacheTTL time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	RateLimitPerMinute       int
	RateLimitBurst           int
	ModuleRateLimitPerMinute int
	ModuleRateLimitBurst     int

	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	MQTTBrokerURL      string
	MQTTClientID       string

	RelayPollInterval time.Duration
	RelayBatchSize    int

	JobPollInterval time.Duration
	JobBatchSize    int
	JobMaxAttempts  int
	// WorkerPort serves the worker's health and metrics endpoints.
	WorkerPort string

	LogLevel  string
	LogFormat string
}

// Load reads the environment, after merging an optional .env file from the
// working directory. Variables already set win over the file.
func Load() Config {
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		Port:        port,
		DatabaseURL: os.Getenv("DB_DSN"),
		AutoMigrate: readBool("AUTO_MIGRATE", false),

		RedisURL: os.Getenv("REDIS_URL"),
		CacheTTL: readDurationSeconds("CACHE_TTL_SECONDS", 60),

		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  time.Duration(readInt("TOKEN_TTL_MINUTES", 480)) * time.Minute,

		RateLimitPerMinute:       readInt("RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:           readInt("RATE_LIMIT_BURST", 30),
		ModuleRateLimitPerMinute: readInt("MODULE_RATE_LIMIT_PER_MIN", 600),
		ModuleRateLimitBurst:     readInt("MODULE_RATE_LIMIT_BURST", 120),

		PubNubPublishKey:   os.Getenv("PUBNUB_PUBLISH_KEY"),
		PubNubSubscribeKey: os.Getenv("PUBNUB_SUBSCRIBE_KEY"),
		PubNubSecretKey:    os.Getenv("PUBNUB_SECRET_KEY"),
		MQTTBrokerURL:      os.Getenv("MQTT_BROKER_URL"),
		MQTTClientID:       readString("MQTT_CLIENT_ID", "shift-service"),

		RelayPollInterval: time.Duration(readInt("RELAY_POLL_MILLIS", 500)) * time.Millisecond,
		RelayBatchSize:    readInt("RELAY_BATCH_SIZE", 100),

		JobPollInterval: readDurationSeconds("JOB_POLL_SECONDS", 2),
		JobBatchSize:    readInt("JOB_BATCH_SIZE", 10),
		JobMaxAttempts:  readInt("JOB_MAX_ATTEMPTS", 5),
		WorkerPort:      readString("WORKER_PORT", "9090"),

		LogLevel:  readString("LOG_LEVEL", "info"),
		LogFormat: readString("LOG_FORMAT", "json"),
	}
}

func readString(key, fallback string) string {
	if raw := os.Getenv(key); raw != "" {
		return raw
	}
	return fallback
}

func readDurationSeconds(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
