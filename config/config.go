package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Storage  StorageConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Tracing  TracingConfig
	Monitor  MonitorConfig
	Notify   NotifyConfig
}

type ServerConfig struct {
	AppEnv   string
	HTTPPort string
	GRPCPort string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type StorageConfig struct {
	// Driver is one of memory, sqlite, postgres or redis.
	Driver     string
	SQLitePath string
	// LockDriver is local or redis. Use redis when several replicas share a store.
	LockDriver string
	LockTTL    time.Duration
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
	GroupID string
}

type TracingConfig struct {
	// OTLPEndpoint empty disables export.
	OTLPEndpoint string
	ServiceName  string
}

type MonitorConfig struct {
	SweepInterval       time.Duration
	SweepConcurrency    int
	VelocityEnabled     bool
	DefaultLocationID   string
	MonitoredCategories []string
	AlternativeMinStock float64
}

type NotifyConfig struct {
	Enabled                 bool
	CooldownInfo            time.Duration
	CooldownWarning         time.Duration
	CooldownCritical        time.Duration
	QuietHoursEnabled       bool
	QuietHoursStart         string
	QuietHoursEnd           string
	QuietHoursTZ            string
	IgnoreQuietForCritical  bool
	AggregationWindow       time.Duration
	EscalationAfter         time.Duration
	EscalationRole          string
	EscalationSweepInterval time.Duration
	DigestInterval          time.Duration
	InboxLimit              int
	Recipients              []model.Recipient
	ComposerURL             string
	ComposerTimeout         time.Duration
	WebhookURL              string
	WebhookRatePerSec       float64
	ChannelMaxRetries       int
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:   getEnv("APP_ENV", "dev"),
			HTTPPort: getEnv("HTTP_PORT", ":8090"),
			GRPCPort: getEnv("GRPC_PORT", ":8091"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", "sqlite"),
			SQLitePath: getEnv("SQLITE_PATH", "stock.db"),
			LockDriver: getEnv("LOCK_DRIVER", "local"),
			LockTTL:    getEnvDuration("LOCK_TTL", 10*time.Second),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_stock"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "stock:"),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC_SALES", "orders.events"),
			GroupID: getEnv("KAFKA_GROUP_STOCK", "stock"),
		},
		Tracing: TracingConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "omnipos-stock-service"),
		},
		Monitor: MonitorConfig{
			SweepInterval:       getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),
			SweepConcurrency:    getEnvInt("SWEEP_CONCURRENCY", 4),
			VelocityEnabled:     getEnvBool("VELOCITY_ENABLED", true),
			DefaultLocationID:   getEnv("DEFAULT_LOCATION_ID", "main"),
			MonitoredCategories: getEnvSlice("MONITORED_CATEGORIES", nil),
			AlternativeMinStock: getEnvFloat("ALTERNATIVE_MIN_STOCK", 1),
		},
		Notify: NotifyConfig{
			Enabled:                 getEnvBool("NOTIFY_ENABLED", true),
			CooldownInfo:            getEnvDuration("COOLDOWN_INFO", 120*time.Minute),
			CooldownWarning:         getEnvDuration("COOLDOWN_WARNING", 60*time.Minute),
			CooldownCritical:        getEnvDuration("COOLDOWN_CRITICAL", 15*time.Minute),
			QuietHoursEnabled:       getEnvBool("QUIET_HOURS_ENABLED", false),
			QuietHoursStart:         getEnv("QUIET_HOURS_START", "22:00"),
			QuietHoursEnd:           getEnv("QUIET_HOURS_END", "07:00"),
			QuietHoursTZ:            getEnv("QUIET_HOURS_TZ", "UTC"),
			IgnoreQuietForCritical:  getEnvBool("IGNORE_QUIET_FOR_CRITICAL", true),
			AggregationWindow:       getEnvDuration("AGGREGATION_WINDOW", 30*time.Second),
			EscalationAfter:         getEnvDuration("ESCALATION_AFTER", 10*time.Minute),
			EscalationRole:          getEnv("ESCALATION_ROLE", string(model.RoleOwner)),
			EscalationSweepInterval: getEnvDuration("ESCALATION_SWEEP_INTERVAL", time.Minute),
			DigestInterval:          getEnvDuration("DIGEST_INTERVAL", time.Hour),
			InboxLimit:              getEnvInt("NOTIFY_INBOX_LIMIT", 500),
			Recipients:              getEnvRecipients("NOTIFY_RECIPIENTS"),
			ComposerURL:             getEnv("COMPOSER_URL", ""),
			ComposerTimeout:         getEnvDuration("COMPOSER_TIMEOUT", 5*time.Second),
			WebhookURL:              getEnv("WEBHOOK_URL", ""),
			WebhookRatePerSec:       getEnvFloat("WEBHOOK_RATE_PER_SEC", 5),
			ChannelMaxRetries:       getEnvInt("CHANNEL_MAX_RETRIES", 3),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		var out []string
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s", "15m"); bare integers are seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if i, err := strconv.Atoi(value); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}

// getEnvRecipients parses a JSON array of recipients. Malformed input yields none.
func getEnvRecipients(key string) []model.Recipient {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil
	}
	var out []model.Recipient
	if err := json.Unmarshal([]byte(value), &out); err != nil {
		return nil
	}
	return out
}
