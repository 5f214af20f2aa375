package app

import (
	"time"

	"github.com/yungbote/iterations-backend/internal/data/db"
	"github.com/yungbote/iterations-backend/internal/observability"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
	"github.com/yungbote/iterations-backend/internal/platform/envutil"
	"github.com/yungbote/iterations-backend/internal/services"
)

type Config struct {
	Port string

	DB db.Config

	UnsubmitMaxAge time.Duration
	KnownTracks    []string

	// TxAttempts bounds retries of serialization failures and deadlocks.
	TxAttempts int
	TxBackoff  time.Duration

	Notify services.NotifierConfig

	MetricsEnabled bool
	Otel           observability.OtelConfig
	AllowedOrigins []string

	// Requests per minute; zero disables the limiter.
	SubmitRatePerMinute   int
	SubmitRateBurst       int
	RegisterRatePerMinute int
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port: envutil.String("PORT", "8080", log),
		DB: db.Config{
			Driver:          envutil.String("DB_DRIVER", db.DriverPostgres, log),
			DSN:             envutil.String("DATABASE_DSN", "", log),
			Host:            envutil.String("POSTGRES_HOST", "localhost", log),
			Port:            envutil.String("POSTGRES_PORT", "5432", log),
			User:            envutil.String("POSTGRES_USER", "postgres", log),
			Password:        envutil.String("POSTGRES_PASSWORD", "", log),
			Name:            envutil.String("POSTGRES_NAME", "iterations", log),
			SSLMode:         envutil.String("POSTGRES_SSLMODE", "disable", log),
			MaxOpenConns:    envutil.Int("POSTGRES_MAX_OPEN_CONNS", 20, log),
			MaxIdleConns:    envutil.Int("POSTGRES_MAX_IDLE_CONNS", 5, log),
			ConnMaxLifetime: envutil.Duration("POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute, log),
		},
		UnsubmitMaxAge: envutil.Duration("UNSUBMIT_MAX_AGE", 30*time.Minute, log),
		KnownTracks:    envutil.List("KNOWN_TRACKS", nil, log),
		TxAttempts:     envutil.Int("TX_ATTEMPTS", 3, log),
		TxBackoff:      envutil.Duration("TX_BACKOFF", 25*time.Millisecond, log),
		Notify: services.NotifierConfig{
			Backend:      envutil.String("NOTIFY_BACKEND", "log", log),
			RedisAddr:    envutil.String("REDIS_ADDR", "", log),
			RedisChannel: envutil.String("REDIS_CHANNEL", "iterations.notifications", log),
			KafkaBrokers: envutil.List("KAFKA_BROKERS", nil, log),
			KafkaTopic:   envutil.String("KAFKA_TOPIC", "iterations.notifications", log),
		},
		MetricsEnabled: envutil.Bool("METRICS_ENABLED", true, log),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "iterations-backend", log),
			Environment: envutil.String("APP_ENV", "development", log),
			Version:     envutil.String("APP_VERSION", "dev", log),
			Exporter:    envutil.String("OTEL_EXPORTER", "stdout", log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", true, log),
			SampleRatio: envutil.Float("OTEL_SAMPLE_RATIO", 1, log),
		},
		AllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS", nil, log),

		SubmitRatePerMinute:   envutil.Int("SUBMIT_RATE_PER_MINUTE", 30, log),
		SubmitRateBurst:       envutil.Int("SUBMIT_RATE_BURST", 10, log),
		RegisterRatePerMinute: envutil.Int("REGISTER_RATE_PER_MINUTE", 5, log),
	}
}
