package config

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Port string

	DB    DBConfig
	Redis RedisConfig
	Kafka KafkaConfig

	PublicBaseURL string
	FrontendURL   string

	MercadoPago MercadoPagoConfig

	JWTSecret         string
	LogLevel          string
	PrettyLogs        bool
	WebhookRateLimit  string
	CORSOrigins       []string
	MigrationsEnabled bool
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Broker       string
	PaymentTopic string
}

type MercadoPagoConfig struct {
	BaseURL             string
	FallbackAccessToken string
	Timeout             time.Duration
}

// Load reads a .env file when one exists and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return Config{}, fmt.Errorf("REDIS_DB: %w", err)
	}
	timeout, err := time.ParseDuration(getEnv("MP_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("MP_TIMEOUT: %w", err)
	}

	cfg := Config{
		Port: getEnv("PORT", "8084"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "payments"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Broker:       getEnv("KAFKA_BROKER", "localhost:9092"),
			PaymentTopic: getEnv("KAFKA_PAYMENT_TOPIC", "payment-events"),
		},
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8084"),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:3000"),
		MercadoPago: MercadoPagoConfig{
			BaseURL:             getEnv("MP_API_BASE_URL", "https://api.mercadopago.com"),
			FallbackAccessToken: getEnv("MP_FALLBACK_ACCESS_TOKEN", ""),
			Timeout:             timeout,
		},
		JWTSecret:         getEnv("JWT_SECRET", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		PrettyLogs:        getBool("PRETTY_LOGS", false),
		WebhookRateLimit:  getEnv("WEBHOOK_RATE_LIMIT", "120-M"),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "")),
		MigrationsEnabled: getBool("MIGRATIONS_ENABLED", true),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NewLogger builds a JSON production logger, or a console logger when pretty
// is set.
func NewLogger(level string, pretty bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}

	zc := zap.NewProductionConfig()
	if pretty {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func MustInitPostgres(cfg DBConfig, logger *zap.Logger) *sql.DB {
	connStr := "host=" + cfg.Host + " port=" + cfg.Port + " user=" + cfg.User +
		" password=" + cfg.Password + " dbname=" + cfg.Name + " sslmode=disable"

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err = db.Ping(); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return db
}

// NewRedis connects to Redis. A failed ping is returned together with the
// client so callers that can run without Redis may keep it.
func NewRedis(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return client, err
	}
	return client, nil
}

func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Broker),
		Topic:                  cfg.PaymentTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
}
