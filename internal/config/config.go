package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Assets   AssetsConfig
	Renderer RendererConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Addr    string
	LockTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Enabled bool
}

type AssetsConfig struct {
	// Root is the read-only directory holding brand/pattern/placeholder images.
	Root string
	// FontDir holds the TTF fonts used by the programmatic renderer.
	FontDir string
	// BaseURL is the public application URL used to build experience links.
	BaseURL string
}

type RendererConfig struct {
	// WkhtmltopdfPath is the external HTML-to-PDF binary. When it is missing or
	// broken the service falls back to programmatic composition.
	WkhtmltopdfPath string
	Timeout         time.Duration
	FetchTimeout    time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:          getEnv("POSTGRES_DSN", ""),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
		},
		Redis: RedisConfig{
			Addr:    getEnv("REDIS_ADDR", "localhost:6379"),
			LockTTL: time.Duration(getEnvInt("ISSUE_LOCK_TTL_SECONDS", 30)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_ADDR", "localhost:9092")},
			Topic:   getEnv("KAFKA_TOPIC_TICKETS_ISSUED", "ticketly.tickets.issued"),
			Enabled: getEnvBool("KAFKA_ENABLED", false),
		},
		Assets: AssetsConfig{
			Root:    getEnv("ASSETS_ROOT", "./assets/images"),
			FontDir: getEnv("FONTS_DIR", "./assets/fonts"),
			BaseURL: getEnv("APP_BASE_URL", "https://ticketly.example.com"),
		},
		Renderer: RendererConfig{
			WkhtmltopdfPath: getEnv("WKHTMLTOPDF_PATH", "wkhtmltopdf"),
			Timeout:         time.Duration(getEnvInt("RENDER_TIMEOUT_SECONDS", 30)) * time.Second,
			FetchTimeout:    time.Duration(getEnvInt("ASSET_FETCH_TIMEOUT_SECONDS", 10)) * time.Second,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
