package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers         []string
	KafkaTriggerTopic    string
	KafkaCompletionTopic string
	KafkaGroupID         string
	HTTPAddr             string
	LogLevel             string
	LogFormat            string
	ShutdownTimeout      time.Duration

	// Spatial database (PostGIS) connection string.
	DatabaseURL string

	// SFMS object storage configuration.
	ObjectStoreBaseURL string
	ObjectStoreTimeout time.Duration
	SFMSKeyPrefix      string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	storeTimeout, err := parseDuration("OBJECT_STORE_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:         parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTriggerTopic:    envOrDefault("KAFKA_TRIGGER_TOPIC", "sfms-run-triggers"),
		KafkaCompletionTopic: envOrDefault("KAFKA_COMPLETION_TOPIC", "advisory-run-completed"),
		KafkaGroupID:         envOrDefault("KAFKA_GROUP_ID", "sfms-advisory"),
		HTTPAddr:             envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:             envOrDefault("LOG_LEVEL", "info"),
		LogFormat:            envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:      shutdownTimeout,

		DatabaseURL: os.Getenv("DATABASE_URL"),

		ObjectStoreBaseURL: os.Getenv("OBJECT_STORE_BASE_URL"),
		ObjectStoreTimeout: storeTimeout,
		SFMSKeyPrefix:      envOrDefault("SFMS_KEY_PREFIX", "sfms/uploads"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaTriggerTopic == "" {
		return nil, errors.New("KAFKA_TRIGGER_TOPIC is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.ObjectStoreBaseURL == "" {
		return nil, errors.New("OBJECT_STORE_BASE_URL is required")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDuration(key, def string) (time.Duration, error) {
	raw := envOrDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return d, nil
}
