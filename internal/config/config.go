package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration from environment (and an optional
// session-todos.yaml in the working directory).
type Config struct {
	AppEnv      string
	HTTPPort    string
	LogLevel    string
	LogFormat   string
	DatabaseURL string
	DBPoolSize  int

	RedisURL      string
	RedisPoolSize int

	SessionSecret string
	SessionCookie string
	SessionTTL    time.Duration
	CookieSecure  bool

	KafkaBrokers         []string
	KafkaTopic           string
	KafkaPartitions      int
	EventConsumerEnabled bool
	EventConsumerGroup   string
}

// Development reports whether error pages may include error details.
func (c *Config) Development() bool {
	return c.AppEnv == "development"
}

// Validate checks the settings the server cannot run without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is not set")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL_SEC must be positive, got %s", c.SessionTTL)
	}
	return nil
}

var (
	cfg   *Config
	cfgMu sync.Mutex
)

// Init loads the application config from .env, env and the config file on
// first success and returns the cached value afterwards. A failed load is not
// cached.
func Init() (*Config, error) {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	if cfg != nil {
		return cfg, nil
	}
	_ = godotenv.Load()
	c, err := Load(viper.New())
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

// Load reads configuration through v. Environment variables win over the
// config file; both fall back to the defaults below.
func Load(v *viper.Viper) (*Config, error) {
	v.SetDefault("app_env", "development")
	v.SetDefault("http_port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("database_url", "sqlite://var/db/todos.db")
	v.SetDefault("db_pool_size", 10)
	v.SetDefault("redis_url", "")
	v.SetDefault("redis_pool_size", 50)
	v.SetDefault("session_secret", "")
	v.SetDefault("session_cookie", "todos.sid")
	v.SetDefault("session_ttl_sec", 7*24*60*60)
	v.SetDefault("cookie_secure", false)
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_todo_topic", "todo-events")
	v.SetDefault("kafka_partitions", 4)
	v.SetDefault("event_consumer_enabled", false)
	v.SetDefault("event_consumer_group", "todo-event-log")

	v.SetConfigName("session-todos")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return &Config{
		AppEnv:               v.GetString("app_env"),
		HTTPPort:             v.GetString("http_port"),
		LogLevel:             v.GetString("log_level"),
		LogFormat:            v.GetString("log_format"),
		DatabaseURL:          v.GetString("database_url"),
		DBPoolSize:           v.GetInt("db_pool_size"),
		RedisURL:             v.GetString("redis_url"),
		RedisPoolSize:        v.GetInt("redis_pool_size"),
		SessionSecret:        v.GetString("session_secret"),
		SessionCookie:        v.GetString("session_cookie"),
		SessionTTL:           time.Duration(v.GetInt("session_ttl_sec")) * time.Second,
		CookieSecure:         v.GetBool("cookie_secure"),
		KafkaBrokers:         splitList(v.GetString("kafka_brokers")),
		KafkaTopic:           v.GetString("kafka_todo_topic"),
		KafkaPartitions:      v.GetInt("kafka_partitions"),
		EventConsumerEnabled: v.GetBool("event_consumer_enabled"),
		EventConsumerGroup:   v.GetString("event_consumer_group"),
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
