// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

// Config is the runtime configuration of the server and the historian.
type Config struct {
	Port string

	// DatabaseURL selects the Postgres store. Empty means the in-memory store.
	DatabaseURL string

	// RedisAddr empty disables room rules persistence and the action journal.
	RedisAddr  string
	RedisDB    int
	QueueName  string
	BatchSize  int
	FlushDelay time.Duration
	Inactivity time.Duration

	// TokenTTL of 0 issues tokens without expiry.
	TokenTTL       time.Duration
	PrivateKeyPath string
	PublicKeyPath  string

	CORSOrigins []string
	TurnTimeout time.Duration
	LogLevel    logrus.Level
}

// Load reads the configuration from the environment. A .env file in the working directory
// is loaded first.
func Load() (*Config, error) {
	ttl, err := tokenTTL(getEnv("TOKEN_EXPIRE_TIME", "24h"))
	if err != nil {
		return nil, err
	}
	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	var env envParser
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    databaseURL(),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisDB:        env.getEnvInt("REDIS_DB", 0),
		QueueName:      getEnv("HISTORIAN_QUEUE_NAME", "mau_actions"),
		BatchSize:      env.getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		FlushDelay:     time.Duration(env.getEnvInt("HISTORIAN_FLUSH_MS", 1000)) * time.Millisecond,
		Inactivity:     env.getEnvDuration("GAME_INACTIVITY_TIMEOUT", 10*time.Minute),
		TokenTTL:       ttl,
		PrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", ""),
		PublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", ""),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
		TurnTimeout:    env.getEnvDuration("TURN_TIMEOUT", 30*time.Second),
		LogLevel:       level,
	}
	if env.err != nil {
		return nil, env.err
	}
	return cfg, nil
}

// NewLogger builds the logrus logger used by every component.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(c.LogLevel)
	return logger
}

// databaseURL prefers DATABASE_URL and falls back to the POSTGRES_* parts.
func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getEnv("POSTGRES_USER", "postgres"), os.Getenv("POSTGRES_PASSWORD")),
		Host:     host + ":" + getEnv("POSTGRES_PORT", "5432"),
		Path:     "/" + getEnv("POSTGRES_DB", "mau"),
		RawQuery: "sslmode=" + getEnv("POSTGRES_SSLMODE", "disable"),
	}
	return u.String()
}

func tokenTTL(s string) (time.Duration, error) {
	if s == "never" || s == "0" || s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token expire time: %w", err)
	}
	return d, nil
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

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// envParser reads typed variables and keeps the first parse error.
type envParser struct {
	err error
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func (e *envParser) getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return v
}

func (e *envParser) getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return d
}

func (e *envParser) fail(key string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}
