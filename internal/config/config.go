// Package config provides runtime configuration values for the service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go-vetpos/pkg/database"
)

// Config holds every knob the API process reads from the environment.
type Config struct {
	Port string

	DatabaseURL     string
	DBMaxIdleConns  int
	DBMaxOpenConns  int
	DBConnLifetime  time.Duration
	DBLogLevel      string
	LogLevel        string
	JWTSecret       string
	JWTTTL          time.Duration
	Location        *time.Location
	AllowNegative   bool
	ReplenishEvery  time.Duration
	ReplenishOnSale bool

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// durenv accepts Go duration syntax ("90s", "1h") or a bare number of seconds.
func durenv(key string, def time.Duration) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if sec, err := strconv.Atoi(v); err == nil {
		return time.Duration(sec) * time.Second
	}
	return def
}

func listenv(key string) []string {
	var out []string
	for _, part := range strings.Split(getenv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadLocation falls back to UTC+7 when tzdata is unavailable, matching the
// default Asia/Jakarta zone.
func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		if name == "Asia/Jakarta" {
			return time.FixedZone("WIB", 7*60*60)
		}
		return time.UTC
	}
	return loc
}

func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		getenv("DB_HOST", "localhost"),
		getenv("DB_USER", "postgres"),
		getenv("DB_PASSWORD", "postgres"),
		getenv("DB_NAME", "vetpos"),
		getenv("DB_PORT", "5432"),
		getenv("DB_SSLMODE", "disable"),
	)
}

// Database returns the pool settings for database.ConnectDB.
func (c Config) Database() database.Config {
	return database.Config{
		DSN:          c.DatabaseURL,
		MaxIdleConns: c.DBMaxIdleConns,
		MaxOpenConns: c.DBMaxOpenConns,
		ConnLifetime: c.DBConnLifetime,
		LogLevel:     c.DBLogLevel,
	}
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return Config{
		Port:            getenv("PORT", "3000"),
		DatabaseURL:     databaseURL(),
		DBMaxIdleConns:  atoienv("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns:  atoienv("DB_MAX_OPEN_CONNS", 100),
		DBConnLifetime:  durenv("DB_CONN_MAX_LIFETIME", time.Hour),
		DBLogLevel:      getenv("DB_LOG_LEVEL", "warn"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		JWTSecret:       getenv("JWT_SECRET", "change-me-in-production"),
		JWTTTL:          time.Duration(atoienv("JWT_TTL_HOURS", 24)) * time.Hour,
		Location:        loadLocation(getenv("TIMEZONE", "Asia/Jakarta")),
		AllowNegative:   boolenv("ALLOW_NEGATIVE_STOCK", false),
		ReplenishEvery:  durenv("REPLENISH_INTERVAL", 0),
		ReplenishOnSale: boolenv("REPLENISH_ON_SALE", true),
		KafkaBrokers:    listenv("KAFKA_BROKERS"),
		KafkaTopic:      getenv("KAFKA_TOPIC", "inventory.events"),
		KafkaGroupID:    getenv("KAFKA_GROUP_ID", "vetpos-replenisher"),
	}
}
