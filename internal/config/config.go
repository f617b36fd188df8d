package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the process configuration of workshop-ledger, read from the environment.
// Workshop-level settings (technicians, statuses, export options) live in the
// settings file, see internal/settings.
type Config struct {
	HTTP struct {
		Addr        string
		CORSOrigins []string
	}
	Ledger struct {
		Backend string // "file" or "postgres"
		Path    string // JSON file used by the file backend
	}
	SettingsPath string
	Database     DatabaseConfig
	Redis        struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	MQTT      MQTTConfig
	Reconcile struct {
		URL   string
		Token string
	}
	Backup struct {
		Schedule string // cron expression; empty disables scheduled backups
	}
}

// DatabaseConfig holds the PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN returns the lib/pq connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// MQTTConfig configures the optional event notifier.
type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":3000")
	cfg.HTTP.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "http://localhost:3000"))

	cfg.Ledger.Backend = getEnv("LEDGER_BACKEND", "file")
	cfg.Ledger.Path = getEnv("LEDGER_PATH", "data/auto_save.json")
	cfg.SettingsPath = getEnv("SETTINGS_PATH", "data/config.json")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "workshop")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "5"), 5)

	// Redis is optional; without it the analysis cache stays in process memory.
	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "workshop-ledger")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "workshop/ledger/events")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))

	cfg.Reconcile.URL = getEnv("RECONCILE_URL", "")
	cfg.Reconcile.Token = getEnv("RECONCILE_TOKEN", "")

	cfg.Backup.Schedule = getEnv("BACKUP_SCHEDULE", "0 2 * * *")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
