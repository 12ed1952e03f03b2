package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
)

const (
	// MaxHours is the longest look-back window the sensor API serves.
	MaxHours = 168

	defaultCacheVersion = "dht-monitor-v0.1.0"
)

// DefaultPrecacheURLs is the static asset list stored on worker install.
// Relative entries are resolved against APIBaseURL.
var DefaultPrecacheURLs = []string{
	"/",
	"/index.html",
	"/style.css",
	"/script.js",
	"/manifest.json",
	"https://fonts.googleapis.com/css2?family=Noto+Sans+TC:wght@400;500;700&family=Orbitron:wght@500;700&display=swap",
	"https://cdn.jsdelivr.net/npm/chart.js",
}

// DefaultRangeHours are the chart range buttons.
var DefaultRangeHours = []int{1, 6, 24, 168}

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// APIBaseURL is the sensor API every fetch is issued against.
	APIBaseURL string

	CurrentInterval time.Duration
	StatsInterval   time.Duration
	ChartInterval   time.Duration
	StatusInterval  time.Duration
	ChartHours      int
	StatsHours      int
	RangeHours      []int

	CacheVersion string
	PrecacheURLs []string

	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration

	// MQTTBroker empty disables the push subscriber.
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	PushTopic    string
}

// fileConfig is the optional TOML overlay named by CONFIG_FILE. It only holds
// list-valued settings that are awkward to express as env vars.
type fileConfig struct {
	PrecacheURLs []string `toml:"precache_urls"`
	RangeHours   []int    `toml:"range_hours"`
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := envOr("HTTP_ADDR", ":8080")

	apiBaseURL := strings.TrimRight(envOr("API_BASE_URL", "http://127.0.0.1:5000"), "/")
	u, err := url.Parse(apiBaseURL)
	if err != nil {
		return Config{}, fmt.Errorf("invalid API_BASE_URL %q: %w", apiBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Config{}, fmt.Errorf("invalid API_BASE_URL %q (expected http(s)://host[:port])", apiBaseURL)
	}

	currentInterval, err := positiveDuration("CURRENT_INTERVAL", "5s")
	if err != nil {
		return Config{}, err
	}
	statsInterval, err := positiveDuration("STATS_INTERVAL", "60s")
	if err != nil {
		return Config{}, err
	}
	chartInterval, err := positiveDuration("CHART_INTERVAL", "60s")
	if err != nil {
		return Config{}, err
	}
	statusInterval, err := positiveDuration("STATUS_INTERVAL", "30s")
	if err != nil {
		return Config{}, err
	}

	chartHours, err := hoursEnv("CHART_HOURS", "24")
	if err != nil {
		return Config{}, err
	}
	statsHours, err := hoursEnv("STATS_HOURS", "24")
	if err != nil {
		return Config{}, err
	}

	cacheVersion := envOr("CACHE_VERSION", defaultCacheVersion)

	driver := envOr("DB_DRIVER", "sqlite3")
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	path := envOr("SQLITE_PATH", "data/dashboard.db")

	maxOpenConnsStr := envOr("DB_MAX_OPEN_CONNS", "1")
	maxOpenConns, err := strconv.Atoi(maxOpenConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_OPEN_CONNS %q: %w", maxOpenConnsStr, err)
	}

	maxIdleConnsStr := envOr("DB_MAX_IDLE_CONNS", "1")
	maxIdleConns, err := strconv.Atoi(maxIdleConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_IDLE_CONNS %q: %w", maxIdleConnsStr, err)
	}

	connMaxLifetimeStr := envOr("DB_CONN_MAX_LIFETIME", "0s")
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	mqttPortStr := envOr("MQTT_PORT", "1883")
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}
	mqttClientID := envOr("MQTT_CLIENT_ID", "dht-dashboard")
	pushTopic := envOr("PUSH_TOPIC", "dht/push")

	cfg := Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		HTTPAddr:              httpAddr,
		APIBaseURL:            apiBaseURL,
		CurrentInterval:       currentInterval,
		StatsInterval:         statsInterval,
		ChartInterval:         chartInterval,
		StatusInterval:        statusInterval,
		ChartHours:            chartHours,
		StatsHours:            statsHours,
		RangeHours:            append([]int(nil), DefaultRangeHours...),
		CacheVersion:          cacheVersion,
		PrecacheURLs:          append([]string(nil), DefaultPrecacheURLs...),
		SQLiteDriver:          driver,
		SQLiteDSN:             dsn,
		SQLitePath:            path,
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
		MQTTBroker:            mqttBroker,
		MQTTPort:              mqttPort,
		MQTTClientID:          mqttClientID,
		PushTopic:             pushTopic,
	}

	if file := strings.TrimSpace(os.Getenv("CONFIG_FILE")); file != "" {
		if err := applyFile(&cfg, file); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("CONFIG_FILE %q: %w", path, err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("CONFIG_FILE %q: %w", path, err)
	}
	if fc.PrecacheURLs != nil {
		cfg.PrecacheURLs = fc.PrecacheURLs
	}
	if fc.RangeHours != nil {
		if len(fc.RangeHours) == 0 {
			return fmt.Errorf("CONFIG_FILE %q: range_hours must not be empty", path)
		}
		for _, h := range fc.RangeHours {
			if h < 1 || h > MaxHours {
				return fmt.Errorf("CONFIG_FILE %q: range_hours entry %d out of range (1-%d)", path, h, MaxHours)
			}
		}
		cfg.RangeHours = fc.RangeHours
	}
	return nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func positiveDuration(key, def string) (time.Duration, error) {
	s := envOr(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}

func hoursEnv(key, def string) (int, error) {
	s := envOr(key, def)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if n < 1 || n > MaxHours {
		return 0, fmt.Errorf("%s must be between 1 and %d, got %d", key, MaxHours, n)
	}
	return n, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
