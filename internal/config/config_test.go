package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

var envKeys = []string{
	"APP_ENV", "LOG_LEVEL", "HTTP_ADDR", "API_BASE_URL",
	"CURRENT_INTERVAL", "STATS_INTERVAL", "CHART_INTERVAL", "STATUS_INTERVAL",
	"CHART_HOURS", "STATS_HOURS", "CACHE_VERSION", "CONFIG_FILE",
	"DB_DRIVER", "DB_DSN", "SQLITE_PATH", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME",
	"MQTT_BROKER", "MQTT_PORT", "MQTT_CLIENT_ID", "PUSH_TOPIC",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}

	if got.AppEnv != "dev" {
		t.Errorf("AppEnv = %q, want %q", got.AppEnv, "dev")
	}
	if got.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", got.LogLevel, slog.LevelInfo)
	}
	if got.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", got.HTTPAddr, ":8080")
	}
	if got.APIBaseURL != "http://127.0.0.1:5000" {
		t.Errorf("APIBaseURL = %q, want http://127.0.0.1:5000", got.APIBaseURL)
	}
	if got.CurrentInterval != 5*time.Second {
		t.Errorf("CurrentInterval = %v, want 5s", got.CurrentInterval)
	}
	if got.StatsInterval != time.Minute || got.ChartInterval != time.Minute {
		t.Errorf("StatsInterval = %v ChartInterval = %v, want 1m each", got.StatsInterval, got.ChartInterval)
	}
	if got.StatusInterval != 30*time.Second {
		t.Errorf("StatusInterval = %v, want 30s", got.StatusInterval)
	}
	if got.ChartHours != 24 || got.StatsHours != 24 {
		t.Errorf("ChartHours = %d StatsHours = %d, want 24 each", got.ChartHours, got.StatsHours)
	}
	if got.CacheVersion != "dht-monitor-v0.1.0" {
		t.Errorf("CacheVersion = %q, want dht-monitor-v0.1.0", got.CacheVersion)
	}
	if !reflect.DeepEqual(got.PrecacheURLs, DefaultPrecacheURLs) {
		t.Errorf("PrecacheURLs = %v, want defaults", got.PrecacheURLs)
	}
	if !reflect.DeepEqual(got.RangeHours, DefaultRangeHours) {
		t.Errorf("RangeHours = %v, want %v", got.RangeHours, DefaultRangeHours)
	}
	if got.MQTTBroker != "" {
		t.Errorf("MQTTBroker = %q, want empty (disabled)", got.MQTTBroker)
	}
	if got.MQTTPort != 1883 {
		t.Errorf("MQTTPort = %d, want 1883", got.MQTTPort)
	}
	if got.PushTopic != "dht/push" {
		t.Errorf("PushTopic = %q, want dht/push", got.PushTopic)
	}
	if got.SQLiteDriver != "sqlite3" || got.SQLiteMaxOpenConns != 1 {
		t.Errorf("SQLiteDriver = %q SQLiteMaxOpenConns = %d", got.SQLiteDriver, got.SQLiteMaxOpenConns)
	}
}

func TestLoadFromEnv_DefaultsAreCopies(t *testing.T) {
	clearEnv(t)

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}
	got.RangeHours[0] = 99
	got.PrecacheURLs[0] = "/changed"
	if DefaultRangeHours[0] == 99 || DefaultPrecacheURLs[0] == "/changed" {
		t.Fatal("mutating the loaded config changed the package defaults")
	}
}

func TestLoadFromEnv_AppEnv_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		appEnv string
	}{
		{name: "staging", appEnv: "staging"},
		{name: "uppercase invalid", appEnv: "DEV"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APP_ENV", tt.appEnv)

			_, err := LoadFromEnv()
			if err == nil {
				t.Fatalf("LoadFromEnv() error = nil, want non-nil")
			}
		})
	}
}

func TestLoadFromEnv_APIBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "trailing slash trimmed", in: "http://sensor.local:5000/", want: "http://sensor.local:5000"},
		{name: "https", in: "https://dht.example.com", want: "https://dht.example.com"},
		{name: "no scheme", in: "sensor.local:5000", wantErr: true},
		{name: "ftp scheme", in: "ftp://sensor.local", wantErr: true},
		{name: "no host", in: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("API_BASE_URL", tt.in)

			got, err := LoadFromEnv()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("LoadFromEnv() error = nil, want non-nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFromEnv() error = %v, want nil", err)
			}
			if got.APIBaseURL != tt.want {
				t.Errorf("APIBaseURL = %q, want %q", got.APIBaseURL, tt.want)
			}
		})
	}
}

func TestLoadFromEnv_Intervals(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
	}{
		{name: "valid current interval", key: "CURRENT_INTERVAL", value: "2s"},
		{name: "garbage duration", key: "STATS_INTERVAL", value: "soon", wantErr: true},
		{name: "zero interval", key: "CHART_INTERVAL", value: "0s", wantErr: true},
		{name: "negative interval", key: "STATUS_INTERVAL", value: "-5s", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			got, err := LoadFromEnv()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("LoadFromEnv() error = nil, want non-nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFromEnv() error = %v, want nil", err)
			}
			if got.CurrentInterval != 2*time.Second {
				t.Errorf("CurrentInterval = %v, want 2s", got.CurrentInterval)
			}
		})
	}
}

func TestLoadFromEnv_Hours(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{name: "one hour", value: "1", want: 1},
		{name: "one week", value: "168", want: 168},
		{name: "zero", value: "0", wantErr: true},
		{name: "over a week", value: "169", wantErr: true},
		{name: "not a number", value: "day", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("CHART_HOURS", tt.value)

			got, err := LoadFromEnv()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("LoadFromEnv() error = nil, want non-nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFromEnv() error = %v, want nil", err)
			}
			if got.ChartHours != tt.want {
				t.Errorf("ChartHours = %d, want %d", got.ChartHours, tt.want)
			}
		})
	}
}

func TestLoadFromEnv_ConfigFile(t *testing.T) {
	t.Run("overrides list settings", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "dashboard.toml")
		content := "precache_urls = [\"/\", \"/style.css\"]\nrange_hours = [3, 12]\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		t.Setenv("CONFIG_FILE", path)

		got, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv() error = %v, want nil", err)
		}
		if !reflect.DeepEqual(got.PrecacheURLs, []string{"/", "/style.css"}) {
			t.Errorf("PrecacheURLs = %v", got.PrecacheURLs)
		}
		if !reflect.DeepEqual(got.RangeHours, []int{3, 12}) {
			t.Errorf("RangeHours = %v", got.RangeHours)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.toml"))

		if _, err := LoadFromEnv(); err == nil {
			t.Fatal("LoadFromEnv() error = nil, want non-nil")
		}
	})

	t.Run("range hours out of bounds", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "dashboard.toml")
		if err := os.WriteFile(path, []byte("range_hours = [0, 24]\n"), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		t.Setenv("CONFIG_FILE", path)

		if _, err := LoadFromEnv(); err == nil {
			t.Fatal("LoadFromEnv() error = nil, want non-nil")
		}
	})

	t.Run("malformed toml", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "dashboard.toml")
		if err := os.WriteFile(path, []byte("range_hours = [1,\n"), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		t.Setenv("CONFIG_FILE", path)

		if _, err := LoadFromEnv(); err == nil {
			t.Fatal("LoadFromEnv() error = nil, want non-nil")
		}
	})
}

func TestParseLogLevel_Valid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want slog.Level
	}{
		{name: "debug", in: "debug", want: slog.LevelDebug},
		{name: "info", in: "info", want: slog.LevelInfo},
		{name: "warn", in: "warn", want: slog.LevelWarn},
		{name: "warning", in: "warning", want: slog.LevelWarn},
		{name: "error", in: "error", want: slog.LevelError},
		{name: "case insensitive", in: "DeBuG", want: slog.LevelDebug},
		{name: "trims whitespace", in: "  warn \n", want: slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLogLevel(tt.in)
			if err != nil {
				t.Fatalf("parseLogLevel(%q) error = %v, want nil", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLogLevel_Invalid(t *testing.T) {
	for _, in := range []string{"", "nope", "warns", "1"} {
		got, err := parseLogLevel(in)
		if err == nil {
			t.Fatalf("parseLogLevel(%q) error = nil, want non-nil", in)
		}
		if got != slog.LevelInfo {
			t.Errorf("parseLogLevel(%q) = %v, want %v on error", in, got, slog.LevelInfo)
		}
	}
}
