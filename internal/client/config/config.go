package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the smallwins client.
//
// Fields:
//   - ServerBaseURL: base URL of the backend REST API.
//   - DatabasePath: path to the local SQLite file.
//   - SyncInterval: delay between sync loop passes.
//   - HTTPTimeout: per-request timeout for API calls.
//   - Timezone: IANA timezone recorded on new moments.
//
// Units: SyncInterval and HTTPTimeout are time.Durations (e.g., 3*time.Second).
type Config struct {
	ServerBaseURL string
	DatabasePath  string
	SyncInterval  time.Duration
	HTTPTimeout   time.Duration
	Timezone      string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.DatabasePath = "smallwins.db"
	c.SyncInterval = 3 * time.Second
	c.HTTPTimeout = 15 * time.Second
	c.Timezone = defaultTimezone()
}

// defaultTimezone resolves an IANA zone name for new moments. time.Local
// formats as the literal "Local", which is useless for server-side
// day-bucketing, so the TZ environment variable is honored when it names a
// loadable zone and UTC is the fallback.
func defaultTimezone() string {
	if tz := os.Getenv("TZ"); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			return tz
		}
	}
	return "UTC"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
