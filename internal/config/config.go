// Package config loads the report job configuration: a YAML file, defaults,
// then PROCREPORT_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete job configuration. It is built once before any
// correlation runs and passed down by value or pointer.
type Config struct {
	Database Database `yaml:"database"`
	Logs     Logs     `yaml:"logs"`
	Storage  Storage  `yaml:"storage"`
	Graph    Graph    `yaml:"graph"`
	Notify   Notify   `yaml:"notify"`
	Output   Output   `yaml:"output"`
	Log      Log      `yaml:"log"`

	// SkipList is the path of the skip-list file. Empty means no skips.
	SkipList string `yaml:"skip_list"`
	// Workers bounds concurrent evidence lookups.
	Workers int `yaml:"workers"`
}

type Database struct {
	Driver string        `yaml:"driver"`
	DSN    string        `yaml:"dsn"`
	Window time.Duration `yaml:"window"`
}

type Logs struct {
	// Dir is the log root. Empty disables log lookup.
	Dir         string `yaml:"dir"`
	DatePattern string `yaml:"date_pattern"`
	DateLayout  string `yaml:"date_layout"`
	Charset     string `yaml:"charset"`
	MaxLines    int    `yaml:"max_lines"`
}

type Storage struct {
	// Root is the OneDrive folder holding per-client uploads. Empty
	// disables video lookup.
	Root       string   `yaml:"root"`
	MaxDepth   int      `yaml:"max_depth"`
	MaxItems   int      `yaml:"max_items"`
	Extensions []string `yaml:"extensions"`
	// LinkScope is the createLink scope; empty uses the item's webUrl.
	LinkScope string `yaml:"link_scope"`
}

type Graph struct {
	BaseURL    string        `yaml:"base_url"`
	Authority  string        `yaml:"authority"`
	TenantID   string        `yaml:"tenant_id"`
	ClientID   string        `yaml:"client_id"`
	Scopes     []string      `yaml:"scopes"`
	TokenCache string        `yaml:"token_cache"`
	RateLimit  float64       `yaml:"rate_limit"`
	Burst      int           `yaml:"burst"`
	Timeout    time.Duration `yaml:"timeout"`
}

type Notify struct {
	To              []string `yaml:"to"`
	SaveToSentItems bool     `yaml:"save_to_sent_items"`
}

type Output struct {
	// Dir receives <YYYYMMDD>/failed_logs extracts and written reports.
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
	// MetricsTextfile, when set, receives node_exporter textfile metrics.
	MetricsTextfile string `yaml:"metrics_textfile"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults.
const (
	DefaultDriver   = "sqlite"
	DefaultWindow   = 24 * time.Hour
	DefaultWorkers  = 4
	DefaultMaxLines = 50
	DefaultMaxDepth = 4
	DefaultMaxItems = 2000
	DefaultBaseURL  = "https://graph.microsoft.com/v1.0"
	DefaultRate     = 8.0
	DefaultBurst    = 4
	DefaultTimeout  = 30 * time.Second
)

// Default returns a Config with every default applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads path (empty means defaults only), applies defaults and
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	c := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	c.applyDefaults()
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	c.expandPaths()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDriver
	}
	if c.Database.Window <= 0 {
		c.Database.Window = DefaultWindow
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Logs.MaxLines <= 0 {
		c.Logs.MaxLines = DefaultMaxLines
	}
	if c.Storage.MaxDepth <= 0 {
		c.Storage.MaxDepth = DefaultMaxDepth
	}
	if c.Storage.MaxItems <= 0 {
		c.Storage.MaxItems = DefaultMaxItems
	}
	if c.Graph.BaseURL == "" {
		c.Graph.BaseURL = DefaultBaseURL
	}
	if c.Graph.RateLimit <= 0 {
		c.Graph.RateLimit = DefaultRate
	}
	if c.Graph.Burst <= 0 {
		c.Graph.Burst = DefaultBurst
	}
	if c.Graph.Timeout <= 0 {
		c.Graph.Timeout = DefaultTimeout
	}
	if c.Graph.TokenCache == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			c.Graph.TokenCache = filepath.Join(dir, "procreport", "token.json")
		}
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "~/daily_reports"
	}
	if c.Output.Format == "" {
		c.Output.Format = "text"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// env maps PROCREPORT_* variables onto string fields.
func (c *Config) env() map[string]*string {
	return map[string]*string{
		"PROCREPORT_DB_DRIVER":    &c.Database.Driver,
		"PROCREPORT_DB_DSN":       &c.Database.DSN,
		"PROCREPORT_LOGS_DIR":     &c.Logs.Dir,
		"PROCREPORT_STORAGE_ROOT": &c.Storage.Root,
		"PROCREPORT_TENANT_ID":    &c.Graph.TenantID,
		"PROCREPORT_CLIENT_ID":    &c.Graph.ClientID,
		"PROCREPORT_TOKEN_CACHE":  &c.Graph.TokenCache,
		"PROCREPORT_SKIP_LIST":    &c.SkipList,
		"PROCREPORT_OUTPUT_DIR":   &c.Output.Dir,
		"PROCREPORT_LOG_LEVEL":    &c.Log.Level,
	}
}

func (c *Config) applyEnv() error {
	for key, field := range c.env() {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*field = v
		}
	}
	if v := os.Getenv("PROCREPORT_NOTIFY_TO"); v != "" {
		c.Notify.To = splitList(v)
	}
	if v := os.Getenv("PROCREPORT_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PROCREPORT_WORKERS: %w", err)
		}
		c.Workers = n
	}
	return nil
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

func (c *Config) expandPaths() {
	for _, p := range []*string{&c.SkipList, &c.Logs.Dir, &c.Output.Dir, &c.Graph.TokenCache, &c.Output.MetricsTextfile} {
		*p = expandHome(*p)
	}
	if c.Database.Driver == DefaultDriver {
		c.Database.DSN = expandHome(c.Database.DSN)
	}
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "sqlite", "pgx", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.Logs.DatePattern != "" && !strings.Contains(c.Logs.DatePattern, "{date}") {
		errs = append(errs, fmt.Errorf("logs.date_pattern %q has no {date} placeholder", c.Logs.DatePattern))
	}
	if c.Logs.DatePattern != "" {
		if _, err := filepath.Match(strings.ReplaceAll(c.Logs.DatePattern, "{date}", "x"), "x"); err != nil {
			errs = append(errs, fmt.Errorf("logs.date_pattern: %w", err))
		}
	}
	if (c.Storage.Root != "" || len(c.Notify.To) > 0) && c.Graph.ClientID == "" {
		errs = append(errs, errors.New("graph.client_id is required when storage.root or notify.to is set"))
	}
	switch c.Output.Format {
	case "text", "txt", "markdown", "md", "html", "json":
	default:
		errs = append(errs, fmt.Errorf("output.format: unsupported %q", c.Output.Format))
	}
	switch c.Log.Format {
	case "text", "json", "pretty":
	default:
		errs = append(errs, fmt.Errorf("log.format: unsupported %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ReportDir is the per-day output directory, <output>/<YYYYMMDD>. The day
// is taken in UTC, the zone reports are stamped in.
func (c *Config) ReportDir(day time.Time) string {
	return filepath.Join(c.Output.Dir, day.UTC().Format("20060102"))
}

// ExtractDir is where failed-process log extracts are written for day.
func (c *Config) ExtractDir(day time.Time) string {
	return filepath.Join(c.ReportDir(day), "failed_logs")
}

// LogsEnabled reports whether log lookup is configured.
func (c *Config) LogsEnabled() bool { return c.Logs.Dir != "" }

// StorageEnabled reports whether video lookup is configured.
func (c *Config) StorageEnabled() bool { return c.Storage.Root != "" }
