package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "procreport.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: pgx
  dsn: postgres://report@db/ops
  window: 36h
logs:
  dir: /var/log/perception
  max_lines: 20
storage:
  root: Uploads
  link_scope: organization
graph:
  tenant_id: tenant-1
  client_id: client-1
  token_cache: /tmp/procreport-token.json
notify:
  to: [ops@example.com]
output:
  dir: /tmp/reports
  format: html
workers: 8
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Database.Driver != "pgx" || c.Database.Window != 36*time.Hour {
		t.Errorf("database = %+v", c.Database)
	}
	if c.Logs.MaxLines != 20 || c.Workers != 8 {
		t.Errorf("max_lines=%d workers=%d", c.Logs.MaxLines, c.Workers)
	}
	if c.Storage.MaxDepth != DefaultMaxDepth || c.Storage.MaxItems != DefaultMaxItems {
		t.Errorf("storage defaults not applied: %+v", c.Storage)
	}
	if c.Graph.BaseURL != DefaultBaseURL || c.Graph.Timeout != DefaultTimeout {
		t.Errorf("graph defaults not applied: %+v", c.Graph)
	}
	if diff := cmp.Diff([]string{"ops@example.com"}, c.Notify.To); diff != "" {
		t.Errorf("notify.to (-want +got):\n%s", diff)
	}
	if !c.LogsEnabled() || !c.StorageEnabled() {
		t.Error("expected log and storage lookups enabled")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "database:\n  dsn: file.db\n")
	t.Setenv("PROCREPORT_DB_DSN", "/tmp/override.db")
	t.Setenv("PROCREPORT_LOGS_DIR", "/srv/logs")
	t.Setenv("PROCREPORT_NOTIFY_TO", "a@example.com, b@example.com,")
	t.Setenv("PROCREPORT_CLIENT_ID", "client-env")
	t.Setenv("PROCREPORT_WORKERS", "2")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Database.DSN != "/tmp/override.db" || c.Logs.Dir != "/srv/logs" || c.Graph.ClientID != "client-env" || c.Workers != 2 {
		t.Errorf("env overrides not applied: %+v", c)
	}
	if diff := cmp.Diff([]string{"a@example.com", "b@example.com"}, c.Notify.To); diff != "" {
		t.Errorf("notify.to (-want +got):\n%s", diff)
	}
}

func TestLoad_BadWorkersEnv(t *testing.T) {
	path := writeConfig(t, "database:\n  dsn: x.db\n")
	t.Setenv("PROCREPORT_WORKERS", "many")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for non-numeric PROCREPORT_WORKERS")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "database: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	c := Default()
	c.Database.Driver = "oracle"
	c.Storage.Root = "Uploads"
	c.Output.Format = "pdf"
	c.Logs.DatePattern = "perception_*.log"
	err := c.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"database.driver", "database.dsn", "graph.client_id", "output.format", "{date}"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandHome("~/daily_reports"); got != filepath.Join(home, "daily_reports") {
		t.Errorf("expandHome = %q", got)
	}
	if got := expandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute path changed: %q", got)
	}
}

func TestExtractDir(t *testing.T) {
	c := &Config{Output: Output{Dir: "/reports"}}
	day := time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC)
	if got := c.ExtractDir(day); got != "/reports/20260206/failed_logs" {
		t.Errorf("ExtractDir = %q", got)
	}

	// 00:30 on the 7th at +02:00 is still the 6th in UTC.
	local := time.Date(2026, 2, 7, 0, 30, 0, 0, time.FixedZone("EET", 2*60*60))
	if got := c.ReportDir(local); got != "/reports/20260206" {
		t.Errorf("ReportDir(local) = %q, want the UTC day", got)
	}
}
