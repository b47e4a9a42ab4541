package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"procreport/internal/catalog"
)

var base = time.Date(2026, 2, 6, 6, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func exec(t *testing.T, s *SQLStore, q string, args ...any) {
	t.Helper()
	if _, err := s.db.Exec(q, args...); err != nil {
		t.Fatalf("exec %q: %v", q, err)
	}
}

func seed(t *testing.T, s *SQLStore) {
	t.Helper()
	exec(t, s, `INSERT INTO process_status(id, name) VALUES (1, 'Finished'), (2, 'Failed'), (3, 'Running')`)
	exec(t, s, `INSERT INTO "USER"(id, name, api_key, role_id) VALUES (1, 'Acme', 'key-acme', 2), (2, 'Ops', 'key-ops', 1)`)
	exec(t, s, `INSERT INTO source(id, user_id, uri, alias, uuid) VALUES (1, 1, 'rtsp://cam1', 'Gate', 's-1'), (2, 2, 'rtsp://cam2', 'Lab', 's-2')`)

	ins := `INSERT INTO process(uuid, source_id, status_id, start_time, ping_time, stop_time) VALUES (?, ?, ?, ?, ?, ?)`
	exec(t, s, ins, "p-old", 1, 1, base.Add(-30*time.Hour), base.Add(-29*time.Hour), base.Add(-29*time.Hour))
	exec(t, s, ins, "p-done", 1, 1, base.Add(-3*time.Hour), base.Add(-2*time.Hour), base.Add(-2*time.Hour))
	exec(t, s, ins, "p-fail", 1, 2, base.Add(-2*time.Hour), base.Add(-90*time.Minute), nil)
	exec(t, s, ins, "p-run", 1, 3, base.Add(-1*time.Hour), base.Add(-10*time.Minute), nil)
	exec(t, s, ins, "p-ops", 2, 2, base.Add(-1*time.Hour), nil, nil)
	exec(t, s, ins, "p-nostatus", 1, nil, base.Add(-4*time.Hour), nil, nil)
}

func TestProcesses_FiltersAndOrders(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	got, err := s.Processes(context.Background(), base.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Processes: %v", err)
	}
	var ids []string
	for _, r := range got {
		ids = append(ids, r.UUID)
	}
	if diff := cmp.Diff([]string{"p-run", "p-fail", "p-done", "p-nostatus"}, ids); diff != "" {
		t.Errorf("processes (-want +got):\n%s", diff)
	}

	fail := got[1]
	start := base.Add(-2 * time.Hour)
	ping := base.Add(-90 * time.Minute)
	want := catalog.Raw{
		UUID:        "p-fail",
		ClientName:  "Acme",
		ClientKey:   "key-acme",
		StatusName:  "Failed",
		StartTime:   &start,
		PingTime:    &ping,
		SourceURI:   "rtsp://cam1",
		SourceAlias: "Gate",
	}
	if diff := cmp.Diff(want, fail); diff != "" {
		t.Errorf("failed row (-want +got):\n%s", diff)
	}
	if got[3].StatusName != "" {
		t.Errorf("missing status must scan as empty, got %q", got[3].StatusName)
	}
}

func TestProcesses_FeedsCatalog(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	raws, err := s.Processes(context.Background(), base.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Processes: %v", err)
	}
	parts, warnings := catalog.Categorize(catalog.Normalize(raws), catalog.NewSkipSet())
	if len(parts.Failed) != 1 || len(parts.Finished) != 1 || len(parts.Running) != 1 {
		t.Errorf("unexpected partitions: %+v", parts)
	}
	if len(warnings) != 1 || warnings[0].UUID != "p-nostatus" {
		t.Errorf("expected one warning for p-nostatus, got %v", warnings)
	}
	if m := parts.Finished[0].ElapsedMinutes; m == nil || *m != 60 {
		t.Errorf("elapsed minutes = %v, want 60", m)
	}
}

func TestClients(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	got, err := s.Clients(context.Background())
	if err != nil {
		t.Fatalf("Clients: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"key-acme": "Acme"}, got); diff != "" {
		t.Errorf("clients (-want +got):\n%s", diff)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	s := openTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("schema_version rows = %d, want 1", n)
	}
}

func TestOpen_FileCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "procreport.db")
	s, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{driver: DriverPostgres}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("postgres rebind = %q", got)
	}
	lite := &SQLStore{driver: DriverSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}

func TestMemStore(t *testing.T) {
	t1 := base.Add(-2 * time.Hour)
	t2 := base.Add(-1 * time.Hour)
	old := base.Add(-48 * time.Hour)
	s := NewMemStore(
		catalog.Raw{UUID: "a", StartTime: &t1},
		catalog.Raw{UUID: "old", StartTime: &old},
		catalog.Raw{UUID: "nostart"},
	)
	s.Add(catalog.Raw{UUID: "b", StartTime: &t2})

	got, err := s.Processes(context.Background(), base.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Processes: %v", err)
	}
	var ids []string
	for _, r := range got {
		ids = append(ids, r.UUID)
	}
	if diff := cmp.Diff([]string{"b", "a", "nostart"}, ids); diff != "" {
		t.Errorf("memstore order (-want +got):\n%s", diff)
	}

	boom := errors.New("db down")
	s.Err = boom
	if _, err := s.Processes(context.Background(), base); !errors.Is(err, boom) {
		t.Errorf("expected configured error, got %v", err)
	}
}
