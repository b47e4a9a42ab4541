package wiring

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"procreport/internal/artifact"
	"procreport/internal/catalog"
	"procreport/internal/config"
	"procreport/internal/logs"
	"procreport/internal/store"
)

const (
	failedUUID   = "11111111-aaaa-4bbb-8ccc-000000000001"
	finishedUUID = "22222222-aaaa-4bbb-8ccc-000000000002"
	runningUUID  = "33333333-aaaa-4bbb-8ccc-000000000003"
)

var runNow = time.Date(2026, 2, 6, 7, 0, 0, 0, time.UTC)

// memDrive is an in-memory artifact.Drive keyed by folder path.
type memDrive struct {
	tree map[string][]artifact.Item
	err  error
}

func (d *memDrive) ListChildren(_ context.Context, folder artifact.Item, _ int) ([]artifact.Item, error) {
	if d.err != nil {
		return nil, d.err
	}
	children, ok := d.tree[folder.Path]
	if !ok {
		return nil, artifact.ErrNotFound
	}
	return children, nil
}

func (d *memDrive) ShareLink(_ context.Context, file artifact.Item) (string, error) {
	return "https://share.example/" + file.Path, nil
}

func at(offset time.Duration) *time.Time {
	t := runNow.Add(offset)
	return &t
}

func threeRecords() *store.MemStore {
	return store.NewMemStore(
		catalog.Raw{UUID: failedUUID, ClientName: "Acme", ClientKey: "key-acme", StatusName: "Failed", StartTime: at(-3 * time.Hour), PingTime: at(-2 * time.Hour)},
		catalog.Raw{UUID: finishedUUID, ClientName: "Globex", ClientKey: "key-globex", StatusName: "Finished", StartTime: at(-2 * time.Hour), PingTime: at(-time.Hour)},
		catalog.Raw{UUID: runningUUID, ClientName: "Initech", ClientKey: "key-initech", StatusName: "Running", StartTime: at(-time.Hour), PingTime: at(-time.Minute)},
	)
}

// testEnv lays out a log root, an extract dir and a storage tree for the
// three-record scenario.
type testEnv struct {
	cfg  *config.Config
	deps Deps
	dir  string
}

func newTestEnv(dir string) (*testEnv, error) {
	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	content := strings.Join([]string{
		"2026-02-06 04:00:00 INFO " + failedUUID + " starting pipeline",
		"2026-02-06 04:00:01 INFO other process",
		"2026-02-06 04:01:00 ERROR " + failedUUID + " pipeline Failed: camera offline",
	}, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(logDir, "process_"+failedUUID+".log"), []byte(content), 0o644); err != nil {
		return nil, err
	}

	cfg := config.Default()
	cfg.Database.DSN = ":memory:"
	cfg.Logs.Dir = logDir
	cfg.Logs.MaxLines = 10
	cfg.Storage.Root = "Uploads"
	cfg.SkipList = filepath.Join(dir, "folders_2_skip.txt")
	cfg.Workers = 2

	drive := &memDrive{tree: map[string][]artifact.Item{
		"Uploads/key-globex": {{Name: finishedUUID, Path: "Uploads/key-globex/" + finishedUUID, Folder: true}},
		"Uploads/key-globex/" + finishedUUID: {
			{Name: "video.mp4", Path: "Uploads/key-globex/" + finishedUUID + "/video.mp4"},
		},
	}}

	return &testEnv{
		cfg: cfg,
		dir: dir,
		deps: Deps{
			Source:     threeRecords(),
			Locator:    logs.NewLocator(logDir),
			Summarizer: &logs.Summarizer{ExtractDir: filepath.Join(dir, "failed_logs")},
			Drive:      drive,
			Now:        func() time.Time { return runNow },
		},
	}, nil
}

func (e *testEnv) skip(ids ...string) error {
	return os.WriteFile(e.cfg.SkipList, []byte("# clients to skip\n"+strings.Join(ids, "\n")+"\n"), 0o644)
}
