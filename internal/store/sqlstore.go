package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"procreport/internal/catalog"
	"procreport/internal/logging"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// nullStr converts a sql.NullString to a plain string (empty if null).
func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullTime converts a sql.NullTime to a UTC pointer (nil if null).
func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// SQLStore reads processes through database/sql. SQLite serves local runs
// and tests; Postgres (pgx) serves production.
type SQLStore struct {
	db         *sql.DB
	driver     string
	ClientRole int
}

// Open connects to dsn with the named driver and pings it. For SQLite file
// paths the parent directory is created.
func Open(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); !isMemoryDSN(dsn) && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create store dir: %w", err)
			}
		}
	case DriverPostgres, "postgres":
		driver = DriverPostgres
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// A single connection keeps :memory: databases alive across queries.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &SQLStore{db: db, driver: driver, ClientRole: ClientRoleID}, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file:")
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Migrate creates the fixture schema. Only SQLite is supported.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if s.driver != DriverSQLite {
		return fmt.Errorf("migrate: schema is managed externally for driver %q", s.driver)
	}
	if _, err := s.db.ExecContext(ctx, schemaSQLite); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case v != schemaVersion:
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// Processes returns client processes started after since, newest first.
func (s *SQLStore) Processes(ctx context.Context, since time.Time) ([]catalog.Raw, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, s.rebind(processQuery), since.UTC(), s.ClientRole)
	if err != nil {
		return nil, fmt.Errorf("query processes: %w", err)
	}
	defer rows.Close()

	var out []catalog.Raw
	for rows.Next() {
		var (
			id, name, key, status, uri, alias sql.NullString
			startT, ping, stop                sql.NullTime
		)
		if err := rows.Scan(&id, &name, &key, &status, &startT, &ping, &stop, &uri, &alias); err != nil {
			return nil, fmt.Errorf("scan process: %w", err)
		}
		out = append(out, catalog.Raw{
			UUID:        nullStr(id),
			ClientName:  nullStr(name),
			ClientKey:   nullStr(key),
			StatusName:  nullStr(status),
			StartTime:   nullTime(startT),
			PingTime:    nullTime(ping),
			StopTime:    nullTime(stop),
			SourceURI:   nullStr(uri),
			SourceAlias: nullStr(alias),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processes: %w", err)
	}
	logging.New("store").Info("loaded processes", "count", len(out), "since", since.UTC().Format(time.RFC3339), "elapsed", time.Since(start).Round(time.Millisecond))
	return out, nil
}

// Clients maps client api keys to client names.
func (s *SQLStore) Clients(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(clientQuery), s.ClientRole)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var key, name sql.NullString
		if err := rows.Scan(&key, &name); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out[nullStr(key)] = nullStr(name)
	}
	return out, rows.Err()
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *SQLStore) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
