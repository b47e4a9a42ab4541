package store

// schemaVersion is the version written by Migrate.
const schemaVersion = 1

// schemaSQLite mirrors the production tables the process query reads. It is
// used for local fixtures and tests; production Postgres owns its schema.
var schemaSQLite = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS process_status (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS "USER" (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	api_key TEXT,
	role_id INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS source (
	id INTEGER PRIMARY KEY,
	user_id INTEGER NOT NULL,
	uri TEXT,
	alias TEXT,
	uuid TEXT,
	FOREIGN KEY (user_id) REFERENCES "USER"(id)
);
CREATE TABLE IF NOT EXISTS process (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid TEXT,
	source_id INTEGER NOT NULL,
	status_id INTEGER,
	start_time DATETIME,
	ping_time DATETIME,
	stop_time DATETIME,
	user_configuration TEXT,
	FOREIGN KEY (source_id) REFERENCES source(id),
	FOREIGN KEY (status_id) REFERENCES process_status(id)
);
CREATE INDEX IF NOT EXISTS idx_process_start ON process(start_time);
`

// processQuery lists client processes started after a cutoff, newest first.
// Placeholders are written as ? and rebound for the driver.
const processQuery = `
SELECT
	p.uuid,
	u.name,
	u.api_key,
	(SELECT ps.name FROM process_status ps WHERE ps.id = p.status_id) AS status_name,
	p.start_time,
	p.ping_time,
	p.stop_time,
	s.uri,
	s.alias
FROM process p
	JOIN source s ON p.source_id = s.id
	JOIN "USER" u ON u.id = s.user_id
WHERE p.start_time > ?
	AND u.role_id = ?
ORDER BY p.start_time DESC`

// clientQuery maps client api keys to names.
const clientQuery = `
SELECT u.api_key, u.name
FROM "USER" u
WHERE u.role_id = ? AND u.api_key IS NOT NULL`
