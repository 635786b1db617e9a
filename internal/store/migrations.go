package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
	domain     TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL DEFAULT '{}',
	cached_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (domain, id)
);

CREATE TABLE IF NOT EXISTS fetches (
	domain     TEXT PRIMARY KEY,
	fetched_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_domain ON records(domain);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
