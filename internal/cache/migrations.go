package cache

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

CREATE TABLE IF NOT EXISTS todo_lists (
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL,
	color   TEXT NOT NULL DEFAULT '',
	user_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS todos (
	id         TEXT PRIMARY KEY,
	list_id    TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL,
	completed  INTEGER NOT NULL DEFAULT 0 CHECK(completed IN (0, 1)),
	due_date   DATETIME,
	priority   TEXT NOT NULL DEFAULT 'none',
	notes      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	user_id    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_todos_list_id ON todos(list_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS agreement_lists (
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL,
	color   TEXT NOT NULL DEFAULT '',
	user_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS agreements (
	id               TEXT PRIMARY KEY,
	element          TEXT NOT NULL DEFAULT '',
	responsible      TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT 'not_started',
	sj_status        TEXT NOT NULL DEFAULT 'not_started',
	request_date     TEXT NOT NULL DEFAULT '',
	delivery_date    TEXT NOT NULL DEFAULT '',
	description      TEXT NOT NULL DEFAULT '',
	sj_request       TEXT NOT NULL DEFAULT '',
	deliverable      TEXT NOT NULL DEFAULT '',
	deliverable_name TEXT NOT NULL DEFAULT '',
	list_id          TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_agreements_list_id ON agreements(list_id);
CREATE INDEX IF NOT EXISTS idx_agreements_status ON agreements(status);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
