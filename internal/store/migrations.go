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

-- campaign_state holds exactly one row: the whole-document JSON state of the
-- current campaign. The document is replaced atomically after every batch.
CREATE TABLE IF NOT EXISTS campaign_state (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	doc         TEXT NOT NULL,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- thread_records is the append-only thread graph: one row per successful
-- new/reply send, read back on startup to originate replies and forwards.
CREATE TABLE IF NOT EXISTS thread_records (
	message_id     TEXT PRIMARY KEY,
	subject        TEXT NOT NULL,
	sender_addr    TEXT NOT NULL,
	sender_name    TEXT NOT NULL DEFAULT '',
	recipient_addr TEXT NOT NULL,
	recipient_name TEXT NOT NULL DEFAULT '',
	seq            INTEGER NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_thread_records_seq ON thread_records(seq);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
