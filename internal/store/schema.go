package store

// Schema for the records table. Username uniqueness is enforced with a
// partial index so records without a username never collide; email is
// unique outright.
const schema = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	phone      TEXT NOT NULL,
	email      TEXT NOT NULL,
	username   TEXT NOT NULL DEFAULT '',
	password   TEXT NOT NULL DEFAULT '',
	birthday   TEXT NOT NULL DEFAULT '',
	city       TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_records_email
	ON records(email);

CREATE UNIQUE INDEX IF NOT EXISTS idx_records_username
	ON records(username) WHERE username <> '';

CREATE INDEX IF NOT EXISTS idx_records_name
	ON records(name COLLATE NOCASE);
`
