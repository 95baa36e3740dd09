package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
    id             TEXT PRIMARY KEY,
    user_id        INTEGER NOT NULL REFERENCES users(id),
    name           TEXT NOT NULL,
    category       TEXT NOT NULL CHECK (category IN ('Shirts', 'Skirts', 'Jeans', 'Pajamas', 'Socks', 'Shoes', 'Dresses', 'Outerwear', 'Other')),
    color          TEXT NOT NULL DEFAULT '',
    material       TEXT NOT NULL DEFAULT '',
    image          BLOB,
    image_mime     TEXT,
    purchase_date  TEXT NOT NULL,
    last_worn_date TEXT,
    wear_count     INTEGER NOT NULL DEFAULT 0 CHECK (wear_count >= 0),
    status         TEXT NOT NULL DEFAULT 'ACTIVE' CHECK (status IN ('ACTIVE', 'RESERVED', 'DONATED', 'TRANSFORMED')),
    reserve_reason TEXT,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at     DATETIME
);

CREATE INDEX IF NOT EXISTS idx_items_user_status ON items(user_id, status);

CREATE TABLE IF NOT EXISTS style_profiles (
    user_id           INTEGER PRIMARY KEY REFERENCES users(id),
    preferred_styles  TEXT NOT NULL DEFAULT '[]',
    preferred_colors  TEXT NOT NULL DEFAULT '[]',
    disliked_elements TEXT NOT NULL DEFAULT '[]',
    updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS status_changes (
    id          INTEGER PRIMARY KEY,
    item_id     TEXT NOT NULL REFERENCES items(id),
    from_status TEXT NOT NULL,
    to_status   TEXT NOT NULL,
    source      TEXT NOT NULL CHECK (source IN ('manual', 'triage')),
    reason      TEXT,
    changed_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    changed_by  INTEGER REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS wear_events (
    id       INTEGER PRIMARY KEY,
    item_id  TEXT NOT NULL REFERENCES items(id),
    worn_on  TEXT NOT NULL,
    worn_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	`CREATE INDEX IF NOT EXISTS idx_status_changes_item ON status_changes(item_id)`,
	`CREATE INDEX IF NOT EXISTS idx_wear_events_item ON wear_events(item_id)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist,
// then applies migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
