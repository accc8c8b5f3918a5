package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS receipt_results (
		id          BIGSERIAL PRIMARY KEY,
		user_id     BIGINT       NOT NULL,
		receipt_id  TEXT         NOT NULL,
		result      JSONB        NOT NULL,
		vendor      TEXT         NOT NULL DEFAULT '',
		total       NUMERIC(12,2),
		created_at  TIMESTAMPTZ  NOT NULL DEFAULT now(),
		UNIQUE (user_id, receipt_id)
	)`,
	`CREATE TABLE IF NOT EXISTS pantry_items (
		id             BIGSERIAL PRIMARY KEY,
		user_id        BIGINT           NOT NULL,
		item_name      TEXT             NOT NULL,
		quantity       DOUBLE PRECISION NOT NULL,
		unit           TEXT             NOT NULL,
		category       TEXT             NOT NULL,
		purchase_date  TIMESTAMPTZ      NOT NULL,
		expiry_date    TIMESTAMPTZ      NOT NULL,
		created_at     TIMESTAMPTZ      NOT NULL,
		updated_at     TIMESTAMPTZ      NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS pantry_items_user_expiry ON pantry_items (user_id, expiry_date)`,
	`CREATE TABLE IF NOT EXISTS chat_sessions (
		id                     BIGSERIAL PRIMARY KEY,
		user_id                BIGINT      NOT NULL,
		title                  TEXT        NOT NULL,
		summary                TEXT,
		prep_time              INTEGER,
		instructions           TEXT        NOT NULL DEFAULT '[]',
		ingredients            TEXT        NOT NULL DEFAULT '[]',
		available_ingredients  INTEGER     NOT NULL DEFAULT 0,
		total_ingredients      INTEGER     NOT NULL DEFAULT 0,
		created_at             TIMESTAMPTZ NOT NULL,
		updated_at             TIMESTAMPTZ NOT NULL,
		deleted_at             TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS chat_sessions_user ON chat_sessions (user_id)`,
	`CREATE TABLE IF NOT EXISTS chat_history (
		id          BIGSERIAL PRIMARY KEY,
		user_id     BIGINT      NOT NULL,
		session_id  BIGINT      REFERENCES chat_sessions (id),
		role        TEXT        NOT NULL,
		content     TEXT        NOT NULL,
		"timestamp" TIMESTAMPTZ NOT NULL,
		deleted_at  TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS chat_history_user_session ON chat_history (user_id, session_id, "timestamp")`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS receipt_results (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     INTEGER  NOT NULL,
		receipt_id  TEXT     NOT NULL,
		result      TEXT     NOT NULL,
		vendor      TEXT     NOT NULL DEFAULT '',
		total       TEXT,
		created_at  DATETIME NOT NULL,
		UNIQUE (user_id, receipt_id)
	)`,
	`CREATE TABLE IF NOT EXISTS pantry_items (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id        INTEGER  NOT NULL,
		item_name      TEXT     NOT NULL,
		quantity       REAL     NOT NULL,
		unit           TEXT     NOT NULL,
		category       TEXT     NOT NULL,
		purchase_date  DATETIME NOT NULL,
		expiry_date    DATETIME NOT NULL,
		created_at     DATETIME NOT NULL,
		updated_at     DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS pantry_items_user_expiry ON pantry_items (user_id, expiry_date)`,
	`CREATE TABLE IF NOT EXISTS chat_sessions (
		id                     INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id                INTEGER  NOT NULL,
		title                  TEXT     NOT NULL,
		summary                TEXT,
		prep_time              INTEGER,
		instructions           TEXT     NOT NULL DEFAULT '[]',
		ingredients            TEXT     NOT NULL DEFAULT '[]',
		available_ingredients  INTEGER  NOT NULL DEFAULT 0,
		total_ingredients      INTEGER  NOT NULL DEFAULT 0,
		created_at             DATETIME NOT NULL,
		updated_at             DATETIME NOT NULL,
		deleted_at             DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS chat_sessions_user ON chat_sessions (user_id)`,
	`CREATE TABLE IF NOT EXISTS chat_history (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     INTEGER  NOT NULL,
		session_id  INTEGER  REFERENCES chat_sessions (id),
		role        TEXT     NOT NULL,
		content     TEXT     NOT NULL,
		"timestamp" DATETIME NOT NULL,
		deleted_at  DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS chat_history_user_session ON chat_history (user_id, session_id, "timestamp")`,
}

// Migrate creates the tables if they do not exist. It is safe to run on every start.
func (db *DB) Migrate(ctx context.Context) error {
	stmts := sqliteSchema
	if db.dialect == dialect.Postgres {
		stmts = postgresSchema
	}
	return db.inTx(ctx, func(tx dialect.ExecQuerier) error {
		for i, stmt := range stmts {
			if err := tx.Exec(ctx, stmt, []any{}, nil); err != nil {
				return fmt.Errorf("migrate statement %d: %w", i, err)
			}
		}
		db.logger.Info("database.migrated", "dialect", db.dialect, "statements", len(stmts))
		return nil
	})
}
