package postgres

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"

	"taskfigma/internal/apperr"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id           TEXT PRIMARY KEY,
		project_name TEXT NOT NULL,
		task_seq     BIGINT NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id),
		alias      TEXT NOT NULL UNIQUE,
		status     TEXT NOT NULL,
		due_date   TIMESTAMPTZ NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		version    BIGINT NOT NULL,
		doc        JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS tasks_status_idx ON tasks (status)`,
	`CREATE INDEX IF NOT EXISTS tasks_project_idx ON tasks (project_id)`,
	`CREATE INDEX IF NOT EXISTS tasks_created_idx ON tasks (created_at DESC, id)`,
	`CREATE INDEX IF NOT EXISTS tasks_due_idx ON tasks (due_date) WHERE status <> 'Done'`,
}

// backfill aligns each project's counter with the tasks already stored for it.
const backfill = `
UPDATE projects p
   SET task_seq = c.n
  FROM (SELECT project_id, COUNT(*) AS n FROM tasks GROUP BY project_id) c
 WHERE c.project_id = p.id
   AND p.task_seq < c.n`

func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return apperr.Store("migrate schema", err)
		}
	}
	res, err := db.ExecContext(ctx, backfill)
	if err != nil {
		return apperr.Store("backfill task counters", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		log.Printf("[migrate][postgres] realigned %d project counters", n)
	}
	return nil
}
