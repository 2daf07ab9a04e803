// Package postgres keeps each task as a JSONB document next to the columns the queries filter
// and sort on. Updates lock the row, check the version and rewrite the document.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"taskfigma/internal/apperr"
	"taskfigma/internal/repositories"
)

func NewStore(db *sqlx.DB) *repositories.Store {
	return &repositories.Store{
		Tasks:    NewTaskRepository(db),
		Projects: NewProjectRepository(db),
		Users:    NewUserRepository(db),
		Ping:     db.PingContext,
		Migrate:  func(ctx context.Context) error { return Migrate(ctx, db) },
		Close:    func(context.Context) error { return db.Close() },
	}
}

const uniqueViolation = "23505"

// mapErr turns driver errors into the shared taxonomy.
func mapErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %s: %w", op, pqErr.Constraint, apperr.ErrConflict)
	}
	return apperr.Store(op, err)
}
