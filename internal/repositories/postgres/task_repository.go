package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"taskfigma/internal/apperr"
	"taskfigma/internal/models"
	"taskfigma/internal/repositories"
)

type taskRepository struct {
	db *sqlx.DB
}

func NewTaskRepository(db *sqlx.DB) repositories.TaskRepository {
	return &taskRepository{db: db}
}

type taskRow struct {
	Doc     []byte `db:"doc"`
	Version int64  `db:"version"`
}

func (row taskRow) decode() (*models.Task, error) {
	var t models.Task
	if err := json.Unmarshal(row.Doc, &t); err != nil {
		return nil, apperr.Store("decode task document", err)
	}
	t.Version = row.Version
	t.EnsureCollections()
	return &t, nil
}

func projectID(t *models.Task) string {
	if t.Project == nil {
		return ""
	}
	return t.Project.ID
}

func (r *taskRepository) Insert(ctx context.Context, task *models.Task) error {
	doc, err := json.Marshal(task)
	if err != nil {
		return apperr.Store("encode task document", err)
	}
	query := `
		INSERT INTO tasks (id, project_id, alias, status, due_date, created_at, updated_at, version, doc)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err = r.db.ExecContext(ctx, query,
		task.ID, projectID(task), task.Alias, task.Status, task.DueDate,
		task.CreatedAt, task.UpdatedAt, task.Version, string(doc),
	)
	if err != nil {
		return mapErr("insert task", err)
	}
	return nil
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var row taskRow
	err := r.db.GetContext(ctx, &row, `SELECT doc, version FROM tasks WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("task", id)
		}
		return nil, mapErr("find task", err)
	}
	return row.decode()
}

// Apply locks the row so the version check and the write see the same document.
func (r *taskRepository) Apply(ctx context.Context, id string, version int64, m *models.TaskMutation) (*models.Task, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.Store("begin task update", err)
	}
	defer func() { _ = tx.Rollback() }()

	var row taskRow
	err = tx.GetContext(ctx, &row, `SELECT doc, version FROM tasks WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("task", id)
		}
		return nil, mapErr("lock task", err)
	}
	if row.Version != version {
		return nil, apperr.ErrConflict
	}
	task, err := row.decode()
	if err != nil {
		return nil, err
	}
	if err := m.Apply(task); err != nil {
		return nil, err
	}
	task.Version++

	doc, err := json.Marshal(task)
	if err != nil {
		return nil, apperr.Store("encode task document", err)
	}
	query := `
		UPDATE tasks SET
			project_id=$1, status=$2, due_date=$3, updated_at=$4, version=$5, doc=$6
		WHERE id=$7`
	_, err = tx.ExecContext(ctx, query,
		projectID(task), task.Status, task.DueDate, task.UpdatedAt, task.Version, string(doc), id,
	)
	if err != nil {
		return nil, mapErr("update task", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Store("commit task update", err)
	}
	return task, nil
}

func buildWhere(filter models.TaskFilter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}
	if filter.ExcludeStatus != nil {
		conditions = append(conditions, fmt.Sprintf("status <> $%d", argID))
		args = append(args, *filter.ExcludeStatus)
		argID++
	}
	if filter.DueBefore != nil {
		conditions = append(conditions, fmt.Sprintf("due_date IS NOT NULL AND due_date < $%d", argID))
		args = append(args, *filter.DueBefore)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	where, args := buildWhere(filter)
	query := `SELECT doc, version FROM tasks` + where + ` ORDER BY created_at DESC, id ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapErr("list tasks", err)
	}
	tasks := make([]models.Task, 0, len(rows))
	for _, row := range rows {
		t, err := row.decode()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

func (r *taskRepository) Count(ctx context.Context, filter models.TaskFilter) (int64, error) {
	where, args := buildWhere(filter)
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM tasks`+where, args...); err != nil {
		return 0, mapErr("count tasks", err)
	}
	return n, nil
}

func (r *taskRepository) CountByStatus(ctx context.Context) (map[models.TaskStatus]int64, error) {
	var rows []struct {
		Status models.TaskStatus `db:"status"`
		N      int64             `db:"n"`
	}
	err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS n FROM tasks GROUP BY status`)
	if err != nil {
		return nil, mapErr("count tasks by status", err)
	}
	out := make(map[models.TaskStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}
