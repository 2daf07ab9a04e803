package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"taskfigma/internal/apperr"
	"taskfigma/internal/models"
	"taskfigma/internal/repositories"
)

type projectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) repositories.ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Store(ctx context.Context, p *models.Project) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, project_name) VALUES ($1, $2)`, p.ID, p.ProjectName)
	if err != nil {
		return mapErr("insert project", err)
	}
	return nil
}

func (r *projectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	err := r.db.GetContext(ctx, &p, `SELECT id, project_name FROM projects WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("project", id)
		}
		return nil, mapErr("find project", err)
	}
	return &p, nil
}

func (r *projectRepository) FindAll(ctx context.Context) ([]models.Project, error) {
	out := []models.Project{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, project_name FROM projects ORDER BY created_at, id`)
	if err != nil {
		return nil, mapErr("list projects", err)
	}
	return out, nil
}

func (r *projectRepository) NextTaskNumber(ctx context.Context, projectID string) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n,
		`UPDATE projects SET task_seq = task_seq + 1 WHERE id = $1 RETURNING task_seq`, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperr.NotFound("project", projectID)
		}
		return 0, mapErr("next task number", err)
	}
	return n, nil
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repositories.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Store(ctx context.Context, u *models.User) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (id, name) VALUES ($1, $2)`, u.ID, u.Name)
	if err != nil {
		return mapErr("insert user", err)
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT id, name FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user", id)
		}
		return nil, mapErr("find user", err)
	}
	return &u, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	out := []models.User{}
	if len(ids) == 0 {
		return out, nil
	}
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, name FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, mapErr("find users", err)
	}
	return out, nil
}

func (r *userRepository) FindAll(ctx context.Context) ([]models.User, error) {
	out := []models.User{}
	if err := r.db.SelectContext(ctx, &out, `SELECT id, name FROM users ORDER BY created_at, id`); err != nil {
		return nil, mapErr("list users", err)
	}
	return out, nil
}
