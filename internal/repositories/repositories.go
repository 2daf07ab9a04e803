// Package repositories declares the storage contracts the services depend on. Backends live
// in the postgres, mongo and memory sub-packages.
package repositories

import (
	"context"

	"taskfigma/internal/models"
)

type TaskRepository interface {
	// Insert stores a new task document. Version must already be set.
	Insert(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	// Apply runs m as one atomic update of the task, provided its stored version still equals
	// version. It returns the updated document. Fails with apperr.NotFoundError when the task
	// is missing and apperr.ErrConflict when the version moved.
	Apply(ctx context.Context, id string, version int64, m *models.TaskMutation) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Count(ctx context.Context, filter models.TaskFilter) (int64, error)
	CountByStatus(ctx context.Context) (map[models.TaskStatus]int64, error)
}

type ProjectRepository interface {
	Store(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id string) (*models.Project, error)
	FindAll(ctx context.Context) ([]models.Project, error)
	// NextTaskNumber atomically increments and returns the project's task counter.
	NextTaskNumber(ctx context.Context, projectID string) (int64, error)
}

type UserRepository interface {
	Store(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	// FindByIDs returns the users that exist, in no particular order.
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
}

// Store bundles one backend's repositories.
type Store struct {
	Tasks    TaskRepository
	Projects ProjectRepository
	Users    UserRepository

	// Ping checks the backend is reachable.
	Ping func(ctx context.Context) error
	// Migrate creates the schema or indexes and backfills task counters.
	Migrate func(ctx context.Context) error
	Close   func(ctx context.Context) error
}
