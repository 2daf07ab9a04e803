// Package memory is an in-process backend used by tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"taskfigma/internal/apperr"
	"taskfigma/internal/models"
	"taskfigma/internal/repositories"
)

type db struct {
	mu       sync.RWMutex
	tasks    map[string]*models.Task
	projects map[string]*projectRow
	users    map[string]models.User

	// insertion order, for stable listings
	projectOrder []string
	userOrder    []string
}

type projectRow struct {
	project models.Project
	taskSeq int64
}

// NewStore returns an empty in-memory store.
func NewStore() *repositories.Store {
	d := &db{
		tasks:    map[string]*models.Task{},
		projects: map[string]*projectRow{},
		users:    map[string]models.User{},
	}
	return &repositories.Store{
		Tasks:    &taskRepository{db: d},
		Projects: &projectRepository{db: d},
		Users:    &userRepository{db: d},
		Ping:     func(context.Context) error { return nil },
		Migrate:  d.backfillCounters,
		Close:    func(context.Context) error { return nil },
	}
}

func (d *db) backfillCounters(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	counts := map[string]int64{}
	for _, t := range d.tasks {
		if t.Project != nil {
			counts[t.Project.ID]++
		}
	}
	for id, row := range d.projects {
		if counts[id] > row.taskSeq {
			row.taskSeq = counts[id]
		}
	}
	return nil
}

// ---- tasks ----

type taskRepository struct {
	db *db
}

func (r *taskRepository) Insert(_ context.Context, task *models.Task) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tasks[task.ID]; ok {
		return apperr.Store("insert task", errDuplicate(task.ID))
	}
	for _, t := range r.db.tasks {
		if t.Alias == task.Alias {
			return apperr.Store("insert task", errDuplicate(task.Alias))
		}
	}
	r.db.tasks[task.ID] = task.Clone()
	return nil
}

func (r *taskRepository) FindByID(_ context.Context, id string) (*models.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	t, ok := r.db.tasks[id]
	if !ok {
		return nil, apperr.NotFound("task", id)
	}
	return t.Clone(), nil
}

func (r *taskRepository) Apply(_ context.Context, id string, version int64, m *models.TaskMutation) (*models.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.tasks[id]
	if !ok {
		return nil, apperr.NotFound("task", id)
	}
	if stored.Version != version {
		return nil, apperr.ErrConflict
	}
	next := stored.Clone()
	if err := m.Apply(next); err != nil {
		return nil, err
	}
	next.Version++
	r.db.tasks[id] = next
	return next.Clone(), nil
}

func (r *taskRepository) FindAll(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	matched := r.match(filter)
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []models.Task{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	out := make([]models.Task, 0, len(matched))
	for _, t := range matched {
		out = append(out, *t.Clone())
	}
	return out, nil
}

func (r *taskRepository) Count(_ context.Context, filter models.TaskFilter) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.match(filter))), nil
}

func (r *taskRepository) CountByStatus(context.Context) (map[models.TaskStatus]int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := map[models.TaskStatus]int64{}
	for _, t := range r.db.tasks {
		out[t.Status]++
	}
	return out, nil
}

func (r *taskRepository) match(filter models.TaskFilter) []*models.Task {
	var out []*models.Task
	for _, t := range r.db.tasks {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.ExcludeStatus != nil && t.Status == *filter.ExcludeStatus {
			continue
		}
		if filter.DueBefore != nil && (t.DueDate == nil || !t.DueDate.Before(*filter.DueBefore)) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ---- projects ----

type projectRepository struct {
	db *db
}

func (r *projectRepository) Store(_ context.Context, p *models.Project) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.projects[p.ID]; ok {
		return apperr.Store("insert project", errDuplicate(p.ID))
	}
	r.db.projects[p.ID] = &projectRow{project: *p}
	r.db.projectOrder = append(r.db.projectOrder, p.ID)
	return nil
}

func (r *projectRepository) FindByID(_ context.Context, id string) (*models.Project, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	row, ok := r.db.projects[id]
	if !ok {
		return nil, apperr.NotFound("project", id)
	}
	p := row.project
	return &p, nil
}

func (r *projectRepository) FindAll(context.Context) ([]models.Project, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []models.Project{}
	for _, id := range r.db.projectOrder {
		if row, ok := r.db.projects[id]; ok {
			out = append(out, row.project)
		}
	}
	return out, nil
}

func (r *projectRepository) NextTaskNumber(_ context.Context, projectID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	row, ok := r.db.projects[projectID]
	if !ok {
		return 0, apperr.NotFound("project", projectID)
	}
	row.taskSeq++
	return row.taskSeq, nil
}

// ---- users ----

type userRepository struct {
	db *db
}

func (r *userRepository) Store(_ context.Context, u *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[u.ID]; ok {
		return apperr.Store("insert user", errDuplicate(u.ID))
	}
	r.db.users[u.ID] = *u
	r.db.userOrder = append(r.db.userOrder, u.ID)
	return nil
}

func (r *userRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, apperr.NotFound("user", id)
	}
	return &u, nil
}

func (r *userRepository) FindByIDs(_ context.Context, ids []string) ([]models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []models.User{}
	seen := map[string]bool{}
	for _, id := range ids {
		if u, ok := r.db.users[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *userRepository) FindAll(context.Context) ([]models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []models.User{}
	for _, id := range r.db.userOrder {
		if u, ok := r.db.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type errDuplicate string

func (e errDuplicate) Error() string { return "duplicate key " + string(e) }
