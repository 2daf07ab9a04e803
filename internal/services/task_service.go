package services

import (
	"context"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskfigma/internal/apperr"
	"taskfigma/internal/models"
	"taskfigma/internal/notify"
	"taskfigma/internal/repositories"
)

// TaskService defines the interface for task-related business logic.
type TaskService interface {
	// Save creates the task when payload.ID is empty and updates it otherwise. actorID may be
	// empty, in which case changes are attributed to the reporter.
	Save(ctx context.Context, actorID string, payload *models.TaskPayload) (*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, page, pageSize int, status *models.TaskStatus) (*TaskPage, error)
	ListPending(ctx context.Context) ([]models.Task, error)
	ListDue(ctx context.Context) ([]models.Task, error)
	StatusCounts(ctx context.Context) ([]models.StatusCount, error)
}

// TaskPage is one page of the task listing.
type TaskPage struct {
	Items    []models.Task
	Total    int64
	Page     int
	PageSize int
}

// PageLimits bounds the page size of listings.
type PageLimits struct {
	Default int
	Max     int
}

func DefaultPageLimits() PageLimits {
	return PageLimits{Default: 12, Max: 100}
}

type taskService struct {
	tasks    repositories.TaskRepository
	refs     *resolver
	aliases  *aliasGenerator
	notifier notify.Notifier
	limits   PageLimits
	now      func() time.Time
}

// NewTaskService creates a new instance of TaskService. A nil notifier disables notifications.
func NewTaskService(store *repositories.Store, limits PageLimits, notifier notify.Notifier) TaskService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if limits.Default < 1 {
		limits.Default = DefaultPageLimits().Default
	}
	if limits.Max < limits.Default {
		limits.Max = limits.Default
	}
	return &taskService{
		tasks:    store.Tasks,
		refs:     &resolver{projects: store.Projects, users: store.Users},
		aliases:  &aliasGenerator{projects: store.Projects},
		notifier: notifier,
		limits:   limits,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *taskService) Save(ctx context.Context, actorID string, p *models.TaskPayload) (*models.Task, error) {
	if p == nil {
		return nil, apperr.Validation("", "task payload is required")
	}
	if !p.Status.Valid() {
		return nil, apperr.Validation("status", "unknown status")
	}
	if !p.Priority.Valid() {
		return nil, apperr.Validation("priority", "unknown priority")
	}
	refs, err := s.refs.resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	actor, err := s.refs.actor(ctx, actorID, refs.Reporter)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.ID) == "" {
		return s.create(ctx, p, refs, actor)
	}
	return s.update(ctx, p, refs, actor)
}

func (s *taskService) create(ctx context.Context, p *models.TaskPayload, refs *taskRefs, actor models.User) (*models.Task, error) {
	alias, err := s.aliases.next(ctx, refs.Project)
	if err != nil {
		return nil, err
	}
	now := s.now()
	task := &models.Task{
		ID:          uuid.NewString(),
		Title:       p.Title,
		Description: p.Description,
		Alias:       alias,
		Assignees:   refs.Assignees,
		Reporter:    refs.Reporter,
		Status:      p.Status,
		Priority:    p.Priority,
		DueDate:     utcPtr(p.DueDate),
		Attachments: p.Attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
		Project:     refs.Project,
		Version:     1,
	}
	if task.Status == models.StatusUndefined {
		task.Status = models.StatusTodo
	}
	if task.Priority == models.PriorityUndefined {
		task.Priority = models.PriorityMedium
	}
	task.EnsureCollections()
	task.ActivityLog = append(task.ActivityLog,
		models.NewActivity(models.ActionTaskCreated, nil, models.StringPtr(task.Title), actor, now))

	if err := s.tasks.Insert(ctx, task); err != nil {
		return nil, err
	}
	log.Printf("[task][create] id=%s alias=%s by=%s", task.ID, task.Alias, actor.ID)
	s.publish(ctx, task, task.ActivityLog)
	return task, nil
}

func (s *taskService) update(ctx context.Context, p *models.TaskPayload, refs *taskRefs, actor models.User) (*models.Task, error) {
	existing, err := s.tasks.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	version := existing.Version
	if p.Version > 0 {
		if p.Version != existing.Version {
			return nil, apperr.ErrConflict
		}
		version = p.Version
	}

	m := diffTask(existing, p, refs, actor, s.now())
	task, err := s.tasks.Apply(ctx, existing.ID, version, m)
	if err != nil {
		return nil, err
	}
	log.Printf("[task][update] id=%s changes=%d version=%d by=%s", task.ID, len(m.Activities), task.Version, actor.ID)
	s.publish(ctx, task, m.Activities)
	return task, nil
}

func (s *taskService) publish(ctx context.Context, task *models.Task, activities []models.Activity) {
	if len(activities) == 0 {
		return
	}
	ev := notify.Event{Task: task.Clone(), Activities: append([]models.Activity(nil), activities...)}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		log.Printf("[task][notify][err] id=%s: %v", task.ID, err)
	}
}

func (s *taskService) GetByID(ctx context.Context, id string) (*models.Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("id", "task id is required")
	}
	return s.tasks.FindByID(ctx, id)
}

func (s *taskService) List(ctx context.Context, page, pageSize int, status *models.TaskStatus) (*TaskPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = s.limits.Default
	}
	if pageSize > s.limits.Max {
		pageSize = s.limits.Max
	}
	filter := models.TaskFilter{Status: status}
	total, err := s.tasks.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	if page-1 > math.MaxInt/pageSize {
		return &TaskPage{Items: []models.Task{}, Total: total, Page: page, PageSize: pageSize}, nil
	}
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	items, err := s.tasks.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &TaskPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *taskService) ListPending(ctx context.Context) ([]models.Task, error) {
	done := models.StatusDone
	return s.tasks.FindAll(ctx, models.TaskFilter{ExcludeStatus: &done})
}

func (s *taskService) ListDue(ctx context.Context) ([]models.Task, error) {
	done := models.StatusDone
	now := s.now()
	return s.tasks.FindAll(ctx, models.TaskFilter{ExcludeStatus: &done, DueBefore: &now})
}

// StatusCounts returns one row per defined status, zero counts included.
func (s *taskService) StatusCounts(ctx context.Context) ([]models.StatusCount, error) {
	counts, err := s.tasks.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.StatusCount, 0, len(models.AllStatuses()))
	for _, st := range models.AllStatuses() {
		out = append(out, models.StatusCount{Status: st, Name: st.String(), Count: counts[st]})
	}
	return out, nil
}
