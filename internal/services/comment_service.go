package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskfigma/internal/apperr"
	"taskfigma/internal/models"
	"taskfigma/internal/notify"
	"taskfigma/internal/repositories"
)

// CommentInput is the body of a comment request. An empty ID adds a new comment.
type CommentInput struct {
	ID          string `json:"id"`
	CommentText string `json:"commentText"`
}

type CommentService interface {
	AddOrUpdate(ctx context.Context, actorID, taskID string, in CommentInput) (*models.Comment, error)
	// Delete removes the comment and returns it as it was before removal.
	Delete(ctx context.Context, actorID, taskID, commentID string) (*models.Comment, error)
}

type commentService struct {
	tasks    repositories.TaskRepository
	refs     *resolver
	notifier notify.Notifier
	now      func() time.Time
}

func NewCommentService(store *repositories.Store, notifier notify.Notifier) CommentService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &commentService{
		tasks:    store.Tasks,
		refs:     &resolver{projects: store.Projects, users: store.Users},
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// load fetches the task and the user the change is attributed to. Without an acting user the
// first assignee is used, so a task without assignees is rejected. requireAssignees rejects it
// whoever acts.
func (s *commentService) load(ctx context.Context, actorID, taskID string, requireAssignees bool) (*models.Task, models.User, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, models.User{}, err
	}
	var fallback *models.User
	if len(task.Assignees) > 0 {
		fallback = &task.Assignees[0]
	} else if requireAssignees || actorID == "" {
		return nil, models.User{}, apperr.Validation("", "No assignees found")
	}
	actor, err := s.refs.actor(ctx, actorID, fallback)
	if err != nil {
		return nil, models.User{}, err
	}
	return task, actor, nil
}

func (s *commentService) AddOrUpdate(ctx context.Context, actorID, taskID string, in CommentInput) (*models.Comment, error) {
	task, actor, err := s.load(ctx, actorID, taskID, true)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.CommentText) == "" {
		return nil, apperr.Validation("commentText", "comment text is required")
	}
	now := s.now()

	if in.ID == "" {
		c := models.Comment{
			ID:          uuid.NewString(),
			CreatedBy:   &actor,
			CommentText: in.CommentText,
			CreatedAt:   now,
		}
		m := &models.TaskMutation{
			UpdatedAt:   now,
			PushComment: &c,
			Activities: []models.Activity{
				models.NewActivity(models.ActionCommented, nil, models.StringPtr(c.CommentText), actor, now),
			},
		}
		if _, err := s.apply(ctx, task, m); err != nil {
			return nil, err
		}
		log.Printf("[comment][add] task=%s comment=%s by=%s", task.ID, c.ID, actor.ID)
		return &c, nil
	}

	i := task.FindComment(in.ID)
	if i < 0 {
		return nil, apperr.NotFound("comment", in.ID)
	}
	old := task.Comments[i].CommentText
	m := &models.TaskMutation{
		UpdatedAt:   now,
		EditComment: &models.CommentEdit{ID: in.ID, Text: in.CommentText, UpdatedAt: now},
		Activities: []models.Activity{
			models.NewActivity(models.ActionEditedComment, models.StringPtr(old), models.StringPtr(in.CommentText), actor, now),
		},
	}
	updated, err := s.apply(ctx, task, m)
	if err != nil {
		return nil, err
	}
	log.Printf("[comment][edit] task=%s comment=%s by=%s", task.ID, in.ID, actor.ID)
	if j := updated.FindComment(in.ID); j >= 0 {
		c := updated.Comments[j]
		return &c, nil
	}
	return nil, apperr.NotFound("comment", in.ID)
}

func (s *commentService) Delete(ctx context.Context, actorID, taskID, commentID string) (*models.Comment, error) {
	if strings.TrimSpace(commentID) == "" {
		return nil, apperr.Validation("commentId", "comment id is required")
	}
	task, actor, err := s.load(ctx, actorID, taskID, false)
	if err != nil {
		return nil, err
	}
	i := task.FindComment(commentID)
	if i < 0 {
		return nil, apperr.NotFound("comment", commentID)
	}
	removed := task.Comments[i]
	now := s.now()
	m := &models.TaskMutation{
		UpdatedAt:     now,
		PullCommentID: commentID,
		Activities: []models.Activity{
			models.NewActivity(models.ActionDeletedComment, models.StringPtr(removed.CommentText), nil, actor, now),
		},
	}
	if _, err := s.apply(ctx, task, m); err != nil {
		return nil, err
	}
	log.Printf("[comment][delete] task=%s comment=%s by=%s", task.ID, commentID, actor.ID)
	return &removed, nil
}

func (s *commentService) apply(ctx context.Context, task *models.Task, m *models.TaskMutation) (*models.Task, error) {
	updated, err := s.tasks.Apply(ctx, task.ID, task.Version, m)
	if err != nil {
		return nil, err
	}
	if err := s.notifier.Notify(ctx, notify.Event{Task: updated.Clone(), Activities: m.Activities}); err != nil {
		log.Printf("[comment][notify][err] task=%s: %v", task.ID, err)
	}
	return updated, nil
}
