package services

import (
	"context"
	"strings"

	"taskfigma/internal/apperr"
	"taskfigma/internal/models"
	"taskfigma/internal/repositories"
)

// taskRefs are the documents a save payload points at.
type taskRefs struct {
	Project   *models.Project
	Reporter  *models.User
	Assignees []models.User
}

type resolver struct {
	projects repositories.ProjectRepository
	users    repositories.UserRepository
}

// resolve checks the required references and loads them. Assignee ids that do not resolve
// are dropped; the rest keep the requested order.
func (r *resolver) resolve(ctx context.Context, p *models.TaskPayload) (*taskRefs, error) {
	if strings.TrimSpace(p.ProjectID) == "" {
		return nil, apperr.Validation("projectId", "project id is required")
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, apperr.Validation("title", "title is required")
	}
	if strings.TrimSpace(p.ReporterID) == "" {
		return nil, apperr.Validation("reporterId", "reporter id is required")
	}

	project, err := r.projects.FindByID(ctx, p.ProjectID)
	if err != nil {
		return nil, err
	}
	reporter, err := r.users.FindByID(ctx, p.ReporterID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("reporter", p.ReporterID)
		}
		return nil, err
	}
	assignees, err := r.assignees(ctx, p.AssigneeIDs)
	if err != nil {
		return nil, err
	}
	return &taskRefs{Project: project, Reporter: reporter, Assignees: assignees}, nil
}

func (r *resolver) assignees(ctx context.Context, ids []string) ([]models.User, error) {
	out := []models.User{}
	if len(ids) == 0 {
		return out, nil
	}
	found, err := r.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	seen := map[string]bool{}
	for _, id := range ids {
		u, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, u)
	}
	return out, nil
}

// actor returns the acting user, or fallback when no actor id was given.
func (r *resolver) actor(ctx context.Context, actorID string, fallback *models.User) (models.User, error) {
	if actorID == "" {
		if fallback == nil {
			return models.User{}, apperr.Validation("", "acting user is required")
		}
		return *fallback, nil
	}
	u, err := r.users.FindByID(ctx, actorID)
	if err != nil {
		return models.User{}, err
	}
	return *u, nil
}
