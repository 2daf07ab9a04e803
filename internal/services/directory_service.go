package services

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"taskfigma/internal/apperr"
	"taskfigma/internal/models"
	"taskfigma/internal/repositories"
)

// DirectoryService manages the projects and users tasks refer to.
type DirectoryService interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	CreateProject(ctx context.Context, name string) (*models.Project, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, name string) (*models.User, error)
}

type directoryService struct {
	projects repositories.ProjectRepository
	users    repositories.UserRepository
}

func NewDirectoryService(store *repositories.Store) DirectoryService {
	return &directoryService{projects: store.Projects, users: store.Users}
}

func (s *directoryService) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.projects.FindAll(ctx)
}

func (s *directoryService) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("projectName", "project name is required")
	}
	p := &models.Project{ID: uuid.NewString(), ProjectName: name}
	if err := s.projects.Store(ctx, p); err != nil {
		return nil, err
	}
	log.Printf("[directory][project] created id=%s name=%q", p.ID, p.ProjectName)
	return p, nil
}

func (s *directoryService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.FindAll(ctx)
}

func (s *directoryService) CreateUser(ctx context.Context, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name", "user name is required")
	}
	u := &models.User{ID: uuid.NewString(), Name: name}
	if err := s.users.Store(ctx, u); err != nil {
		return nil, err
	}
	log.Printf("[directory][user] created id=%s name=%q", u.ID, u.Name)
	return u, nil
}
