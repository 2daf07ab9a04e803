package services

import (
	"context"
	"fmt"
	"strings"

	"taskfigma/internal/models"
	"taskfigma/internal/repositories"
)

// projectCode is the upper-cased first three characters of the name, or the whole name.
func projectCode(name string) string {
	r := []rune(strings.TrimSpace(name))
	if len(r) > 3 {
		r = r[:3]
	}
	return strings.ToUpper(string(r))
}

func formatAlias(code string, n int64) string {
	return fmt.Sprintf("%s-%03d", code, n)
}

type aliasGenerator struct {
	projects repositories.ProjectRepository
}

// next reserves the project's next task number and renders the alias for it.
func (g *aliasGenerator) next(ctx context.Context, project *models.Project) (string, error) {
	n, err := g.projects.NextTaskNumber(ctx, project.ID)
	if err != nil {
		return "", err
	}
	return formatAlias(projectCode(project.ProjectName), n), nil
}
