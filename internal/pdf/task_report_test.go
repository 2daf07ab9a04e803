package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskfigma/internal/models"
)

func TestRenderTask(t *testing.T) {
	at := time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)
	alice := models.User{ID: "u1", Name: "Alice"}
	task := &models.Task{
		ID:          "t1",
		Alias:       "ALP-001",
		Title:       "Fix login (café)",
		Description: "Steps to reproduce are in the ticket.",
		Status:      models.StatusInProgress,
		Priority:    models.PriorityHigh,
		Reporter:    &alice,
		Assignees:   []models.User{alice, {ID: "u2", Name: "Bob"}},
		Project:     &models.Project{ID: "p1", ProjectName: "Alpha"},
		DueDate:     &at,
		CreatedAt:   at,
		UpdatedAt:   at,
		Comments:    []models.Comment{{ID: "c1", CreatedBy: &alice, CommentText: "on it", CreatedAt: at}},
		ActivityLog: []models.Activity{
			models.NewActivity(models.ActionTaskCreated, nil, models.StringPtr("Fix login"), alice, at),
		},
	}

	out, err := NewReportGenerator("").RenderTask(task)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	_, err = NewReportGenerator("").RenderTask(nil)
	assert.Error(t, err)

	_, err = NewReportGenerator("/does/not/exist.ttf").RenderTask(task)
	assert.Error(t, err)
}
