package models

import (
	"time"

	"taskfigma/internal/apperr"
)

// CommentEdit rewrites the text of one comment in place.
type CommentEdit struct {
	ID        string
	Text      string
	UpdatedAt time.Time
}

// TaskMutation is the set of changes staged by one save or comment operation. Stores apply it
// as a single document update; Apply is the reference semantics for stores that work on the
// decoded document.
type TaskMutation struct {
	UpdatedAt time.Time

	Title       *string
	Description *string
	Status      *TaskStatus
	Priority    *TaskPriority

	SetDueDate bool
	DueDate    *time.Time

	SetAttachments bool
	Attachments    []Attachment

	Project      *Project
	Reporter     *User
	SetAssignees bool
	Assignees    []User

	PushComment   *Comment
	EditComment   *CommentEdit
	PullCommentID string

	Activities []Activity
}

// TouchesComment reports the comment id the mutation requires to exist, if any.
func (m *TaskMutation) TouchesComment() string {
	switch {
	case m.EditComment != nil:
		return m.EditComment.ID
	case m.PullCommentID != "":
		return m.PullCommentID
	}
	return ""
}

// Apply writes the mutation into t. It fails without touching t when a referenced comment is
// missing.
func (m *TaskMutation) Apply(t *Task) error {
	editAt, pullAt := -1, -1
	if m.EditComment != nil {
		if editAt = t.FindComment(m.EditComment.ID); editAt < 0 {
			return apperr.NotFound("comment", m.EditComment.ID)
		}
	}
	if m.PullCommentID != "" {
		if pullAt = t.FindComment(m.PullCommentID); pullAt < 0 {
			return apperr.NotFound("comment", m.PullCommentID)
		}
	}

	if !m.UpdatedAt.IsZero() {
		t.UpdatedAt = m.UpdatedAt
	}
	if m.Title != nil {
		t.Title = *m.Title
	}
	if m.Description != nil {
		t.Description = *m.Description
	}
	if m.Status != nil {
		t.Status = *m.Status
	}
	if m.Priority != nil {
		t.Priority = *m.Priority
	}
	if m.SetDueDate {
		t.DueDate = m.DueDate
	}
	if m.SetAttachments {
		t.Attachments = cloneSlice(m.Attachments)
	}
	if m.Project != nil {
		p := *m.Project
		t.Project = &p
	}
	if m.Reporter != nil {
		r := *m.Reporter
		t.Reporter = &r
	}
	if m.SetAssignees {
		t.Assignees = append([]User{}, m.Assignees...)
	}

	if editAt >= 0 {
		at := m.EditComment.UpdatedAt
		t.Comments[editAt].CommentText = m.EditComment.Text
		t.Comments[editAt].UpdatedAt = &at
	}
	if pullAt >= 0 {
		t.Comments = append(t.Comments[:pullAt:pullAt], t.Comments[pullAt+1:]...)
	}
	if m.PushComment != nil {
		t.Comments = append(t.Comments, *m.PushComment)
	}
	t.ActivityLog = append(t.ActivityLog, m.Activities...)
	return nil
}
