package services

import (
	"strings"
	"time"

	"taskfigma/internal/models"
)

// diffTask stages every difference between the stored task and the payload as one mutation.
// Each changed field gets exactly one activity entry, in field order. Project, reporter and
// assignees are always rewritten and never logged.
func diffTask(existing *models.Task, p *models.TaskPayload, refs *taskRefs, actor models.User, now time.Time) *models.TaskMutation {
	m := &models.TaskMutation{UpdatedAt: now}
	record := func(action models.ActivityAction, prev, cur *string) {
		m.Activities = append(m.Activities, models.NewActivity(action, prev, cur, actor, now))
	}

	if p.Title != existing.Title {
		title := p.Title
		m.Title = &title
		record(models.ActionTitleRenamed, models.StringPtr(existing.Title), models.StringPtr(title))
	}
	if p.Description != existing.Description {
		desc := p.Description
		m.Description = &desc
		record(models.ActionUpdateDescription, models.StringPtr(existing.Description), models.StringPtr(desc))
	}
	if p.Status != models.StatusUndefined && p.Status != existing.Status {
		status := p.Status
		m.Status = &status
		record(models.ActionChangeStatus, models.StringPtr(existing.Status.String()), models.StringPtr(status.String()))
	}
	if p.Priority != models.PriorityUndefined && p.Priority != existing.Priority {
		priority := p.Priority
		m.Priority = &priority
		record(models.ActionChangePriority, models.StringPtr(existing.Priority.String()), models.StringPtr(priority.String()))
	}
	if !sameTime(p.DueDate, existing.DueDate) {
		m.SetDueDate = true
		m.DueDate = utcPtr(p.DueDate)
		record(models.ActionChangeDueDate, formatDate(existing.DueDate), formatDate(p.DueDate))
	}
	if p.Attachments != nil && !sameAttachments(p.Attachments, existing.Attachments) {
		m.SetAttachments = true
		m.Attachments = p.Attachments
		record(models.ActionChangeAttachment, attachmentNames(existing.Attachments), attachmentNames(p.Attachments))
	}

	m.Project = refs.Project
	m.Reporter = refs.Reporter
	m.SetAssignees = true
	m.Assignees = refs.Assignees
	return m
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	return models.StringPtr(t.UTC().Format(time.RFC3339))
}

func sameAttachments(a, b []models.Attachment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func attachmentNames(list []models.Attachment) *string {
	if len(list) == 0 {
		return nil
	}
	names := make([]string, 0, len(list))
	for _, a := range list {
		names = append(names, a.FileName)
	}
	return models.StringPtr(strings.Join(names, ", "))
}
