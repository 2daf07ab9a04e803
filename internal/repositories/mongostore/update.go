package mongostore

import (
	"go.mongodb.org/mongo-driver/bson"

	"taskfigma/internal/models"
)

// buildFilter selects the task at the expected version. Comment edits and removals also
// require the comment to be present so the positional operator has a target.
func buildFilter(id string, version int64, m *models.TaskMutation) bson.M {
	filter := bson.M{"_id": id, "version": version}
	if cid := m.TouchesComment(); cid != "" {
		filter["comments.id"] = cid
	}
	return filter
}

// buildUpdate renders the mutation as one update document. A mutation never pushes and pulls
// comments at the same time, which Mongo would reject as conflicting paths.
func buildUpdate(m *models.TaskMutation) bson.M {
	set := bson.M{}
	unset := bson.M{}
	push := bson.M{}
	pull := bson.M{}

	if !m.UpdatedAt.IsZero() {
		set["updatedAt"] = m.UpdatedAt
	}
	if m.Title != nil {
		set["title"] = *m.Title
	}
	if m.Description != nil {
		set["description"] = *m.Description
	}
	if m.Status != nil {
		set["status"] = *m.Status
	}
	if m.Priority != nil {
		set["priority"] = *m.Priority
	}
	if m.SetDueDate {
		if m.DueDate == nil {
			unset["dueDate"] = ""
		} else {
			set["dueDate"] = *m.DueDate
		}
	}
	if m.SetAttachments {
		if len(m.Attachments) == 0 {
			unset["attachments"] = ""
		} else {
			set["attachments"] = m.Attachments
		}
	}
	if m.Project != nil {
		set["project"] = *m.Project
	}
	if m.Reporter != nil {
		set["reporter"] = *m.Reporter
	}
	if m.SetAssignees {
		assignees := m.Assignees
		if assignees == nil {
			assignees = []models.User{}
		}
		set["assignee"] = assignees
	}
	if m.EditComment != nil {
		set["comments.$.commentText"] = m.EditComment.Text
		set["comments.$.updatedAt"] = m.EditComment.UpdatedAt
	}
	if m.PullCommentID != "" {
		pull["comments"] = bson.M{"id": m.PullCommentID}
	}
	if m.PushComment != nil {
		push["comments"] = *m.PushComment
	}
	if len(m.Activities) > 0 {
		push["activityLog"] = bson.M{"$each": m.Activities}
	}

	update := bson.M{"$inc": bson.M{"version": int64(1)}}
	for op, fields := range map[string]bson.M{"$set": set, "$unset": unset, "$push": push, "$pull": pull} {
		if len(fields) > 0 {
			update[op] = fields
		}
	}
	return update
}
