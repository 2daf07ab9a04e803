package models

import (
	"encoding/json"
	"time"
)

type ActivityAction string

const (
	ActionTaskCreated       ActivityAction = "taskCreated"
	ActionChangePriority    ActivityAction = "changePriority"
	ActionChangeStatus      ActivityAction = "changeStatus"
	ActionTitleRenamed      ActivityAction = "titleRenamed"
	ActionUpdateDescription ActivityAction = "updateDescription"
	ActionCommented         ActivityAction = "commented"
	ActionEditedComment     ActivityAction = "editedComment"
	ActionChangeDueDate     ActivityAction = "changeDuedate"
	ActionChangeAttachment  ActivityAction = "changeAttachment"
	ActionChangeAssignee    ActivityAction = "changeAssignee"
	ActionChangeReporter    ActivityAction = "changeReporter"
	ActionDeletedComment    ActivityAction = "deletedComment"
)

var actionDisplay = map[ActivityAction]string{
	ActionTaskCreated:       "added a new task",
	ActionChangePriority:    "changes priority",
	ActionChangeStatus:      "changes status",
	ActionTitleRenamed:      "renamed the task name",
	ActionUpdateDescription: "changes the task description",
	ActionCommented:         "added a comment",
	ActionEditedComment:     "changes a comment",
	ActionChangeDueDate:     "changes due date",
	ActionChangeAttachment:  "changes attachment",
	ActionChangeAssignee:    "changes assignees",
	ActionChangeReporter:    "changes reporters",
	ActionDeletedComment:    "deletes a comment",
}

// Display is the human readable verb phrase shown next to the performer's name.
func (a ActivityAction) Display() string {
	if s, ok := actionDisplay[a]; ok {
		return s
	}
	return string(a)
}

// Activity is one append-only entry of a task's activity log.
type Activity struct {
	Action      ActivityAction `json:"action" bson:"action"`
	Previous    *string        `json:"previous" bson:"previous"`
	Current     *string        `json:"current" bson:"current"`
	CreatedAt   time.Time      `json:"createdAt" bson:"createdAt"`
	PerformedBy User           `json:"performedBy" bson:"performedBy"`
}

func NewActivity(action ActivityAction, previous, current *string, by User, at time.Time) Activity {
	return Activity{
		Action:      action,
		Previous:    previous,
		Current:     current,
		CreatedAt:   at,
		PerformedBy: by,
	}
}

// MarshalJSON adds the derived actionDisplay field.
func (a Activity) MarshalJSON() ([]byte, error) {
	type plain Activity
	return json.Marshal(struct {
		plain
		ActionDisplay string `json:"actionDisplay"`
	}{plain(a), a.Action.Display()})
}

// StringPtr is a convenience for optional previous/current values.
func StringPtr(s string) *string { return &s }
