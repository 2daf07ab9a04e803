// internal/models/task.go
package models

import "time"

// Task represents a stored task document. Project, reporter and assignees are denormalised
// copies taken when the task was last saved.
type Task struct {
	ID          string       `json:"id" bson:"_id"`
	Title       string       `json:"title" bson:"title"`
	Description string       `json:"description,omitempty" bson:"description,omitempty"`
	Alias       string       `json:"alias" bson:"alias"`
	Assignees   []User       `json:"assignee" bson:"assignee"`
	Reporter    *User        `json:"reporter" bson:"reporter"`
	Status      TaskStatus   `json:"status" bson:"status"`
	Priority    TaskPriority `json:"priority" bson:"priority"`
	DueDate     *time.Time   `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty" bson:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt" bson:"updatedAt"`
	Comments    []Comment    `json:"comments" bson:"comments"`
	ActivityLog []Activity   `json:"activityLog" bson:"activityLog"`
	Project     *Project     `json:"project" bson:"project"`
	Version     int64        `json:"version" bson:"version"`
}

// Attachment is kept as an opaque base64 blob.
type Attachment struct {
	ID       string `json:"id,omitempty" bson:"id,omitempty"`
	FileName string `json:"fileName" bson:"fileName"`
	Size     string `json:"size" bson:"size"`
	Type     string `json:"type" bson:"type"`
	Base64   string `json:"base64" bson:"base64"`
}

// TaskPayload is the body of a save request. An empty ID means "create". Version, when set,
// is the version the client last read; a save against a newer stored version conflicts.
type TaskPayload struct {
	ID          string       `json:"id"`
	Version     int64        `json:"version,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	ProjectID   string       `json:"projectId"`
	ReporterID  string       `json:"reporterId"`
	AssigneeIDs []string     `json:"assigneeIds"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"dueDate"`
	Attachments []Attachment `json:"attachments"`
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	Status        *TaskStatus
	ExcludeStatus *TaskStatus
	DueBefore     *time.Time
	Offset        int
	Limit         int
}

// StatusCount is one row of the status histogram.
type StatusCount struct {
	Status TaskStatus `json:"property"`
	Name   string     `json:"name"`
	Count  int64      `json:"count"`
}

// EnsureCollections replaces nil slices with empty ones so document stores can append to them.
func (t *Task) EnsureCollections() {
	if t.Assignees == nil {
		t.Assignees = []User{}
	}
	if t.Comments == nil {
		t.Comments = []Comment{}
	}
	if t.ActivityLog == nil {
		t.ActivityLog = []Activity{}
	}
}

// FindComment returns the index of the comment with the given id, or -1.
func (t *Task) FindComment(id string) int {
	for i := range t.Comments {
		if t.Comments[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy that shares no mutable state with t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Assignees = cloneSlice(t.Assignees)
	c.Attachments = cloneSlice(t.Attachments)
	c.Comments = cloneSlice(t.Comments)
	c.ActivityLog = cloneSlice(t.ActivityLog)
	if t.Reporter != nil {
		r := *t.Reporter
		c.Reporter = &r
	}
	if t.Project != nil {
		p := *t.Project
		c.Project = &p
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return &c
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
