package services

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskfigma/internal/apperr"
	"taskfigma/internal/models"
	"taskfigma/internal/notify"
	"taskfigma/internal/repositories"
	"taskfigma/internal/repositories/memory"
)

var base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingNotifier) Notify(_ context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

type fixture struct {
	ctx      context.Context
	store    *repositories.Store
	tasks    TaskService
	comments CommentService
	dir      DirectoryService
	notes    *recordingNotifier
	project  *models.Project
	alice    *models.User
	bob      *models.User
}

// tick returns a clock that advances one second per call.
func tick() func() time.Time {
	var mu sync.Mutex
	n := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	notes := &recordingNotifier{}
	clock := tick()

	tasks := NewTaskService(store, DefaultPageLimits(), notes)
	tasks.(*taskService).now = clock
	comments := NewCommentService(store, notes)
	comments.(*commentService).now = clock
	dir := NewDirectoryService(store)

	project, err := dir.CreateProject(ctx, "alpha")
	require.NoError(t, err)
	alice, err := dir.CreateUser(ctx, "Alice")
	require.NoError(t, err)
	bob, err := dir.CreateUser(ctx, "Bob")
	require.NoError(t, err)

	return &fixture{
		ctx: ctx, store: store, tasks: tasks, comments: comments, dir: dir,
		notes: notes, project: project, alice: alice, bob: bob,
	}
}

func (f *fixture) payload(title string, assignees ...string) *models.TaskPayload {
	return &models.TaskPayload{
		Title:       title,
		ProjectID:   f.project.ID,
		ReporterID:  f.alice.ID,
		AssigneeIDs: assignees,
	}
}

func (f *fixture) create(t *testing.T, title string, assignees ...string) *models.Task {
	t.Helper()
	task, err := f.tasks.Save(f.ctx, "", f.payload(title, assignees...))
	require.NoError(t, err)
	return task
}

func actions(task *models.Task) []models.ActivityAction {
	out := []models.ActivityAction{}
	for _, a := range task.ActivityLog {
		out = append(out, a.Action)
	}
	return out
}

func TestSaveRequiresReferences(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name   string
		mutate func(p *models.TaskPayload)
		field  string
	}{
		{"no project", func(p *models.TaskPayload) { p.ProjectID = "" }, "projectId"},
		{"no title", func(p *models.TaskPayload) { p.Title = "  " }, "title"},
		{"no reporter", func(p *models.TaskPayload) { p.ReporterID = "" }, "reporterId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := f.payload("Fix bug")
			tt.mutate(p)
			_, err := f.tasks.Save(f.ctx, "", p)
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
	n, err := f.store.Tasks.Count(f.ctx, models.TaskFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)

	p := f.payload("Fix bug")
	p.ProjectID = "missing"
	_, err = f.tasks.Save(f.ctx, "", p)
	assert.True(t, apperr.IsNotFound(err))

	p = f.payload("Fix bug")
	p.ReporterID = "missing"
	_, err = f.tasks.Save(f.ctx, "", p)
	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "reporter", nf.Resource)

	p = f.payload("Fix bug")
	p.Status = models.TaskStatus(9)
	_, err = f.tasks.Save(f.ctx, "", p)
	assert.True(t, apperr.IsValidation(err))
}

func TestCreateDefaultsAndAlias(t *testing.T) {
	f := newFixture(t)

	first := f.create(t, "Fix bug")
	assert.Equal(t, "ALP-001", first.Alias)
	assert.Equal(t, models.StatusTodo, first.Status)
	assert.Equal(t, models.PriorityMedium, first.Priority)
	assert.Equal(t, int64(1), first.Version)
	assert.Equal(t, f.alice.ID, first.Reporter.ID)
	assert.Equal(t, f.project.ID, first.Project.ID)
	require.Len(t, first.ActivityLog, 1)
	created := first.ActivityLog[0]
	assert.Equal(t, models.ActionTaskCreated, created.Action)
	assert.Nil(t, created.Previous)
	assert.Equal(t, "Fix bug", *created.Current)
	assert.Equal(t, f.alice.ID, created.PerformedBy.ID)

	second := f.create(t, "Another")
	assert.Equal(t, "ALP-002", second.Alias)

	short, err := f.dir.CreateProject(f.ctx, "qa")
	require.NoError(t, err)
	p := f.payload("Short")
	p.ProjectID = short.ID
	task, err := f.tasks.Save(f.ctx, "", p)
	require.NoError(t, err)
	assert.Equal(t, "QA-001", task.Alias)
}

func TestProjectCode(t *testing.T) {
	tests := [][2]string{
		{"alpha", "ALP"},
		{"qa", "QA"},
		{" Beta ", "BET"},
		{"éclair", "ÉCL"},
		{"Проект", "ПРО"},
		{"x", "X"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt[1], projectCode(tt[0]), tt[0])
	}
	assert.Equal(t, "ALP-007", formatAlias("ALP", 7))
	assert.Equal(t, "ALP-1234", formatAlias("ALP", 1234))
}

func TestAssigneesResolveInOrder(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "Fix bug", f.bob.ID, "ghost", f.alice.ID, f.bob.ID)
	require.Len(t, task.Assignees, 2)
	assert.Equal(t, f.bob.ID, task.Assignees[0].ID)
	assert.Equal(t, f.alice.ID, task.Assignees[1].ID)
}

func TestTitleOnlyChangeLogsOnce(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "Fix bug")

	p := f.payload("Fix bug v2")
	p.ID = task.ID
	updated, err := f.tasks.Save(f.ctx, "", p)
	require.NoError(t, err)

	assert.Equal(t, "Fix bug v2", updated.Title)
	assert.Equal(t, models.StatusTodo, updated.Status)
	assert.Equal(t, models.PriorityMedium, updated.Priority)
	require.Len(t, updated.ActivityLog, 2)
	entry := updated.ActivityLog[1]
	assert.Equal(t, models.ActionTitleRenamed, entry.Action)
	assert.Equal(t, "Fix bug", *entry.Previous)
	assert.Equal(t, "Fix bug v2", *entry.Current)
	assert.Equal(t, int64(2), updated.Version)
}

func TestUndefinedEnumsLeaveStoredValues(t *testing.T) {
	f := newFixture(t)
	p := f.payload("Fix bug")
	p.Status = models.StatusInProgress
	p.Priority = models.PriorityHigh
	task, err := f.tasks.Save(f.ctx, "", p)
	require.NoError(t, err)

	p = f.payload("Fix bug")
	p.ID = task.ID
	updated, err := f.tasks.Save(f.ctx, "", p)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Equal(t, []models.ActivityAction{models.ActionTaskCreated}, actions(updated))
}

func TestCreateThenUpdateSequence(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "Fix bug")

	p := f.payload("Fix bug v2")
	p.ID = task.ID
	p.Status = models.StatusDone
	updated, err := f.tasks.Save(f.ctx, "", p)
	require.NoError(t, err)

	assert.Equal(t, []models.ActivityAction{
		models.ActionTaskCreated, models.ActionTitleRenamed, models.ActionChangeStatus,
	}, actions(updated))
	status := updated.ActivityLog[2]
	assert.Equal(t, "Todo", *status.Previous)
	assert.Equal(t, "Done", *status.Current)
}

func TestFieldOrderAndDueDate(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "Fix bug")

	due := time.Date(2024, 7, 1, 9, 0, 0, 0, time.FixedZone("X", 3*3600))
	p := f.payload("Fix bug")
	p.ID = task.ID
	p.Description = "details"
	p.Priority = models.PriorityLow
	p.DueDate = &due
	updated, err := f.tasks.Save(f.ctx, "", p)
	require.NoError(t, err)

	assert.Equal(t, []models.ActivityAction{
		models.ActionTaskCreated, models.ActionUpdateDescription, models.ActionChangePriority, models.ActionChangeDueDate,
	}, actions(updated))
	dueEntry := updated.ActivityLog[3]
	assert.Nil(t, dueEntry.Previous)
	assert.Equal(t, "2024-07-01T06:00:00Z", *dueEntry.Current)
	require.NotNil(t, updated.DueDate)
	assert.True(t, updated.DueDate.Equal(due))

	p.DueDate = nil
	cleared, err := f.tasks.Save(f.ctx, "", p)
	require.NoError(t, err)
	assert.Nil(t, cleared.DueDate)
	last := cleared.ActivityLog[len(cleared.ActivityLog)-1]
	assert.Equal(t, models.ActionChangeDueDate, last.Action)
	assert.Equal(t, "2024-07-01T06:00:00Z", *last.Previous)
	assert.Nil(t, last.Current)
}

func TestAttachmentsOnlyWhenSent(t *testing.T) {
	f := newFixture(t)
	p := f.payload("Fix bug")
	p.Attachments = []models.Attachment{{FileName: "a.png", Size: "1 KB", Type: "image/png", Base64: "AA=="}}
	task, err := f.tasks.Save(f.ctx, "", p)
	require.NoError(t, err)

	p = f.payload("Fix bug")
	p.ID = task.ID
	same, err := f.tasks.Save(f.ctx, "", p)
	require.NoError(t, err)
	assert.Len(t, same.Attachments, 1)
	assert.Len(t, same.ActivityLog, 1)

	p.Attachments = []models.Attachment{{FileName: "b.pdf"}, {FileName: "c.txt"}}
	changed, err := f.tasks.Save(f.ctx, "", p)
	require.NoError(t, err)
	last := changed.ActivityLog[len(changed.ActivityLog)-1]
	assert.Equal(t, models.ActionChangeAttachment, last.Action)
	assert.Equal(t, "a.png", *last.Previous)
	assert.Equal(t, "b.pdf, c.txt", *last.Current)
}

func TestAssigneesOverwrittenWithoutLog(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "Fix bug", f.alice.ID)

	p := f.payload("Fix bug", f.bob.ID)
	p.ID = task.ID
	updated, err := f.tasks.Save(f.ctx, "", p)
	require.NoError(t, err)
	require.Len(t, updated.Assignees, 1)
	assert.Equal(t, f.bob.ID, updated.Assignees[0].ID)
	assert.Len(t, updated.ActivityLog, 1)
}

func TestStaleVersionConflicts(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "Fix bug")

	first := f.payload("From first tab")
	first.ID, first.Version = task.ID, task.Version
	_, err := f.tasks.Save(f.ctx, "", first)
	require.NoError(t, err)

	second := f.payload("From second tab")
	second.ID, second.Version = task.ID, task.Version
	_, err = f.tasks.Save(f.ctx, "", second)
	assert.True(t, apperr.IsConflict(err))

	stored, err := f.tasks.GetByID(f.ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "From first tab", stored.Title)
}

func TestUpdateUnknownTask(t *testing.T) {
	f := newFixture(t)
	p := f.payload("Fix bug")
	p.ID = "nope"
	_, err := f.tasks.Save(f.ctx, "", p)
	assert.True(t, apperr.IsNotFound(err))

	_, err = f.tasks.GetByID(f.ctx, "nope")
	assert.True(t, apperr.IsNotFound(err))
}

func TestActorAttribution(t *testing.T) {
	f := newFixture(t)
	task, err := f.tasks.Save(f.ctx, f.bob.ID, f.payload("Fix bug"))
	require.NoError(t, err)
	assert.Equal(t, f.bob.ID, task.ActivityLog[0].PerformedBy.ID)
	assert.Equal(t, f.alice.ID, task.Reporter.ID)

	p := f.payload("Renamed")
	p.ID = task.ID
	updated, err := f.tasks.Save(f.ctx, f.bob.ID, p)
	require.NoError(t, err)
	assert.Equal(t, f.bob.ID, updated.ActivityLog[1].PerformedBy.ID)

	_, err = f.tasks.Save(f.ctx, "ghost", p)
	assert.True(t, apperr.IsNotFound(err))
}

func TestCommentRequiresAssignees(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "Fix bug")

	_, err := f.comments.AddOrUpdate(f.ctx, "", task.ID, CommentInput{CommentText: "hello"})
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "No assignees found", ve.Message)

	stored, err := f.tasks.GetByID(f.ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Comments)
	assert.Len(t, stored.ActivityLog, 1)

	_, err = f.comments.AddOrUpdate(f.ctx, "", "nope", CommentInput{CommentText: "hello"})
	assert.True(t, apperr.IsNotFound(err))
}

func TestCommentLifecycle(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "Fix bug", f.bob.ID, f.alice.ID)

	_, err := f.comments.AddOrUpdate(f.ctx, "", task.ID, CommentInput{CommentText: " "})
	assert.True(t, apperr.IsValidation(err))

	c, err := f.comments.AddOrUpdate(f.ctx, "", task.ID, CommentInput{CommentText: "first"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, f.bob.ID, c.CreatedBy.ID)
	other, err := f.comments.AddOrUpdate(f.ctx, f.alice.ID, task.ID, CommentInput{CommentText: "second"})
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, other.CreatedBy.ID)

	edited, err := f.comments.AddOrUpdate(f.ctx, "", task.ID, CommentInput{ID: c.ID, CommentText: "first, edited"})
	require.NoError(t, err)
	assert.Equal(t, "first, edited", edited.CommentText)
	require.NotNil(t, edited.UpdatedAt)

	_, err = f.comments.AddOrUpdate(f.ctx, "", task.ID, CommentInput{ID: "missing", CommentText: "x"})
	assert.True(t, apperr.IsNotFound(err))

	removed, err := f.comments.Delete(f.ctx, "", task.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "first, edited", removed.CommentText)

	_, err = f.comments.Delete(f.ctx, "", task.ID, c.ID)
	assert.True(t, apperr.IsNotFound(err))

	stored, err := f.tasks.GetByID(f.ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, stored.Comments, 1)
	assert.Equal(t, other.ID, stored.Comments[0].ID)
	assert.Equal(t, []models.ActivityAction{
		models.ActionTaskCreated, models.ActionCommented, models.ActionCommented,
		models.ActionEditedComment, models.ActionDeletedComment,
	}, actions(stored))

	edit := stored.ActivityLog[3]
	assert.Equal(t, "first", *edit.Previous)
	assert.Equal(t, "first, edited", *edit.Current)
	del := stored.ActivityLog[4]
	assert.Equal(t, "first, edited", *del.Previous)
	assert.Nil(t, del.Current)
	assert.Equal(t, f.bob.ID, del.PerformedBy.ID)
}

func TestDeleteCommentAfterAssigneesCleared(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "Fix bug", f.bob.ID)
	c, err := f.comments.AddOrUpdate(f.ctx, "", task.ID, CommentInput{CommentText: "stale"})
	require.NoError(t, err)

	p := f.payload("Fix bug")
	p.ID = task.ID
	_, err = f.tasks.Save(f.ctx, "", p)
	require.NoError(t, err)

	_, err = f.comments.Delete(f.ctx, "", task.ID, c.ID)
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "No assignees found", ve.Message)

	removed, err := f.comments.Delete(f.ctx, f.alice.ID, task.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "stale", removed.CommentText)

	stored, err := f.tasks.GetByID(f.ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Comments)
	last := stored.ActivityLog[len(stored.ActivityLog)-1]
	assert.Equal(t, models.ActionDeletedComment, last.Action)
	assert.Equal(t, f.alice.ID, last.PerformedBy.ID)

	_, err = f.comments.AddOrUpdate(f.ctx, f.alice.ID, task.ID, CommentInput{CommentText: "again"})
	assert.True(t, apperr.IsValidation(err))
}

func TestListPaging(t *testing.T) {
	f := newFixture(t)
	var ids []string
	for _, title := range []string{"one", "two", "three", "four", "five"} {
		ids = append(ids, f.create(t, title).ID)
	}

	page, err := f.tasks.List(f.ctx, 2, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[2], page.Items[0].ID)
	assert.Equal(t, ids[1], page.Items[1].ID)

	page, err = f.tasks.List(f.ctx, 0, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 12, page.PageSize)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, ids[4], page.Items[0].ID)

	page, err = f.tasks.List(f.ctx, 1, 1000, nil)
	require.NoError(t, err)
	assert.Equal(t, 100, page.PageSize)

	page, err = f.tasks.List(f.ctx, 9, 2, nil)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(5), page.Total)

	page, err = f.tasks.List(f.ctx, math.MaxInt/2, 12, nil)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, math.MaxInt/2, page.Page)

	todo := models.StatusTodo
	page, err = f.tasks.List(f.ctx, 1, 10, &todo)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
}

func TestPendingDueAndCounts(t *testing.T) {
	f := newFixture(t)
	past := base.Add(-24 * time.Hour)
	future := base.Add(24 * time.Hour)

	overdue := f.payload("overdue")
	overdue.DueDate = &past
	_, err := f.tasks.Save(f.ctx, "", overdue)
	require.NoError(t, err)

	later := f.payload("later")
	later.DueDate = &future
	_, err = f.tasks.Save(f.ctx, "", later)
	require.NoError(t, err)

	finished := f.payload("finished")
	finished.DueDate = &past
	finished.Status = models.StatusDone
	_, err = f.tasks.Save(f.ctx, "", finished)
	require.NoError(t, err)

	f.create(t, "undated")

	pending, err := f.tasks.ListPending(f.ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	due, err := f.tasks.ListDue(f.ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "overdue", due[0].Title)

	counts, err := f.tasks.StatusCounts(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.StatusCount{
		{Status: models.StatusTodo, Name: "Todo", Count: 3},
		{Status: models.StatusInProgress, Name: "InProgress", Count: 0},
		{Status: models.StatusDone, Name: "Done", Count: 1},
	}, counts)
}

func TestMutationsNotify(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "Fix bug", f.bob.ID)
	_, err := f.comments.AddOrUpdate(f.ctx, "", task.ID, CommentInput{CommentText: "hi"})
	require.NoError(t, err)

	p := f.payload("Fix bug", f.bob.ID)
	p.ID = task.ID
	_, err = f.tasks.Save(f.ctx, "", p)
	require.NoError(t, err)

	require.Len(t, f.notes.events, 2)
	assert.Equal(t, models.ActionTaskCreated, f.notes.events[0].Activities[0].Action)
	assert.Equal(t, models.ActionCommented, f.notes.events[1].Activities[0].Action)
	assert.Len(t, f.notes.events[1].Task.Comments, 1)
}

func TestDirectoryValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.dir.CreateProject(f.ctx, " ")
	assert.True(t, apperr.IsValidation(err))
	_, err = f.dir.CreateUser(f.ctx, "")
	assert.True(t, apperr.IsValidation(err))

	users, err := f.dir.ListUsers(f.ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "Alice", users[0].Name)
	projects, err := f.dir.ListProjects(f.ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}
