package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskfigma/internal/apperr"
	"taskfigma/internal/middleware"
	"taskfigma/internal/models"
	"taskfigma/internal/pdf"
	"taskfigma/internal/realtime"
	"taskfigma/internal/services"
)

type TaskHandler struct {
	tasks    services.TaskService
	comments services.CommentService
	reports  pdf.Generator
	hub      *realtime.Hub
}

func NewTaskHandler(tasks services.TaskService, comments services.CommentService, reports pdf.Generator, hub *realtime.Hub) *TaskHandler {
	return &TaskHandler{tasks: tasks, comments: comments, reports: reports, hub: hub}
}

// POST /api/task/save
func (h *TaskHandler) Save(c *gin.Context) {
	actor := middleware.ActorID(c)
	var req models.TaskPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, "[task][save][bind]", bindError(err))
		return
	}
	log.Printf("[task][save] call by actor=%q id=%q project=%q title=%q", actor, req.ID, req.ProjectID, req.Title)

	task, err := h.tasks.Save(c.Request.Context(), actor, &req)
	if err != nil {
		fail(c, "[task][save]", err)
		return
	}
	log.Printf("[task][save][ok] id=%s alias=%s version=%d", task.ID, task.Alias, task.Version)
	ok(c, "Task saved successfully", task)
}

// GET /api/task/allTasks?page=&pageSize=&status=
func (h *TaskHandler) List(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		fail(c, "[task][list]", err)
		return
	}
	pageSize, err := queryInt(c, "pageSize", 0)
	if err != nil {
		fail(c, "[task][list]", err)
		return
	}
	var status *models.TaskStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		st, err := models.ParseTaskStatus(raw)
		if err != nil {
			fail(c, "[task][list]", apperr.Validation("status", err.Error()))
			return
		}
		status = &st
	}

	res, err := h.tasks.List(c.Request.Context(), page, pageSize, status)
	if err != nil {
		fail(c, "[task][list]", err)
		return
	}
	c.JSON(http.StatusOK, Response{
		Status:   true,
		Message:  "Tasks fetched successfully",
		Result:   res.Items,
		Total:    &res.Total,
		Page:     res.Page,
		PageSize: res.PageSize,
	})
}

// GET /api/task/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	task, err := h.tasks.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, "[task][get]", err)
		return
	}
	ok(c, "Task fetched successfully", task)
}

// POST /api/task/:id/comment
func (h *TaskHandler) Comment(c *gin.Context) {
	actor := middleware.ActorID(c)
	taskID := c.Param("id")
	var req services.CommentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, "[comment][save][bind]", bindError(err))
		return
	}
	log.Printf("[comment][save] call by actor=%q task=%s comment=%q", actor, taskID, req.ID)

	comment, err := h.comments.AddOrUpdate(c.Request.Context(), actor, taskID, req)
	if err != nil {
		fail(c, "[comment][save]", err)
		return
	}
	msg := "Comment added successfully"
	if req.ID != "" {
		msg = "Comment updated successfully"
	}
	ok(c, msg, comment)
}

// POST /api/task/:id/delete?commentId=
func (h *TaskHandler) DeleteComment(c *gin.Context) {
	actor := middleware.ActorID(c)
	taskID, commentID := c.Param("id"), c.Query("commentId")
	log.Printf("[comment][delete] call by actor=%q task=%s comment=%q", actor, taskID, commentID)

	comment, err := h.comments.Delete(c.Request.Context(), actor, taskID, commentID)
	if err != nil {
		fail(c, "[comment][delete]", err)
		return
	}
	ok(c, "Comment deleted successfully", comment)
}

// GET /api/task/pendingTask
func (h *TaskHandler) Pending(c *gin.Context) {
	tasks, err := h.tasks.ListPending(c.Request.Context())
	if err != nil {
		fail(c, "[task][pending]", err)
		return
	}
	ok(c, "Pending tasks fetched successfully", tasks)
}

// GET /api/task/dueTask
func (h *TaskHandler) Due(c *gin.Context) {
	tasks, err := h.tasks.ListDue(c.Request.Context())
	if err != nil {
		fail(c, "[task][due]", err)
		return
	}
	ok(c, "Due tasks fetched successfully", tasks)
}

// GET /api/task/status-counts
func (h *TaskHandler) StatusCounts(c *gin.Context) {
	counts, err := h.tasks.StatusCounts(c.Request.Context())
	if err != nil {
		fail(c, "[task][counts]", err)
		return
	}
	ok(c, "Status counts fetched successfully", counts)
}

// GET /api/task/:id/report
func (h *TaskHandler) Report(c *gin.Context) {
	task, err := h.tasks.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, "[task][report]", err)
		return
	}
	body, err := h.reports.RenderTask(task)
	if err != nil {
		fail(c, "[task][report]", err)
		return
	}
	name := task.Alias
	if name == "" {
		name = task.ID
	}
	log.Printf("[task][report][ok] id=%s bytes=%d", task.ID, len(body))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, name))
	c.Data(http.StatusOK, "application/pdf", body)
}

// GET /api/task/:id/feed (websocket)
func (h *TaskHandler) Feed(c *gin.Context) {
	task, err := h.tasks.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, "[task][feed]", err)
		return
	}
	conn, err := realtime.Upgrade(c.Writer, c.Request)
	if err != nil {
		fail(c, "[task][feed][upgrade]", apperr.Validation("", err.Error()))
		return
	}
	h.hub.Register(task.ID, conn)
	log.Printf("[task][feed] subscribed task=%s subscribers=%d", task.ID, h.hub.Subscribers(task.ID))
	defer h.hub.Unregister(task.ID, conn)
	_ = conn.Drain()
}
