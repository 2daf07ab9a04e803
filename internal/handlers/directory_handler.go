package handlers

import (
	"github.com/gin-gonic/gin"

	"taskfigma/internal/services"
)

type DirectoryHandler struct {
	service services.DirectoryService
}

func NewDirectoryHandler(service services.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{service: service}
}

// GET /api/task/projects
func (h *DirectoryHandler) ListProjects(c *gin.Context) {
	projects, err := h.service.ListProjects(c.Request.Context())
	if err != nil {
		fail(c, "[project][list]", err)
		return
	}
	ok(c, "Projects fetched successfully", projects)
}

// POST /api/task/projects
func (h *DirectoryHandler) CreateProject(c *gin.Context) {
	var req struct {
		ProjectName string `json:"projectName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, "[project][create][bind]", bindError(err))
		return
	}
	p, err := h.service.CreateProject(c.Request.Context(), req.ProjectName)
	if err != nil {
		fail(c, "[project][create]", err)
		return
	}
	ok(c, "Project created successfully", p)
}

// GET /api/task/users
func (h *DirectoryHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		fail(c, "[user][list]", err)
		return
	}
	ok(c, "Users fetched successfully", users)
}

// POST /api/task/users
func (h *DirectoryHandler) CreateUser(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, "[user][create][bind]", bindError(err))
		return
	}
	u, err := h.service.CreateUser(c.Request.Context(), req.Name)
	if err != nil {
		fail(c, "[user][create]", err)
		return
	}
	ok(c, "User created successfully", u)
}
