package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	ping func(ctx context.Context) error
}

func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

// GET /healthz
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.ping(ctx); err != nil {
		log.Printf("[health][err] %v", err)
		c.JSON(http.StatusServiceUnavailable, Response{Status: false, Message: "unavailable"})
		return
	}
	c.JSON(http.StatusOK, Response{Status: true, Message: "ok"})
}
