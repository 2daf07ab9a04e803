package realtime

import (
	"context"
	"log"
	"sync"

	"taskfigma/internal/models"
	"taskfigma/internal/notify"
)

// FeedMessage is one activity entry pushed to the subscribers of a task.
type FeedMessage struct {
	TaskID   string          `json:"taskId"`
	Alias    string          `json:"alias"`
	Version  int64           `json:"version"`
	Activity models.Activity `json:"activity"`
}

// Hub keeps the websocket subscribers of each task and implements notify.Notifier.
type Hub struct {
	mu    sync.RWMutex
	feeds map[string]map[*Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		feeds: make(map[string]map[*Conn]struct{}),
	}
}

func (h *Hub) Register(taskID string, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.feeds[taskID] == nil {
		h.feeds[taskID] = make(map[*Conn]struct{})
	}
	h.feeds[taskID][conn] = struct{}{}
}

func (h *Hub) Unregister(taskID string, conn *Conn) {
	h.mu.Lock()
	if conns, ok := h.feeds[taskID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.feeds, taskID)
		}
	}
	h.mu.Unlock()
	_ = conn.Close()
}

// Subscribers reports how many connections follow the task.
func (h *Hub) Subscribers(taskID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.feeds[taskID])
}

func (h *Hub) Notify(_ context.Context, ev notify.Event) error {
	if ev.Task == nil {
		return nil
	}
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.feeds[ev.Task.ID]))
	for conn := range h.feeds[ev.Task.ID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		for _, a := range ev.Activities {
			msg := FeedMessage{TaskID: ev.Task.ID, Alias: ev.Task.Alias, Version: ev.Task.Version, Activity: a}
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("[feed][drop] task=%s: %v", ev.Task.ID, err)
				h.Unregister(ev.Task.ID, conn)
				break
			}
		}
	}
	return nil
}
