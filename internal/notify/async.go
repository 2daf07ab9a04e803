package notify

import (
	"context"
	"log"
	"sync"
	"time"
)

const deliveryTimeout = 15 * time.Second

// Async queues events for a background worker so slow channels never hold up a request.
// Events are dropped when the queue is full.
type Async struct {
	next  Notifier
	queue chan Event
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAsync(next Notifier, size int) *Async {
	if size < 1 {
		size = 1
	}
	a := &Async{
		next:  next,
		queue: make(chan Event, size),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) Notify(_ context.Context, ev Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil
	}
	select {
	case a.queue <- ev:
	default:
		log.Printf("[notify][drop] queue full, task=%s", taskID(ev))
	}
	return nil
}

// Close stops accepting events and waits until the queued ones are delivered.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}

func (a *Async) run() {
	defer close(a.done)
	for ev := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		if err := a.next.Notify(ctx, ev); err != nil {
			log.Printf("[notify][err] task=%s: %v", taskID(ev), err)
		}
		cancel()
	}
}

func taskID(ev Event) string {
	if ev.Task == nil {
		return ""
	}
	return ev.Task.ID
}
