package database

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/event"
)

// commandLogger logs every mongo command with its duration when database.debug is on.
func commandLogger() *event.CommandMonitor {
	return &event.CommandMonitor{
		Succeeded: func(_ context.Context, e *event.CommandSucceededEvent) {
			log.Printf("[db][mongo] %s ok in %s", e.CommandName, e.Duration)
		},
		Failed: func(_ context.Context, e *event.CommandFailedEvent) {
			log.Printf("[db][mongo][err] %s failed in %s: %s", e.CommandName, e.Duration, e.Failure)
		},
	}
}
