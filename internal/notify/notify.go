// Package notify fans task activity out to chat, mail and the live feed once a mutation has
// been stored. Delivery failures are logged and never reach the caller of the mutation.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskfigma/internal/models"
)

// Event carries the task as stored after the mutation and the entries it appended.
type Event struct {
	Task       *models.Task
	Activities []models.Activity
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Line renders one activity entry as "<performer> <verb>: <previous> -> <current>".
func Line(a models.Activity) string {
	var b strings.Builder
	name := a.PerformedBy.Name
	if name == "" {
		name = a.PerformedBy.ID
	}
	b.WriteString(name)
	b.WriteString(" ")
	b.WriteString(a.Action.Display())
	switch {
	case a.Previous != nil && a.Current != nil:
		fmt.Fprintf(&b, ": %s -> %s", *a.Previous, *a.Current)
	case a.Current != nil:
		fmt.Fprintf(&b, ": %s", *a.Current)
	case a.Previous != nil:
		fmt.Fprintf(&b, ": %s (removed)", *a.Previous)
	}
	return b.String()
}

// Subject is the short heading used by chat and mail messages.
func Subject(t *models.Task) string {
	if t == nil {
		return "task update"
	}
	if t.Alias == "" {
		return t.Title
	}
	return fmt.Sprintf("%s %s", t.Alias, t.Title)
}
