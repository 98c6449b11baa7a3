package worker

import (
	"context"

	audit "civicproof/pkg/platform/audit"
)

// DeliverFunc hands one event to its sinks. It must not return errors; delivery
// failures are the deliverer's concern.
type DeliverFunc func(ctx context.Context, event audit.Event)

// Worker consumes audit events from a channel until it is closed or ctx ends.
type Worker struct {
	inbox   <-chan audit.Event
	deliver DeliverFunc
}

func NewWorker(inbox <-chan audit.Event, deliver DeliverFunc) *Worker {
	return &Worker{inbox: inbox, deliver: deliver}
}

// Run blocks until the inbox is closed (returns nil) or ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.deliver(ctx, event)
		}
	}
}
