package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "civicproof/pkg/platform/audit"
)

func TestWorkerDrainsUntilInboxClosed(t *testing.T) {
	inbox := make(chan audit.Event, 3)
	var got []string
	w := NewWorker(inbox, func(_ context.Context, e audit.Event) {
		got = append(got, e.ReportID)
	})

	inbox <- audit.Event{ReportID: "r1"}
	inbox <- audit.Event{ReportID: "r2"}
	close(inbox)

	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, []string{"r1", "r2"}, got)
}

func TestWorkerStopsOnCancel(t *testing.T) {
	inbox := make(chan audit.Event)
	w := NewWorker(inbox, func(context.Context, audit.Event) {})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Run(ctx), context.DeadlineExceeded)
}
