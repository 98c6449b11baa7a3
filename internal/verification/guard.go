package verification

import (
	"context"
	"log/slog"

	"civicproof/internal/verification/metrics"
	"civicproof/internal/verification/ports"
	dErrors "civicproof/pkg/domain-errors"
)

// Guard rejects a second submission for the same (report, submitter). When the
// lookup itself fails the guard permits the submission unless FailClosed is set;
// the store's unique index still prevents a second row.
type Guard struct {
	store      ports.SubmissionStore
	logger     *slog.Logger
	metrics    *metrics.Metrics
	failClosed bool
}

func NewGuard(store ports.SubmissionStore, logger *slog.Logger, m *metrics.Metrics, failClosed bool) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{store: store, logger: logger, metrics: m, failClosed: failClosed}
}

func (g *Guard) Check(ctx context.Context, reportID, submitterKey string) error {
	exists, err := g.store.Exists(ctx, reportID, submitterKey)
	if err != nil {
		g.metrics.IncGuardError()
		if g.failClosed {
			g.logger.ErrorContext(ctx, "duplicate check failed, rejecting submission",
				"report_id", reportID,
				"error", err,
			)
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "duplicate check unavailable")
		}
		g.logger.WarnContext(ctx, "duplicate check failed, permitting submission",
			"report_id", reportID,
			"error", err,
		)
		return nil
	}
	if exists {
		return ErrDuplicate
	}
	return nil
}
