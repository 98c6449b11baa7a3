package oracle

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Adapter wraps a Client with prompt selection, parsing and fail-closed fallback.
type Adapter struct {
	client  Client
	logger  *slog.Logger
	metrics *Metrics
	timeout time.Duration
}

type AdapterOption func(*Adapter)

func WithLogger(l *slog.Logger) AdapterOption {
	return func(a *Adapter) { a.logger = l }
}

func WithMetrics(m *Metrics) AdapterOption {
	return func(a *Adapter) { a.metrics = m }
}

func WithCallTimeout(d time.Duration) AdapterOption {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAdapter builds an adapter. A nil client disables the oracle; every call then
// returns the fallback verdict.
func NewAdapter(client Client, opts ...AdapterOption) *Adapter {
	a := &Adapter{client: client, logger: slog.Default(), timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Verify always returns a usable verdict. The error is non-nil only for
// ErrInvalidCredentials and ErrQuotaExceeded, alongside the fallback.
func (a *Adapter) Verify(ctx context.Context, req Request) (Verdict, error) {
	mode := req.Mode
	if mode != ModeStrict {
		mode = ModeStandard
	}
	start := time.Now()

	if a.client == nil {
		a.metrics.observe(mode, "disabled", 0)
		return Fallback(mode), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.client.Generate(callCtx, Prompt(mode, req.IssueType), req.Before, req.After)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			a.metrics.observe(mode, "invalid_credentials", elapsed)
			a.logger.ErrorContext(ctx, "oracle rejected credentials", "mode", mode, "error", err)
			return Fallback(mode), err
		case errors.Is(err, ErrQuotaExceeded):
			a.metrics.observe(mode, "quota_exceeded", elapsed)
			a.logger.ErrorContext(ctx, "oracle quota exhausted", "mode", mode, "error", err)
			return Fallback(mode), err
		case errors.Is(err, context.DeadlineExceeded):
			a.metrics.observe(mode, "timeout", elapsed)
		default:
			a.metrics.observe(mode, "transport_error", elapsed)
		}
		a.logger.WarnContext(ctx, "oracle call failed, using fallback verdict", "mode", mode, "error", err)
		return Fallback(mode), nil
	}

	res := Parse(mode, raw)
	if !res.OK() {
		a.metrics.observe(mode, res.Kind.String(), elapsed)
		a.logger.WarnContext(ctx, "oracle answer rejected, using fallback verdict",
			"mode", mode, "kind", res.Kind.String(), "error", res.Err)
		return Fallback(mode), nil
	}
	a.metrics.observe(mode, "ok", elapsed)
	return res.Verdict, nil
}
