package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"civicproof/internal/ratelimit/metrics"
	"civicproof/internal/ratelimit/models"
	"civicproof/internal/ratelimit/store/memory"
	"civicproof/pkg/platform/audit"
	"civicproof/pkg/platform/circuit"
	"civicproof/pkg/platform/httputil"
	"civicproof/pkg/platform/middleware/metadata"
	"civicproof/pkg/requestcontext"
)

// Store counts hits in fixed windows.
type Store interface {
	Hit(ctx context.Context, key string, limit models.Limit) (*models.Result, error)
}

// DefaultLimits mirror the production budgets.
var DefaultLimits = map[models.Class]models.Limit{
	models.ClassStrict:   {Requests: 10, Window: time.Hour},
	models.ClassStandard: {Requests: 100, Window: 15 * time.Minute},
}

type Middleware struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	limits   map[models.Class]models.Limit
	logger   *slog.Logger
	recorder audit.Recorder
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithFallback(s Store) Option {
	return func(m *Middleware) {
		m.fallback = s
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(m *Middleware) {
		m.breaker = b
	}
}

func WithLimit(class models.Class, limit models.Limit) Option {
	return func(m *Middleware) {
		if limit.Requests > 0 && limit.Window > 0 {
			m.limits[class] = limit
		}
	}
}

func WithAuditRecorder(r audit.Recorder) Option {
	return func(m *Middleware) {
		m.recorder = r
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

// New builds the middleware. A nil primary store runs on the in-memory
// fallback alone.
func New(primary Store, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		primary: primary,
		logger:  logger,
		limits:  make(map[models.Class]models.Limit, len(DefaultLimits)),
	}
	for class, limit := range DefaultLimits {
		m.limits[class] = limit
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fallback == nil {
		m.fallback = memory.New()
	}
	if m.breaker == nil {
		m.breaker = circuit.New("ratelimit")
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Limit returns middleware enforcing the class budget per client IP.
func (m *Middleware) Limit(class models.Class) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			if ip == "" {
				ip = metadata.ClientIPFromRequest(r)
			}

			result, degraded, err := m.check(ctx, models.Key(class, ip), m.limits[class])
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit", "error", err, "class", class)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if degraded {
				w.Header().Set("X-RateLimit-Status", "degraded")
			}
			m.metrics.IncCheck(string(class), result.Allowed)

			if !result.Allowed {
				m.recordLimited(r, class, ip, result)
				writeRateLimitExceeded(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// check consults the primary store and falls back to memory while the
// breaker is open or the primary fails.
func (m *Middleware) check(ctx context.Context, key string, limit models.Limit) (*models.Result, bool, error) {
	if m.primary == nil {
		res, err := m.fallback.Hit(ctx, key, limit)
		return res, false, err
	}

	res, err := m.primary.Hit(ctx, key, limit)
	if err != nil {
		m.metrics.IncStoreError()
		_, change := m.breaker.RecordFailure()
		if change.Opened {
			m.logger.WarnContext(ctx, "rate limit store circuit opened", "error", err)
			m.metrics.SetDegraded(true)
		}
		return m.fromFallback(ctx, key, limit)
	}

	usePrimary, change := m.breaker.RecordSuccess()
	if change.Closed {
		m.logger.InfoContext(ctx, "rate limit store circuit closed")
		m.metrics.SetDegraded(false)
	}
	if !usePrimary {
		return m.fromFallback(ctx, key, limit)
	}
	return res, false, nil
}

func (m *Middleware) fromFallback(ctx context.Context, key string, limit models.Limit) (*models.Result, bool, error) {
	m.metrics.IncFallback()
	res, err := m.fallback.Hit(ctx, key, limit)
	return res, true, err
}

func (m *Middleware) recordLimited(r *http.Request, class models.Class, ip string, result *models.Result) {
	ctx := r.Context()
	m.logger.WarnContext(ctx, "rate limit exceeded",
		"class", class,
		"report_id", chi.URLParam(r, "reportID"),
		"retry_after", result.RetryAfter,
		"request_id", requestcontext.RequestID(ctx),
	)
	if m.recorder == nil {
		return
	}
	m.recorder.Record(ctx, audit.Event{
		Action:         audit.ActionRateLimited,
		ReportID:       chi.URLParam(r, "reportID"),
		SubmitterID:    requestcontext.WorkerID(ctx),
		SubmitterEmail: requestcontext.WorkerEmail(ctx),
		Reason:         fmt.Sprintf("Rate limit exceeded: %d %s requests per %s", result.Limit, class, m.limits[class].Window),
		Severity:       audit.SeverityMedium,
		Mode:           string(class),
		IP:             ip,
		UserAgent:      requestcontext.UserAgent(ctx),
		RequestID:      requestcontext.RequestID(ctx),
	})
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many resolution attempts. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
