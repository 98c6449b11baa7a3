package verification

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/blake2b"

	"civicproof/internal/exif"
	"civicproof/internal/geo"
	"civicproof/internal/imagefetch"
	"civicproof/internal/verification/metrics"
	"civicproof/internal/verification/models"
	"civicproof/internal/verification/ports"
	dErrors "civicproof/pkg/domain-errors"
	"civicproof/pkg/platform/audit"
	"civicproof/pkg/platform/sentinel"
	"civicproof/pkg/requestcontext"
)

const (
	defaultMaxUploadBytes = 5 << 20
	defaultSuspiciousList = 50
	maxListLimit          = 500
)

// Config tunes the pipeline. Zero values take defaults.
type Config struct {
	MaxUploadBytes      int64
	DuplicateFailClosed bool
	RiskWindow          time.Duration
	RiskMaxCount        int
	RiskMinScore        int
}

func (c Config) withDefaults() Config {
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.RiskWindow <= 0 {
		c.RiskWindow = 24 * time.Hour
	}
	if c.RiskMaxCount <= 0 {
		c.RiskMaxCount = 5
	}
	if c.RiskMinScore <= 0 {
		c.RiskMinScore = 30
	}
	return c
}

// Command is one resolution attempt.
type Command struct {
	Mode        models.Mode
	ReportID    string
	WorkerID    string
	WorkerEmail string
	Latitude    *float64
	Longitude   *float64
	Image       []byte
}

// Service runs the verification pipeline.
type Service struct {
	reports     ports.ReportStore
	submissions ports.SubmissionStore
	objects     ports.ObjectStore
	fetcher     ports.ImageFetcher
	comparator  ports.ImageComparator
	oracle      ports.Oracle
	workers     ports.WorkerDirectory
	auditor     audit.Recorder
	auditReader audit.Reader
	guard       *Guard
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	config      Config
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithWorkerDirectory(d ports.WorkerDirectory) Option {
	return func(s *Service) {
		s.workers = d
	}
}

func WithAuditRecorder(r audit.Recorder) Option {
	return func(s *Service) {
		s.auditor = r
	}
}

func WithAuditReader(r audit.Reader) Option {
	return func(s *Service) {
		s.auditReader = r
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(
	reports ports.ReportStore,
	submissions ports.SubmissionStore,
	objects ports.ObjectStore,
	fetcher ports.ImageFetcher,
	comparator ports.ImageComparator,
	oracle ports.Oracle,
	opts ...Option,
) (*Service, error) {
	switch {
	case reports == nil:
		return nil, errors.New("report store is required")
	case submissions == nil:
		return nil, errors.New("submission store is required")
	case objects == nil:
		return nil, errors.New("object store is required")
	case fetcher == nil:
		return nil, errors.New("image fetcher is required")
	case comparator == nil:
		return nil, errors.New("image comparator is required")
	case oracle == nil:
		return nil, errors.New("oracle is required")
	}

	svc := &Service{
		reports:     reports,
		submissions: submissions,
		objects:     objects,
		fetcher:     fetcher,
		comparator:  comparator,
		oracle:      oracle,
		logger:      slog.Default(),
		tracer:      otel.Tracer("civicproof/verification"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.config = svc.config.withDefaults()
	svc.guard = NewGuard(submissions, svc.logger, svc.metrics, svc.config.DuplicateFailClosed)
	return svc, nil
}

// submitter is the authorized identity behind a command.
type submitter struct {
	id    string
	email string
}

// Verify evaluates one resolution attempt end to end. Rejections before
// evaluation return a coded error; an evaluated attempt returns a Result even
// when it is marked suspicious.
func (s *Service) Verify(ctx context.Context, cmd Command) (*models.Result, error) {
	start := time.Now()
	cfg := ConfigFor(cmd.Mode)
	mode := string(cfg.Mode)
	cmd.Mode = cfg.Mode

	ctx, span := s.tracer.Start(ctx, "verification.verify", trace.WithAttributes(
		attribute.String("report_id", cmd.ReportID),
		attribute.String("mode", mode),
	))
	defer span.End()

	live, mime, err := s.validate(cmd)
	if err != nil {
		return nil, s.reject(ctx, span, cmd, cmd.WorkerID, "validation", audit.ActionValidationFailed, audit.SeverityLow, err)
	}

	who, err := s.authorize(ctx, cmd)
	if err != nil {
		return nil, s.reject(ctx, span, cmd, cmd.WorkerID, "unauthorized", audit.ActionUnauthorized, audit.SeverityHigh, err)
	}

	report, err := s.loadReport(ctx, cfg, cmd.ReportID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnavailable) {
			span.SetStatus(codes.Error, "report lookup failed")
			return nil, err
		}
		return nil, s.reject(ctx, span, cmd, who.id, string(dErrors.CodeOf(err)), audit.ActionValidationFailed, audit.SeverityLow, err)
	}

	key := models.SubmitterKey(cfg.Mode, who.id, who.email)
	if err := s.guard.Check(ctx, report.ID, key); err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil, s.reject(ctx, span, cmd, who.id, "duplicate", audit.ActionDuplicateSubmission, audit.SeverityMedium, err)
		}
		span.SetStatus(codes.Error, "duplicate guard unavailable")
		return nil, err
	}

	now := requestcontext.Now(ctx)
	md := exif.Extract(cmd.Image)

	objectKey, afterURL, err := s.upload(ctx, who.id, mime, cmd.Image)
	if err != nil {
		s.systemError(ctx, cmd, who.id, "after image upload failed", err)
		span.SetStatus(codes.Error, "upload failed")
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to upload after image")
	}

	sig := s.gatherSignals(ctx, cfg, report, afterURL)
	sig.ReportLocation = report.Location
	sig.Live = live
	sig.Exif = md
	sig.Now = now

	decision := Evaluate(cfg, sig)
	span.SetAttributes(
		attribute.String("status", string(decision.Status)),
		attribute.Int("score", decision.Score),
	)

	if !decision.Verified() {
		s.record(ctx, cmd, who.id, audit.ActionSuspiciousResolution, decision.Severity, decision.Reason(), decision.Score)
	}

	sub := buildSubmission(cmd, who, key, afterURL, cmd.Image, sig, decision, now)
	if err := s.persist(ctx, sub); err != nil {
		s.discardObject(ctx, objectKey)
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, s.reject(ctx, span, cmd, who.id, "duplicate", audit.ActionDuplicateSubmission, audit.SeverityMedium, ErrDuplicate)
		}
		s.systemError(ctx, cmd, who.id, "failed to save verification results", err)
		span.SetStatus(codes.Error, "persist failed")
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to save verification results")
	}

	reportStatus := decision.Status.ReportStatus()
	if err := s.reports.UpdateStatus(ctx, report.ID, reportStatus); err != nil {
		s.systemError(ctx, cmd, who.id, "failed to update report status", err)
		span.SetStatus(codes.Error, "report status update failed")
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to update report status")
	}

	elapsed := time.Since(start)
	s.metrics.ObserveDecision(mode, string(decision.Status), decision.Score)
	s.metrics.ObserveDuration(mode, elapsed)
	s.logger.InfoContext(ctx, "resolution evaluated",
		"request_id", requestcontext.RequestID(ctx),
		"report_id", report.ID,
		"submission_id", sub.ID,
		"mode", mode,
		"status", decision.Status,
		"score", decision.Score,
		"flags", len(decision.Flags),
		"duration_ms", elapsed.Milliseconds(),
	)

	return &models.Result{
		SubmissionID:     sub.ID,
		ReportID:         report.ID,
		Mode:             cfg.Mode,
		Status:           decision.Status,
		ReportStatus:     reportStatus,
		Score:            decision.Score,
		Severity:         decision.Severity,
		Flags:            decision.Messages(),
		Breakdown:        buildBreakdown(cfg, sig, decision),
		ProcessingTimeMS: elapsed.Milliseconds(),
		CreatedAt:        sub.CreatedAt,
	}, nil
}

// -----------------------------------------------------------------------------
// Pre-evaluation checks
// -----------------------------------------------------------------------------

func (s *Service) validate(cmd Command) (geo.Point, string, error) {
	if strings.TrimSpace(cmd.ReportID) == "" {
		return geo.Point{}, "", dErrors.New(dErrors.CodeValidation, "report id is required")
	}
	if cmd.Mode == models.ModeStrict {
		if !strings.Contains(strings.TrimSpace(cmd.WorkerEmail), "@") {
			return geo.Point{}, "", dErrors.New(dErrors.CodeValidation, "valid worker email is required")
		}
	} else if cmd.WorkerID == "" {
		return geo.Point{}, "", dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if len(cmd.Image) == 0 {
		return geo.Point{}, "", dErrors.New(dErrors.CodeValidation, "after image is required")
	}
	if int64(len(cmd.Image)) > s.config.MaxUploadBytes {
		return geo.Point{}, "", dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("image exceeds the %d MB limit", s.config.MaxUploadBytes>>20))
	}
	mime := imagefetch.SniffMIME(cmd.Image)
	if mime != "image/jpeg" && mime != "image/png" {
		return geo.Point{}, "", dErrors.New(dErrors.CodeValidation, "only JPEG and PNG images are accepted")
	}
	if cmd.Latitude == nil || cmd.Longitude == nil {
		return geo.Point{}, "", dErrors.New(dErrors.CodeValidation, "GPS coordinates (latitude, longitude) are required")
	}
	live := geo.Point{Lat: *cmd.Latitude, Lng: *cmd.Longitude}
	if err := live.Validate(); err != nil {
		return geo.Point{}, "", dErrors.Wrap(err, dErrors.CodeValidation, "GPS coordinates out of valid range")
	}
	return live, mime, nil
}

func (s *Service) authorize(ctx context.Context, cmd Command) (submitter, error) {
	if cmd.Mode != models.ModeStrict {
		return submitter{id: cmd.WorkerID, email: cmd.WorkerEmail}, nil
	}
	email := strings.ToLower(strings.TrimSpace(cmd.WorkerEmail))
	if s.workers == nil {
		return submitter{}, dErrors.New(dErrors.CodeForbidden, "worker directory unavailable")
	}
	w, err := s.workers.Authorize(ctx, email)
	if err != nil {
		s.logger.WarnContext(ctx, "worker authorization failed",
			"request_id", requestcontext.RequestID(ctx),
			"report_id", cmd.ReportID,
			"error", err,
		)
		return submitter{}, dErrors.Wrap(err, dErrors.CodeForbidden, "unauthorized worker")
	}
	if w == nil {
		return submitter{}, dErrors.New(dErrors.CodeForbidden, "unauthorized worker")
	}
	return submitter{id: w.ID, email: email}, nil
}

func (s *Service) loadReport(ctx context.Context, cfg ModeConfig, id string) (*models.IssueReport, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "report not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load report")
	}
	if !report.Status.AcceptsResolution() {
		return nil, dErrors.New(dErrors.CodeValidation, "report has already been "+string(report.Status))
	}
	if report.BeforeImageURL == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "original report has no before image for comparison")
	}
	if report.Location == nil && cfg.RequireReportLocation {
		return nil, dErrors.New(dErrors.CodeValidation, "original report has no GPS coordinates for verification")
	}
	return report, nil
}

// -----------------------------------------------------------------------------
// Signal gathering
// -----------------------------------------------------------------------------

func (s *Service) upload(ctx context.Context, submitterID, mime string, data []byte) (string, string, error) {
	ctx, span := s.tracer.Start(ctx, "verification.upload")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveSignal("upload", time.Since(start)) }()

	key := ObjectKey(submitterID, uuid.New(), mime)
	url, err := s.objects.Put(ctx, key, mime, data)
	if err != nil {
		span.RecordError(err)
		return "", "", err
	}
	return key, url, nil
}

// ObjectKey names an uploaded after-image: {submitterID}/{uuid}.{ext}.
func ObjectKey(submitterID string, id uuid.UUID, mime string) string {
	ext := "jpg"
	if mime == "image/png" {
		ext = "png"
	}
	if submitterID == "" {
		submitterID = "anonymous"
	}
	return fmt.Sprintf("%s/%s.%s", submitterID, id, ext)
}

func (s *Service) discardObject(ctx context.Context, key string) {
	if err := s.objects.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to delete orphaned after image", "key", key, "error", err)
	}
}

func (s *Service) persist(ctx context.Context, sub *models.Submission) error {
	ctx, span := s.tracer.Start(ctx, "verification.persist")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveSignal("persist", time.Since(start)) }()

	if err := s.submissions.Save(ctx, sub); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------
// Audit side channel
// -----------------------------------------------------------------------------

func (s *Service) reject(ctx context.Context, span trace.Span, cmd Command, submitterID, reason string,
	action audit.Action, severity audit.Severity, err error) error {
	s.metrics.IncRejection(string(cmd.Mode), reason)
	span.SetAttributes(attribute.String("rejection", reason))
	msg := err.Error()
	if de, ok := dErrors.As(err); ok {
		msg = de.Msg
	}
	s.record(ctx, cmd, submitterID, action, severity, msg, 0)
	s.logger.InfoContext(ctx, "resolution rejected",
		"request_id", requestcontext.RequestID(ctx),
		"report_id", cmd.ReportID,
		"mode", cmd.Mode,
		"reason", reason,
		"error", err,
	)
	return err
}

func (s *Service) systemError(ctx context.Context, cmd Command, submitterID, msg string, err error) {
	s.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"report_id", cmd.ReportID,
		"error", err,
	)
	s.record(ctx, cmd, submitterID, audit.ActionSystemError, audit.SeverityHigh, "System error: "+msg, 0)
}

func (s *Service) record(ctx context.Context, cmd Command, submitterID string, action audit.Action,
	severity audit.Severity, reason string, score int) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, audit.Event{
		Timestamp:      requestcontext.Now(ctx),
		Action:         action,
		ReportID:       cmd.ReportID,
		SubmitterID:    submitterID,
		SubmitterEmail: strings.ToLower(strings.TrimSpace(cmd.WorkerEmail)),
		Reason:         reason,
		Score:          score,
		Severity:       severity,
		Mode:           string(cmd.Mode),
		IP:             requestcontext.ClientIP(ctx),
		UserAgent:      requestcontext.UserAgent(ctx),
		RequestID:      requestcontext.RequestID(ctx),
	})
}

// -----------------------------------------------------------------------------
// Read side
// -----------------------------------------------------------------------------

func (s *Service) ListByReport(ctx context.Context, reportID string) ([]*models.Submission, error) {
	if strings.TrimSpace(reportID) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "report id is required")
	}
	subs, err := s.submissions.ListByReport(ctx, reportID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list submissions")
	}
	return subs, nil
}

// ListSuspicious returns suspicious submissions ordered by score, highest first.
func (s *Service) ListSuspicious(ctx context.Context, limit int) ([]*models.Submission, error) {
	if limit <= 0 {
		limit = defaultSuspiciousList
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	subs, err := s.submissions.ListSuspicious(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list suspicious submissions")
	}
	return subs, nil
}

// WorkerRisk reports a worker's recent security events and whether their
// suspicious attempts within the risk window reach the configured threshold.
func (s *Service) WorkerRisk(ctx context.Context, email string) (*models.WorkerRisk, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "worker email is required")
	}
	if s.auditReader == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "security log unavailable")
	}
	events, err := s.auditReader.ListByWorker(ctx, email, 50)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read security log")
	}
	since := requestcontext.Now(ctx).Add(-s.config.RiskWindow)
	count, err := s.auditReader.CountSince(ctx, email, audit.ActionSuspiciousResolution, since, s.config.RiskMinScore)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read security log")
	}
	return &models.WorkerRisk{
		Email:           email,
		Events:          events,
		SuspiciousCount: count,
		Excessive:       count >= s.config.RiskMaxCount,
	}, nil
}

func digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
