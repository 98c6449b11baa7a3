package verification

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"civicproof/internal/exif"
	"civicproof/internal/exif/exiftest"
	"civicproof/internal/geo"
	"civicproof/internal/imagefetch"
	"civicproof/internal/imagehash"
	"civicproof/internal/oracle"
	"civicproof/internal/verification/mocks"
	"civicproof/internal/verification/models"
	"civicproof/internal/verification/ports"
	dErrors "civicproof/pkg/domain-errors"
	"civicproof/pkg/platform/audit"
	"civicproof/pkg/platform/audit/publisher"
	auditmemory "civicproof/pkg/platform/audit/store/memory"
	"civicproof/pkg/platform/sentinel"
	"civicproof/pkg/requestcontext"
)

// =============================================================================
// Verification Service Test Suite
// =============================================================================
// The service orchestrates validation, authorization, the duplicate guard,
// upload, signal gathering, evaluation and persistence. Collaborators are
// mocked; audit records are captured with a synchronous publisher over the
// in-memory security log.

const (
	beforeURL = "https://reports.example/before/r-1.jpg"
	afterURL  = "https://objects.example/resolution-images/w-1/after.jpg"
)

type ServiceSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	reports     *mocks.MockReportStore
	submissions *mocks.MockSubmissionStore
	objects     *mocks.MockObjectStore
	fetcher     *mocks.MockImageFetcher
	comparator  *mocks.MockImageComparator
	oracle      *mocks.MockOracle
	workers     *mocks.MockWorkerDirectory
	auditLog    *auditmemory.InMemoryStore
	service     *Service
	ctx         context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.reports = mocks.NewMockReportStore(s.ctrl)
	s.submissions = mocks.NewMockSubmissionStore(s.ctrl)
	s.objects = mocks.NewMockObjectStore(s.ctrl)
	s.fetcher = mocks.NewMockImageFetcher(s.ctrl)
	s.comparator = mocks.NewMockImageComparator(s.ctrl)
	s.oracle = mocks.NewMockOracle(s.ctrl)
	s.workers = mocks.NewMockWorkerDirectory(s.ctrl)
	s.auditLog = auditmemory.NewInMemoryStore()
	s.service = s.newService()

	ctx := requestcontext.WithTime(context.Background(), engineNow)
	ctx = requestcontext.WithRequestID(ctx, "req-1")
	s.ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.7", "Mozilla/5.0 (Linux; Android 14)")
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) newService(opts ...Option) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	base := []Option{
		WithLogger(logger),
		WithWorkerDirectory(s.workers),
		WithAuditRecorder(publisher.NewPublisher(publisher.WithSink("memory", s.auditLog))),
		WithAuditReader(s.auditLog),
	}
	svc, err := New(s.reports, s.submissions, s.objects, s.fetcher, s.comparator, s.oracle, append(base, opts...)...)
	s.Require().NoError(err)
	return svc
}

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

func openReport() *models.IssueReport {
	loc := reportAt
	return &models.IssueReport{
		ID:             "r-1",
		Category:       "pothole",
		Location:       &loc,
		BeforeImageURL: beforeURL,
		Status:         models.ReportOpen,
	}
}

// geotagged returns a JPEG whose EXIF places it at p two hours before engineNow.
func (s *ServiceSuite) geotagged(p geo.Point) []byte {
	buf, err := exiftest.JPEG(exiftest.Tags{
		Make:             "Google",
		Model:            "Pixel 8",
		DateTimeOriginal: engineNow.Add(-2 * time.Hour).Format(exif.TimestampLayout),
		Lat:              exiftest.Float(p.Lat),
		Lng:              exiftest.Float(p.Lng),
	})
	s.Require().NoError(err)
	return buf
}

func (s *ServiceSuite) plainJPEG() []byte {
	var out bytes.Buffer
	s.Require().NoError(jpeg.Encode(&out, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil))
	return out.Bytes()
}

func strictCommand(img []byte, at geo.Point) Command {
	return Command{
		Mode:        models.ModeStrict,
		ReportID:    "r-1",
		WorkerEmail: " Crew@City.gov ",
		Latitude:    &at.Lat,
		Longitude:   &at.Lng,
		Image:       img,
	}
}

func standardCommand(img []byte, at geo.Point) Command {
	return Command{
		Mode:      models.ModeStandard,
		ReportID:  "r-1",
		WorkerID:  "w-7",
		Latitude:  &at.Lat,
		Longitude: &at.Lng,
		Image:     img,
	}
}

func fetchedPair() (imagefetch.Image, imagefetch.Image) {
	return imagefetch.Image{URL: beforeURL, Data: []byte("before"), MimeType: "image/jpeg"},
		imagefetch.Image{URL: afterURL, Data: []byte("after"), MimeType: "image/jpeg"}
}

func (s *ServiceSuite) expectAuthorized() {
	s.workers.EXPECT().Authorize(gomock.Any(), "crew@city.gov").
		Return(&ports.AuthorizedWorker{ID: "w-1", Email: "crew@city.gov", Name: "Field Crew"}, nil)
}

// expectPipeline wires the happy path from report lookup through signal gathering.
func (s *ServiceSuite) expectPipeline(key string, verdict oracle.Verdict) {
	before, after := fetchedPair()
	s.reports.EXPECT().FindByID(gomock.Any(), "r-1").Return(openReport(), nil)
	s.submissions.EXPECT().Exists(gomock.Any(), "r-1", key).Return(false, nil)
	s.objects.EXPECT().Put(gomock.Any(), gomock.Any(), "image/jpeg", gomock.Any()).Return(afterURL, nil)
	s.fetcher.EXPECT().Pair(gomock.Any(), beforeURL, afterURL).Return(before, after, nil)
	s.comparator.EXPECT().Compare(gomock.Any(), before.Data, after.Data).
		Return(imagehash.Comparison{Similarity: 60, Distance: 26})
	s.oracle.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(verdict, nil)
}

func (s *ServiceSuite) auditActions() []audit.Action {
	var out []audit.Action
	for _, e := range s.auditLog.All() {
		out = append(out, e.Action)
	}
	return out
}

// =============================================================================
// Constructor
// =============================================================================

func (s *ServiceSuite) TestNew() {
	s.Run("nil report store returns error", func() {
		_, err := New(nil, s.submissions, s.objects, s.fetcher, s.comparator, s.oracle)
		s.Require().Error(err)
		s.Contains(err.Error(), "report store is required")
	})

	s.Run("nil oracle returns error", func() {
		_, err := New(s.reports, s.submissions, s.objects, s.fetcher, s.comparator, nil)
		s.Require().Error(err)
		s.Contains(err.Error(), "oracle is required")
	})

	s.Run("zero config takes defaults", func() {
		svc, err := New(s.reports, s.submissions, s.objects, s.fetcher, s.comparator, s.oracle)
		s.Require().NoError(err)
		s.Equal(int64(5<<20), svc.config.MaxUploadBytes)
		s.Equal(24*time.Hour, svc.config.RiskWindow)
		s.Equal(5, svc.config.RiskMaxCount)
		s.Equal(30, svc.config.RiskMinScore)
	})
}

// =============================================================================
// Strict pipeline
// =============================================================================

func (s *ServiceSuite) TestStrictCleanSubmissionIsVerified() {
	live := north(reportAt, 5)
	s.expectAuthorized()
	s.expectPipeline("crew@city.gov", cleanVerdict())

	var saved *models.Submission
	s.submissions.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, sub *models.Submission) error {
			saved = sub
			return nil
		})
	s.reports.EXPECT().UpdateStatus(gomock.Any(), "r-1", models.ReportVerified).Return(nil)

	res, err := s.service.Verify(s.ctx, strictCommand(s.geotagged(live), live))
	s.Require().NoError(err)

	s.Equal(models.StatusVerified, res.Status)
	s.Equal(models.ReportVerified, res.ReportStatus)
	s.Zero(res.Score)
	s.Empty(res.Flags)
	s.True(res.Breakdown.Location.Passed)
	s.True(res.Breakdown.Exif.HasGPS)
	s.Equal("Google Pixel 8", res.Breakdown.Exif.Camera)
	s.Equal(20.0, res.Breakdown.Location.MaxMeters)

	s.Require().NotNil(saved)
	s.Equal(res.SubmissionID, saved.ID)
	s.Equal("w-1", saved.SubmitterID)
	s.Equal("crew@city.gov", saved.SubmitterKey)
	s.Equal(afterURL, saved.AfterImageURL)
	s.Len(saved.AfterImageDigest, 64)
	s.Require().NotNil(saved.ExifLatitude)
	s.InDelta(live.Lat, *saved.ExifLatitude, 1e-5)
	s.Equal(engineNow, saved.CreatedAt)
	s.Empty(s.auditLog.All(), "verified submissions leave no security record")
}

func (s *ServiceSuite) TestStrictSuspiciousSubmissionIsAudited() {
	live := north(reportAt, 50)
	verdict := cleanVerdict()
	verdict.FakeDetected = true
	s.expectAuthorized()
	s.expectPipeline("crew@city.gov", verdict)
	s.submissions.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	s.reports.EXPECT().UpdateStatus(gomock.Any(), "r-1", models.ReportSuspicious).Return(nil)

	// Photo taken at the report location, submitted from 50m away.
	res, err := s.service.Verify(s.ctx, strictCommand(s.geotagged(reportAt), live))
	s.Require().NoError(err)

	s.Equal(models.StatusSuspicious, res.Status)
	s.Equal(models.ReportSuspicious, res.ReportStatus)
	s.Equal(40+30+50, res.Score, "location, exif deviation and fake")
	s.Equal(audit.SeverityCritical, res.Severity)
	s.False(res.Breakdown.Location.Passed)

	events := s.auditLog.All()
	s.Require().Len(events, 1)
	e := events[0]
	s.Equal(audit.ActionSuspiciousResolution, e.Action)
	s.Equal(res.Score, e.Score)
	s.Equal(audit.SeverityCritical, e.Severity)
	s.Equal("crew@city.gov", e.SubmitterEmail)
	s.Equal("w-1", e.SubmitterID)
	s.Equal("203.0.113.7", e.IP)
	s.Equal("req-1", e.RequestID)
	s.Equal("strict", e.Mode)
	s.Contains(e.Reason, "Worker not at issue location")
}

func (s *ServiceSuite) TestFetchFailureUsesFallbackSignals() {
	live := north(reportAt, 5)
	s.expectAuthorized()
	s.reports.EXPECT().FindByID(gomock.Any(), "r-1").Return(openReport(), nil)
	s.submissions.EXPECT().Exists(gomock.Any(), "r-1", "crew@city.gov").Return(false, nil)
	s.objects.EXPECT().Put(gomock.Any(), gomock.Any(), "image/jpeg", gomock.Any()).Return(afterURL, nil)
	s.fetcher.EXPECT().Pair(gomock.Any(), beforeURL, afterURL).
		Return(imagefetch.Image{}, imagefetch.Image{}, imagefetch.ErrBadResponse)

	var saved *models.Submission
	s.submissions.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, sub *models.Submission) error {
			saved = sub
			return nil
		})
	s.reports.EXPECT().UpdateStatus(gomock.Any(), "r-1", models.ReportSuspicious).Return(nil)

	res, err := s.service.Verify(s.ctx, strictCommand(s.geotagged(live), live))
	s.Require().NoError(err)

	s.Equal(models.StatusSuspicious, res.Status)
	s.True(res.Breakdown.Image.Fallback)
	s.True(res.Breakdown.Oracle.Fallback)
	s.Require().NotNil(saved)
	s.Equal(imagehash.FallbackSimilarity, saved.ImageSimilarity)
	s.True(saved.AISuspicious)
	s.Equal(oracle.Fallback(oracle.ModeStrict).AnalysisSummary, saved.AISummary)
}

func (s *ServiceSuite) TestOraclePermanentFailureStillDecides() {
	live := north(reportAt, 5)
	before, after := fetchedPair()
	s.expectAuthorized()
	s.reports.EXPECT().FindByID(gomock.Any(), "r-1").Return(openReport(), nil)
	s.submissions.EXPECT().Exists(gomock.Any(), "r-1", "crew@city.gov").Return(false, nil)
	s.objects.EXPECT().Put(gomock.Any(), gomock.Any(), "image/jpeg", gomock.Any()).Return(afterURL, nil)
	s.fetcher.EXPECT().Pair(gomock.Any(), beforeURL, afterURL).Return(before, after, nil)
	s.comparator.EXPECT().Compare(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(imagehash.Comparison{Similarity: 60, Distance: 26})
	s.oracle.EXPECT().Verify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req oracle.Request) (oracle.Verdict, error) {
			s.Equal(oracle.ModeStrict, req.Mode)
			s.Equal("pothole", req.IssueType)
			return oracle.Fallback(req.Mode), oracle.ErrQuotaExceeded
		})
	s.submissions.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	s.reports.EXPECT().UpdateStatus(gomock.Any(), "r-1", models.ReportSuspicious).Return(nil)

	res, err := s.service.Verify(s.ctx, strictCommand(s.geotagged(live), live))
	s.Require().NoError(err)
	s.Equal(models.StatusSuspicious, res.Status)
	s.True(res.Breakdown.Oracle.Fallback)
}

// =============================================================================
// Standard pipeline
// =============================================================================

func (s *ServiceSuite) TestStandardCleanSubmissionIsVerified() {
	live := north(reportAt, 60)
	s.expectPipeline("w-7", cleanVerdict())
	s.submissions.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	s.reports.EXPECT().UpdateStatus(gomock.Any(), "r-1", models.ReportVerified).Return(nil)

	res, err := s.service.Verify(s.ctx, standardCommand(s.geotagged(live), live))
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, res.Status)
	s.Equal(models.ModeStandard, res.Mode)
}

func (s *ServiceSuite) TestStandardMissingExifGPSIsSuspicious() {
	live := north(reportAt, 10)
	s.expectPipeline("w-7", cleanVerdict())
	s.submissions.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	s.reports.EXPECT().UpdateStatus(gomock.Any(), "r-1", models.ReportSuspicious).Return(nil)

	res, err := s.service.Verify(s.ctx, standardCommand(s.plainJPEG(), live))
	s.Require().NoError(err)

	s.Equal(models.StatusSuspicious, res.Status)
	s.Equal(20, res.Score)
	s.Equal(audit.SeverityMedium, res.Severity)
	s.Equal([]audit.Action{audit.ActionSuspiciousResolution}, s.auditActions())
	s.Equal("w-7", s.auditLog.All()[0].SubmitterID)
}

// =============================================================================
// Rejections
// =============================================================================

func (s *ServiceSuite) TestValidation() {
	live := north(reportAt, 5)
	img := s.geotagged(live)
	badLat := 91.0

	tests := []struct {
		name   string
		mutate func(*Command)
		code   dErrors.Code
		msg    string
	}{
		{"missing report id", func(c *Command) { c.ReportID = " " }, dErrors.CodeValidation, "report id is required"},
		{"strict without email", func(c *Command) { c.WorkerEmail = "" }, dErrors.CodeValidation, "worker email is required"},
		{"standard without worker", func(c *Command) { c.Mode = models.ModeStandard; c.WorkerID = "" }, dErrors.CodeUnauthorized, "authentication required"},
		{"missing image", func(c *Command) { c.Image = nil }, dErrors.CodeValidation, "after image is required"},
		{"not an image", func(c *Command) { c.Image = []byte("%PDF-1.7 not a photo") }, dErrors.CodeValidation, "only JPEG and PNG"},
		{"missing coordinates", func(c *Command) { c.Longitude = nil }, dErrors.CodeValidation, "GPS coordinates (latitude, longitude) are required"},
		{"coordinates out of range", func(c *Command) { c.Latitude = &badLat }, dErrors.CodeValidation, "out of valid range"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			cmd := strictCommand(img, live)
			tt.mutate(&cmd)

			res, err := s.service.Verify(s.ctx, cmd)
			s.Nil(res)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, tt.code), "got %v", err)
			s.Contains(err.Error(), tt.msg)
		})
	}
	for _, a := range s.auditActions() {
		s.Equal(audit.ActionValidationFailed, a)
	}
	s.Len(s.auditLog.All(), len(tests))
}

func (s *ServiceSuite) TestOversizedImageIsRejected() {
	svc := s.newService(WithConfig(Config{MaxUploadBytes: 1 << 20}))
	live := north(reportAt, 5)
	big := append(s.plainJPEG(), make([]byte, 1<<20)...)

	_, err := svc.Verify(s.ctx, strictCommand(big, live))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Contains(err.Error(), "1 MB limit")
}

func (s *ServiceSuite) TestUnauthorizedWorker() {
	live := north(reportAt, 5)
	s.workers.EXPECT().Authorize(gomock.Any(), "crew@city.gov").Return(nil, sentinel.ErrNotFound)

	_, err := s.service.Verify(s.ctx, strictCommand(s.geotagged(live), live))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	events := s.auditLog.All()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionUnauthorized, events[0].Action)
	s.Equal(audit.SeverityHigh, events[0].Severity)
}

func (s *ServiceSuite) TestDirectoryReturningNoWorkerIsUnauthorized() {
	live := north(reportAt, 5)
	s.workers.EXPECT().Authorize(gomock.Any(), "crew@city.gov").Return(nil, nil)

	_, err := s.service.Verify(s.ctx, strictCommand(s.geotagged(live), live))
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestReportChecks() {
	live := north(reportAt, 5)

	s.Run("not found", func() {
		s.expectAuthorized()
		s.reports.EXPECT().FindByID(gomock.Any(), "r-1").Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Verify(s.ctx, strictCommand(s.geotagged(live), live))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("already verified", func() {
		report := openReport()
		report.Status = models.ReportVerified
		s.expectAuthorized()
		s.reports.EXPECT().FindByID(gomock.Any(), "r-1").Return(report, nil)

		_, err := s.service.Verify(s.ctx, strictCommand(s.geotagged(live), live))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "already been verified")
	})

	s.Run("strict report without location", func() {
		report := openReport()
		report.Location = nil
		s.expectAuthorized()
		s.reports.EXPECT().FindByID(gomock.Any(), "r-1").Return(report, nil)

		_, err := s.service.Verify(s.ctx, strictCommand(s.geotagged(live), live))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "no GPS coordinates")
	})

	s.Run("lookup failure is unavailable and not audited", func() {
		before := len(s.auditLog.All())
		s.expectAuthorized()
		s.reports.EXPECT().FindByID(gomock.Any(), "r-1").Return(nil, errors.New("connection reset"))

		_, err := s.service.Verify(s.ctx, strictCommand(s.geotagged(live), live))
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		s.Len(s.auditLog.All(), before)
	})
}

func (s *ServiceSuite) TestDuplicateFromGuard() {
	live := north(reportAt, 5)
	s.expectAuthorized()
	s.reports.EXPECT().FindByID(gomock.Any(), "r-1").Return(openReport(), nil)
	s.submissions.EXPECT().Exists(gomock.Any(), "r-1", "crew@city.gov").Return(true, nil)

	_, err := s.service.Verify(s.ctx, strictCommand(s.geotagged(live), live))
	s.Require().ErrorIs(err, ErrDuplicate)
	s.Equal([]audit.Action{audit.ActionDuplicateSubmission}, s.auditActions())
}

func (s *ServiceSuite) TestDuplicateFromStoreDiscardsUpload() {
	live := north(reportAt, 5)
	s.expectAuthorized()
	s.expectPipeline("crew@city.gov", cleanVerdict())

	var uploaded string
	s.objects.EXPECT().Delete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, key string) error {
			uploaded = key
			return nil
		})
	s.submissions.EXPECT().Save(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)

	_, err := s.service.Verify(s.ctx, strictCommand(s.geotagged(live), live))
	s.Require().ErrorIs(err, ErrDuplicate)
	s.Contains(uploaded, "w-1/")
	s.Contains(s.auditActions(), audit.ActionDuplicateSubmission)
}

func (s *ServiceSuite) TestSystemFailures() {
	live := north(reportAt, 5)

	s.Run("upload failure", func() {
		s.expectAuthorized()
		s.reports.EXPECT().FindByID(gomock.Any(), "r-1").Return(openReport(), nil)
		s.submissions.EXPECT().Exists(gomock.Any(), "r-1", "crew@city.gov").Return(false, nil)
		s.objects.EXPECT().Put(gomock.Any(), gomock.Any(), "image/jpeg", gomock.Any()).
			Return("", sentinel.ErrUnavailable)

		_, err := s.service.Verify(s.ctx, strictCommand(s.geotagged(live), live))
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		s.Contains(s.auditActions(), audit.ActionSystemError)
	})

	s.Run("persist failure", func() {
		s.expectAuthorized()
		s.expectPipeline("crew@city.gov", cleanVerdict())
		s.submissions.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
		s.objects.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)

		_, err := s.service.Verify(s.ctx, strictCommand(s.geotagged(live), live))
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		s.Contains(err.Error(), "failed to save verification results")
	})

	s.Run("report status update failure", func() {
		s.expectAuthorized()
		s.expectPipeline("crew@city.gov", cleanVerdict())
		s.submissions.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
		s.reports.EXPECT().UpdateStatus(gomock.Any(), "r-1", models.ReportVerified).Return(errors.New("timeout"))

		_, err := s.service.Verify(s.ctx, strictCommand(s.geotagged(live), live))
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func (s *ServiceSuite) TestGuardFailClosedRejects() {
	svc := s.newService(WithConfig(Config{DuplicateFailClosed: true}))
	live := north(reportAt, 5)
	s.expectAuthorized()
	s.reports.EXPECT().FindByID(gomock.Any(), "r-1").Return(openReport(), nil)
	s.submissions.EXPECT().Exists(gomock.Any(), "r-1", "crew@city.gov").Return(false, errors.New("db down"))

	_, err := svc.Verify(s.ctx, strictCommand(s.geotagged(live), live))
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

// =============================================================================
// Read side
// =============================================================================

func (s *ServiceSuite) TestListSuspiciousClampsLimit() {
	s.submissions.EXPECT().ListSuspicious(gomock.Any(), 50).Return(nil, nil)
	s.submissions.EXPECT().ListSuspicious(gomock.Any(), 500).Return([]*models.Submission{{ReportID: "r-9"}}, nil)

	_, err := s.service.ListSuspicious(s.ctx, 0)
	s.Require().NoError(err)
	subs, err := s.service.ListSuspicious(s.ctx, 10_000)
	s.Require().NoError(err)
	s.Len(subs, 1)
}

func (s *ServiceSuite) TestListByReport() {
	_, err := s.service.ListByReport(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	s.submissions.EXPECT().ListByReport(gomock.Any(), "r-1").Return(nil, errors.New("boom"))
	_, err = s.service.ListByReport(s.ctx, "r-1")
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ServiceSuite) TestWorkerRisk() {
	ctx := context.Background()
	for i, score := range []int{80, 45, 35, 90, 60, 10} {
		s.Require().NoError(s.auditLog.Append(ctx, audit.Event{
			Timestamp:      engineNow.Add(-time.Duration(i+1) * time.Hour),
			Action:         audit.ActionSuspiciousResolution,
			SubmitterEmail: "crew@city.gov",
			Score:          score,
		}))
	}
	s.Require().NoError(s.auditLog.Append(ctx, audit.Event{
		Timestamp:      engineNow.Add(-48 * time.Hour),
		Action:         audit.ActionSuspiciousResolution,
		SubmitterEmail: "crew@city.gov",
		Score:          99,
	}))

	risk, err := s.service.WorkerRisk(s.ctx, " CREW@city.gov")
	s.Require().NoError(err)
	s.Equal("crew@city.gov", risk.Email)
	s.Len(risk.Events, 7)
	s.Equal(5, risk.SuspiciousCount, "window and minimum score exclude two events")
	s.True(risk.Excessive)

	_, err = s.service.WorkerRisk(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("0190a3c4-7b2e-7c1d-9f00-5a1b2c3d4e5f")
	assert.Equal(t, "w-1/0190a3c4-7b2e-7c1d-9f00-5a1b2c3d4e5f.png", ObjectKey("w-1", id, "image/png"))
	assert.Equal(t, "anonymous/0190a3c4-7b2e-7c1d-9f00-5a1b2c3d4e5f.jpg", ObjectKey("", id, "image/jpeg"))
}
