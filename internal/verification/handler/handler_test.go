package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"civicproof/internal/verification"
	"civicproof/internal/verification/handler/mocks"
	"civicproof/internal/verification/models"
	dErrors "civicproof/pkg/domain-errors"
	"civicproof/pkg/platform/audit"
	"civicproof/pkg/testutil"
)

// =============================================================================
// Handler Test Suite
// =============================================================================
// Handlers parse multipart submissions, map them onto service commands and
// translate results and domain errors into HTTP responses.

var jpegBytes = []byte("\xff\xd8\xff\xe0fake-jpeg-body")

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)), 1<<20)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, testutil.WithWorker(r, "w-7", "crew@city.gov", "worker"))
			})
		})
		h.RegisterWorker(r)
	})
	h.RegisterStrict(r)
	h.RegisterReview(r)
	h.RegisterAdmin(r)
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) multipartRequest(path string, fields map[string]string, image []byte) *http.Request {
	return testutil.NewMultipartRequest(s.T(), http.MethodPost, path, fields, "image", image)
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) decode(rr *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), v))
}

func suspiciousResult(mode models.Mode) *models.Result {
	return &models.Result{
		SubmissionID: uuid.MustParse("0190a3c4-7b2e-7c1d-9f00-5a1b2c3d4e5f"),
		ReportID:     "r-1",
		Mode:         mode,
		Status:       models.StatusSuspicious,
		ReportStatus: models.ReportSuspicious,
		Score:        60,
		Severity:     audit.SeverityHigh,
		Flags:        []string{"Worker not at issue location: 45.0m away (max 20m)", "No GPS metadata in uploaded image"},
		CreatedAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// =============================================================================
// Submissions
// =============================================================================

func (s *HandlerSuite) TestStrictSubmission() {
	s.Run("maps form onto strict command", func() {
		s.service.EXPECT().Verify(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, cmd verification.Command) (*models.Result, error) {
				s.Equal(models.ModeStrict, cmd.Mode)
				s.Equal("r-1", cmd.ReportID)
				s.Equal("crew@city.gov", cmd.WorkerEmail)
				s.Require().NotNil(cmd.Latitude)
				s.InDelta(12.9716, *cmd.Latitude, 1e-9)
				s.InDelta(77.5946, *cmd.Longitude, 1e-9)
				s.Equal(jpegBytes, cmd.Image)
				return suspiciousResult(models.ModeStrict), nil
			})

		rr := s.do(s.multipartRequest("/strict/reports/r-1/resolutions", map[string]string{
			"worker_email": " crew@city.gov ",
			"latitude":     "12.9716",
			"longitude":    "77.5946",
		}, jpegBytes))

		s.Equal(http.StatusCreated, rr.Code)
		var resp ResolutionResponse
		s.decode(rr, &resp)
		s.Equal(msgStrictSuspicious, resp.Message)
		s.Equal("suspicious", resp.VerificationStatus)
		s.False(resp.AllChecksPassed)
		s.Equal(60, resp.SuspicionScore)
		s.Equal("high", resp.Severity)
		s.Len(resp.SuspicionFlags, 2)
	})

	s.Run("accepts live_lat and live_lng", func() {
		s.service.EXPECT().Verify(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, cmd verification.Command) (*models.Result, error) {
				s.Require().NotNil(cmd.Latitude)
				s.InDelta(-33.8688, *cmd.Latitude, 1e-9)
				res := suspiciousResult(models.ModeStrict)
				res.Status = models.StatusVerified
				res.ReportStatus = models.ReportVerified
				res.Flags = nil
				return res, nil
			})

		rr := s.do(s.multipartRequest("/strict/reports/r-1/resolutions", map[string]string{
			"worker_email": "crew@city.gov",
			"live_lat":     "-33.8688",
			"live_lng":     "151.2093",
		}, jpegBytes))

		s.Equal(http.StatusCreated, rr.Code)
		var resp ResolutionResponse
		s.decode(rr, &resp)
		s.Equal(msgStrictVerified, resp.Message)
		s.True(resp.AllChecksPassed)
		s.Empty(resp.Severity)
		s.NotNil(resp.SuspicionFlags)
	})

	s.Run("missing fields reach the service", func() {
		s.service.EXPECT().Verify(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, cmd verification.Command) (*models.Result, error) {
				s.Nil(cmd.Image)
				s.Nil(cmd.Latitude)
				return nil, dErrors.New(dErrors.CodeValidation, "after image is required")
			})

		rr := s.do(s.multipartRequest("/strict/reports/r-1/resolutions", map[string]string{
			"worker_email": "crew@city.gov",
		}, nil))

		s.Equal(http.StatusBadRequest, rr.Code)
		body := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal("validation_error", body["error"])
		s.Equal("after image is required", body["error_description"])
	})
}

func (s *HandlerSuite) TestCoordinateParsing() {
	tests := []struct {
		name string
		lat  string
		lng  string
		msg  string
	}{
		{"non numeric", "north", "77.5", "invalid GPS coordinates"},
		{"latitude out of range", "95", "77.5", "GPS coordinates out of valid range"},
		{"longitude out of range", "12.9", "-181", "GPS coordinates out of valid range"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			rr := s.do(s.multipartRequest("/strict/reports/r-1/resolutions", map[string]string{
				"worker_email": "crew@city.gov",
				"latitude":     tt.lat,
				"longitude":    tt.lng,
			}, jpegBytes))

			s.Equal(http.StatusBadRequest, rr.Code)
			s.Contains(rr.Body.String(), tt.msg)
		})
	}
}

func (s *HandlerSuite) TestStandardSubmissionUsesAuthenticatedWorker() {
	s.service.EXPECT().Verify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd verification.Command) (*models.Result, error) {
			s.Equal(models.ModeStandard, cmd.Mode)
			s.Equal("w-7", cmd.WorkerID)
			s.Equal("crew@city.gov", cmd.WorkerEmail)
			s.InDelta(12.9716, *cmd.Latitude, 1e-9)
			return suspiciousResult(models.ModeStandard), nil
		})

	rr := s.do(s.multipartRequest("/reports/r-1/resolutions", map[string]string{
		"lat": "12.9716",
		"lng": "77.5946",
	}, jpegBytes))

	s.Equal(http.StatusCreated, rr.Code)
	var resp ResolutionResponse
	s.decode(rr, &resp)
	s.Equal(msgStandardSuspicious, resp.Message)
}

func (s *HandlerSuite) TestServiceErrorsMapToStatus() {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"duplicate", verification.ErrDuplicate, http.StatusConflict},
		{"forbidden", dErrors.New(dErrors.CodeForbidden, "unauthorized worker"), http.StatusForbidden},
		{"not found", dErrors.New(dErrors.CodeNotFound, "report not found"), http.StatusNotFound},
		{"unavailable", dErrors.New(dErrors.CodeUnavailable, "failed to save verification results"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.service.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			rr := s.do(s.multipartRequest("/strict/reports/r-1/resolutions", map[string]string{
				"worker_email": "crew@city.gov", "latitude": "1", "longitude": "2",
			}, jpegBytes))
			s.Equal(tt.status, rr.Code)
		})
	}
}

func (s *HandlerSuite) TestUnavailableSetsRetryAfter() {
	s.service.EXPECT().Verify(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeUnavailable, "failed to upload after image"))

	rr := s.do(s.multipartRequest("/strict/reports/r-1/resolutions", map[string]string{
		"worker_email": "crew@city.gov", "latitude": "1", "longitude": "2",
	}, jpegBytes))

	s.Equal(http.StatusServiceUnavailable, rr.Code)
	s.NotEmpty(rr.Header().Get("Retry-After"))
}

func (s *HandlerSuite) TestRejectsNonMultipartBody() {
	req := httptest.NewRequest(http.MethodPost, "/strict/reports/r-1/resolutions", bytes.NewBufferString(`{"lat":1}`))
	req.Header.Set("Content-Type", "application/json")

	rr := s.do(req)
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Contains(rr.Body.String(), "invalid multipart form")
}

func (s *HandlerSuite) TestRejectsOversizedBody() {
	big := make([]byte, 3<<20)
	rr := s.do(s.multipartRequest("/strict/reports/r-1/resolutions", map[string]string{
		"worker_email": "crew@city.gov",
	}, big))

	s.Equal(http.StatusBadRequest, rr.Code)
}

// =============================================================================
// Review routes
// =============================================================================

func (s *HandlerSuite) TestListSuspicious() {
	s.Run("passes limit through", func() {
		dist := 45.0
		s.service.EXPECT().ListSuspicious(gomock.Any(), 10).Return([]*models.Submission{{
			ID:             uuid.New(),
			ReportID:       "r-1",
			Mode:           models.ModeStrict,
			DistanceMeters: &dist,
			SuspicionScore: 90,
			Status:         models.StatusSuspicious,
		}}, nil)

		rr := s.do(httptest.NewRequest(http.MethodGet, "/resolutions/suspicious?limit=10", nil))
		s.Equal(http.StatusOK, rr.Code)
		var resp SubmissionListResponse
		s.decode(rr, &resp)
		s.Equal(1, resp.Count)
		s.Equal(90, resp.Submissions[0].SuspicionScore)
		s.NotNil(resp.Submissions[0].SuspicionFlags)
	})

	s.Run("default limit", func() {
		s.service.EXPECT().ListSuspicious(gomock.Any(), 0).Return(nil, nil)

		rr := s.do(httptest.NewRequest(http.MethodGet, "/resolutions/suspicious", nil))
		s.Equal(http.StatusOK, rr.Code)
		s.JSONEq(`{"count":0,"submissions":[]}`, rr.Body.String())
	})

	s.Run("bad limit", func() {
		rr := s.do(httptest.NewRequest(http.MethodGet, "/resolutions/suspicious?limit=lots", nil))
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *HandlerSuite) TestListByReport() {
	s.service.EXPECT().ListByReport(gomock.Any(), "r-9").Return([]*models.Submission{
		{ID: uuid.New(), ReportID: "r-9", Status: models.StatusVerified},
	}, nil)

	rr := s.do(httptest.NewRequest(http.MethodGet, "/reports/r-9/resolutions", nil))
	s.Equal(http.StatusOK, rr.Code)
	var resp SubmissionListResponse
	s.decode(rr, &resp)
	s.Equal("verified", resp.Submissions[0].Status)
}

func (s *HandlerSuite) TestSecurityLogs() {
	s.service.EXPECT().WorkerRisk(gomock.Any(), "crew@city.gov").Return(&models.WorkerRisk{
		Email:           "crew@city.gov",
		SuspiciousCount: 6,
		Excessive:       true,
		Events: []audit.Event{{
			ID:       uuid.New(),
			Action:   audit.ActionSuspiciousResolution,
			Reason:   "No GPS metadata in uploaded image",
			Score:    20,
			Severity: audit.SeverityMedium,
		}},
	}, nil)

	rr := s.do(httptest.NewRequest(http.MethodGet, "/workers/crew@city.gov/security-logs", nil))
	s.Equal(http.StatusOK, rr.Code)
	var resp WorkerRiskResponse
	s.decode(rr, &resp)
	s.True(resp.ExcessiveAttempts)
	s.Equal(6, resp.SuspiciousAttempts24h)
	s.Require().Len(resp.Events, 1)
	s.Equal("security", resp.Events[0].Category)
}
