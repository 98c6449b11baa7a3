package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"civicproof/internal/exif/exiftest"
	jwttoken "civicproof/internal/jwt_token"
	"civicproof/internal/platform/config"
	"civicproof/internal/verification/handler"
	"civicproof/pkg/testutil"
)

// =============================================================================
// Server Wiring Test Suite
// =============================================================================
// Boots the full router on in-memory backends and drives it over HTTP.

type ServerSuite struct {
	suite.Suite
	app     *app
	server  *httptest.Server
	images  *httptest.Server
	cfg     config.Config
	tokens  *jwttoken.JWTService
	jpeg    []byte
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	var err error
	s.jpeg, err = exiftest.JPEG(exiftest.Tags{Make: "Google", Model: "Pixel 7"})
	s.Require().NoError(err)

	s.images = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(s.jpeg)
	}))

	var router http.Handler
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		router.ServeHTTP(w, r)
	}))

	seed := fmt.Sprintf(`
workers:
  - id: w-1
    email: Crew@City.gov
    name: Field Crew
    department: roads
  - id: w-2
    email: benched@city.gov
    suspended: true
reports:
  - id: r-1
    category: pothole
    latitude: 12.9716
    longitude: 77.5946
    before_image_url: %s/before.jpg
`, s.images.URL)
	seedPath := filepath.Join(s.T().TempDir(), "seed.yaml")
	s.Require().NoError(os.WriteFile(seedPath, []byte(seed), 0o600))

	s.cfg = config.Default()
	s.cfg.Seed.File = seedPath
	s.cfg.Storage.PublicBaseURL = s.server.URL
	s.cfg.Server.AdminToken = "ops-token"
	s.cfg.RateLimit.Strict.Requests = 3
	s.cfg.Verification.ImageFetchTimeout = 2 * time.Second

	s.app, err = buildApp(context.Background(), s.cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	router = s.app.router

	s.tokens = jwttoken.NewJWTService(s.cfg.Server.JWTSigningKey, s.cfg.Server.JWTIssuer, s.cfg.Server.JWTAudience)
}

func (s *ServerSuite) TearDownTest() {
	s.app.close()
	s.server.Close()
	s.images.Close()
}

func (s *ServerSuite) token(role string) string {
	tok, err := s.tokens.GenerateAccessToken("w-1", "crew@city.gov", role, time.Hour)
	s.Require().NoError(err)
	return "Bearer " + tok
}

func (s *ServerSuite) strictSubmission(email string) *http.Request {
	return testutil.NewMultipartRequest(s.T(), http.MethodPost, "/api/strict/reports/r-1/resolutions", map[string]string{
		"worker_email": email,
		"latitude":     "12.9716",
		"longitude":    "77.5946",
	}, "image", s.jpeg)
}

func (s *ServerSuite) TestHealthAndMetrics() {
	rr := testutil.DoRequest(s.app.router, testutil.NewRequest(s.T(), http.MethodGet, "/health"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "status", "ok")

	rr = testutil.DoRequest(s.app.router, testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(s.T(), rr)
	s.Contains(rr.Body.String(), "go_goroutines")
}

func (s *ServerSuite) TestStrictSubmissionEndToEnd() {
	rr := testutil.DoRequest(s.app.router, s.strictSubmission("crew@city.gov"))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	s.NotEmpty(rr.Header().Get("X-Request-ID"))
	s.Equal("2", rr.Header().Get("X-RateLimit-Remaining"))

	resp := testutil.UnmarshalResponse[handler.ResolutionResponse](s.T(), rr)
	// No oracle key is configured, so strict mode always lands in manual review.
	s.Equal("suspicious", resp.VerificationStatus)
	s.Equal("r-1", resp.ReportID)
	s.Contains(resp.SuspicionFlags, "No GPS metadata in uploaded image")

	again := testutil.DoRequest(s.app.router, s.strictSubmission("crew@city.gov"))
	testutil.AssertStatus(s.T(), again, http.StatusConflict)

	s.Eventually(func() bool {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/admin/workers/crew@city.gov/security-logs")
		req.Header.Set("X-Admin-Token", "ops-token")
		logs := testutil.DoRequest(s.app.router, req)
		if logs.Code != http.StatusOK {
			return false
		}
		risk := testutil.UnmarshalResponse[handler.WorkerRiskResponse](s.T(), logs)
		return len(risk.Events) == 2
	}, 2*time.Second, 20*time.Millisecond)
}

func (s *ServerSuite) TestStrictRejectsUnauthorizedWorkers() {
	for _, email := range []string{"stranger@city.gov", "benched@city.gov"} {
		rr := testutil.DoRequest(s.app.router, s.strictSubmission(email))
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	}
}

func (s *ServerSuite) TestStrictRateLimit() {
	for range 3 {
		rr := testutil.DoRequest(s.app.router, s.strictSubmission("stranger@city.gov"))
		s.NotEqual(http.StatusTooManyRequests, rr.Code)
	}
	rr := testutil.DoRequest(s.app.router, s.strictSubmission("stranger@city.gov"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusTooManyRequests, "rate_limit_exceeded")
	s.NotEmpty(rr.Header().Get("Retry-After"))
}

func (s *ServerSuite) TestStandardRouteRequiresWorkerToken() {
	req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/api/reports/r-1/resolutions",
		map[string]string{"lat": "12.9716", "lng": "77.5946"}, "image", s.jpeg)
	rr := testutil.DoRequest(s.app.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)

	req = testutil.NewMultipartRequest(s.T(), http.MethodPost, "/api/reports/r-1/resolutions",
		map[string]string{"lat": "12.9716", "lng": "77.5946"}, "image", s.jpeg)
	req.Header.Set("Authorization", s.token(jwttoken.RoleWorker))
	rr = testutil.DoRequest(s.app.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
}

func (s *ServerSuite) TestReviewRoutesRequireOfficialRole() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/api/resolutions/suspicious")
	req.Header.Set("Authorization", s.token(jwttoken.RoleWorker))
	testutil.AssertStatus(s.T(), testutil.DoRequest(s.app.router, req), http.StatusForbidden)

	req = testutil.NewRequest(s.T(), http.MethodGet, "/api/resolutions/suspicious")
	req.Header.Set("Authorization", s.token(jwttoken.RoleOfficial))
	testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.app.router, req))

	req = testutil.NewRequest(s.T(), http.MethodGet, "/api/workers/crew@city.gov/security-logs")
	req.Header.Set("Authorization", s.token(jwttoken.RoleOfficial))
	testutil.AssertStatus(s.T(), testutil.DoRequest(s.app.router, req), http.StatusForbidden)
}

func (s *ServerSuite) TestAdminRoutesRequireToken() {
	rr := testutil.DoRequest(s.app.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/resolutions/suspicious"))
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
}

func (s *ServerSuite) TestUploadedImageIsServed() {
	rr := testutil.DoRequest(s.app.router, s.strictSubmission("crew@city.gov"))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/admin/reports/r-1/resolutions")
	req.Header.Set("X-Admin-Token", "ops-token")
	list := testutil.UnmarshalResponse[handler.SubmissionListResponse](s.T(), testutil.DoRequest(s.app.router, req))
	s.Require().Len(list.Submissions, 1)

	resp, err := http.Get(list.Submissions[0].AfterImageURL)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("image/jpeg", resp.Header.Get("Content-Type"))
}
