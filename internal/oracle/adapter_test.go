package oracle

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type clientFunc func(ctx context.Context, prompt string, images ...Image) (string, error)

func (f clientFunc) Generate(ctx context.Context, prompt string, images ...Image) (string, error) {
	return f(ctx, prompt, images...)
}

type AdapterSuite struct {
	suite.Suite
	metrics *Metrics
	req     Request
}

func TestAdapterSuite(t *testing.T) {
	suite.Run(t, new(AdapterSuite))
}

func (s *AdapterSuite) SetupTest() {
	s.metrics = NewMetrics(prometheus.NewRegistry())
	s.req = Request{
		Mode:      ModeStrict,
		IssueType: "pothole",
		Before:    Image{Data: []byte("before"), MimeType: "image/jpeg"},
		After:     Image{Data: []byte("after"), MimeType: "image/png"},
	}
}

func (s *AdapterSuite) adapter(c Client) *Adapter {
	return NewAdapter(c, WithMetrics(s.metrics), WithCallTimeout(50*time.Millisecond))
}

func (s *AdapterSuite) TestValidAnswer() {
	var gotImages []Image
	a := s.adapter(clientFunc(func(_ context.Context, prompt string, images ...Image) (string, error) {
		gotImages = images
		s.Contains(prompt, "pothole")
		return strictAnswer, nil
	}))

	v, err := a.Verify(context.Background(), s.req)

	s.Require().NoError(err)
	s.False(v.Fallback)
	s.Equal(91, v.ResolutionConfidence)
	s.Equal([]Image{s.req.Before, s.req.After}, gotImages)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Requests.WithLabelValues("strict", "ok")))
}

func (s *AdapterSuite) TestTransportErrorFallsBack() {
	a := s.adapter(clientFunc(func(context.Context, string, ...Image) (string, error) {
		return "", errors.New("connection reset")
	}))

	v, err := a.Verify(context.Background(), s.req)

	s.NoError(err)
	s.Equal(Fallback(ModeStrict), v)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Requests.WithLabelValues("strict", "transport_error")))
}

func (s *AdapterSuite) TestTimeoutFallsBack() {
	a := s.adapter(clientFunc(func(ctx context.Context, _ string, _ ...Image) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}))

	v, err := a.Verify(context.Background(), s.req)

	s.NoError(err)
	s.True(v.Fallback)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Requests.WithLabelValues("strict", "timeout")))
}

func (s *AdapterSuite) TestMalformedAnswerFallsBack() {
	a := s.adapter(clientFunc(func(context.Context, string, ...Image) (string, error) {
		return `{"same_location": true}`, nil
	}))

	v, err := a.Verify(context.Background(), s.req)

	s.NoError(err)
	s.True(v.Fallback)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Requests.WithLabelValues("strict", "schema_error")))
}

func (s *AdapterSuite) TestPermanentErrorsSurfaceWithFallback() {
	for _, permanent := range []error{ErrInvalidCredentials, ErrQuotaExceeded} {
		a := s.adapter(clientFunc(func(context.Context, string, ...Image) (string, error) {
			return "", fmt.Errorf("wrapped: %w", permanent)
		}))

		v, err := a.Verify(context.Background(), s.req)

		s.ErrorIs(err, permanent)
		s.Equal(Fallback(ModeStrict), v)
	}
}

func (s *AdapterSuite) TestNilClientIsDisabled() {
	v, err := s.adapter(nil).Verify(context.Background(), Request{Mode: ModeStandard})
	s.NoError(err)
	s.Equal(Fallback(ModeStandard), v)
}

// =============================================================================
// Gemini REST client
// =============================================================================

func TestGeminiClient(t *testing.T) {
	t.Run("sends inline images and joins candidate text", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/models/test-model:generateContent", r.URL.Path)
			assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

			var req generateRequest
			body, _ := io.ReadAll(r.Body)
			if !assert.NoError(t, json.Unmarshal(body, &req)) || !assert.Len(t, req.Contents, 1) ||
				!assert.Len(t, req.Contents[0].Parts, 3) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			assert.Equal(t, "prompt", req.Contents[0].Parts[0].Text)
			assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("img")), req.Contents[0].Parts[1].InlineData.Data)
			assert.Equal(t, "image/jpeg", req.Contents[0].Parts[2].InlineData.MimeType)

			_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"a\":"},{"text":"1}"}]}}]}`))
		}))
		defer srv.Close()

		c := NewGeminiClient("secret", WithEndpoint(srv.URL+"/"), WithModel("test-model"))
		out, err := c.Generate(context.Background(), "prompt",
			Image{Data: []byte("img"), MimeType: "image/png"}, Image{Data: []byte("img2")})
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, out)
	})

	statusCases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{}`, ErrInvalidCredentials},
		{"forbidden", http.StatusForbidden, `{}`, ErrInvalidCredentials},
		{"bad api key", http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid.","status":"INVALID_ARGUMENT"}}`, ErrInvalidCredentials},
		{"rate limited", http.StatusTooManyRequests, `{}`, ErrQuotaExceeded},
		{"resource exhausted", http.StatusServiceUnavailable, `{"error":{"status":"RESOURCE_EXHAUSTED"}}`, ErrQuotaExceeded},
	}
	for _, tc := range statusCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewGeminiClient("k", WithEndpoint(srv.URL)).Generate(context.Background(), "p")
			assert.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("server error is transient", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewGeminiClient("k", WithEndpoint(srv.URL)).Generate(context.Background(), "p")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
		assert.NotErrorIs(t, err, ErrQuotaExceeded)
	})
}

func TestDefaultCallTimeout(t *testing.T) {
	assert.Equal(t, 15*time.Second, DefaultTimeout)
	assert.Equal(t, DefaultTimeout, NewGeminiClient("k").http.Timeout)
	assert.Equal(t, DefaultTimeout, NewAdapter(nil).timeout)
}
