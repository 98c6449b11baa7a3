package testutil

import (
	"net/http"

	"civicproof/pkg/requestcontext"
)

// WithWorker adds an authenticated worker to the request context.
// This simulates what the auth middleware would do for bearer-token requests.
func WithWorker(req *http.Request, workerID, email, role string) *http.Request {
	return req.WithContext(requestcontext.WithWorker(req.Context(), workerID, email, role))
}

// WithClientMetadata adds the client IP and User-Agent the metadata middleware
// would derive from the request.
func WithClientMetadata(req *http.Request, ip, userAgent string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, userAgent))
}
