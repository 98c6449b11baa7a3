package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "civicproof/pkg/domain-errors"
	"civicproof/pkg/platform/httputil"
	"civicproof/pkg/requestcontext"
)

// TokenHeader carries the operator token for review and security-log endpoints.
const TokenHeader = "X-Admin-Token"

// RequireAdminToken guards operator routes. With no configured token the routes
// are closed rather than open.
func RequireAdminToken(expected string, logger *slog.Logger) func(http.Handler) http.Handler {
	want := []byte(expected)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(TokenHeader))
			if len(want) > 0 && subtle.ConstantTimeCompare(got, want) == 1 {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			logger.WarnContext(ctx, "admin route rejected",
				"path", r.URL.Path,
				"token_configured", len(want) > 0,
				"request_id", requestcontext.RequestID(ctx),
				"client_ip", requestcontext.ClientIP(ctx),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
		})
	}
}
