package httpserver

import (
	"net/http"
	"time"

	"civicproof/internal/platform/config"
)

const readHeaderTimeout = 5 * time.Second

// New builds the API server. The write timeout has to cover image downloads
// plus the vision oracle call, so it is configured separately from reads.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       2 * cfg.WriteTimeout,
	}
}
