package httpserver

import (
	"net/http"
	"time"
)

// New builds the HTTP server for the door path. Scan and report requests
// carry small JSON bodies, so a slow read indicates a bad client rather
// than a big payload. WriteTimeout sits above the per-request timeout
// middleware so the handler deadline always fires first.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
}
