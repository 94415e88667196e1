package httpserver

import (
	"net/http"
	"time"
)

// New returns an http.Server with timeouts suitable for a PHI-handling API.
// ReadHeader and idle timeouts bound slow-client resource usage; write timeout
// stays above the per-request middleware timeout so handlers fail first.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
