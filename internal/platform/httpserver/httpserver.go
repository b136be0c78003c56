package httpserver

import (
	"net/http"
	"time"
)

// New returns the API server. Requests are small JSON bodies, so the read
// side is tight; the write timeout leaves room for the admin analytics and
// history endpoints. The router applies its own per-request deadline.
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
