package ipc

import (
	"context"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HTTPServer is the optional companion to the UDS local IPC server: a
// small chi mux exposing status/debug endpoints over a second Unix
// socket, grounded on the teacher's gateway.buildRouter. It never speaks
// for the compositor socket — status and debug only.
type HTTPServer struct {
	sockPath string
	router   chi.Router
}

// NewHTTPServer builds the router with a health endpoint and whatever
// additional routes the caller mounts via Mount before calling Run.
func NewHTTPServer(sockPath string, metricsHandler http.Handler) *HTTPServer {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}
	return &HTTPServer{sockPath: sockPath, router: r}
}

// Mount exposes an additional route group on the control surface, e.g.
// for /status.
func (h *HTTPServer) Mount(pattern string, handler http.Handler) {
	h.router.Mount(pattern, handler)
}

// Run listens on a Unix socket and serves until ctx is cancelled.
func (h *HTTPServer) Run(ctx context.Context) error {
	ln, err := net.Listen("unix", h.sockPath)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: h.router}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	err = srv.Serve(ln)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
