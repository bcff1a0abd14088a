// Package api serves the desired-state records over HTTP.
//
// Routes:
//
//	POST   /apps                          create a record
//	GET    /apps                          list records
//	GET    /apps/{releaseName}            get a record
//	PUT    /apps/{releaseName}            update fields of a record
//	DELETE /apps/{releaseName}            mark a record deleted
//	DELETE /apps/{releaseName}?purge=true remove a deleted record
//	GET    /apps/{releaseName}/release    live release status from the driver
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/manager"

	"github.com/imamik/helmsync/internal/apps"
	"github.com/imamik/helmsync/internal/driver"
)

const shutdownTimeout = 10 * time.Second

// releaseStatusGetter is the part of the driver the API uses.
type releaseStatusGetter interface {
	Status(ctx context.Context, releaseName, namespace string) (*driver.ReleaseStatus, error)
}

// Server is the HTTP API.
type Server struct {
	addr          string
	svc           *apps.Service
	driver        releaseStatusGetter
	driverTimeout time.Duration
	router        *mux.Router
}

var (
	_ manager.Runnable               = (*Server)(nil)
	_ manager.LeaderElectionRunnable = (*Server)(nil)
)

// NewServer creates the API listening on addr. drv may be nil, in which case
// the release status route answers 501.
func NewServer(addr string, svc *apps.Service, drv releaseStatusGetter, driverTimeout time.Duration) *Server {
	s := &Server{
		addr:          addr,
		svc:           svc,
		driver:        drv,
		driverTimeout: driverTimeout,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(logRequests)

	r.HandleFunc("/apps", s.createApp).Methods(http.MethodPost)
	r.HandleFunc("/apps", s.listApps).Methods(http.MethodGet)
	r.HandleFunc("/apps/{releaseName}", s.getApp).Methods(http.MethodGet)
	r.HandleFunc("/apps/{releaseName}", s.updateApp).Methods(http.MethodPut)
	r.HandleFunc("/apps/{releaseName}", s.deleteApp).Methods(http.MethodDelete)
	r.HandleFunc("/apps/{releaseName}/release", s.getRelease).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("route not found"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	})
	return r
}

// Handler returns the API's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	logger := log.FromContext(ctx).WithName("api")

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return logr.NewContext(context.Background(), logger) },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving API", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// NeedLeaderElection lets every replica serve the API.
func (s *Server) NeedLeaderElection() bool {
	return false
}

// statusRecorder captures the response code for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.FromContext(r.Context()).V(1).Info("Handled request",
			"method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start).String())
	})
}
