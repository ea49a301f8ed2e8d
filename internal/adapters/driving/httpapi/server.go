// Package httpapi provides the doctag HTTP API.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/custodia-labs/doctag/internal/core/ports/driving"
	"github.com/custodia-labs/doctag/internal/logger"
)

// ErrMissingDocumentService is returned when the document service is not provided.
var ErrMissingDocumentService = errors.New("httpapi: document service is required")

// maxBodyBytes bounds request bodies. Documents are passed by URL, not inline.
const maxBodyBytes = 1 << 20

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	Classifier driving.ClassifierService
	Ingest     driving.IngestService
	Corpus     driving.CorpusService
	Documents  driving.DocumentService

	// ClassifierErr explains why Classifier and Ingest are nil.
	ClassifierErr error

	// CorpusErr explains why Corpus is nil.
	CorpusErr error
}

// Validate ensures the required ports are set. AI-backed ports are optional;
// their endpoints answer 503 when missing.
func (p *Ports) Validate() error {
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	return nil
}

// Server serves the HTTP API.
type Server struct {
	mu       sync.Mutex
	ports    *Ports
	router   *mux.Router
	server   *http.Server
	listener net.Listener
}

// NewServer creates a server for ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{ports: ports, router: mux.NewRouter()}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.Use(logRequests)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/classify", s.handleClassify).Methods(http.MethodPost)
	s.router.HandleFunc("/deepsearch", s.handleDeepSearch).Methods(http.MethodPost)
	s.router.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet, http.MethodPost)
	s.router.HandleFunc("/documents", s.handleListDocuments).Methods(http.MethodGet)
	s.router.HandleFunc("/documents", s.handleCreateDocument).Methods(http.MethodPost)
	s.router.HandleFunc("/documents/{id}", s.handleGetDocument).Methods(http.MethodGet)
	s.router.HandleFunc("/documents/{id}", s.handleDeleteDocument).Methods(http.MethodDelete)
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr and serves in the background.
// An addr with port 0 picks a free port; Addr reports it.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("http server stopped: %v", err)
		}
	}()
	return nil
}

// Addr returns the address the server listens on, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if err := s.Start(addr); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

// Stop shuts down the server, waiting up to 5 seconds for in-flight requests.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	s.server = nil
	s.listener = nil
	return err
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
