// Package api exposes the services over HTTP as JSON.
package api

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"

	"freelancer/internal/config"
	"freelancer/internal/services"
	"freelancer/internal/validation"
)

// Server routes HTTP requests to the services
type Server struct {
	services *services.ServiceContainer
	logger   *slog.Logger
	mux      *http.ServeMux
}

// NewServer creates a Server and registers every route
func NewServer(svc *services.ServiceContainer, logger *slog.Logger) *Server {
	s := &Server{services: svc, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// handlerFunc is a handler that reports failure by returning an error
type handlerFunc func(w http.ResponseWriter, r *http.Request, userID int64) error

func (s *Server) handle(pattern string, fn handlerFunc) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserID(r.Context())
		if err := fn(w, r, userID); err != nil {
			writeError(w, r, s.logger, err)
		}
	})
	s.mux.Handle(pattern, requireUser(s.logger, handler))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.handle("POST /api/timer/start", s.startTimer)
	s.handle("POST /api/timer/{id}/stop", s.stopTimer)
	s.handle("GET /api/timer/current", s.currentTimer)

	s.handle("GET /api/time-entries", s.listTimeEntries)
	s.handle("POST /api/time-entries", s.createTimeEntry)
	s.handle("GET /api/time-entries/{id}", s.getTimeEntry)
	s.handle("PUT /api/time-entries/{id}", s.updateTimeEntry)
	s.handle("DELETE /api/time-entries/{id}", s.deleteTimeEntry)

	s.handle("GET /api/invoices", s.listInvoices)
	s.handle("POST /api/invoices", s.createInvoice)
	s.handle("GET /api/invoices/{id}", s.getInvoice)
	s.handle("PUT /api/invoices/{id}", s.updateInvoice)
	s.handle("DELETE /api/invoices/{id}", s.deleteInvoice)
	s.handle("POST /api/invoices/{id}/send", s.sendInvoice)
	s.handle("POST /api/invoices/{id}/paid", s.markInvoicePaid)
	s.handle("POST /api/invoices/{id}/cancel", s.cancelInvoice)

	s.handle("GET /api/clients", s.listClients)
	s.handle("POST /api/clients", s.createClient)
	s.handle("GET /api/clients/{id}", s.getClient)
	s.handle("PUT /api/clients/{id}", s.updateClient)
	s.handle("DELETE /api/clients/{id}", s.deleteClient)

	s.handle("GET /api/projects", s.listProjects)
	s.handle("POST /api/projects", s.createProject)
	s.handle("GET /api/projects/{id}", s.getProject)
	s.handle("PUT /api/projects/{id}", s.updateProject)
	s.handle("DELETE /api/projects/{id}", s.deleteProject)
	s.handle("GET /api/projects/{id}/tasks", s.listTasks)
	s.handle("POST /api/projects/{id}/tasks", s.createTask)

	s.handle("GET /api/reports/summary", s.summary)
}

// Handler returns the routes wrapped in recovery, request ids and access logging
func (s *Server) Handler() http.Handler {
	return withRequestID(withAccessLog(s.logger, withRecover(s.logger, s.mux)))
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// pathID parses the {id} path segment
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		validationError := validation.NewValidationError()
		validationError.AddInvalidValueError("id", raw, "must be a positive integer")
		return 0, validationError
	}
	return id, nil
}
