// Package server exposes the inbound trigger API: searches, interactive
// actions and subscription listings over JSON, plus health and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amishk599/jobfeed/internal/metrics"
	"github.com/amishk599/jobfeed/internal/model"
	"github.com/amishk599/jobfeed/internal/poller"
)

// Engine is the subset of poller.Engine the API drives.
type Engine interface {
	Search(ctx context.Context, subscriber, keyword string) (*poller.PollResult, error)
	HandleAction(ctx context.Context, subscriber string, action model.Action) error
	Subscriptions(subscriber string) []string
	ShowSubscriptions(ctx context.Context, subscriber string) []string
}

// Server handles inbound HTTP requests.
type Server struct {
	engine   Engine
	validate *validator.Validate
	logger   *slog.Logger
	mux      *http.ServeMux
}

// New creates a Server with all routes registered.
func New(engine Engine, logger *slog.Logger) *Server {
	s := &Server{
		engine:   engine,
		validate: validator.New(),
		logger:   logger.With("component", "server"),
		mux:      http.NewServeMux(),
	}
	s.route("POST /search", "/search", s.handleSearch)
	s.route("POST /actions", "/actions", s.handleAction)
	s.route("GET /subscriptions/{id}", "/subscriptions/{id}", s.handleSubscriptions)
	s.route("GET /health", "/health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (s *Server) route(pattern, path string, h http.HandlerFunc) {
	method, _, _ := strings.Cut(pattern, " ")
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		h(rec, r)
		metrics.HTTPRequests.WithLabelValues(path, method, strconv.Itoa(rec.statusCode)).Inc()
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.engine.Search(r.Context(), req.SubscriberID, req.Keyword)
	if err != nil {
		s.writeEngineError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, newSearchResponse(strings.TrimSpace(req.Keyword), res))
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.engine.HandleAction(r.Context(), req.SubscriberID, req.ToAction()); err != nil {
		s.writeEngineError(w, req.Action, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var keywords []string
	if notify, _ := strconv.ParseBool(r.URL.Query().Get("notify")); notify {
		keywords = s.engine.ShowSubscriptions(r.Context(), id)
	} else {
		keywords = s.engine.Subscriptions(id)
	}
	if keywords == nil {
		keywords = []string{}
	}
	writeJSON(w, http.StatusOK, SubscriptionsResponse{SubscriberID: id, Keywords: keywords})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		var details []string
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details = append(details, "Field '"+fe.Field()+"' failed on the '"+fe.Tag()+"' tag.")
			}
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Details: details})
		return false
	}
	return true
}

func (s *Server) writeEngineError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrInvalidKeyword), errors.Is(err, model.ErrUnknownAction):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrNotSubscribed):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrSearchExpired):
		status = http.StatusGone
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "op", op, "error", err)
		writeJSON(w, status, errorResponse{Error: "internal server error"})
		return
	}
	s.logger.Debug("request rejected", "op", op, "status", status, "error", err)
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
