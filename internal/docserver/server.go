// Package docserver serves the document API used by the remote marker store.
package docserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/five82/myway/internal/docstore"
)

const maxBodyBytes = 1 << 20

// Documents is the storage the server exposes.
type Documents interface {
	List(ctx context.Context, collection string) ([]docstore.Document, error)
	Create(ctx context.Context, collection string, fields json.RawMessage) (docstore.Document, error)
	Update(ctx context.Context, collection, id string, fields json.RawMessage) (docstore.Document, error)
	Delete(ctx context.Context, collection, id string) error
	Ping(ctx context.Context) error
}

// DocumentBody is the wire form of one document.
type DocumentBody struct {
	ID     string          `json:"id"`
	Fields json.RawMessage `json:"fields"`
}

// ListBody is the wire form of a collection listing.
type ListBody struct {
	Documents []DocumentBody `json:"documents"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Server wires routes, auth, logging and metrics around a Documents store.
type Server struct {
	docs     Documents
	apiKey   string
	logger   zerolog.Logger
	registry *prometheus.Registry
	metrics  *Metrics
	router   *mux.Router
}

// New builds a Server. A non-empty apiKey requires "Authorization: Bearer
// <apiKey>" on every /v1 request. Metrics go to a registry owned by the
// server.
func New(docs Documents, apiKey string, logger zerolog.Logger) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		docs:     docs,
		apiKey:   strings.TrimSpace(apiKey),
		logger:   logger.With().Str("component", "docserver").Logger(),
		registry: reg,
		metrics:  NewMetrics(reg),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.observe)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(s.authenticate)
	const docs = "/collections/{collection:[A-Za-z0-9_-]+}/documents"
	api.HandleFunc(docs, s.handleList).Methods(http.MethodGet)
	api.HandleFunc(docs, s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc(docs+"/{id}", s.handleUpdate).Methods(http.MethodPatch)
	api.HandleFunc(docs+"/{id}", s.handleDelete).Methods(http.MethodDelete)

	// A subrouter answers its own misses; the root handlers never see them.
	notFound := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	for _, router := range []*mux.Router{r, api} {
		router.NotFoundHandler = notFound
		router.MethodNotAllowedHandler = notAllowed
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.docs.Ping(ctx); err != nil {
		s.logger.Error().Err(err).Msg("health check")
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]
	docs, err := s.docs.List(r.Context(), collection)
	if err != nil {
		s.internalError(w, err, "list documents", collection)
		return
	}
	body := ListBody{Documents: make([]DocumentBody, 0, len(docs))}
	for _, d := range docs {
		body.Documents = append(body.Documents, toBody(d))
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]
	fields, ok := readFields(w, r)
	if !ok {
		return
	}
	doc, err := s.docs.Create(r.Context(), collection, fields)
	if err != nil {
		s.mutationError(w, err, "create document", collection)
		return
	}
	s.metrics.Mutations.WithLabelValues(collection, "create").Inc()
	s.logger.Debug().Str("collection", collection).Str("id", doc.ID).Msg("document created")
	writeJSON(w, http.StatusCreated, toBody(doc))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collection, id := vars["collection"], vars["id"]
	fields, ok := readFields(w, r)
	if !ok {
		return
	}
	doc, err := s.docs.Update(r.Context(), collection, id, fields)
	if err != nil {
		s.mutationError(w, err, "update document", collection)
		return
	}
	s.metrics.Mutations.WithLabelValues(collection, "update").Inc()
	writeJSON(w, http.StatusOK, toBody(doc))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collection, id := vars["collection"], vars["id"]
	if err := s.docs.Delete(r.Context(), collection, id); err != nil {
		s.mutationError(w, err, "delete document", collection)
		return
	}
	s.metrics.Mutations.WithLabelValues(collection, "delete").Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) mutationError(w http.ResponseWriter, err error, op, collection string) {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, docstore.ErrInvalidFields):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.internalError(w, err, op, collection)
	}
}

func (s *Server) internalError(w http.ResponseWriter, err error, op, collection string) {
	s.logger.Error().Err(err).Str("collection", collection).Msg(op)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// authenticate enforces the bearer token when one is configured.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("Authorization") != "Bearer "+s.apiKey {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// observe records request metrics and a log line per request.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		elapsed := time.Since(start)
		s.metrics.Requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		s.metrics.RequestDuration.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", elapsed).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func readFields(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return nil, false
	}
	if !json.Valid(data) {
		writeError(w, http.StatusBadRequest, "request body is not valid JSON")
		return nil, false
	}
	return json.RawMessage(data), true
}

func toBody(d docstore.Document) DocumentBody {
	return DocumentBody{ID: d.ID, Fields: json.RawMessage(d.Fields)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
