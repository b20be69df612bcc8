// Package http exposes a session manager over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/quire"
	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/schema"
	"github.com/aretw0/quire/pkg/session"
)

// maxDescriptionSize bounds PUT bodies.
const maxDescriptionSize = 8 << 20

// Server implements the document routes.
type Server struct {
	Manager *session.Manager
	Streams *StreamManager
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStreams shares a StreamManager whose Hooks are installed on the sessions.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates a Server over m.
func NewServer(m *session.Manager, opts ...Option) *Server {
	s := &Server{
		Manager: m,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(WithStreamLogger(s.logger))
	}
	return s
}

// NewHandler creates a new HTTP handler for the given manager.
func NewHandler(m *session.Manager, opts ...Option) http.Handler {
	return NewServer(m, opts...).Handler()
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.Health)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	r.Get("/documents", s.ListDocuments)
	r.Route("/documents/{id}", func(r chi.Router) {
		r.Put("/", s.PutDocument)
		r.Get("/", s.GetDocument)
		r.Delete("/", s.DeleteDocument)
		r.Get("/pdf", s.GetPDF)
		r.Get("/blob", s.GetBlob)
		r.Get("/text", s.GetText)
		r.Get("/layout", s.GetLayout)
		r.Get("/events", s.SubscribeEvents)
	})
	return r
}

// Status is the body of GET /documents/{id}.
type Status struct {
	ID          string `json:"id"`
	Dirty       bool   `json:"dirty"`
	Generation  uint64 `json:"generation"`
	Fingerprint string `json:"fingerprint"`
	Pages       int    `json:"pages"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": quire.Version})
}

// ListDocuments handles GET /documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Manager.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// PutDocument handles PUT /documents/{id}. The body is a JSON or YAML
// description, picked by Content-Type.
func (s *Server) PutDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format, err := requestFormat(r)
	if err != nil {
		writeJSON(w, http.StatusUnsupportedMediaType, errorBody{Error: err.Error()})
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxDescriptionSize+1))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if len(data) > maxDescriptionSize {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "description too large"})
		return
	}
	desc, err := schema.Parse(data, format)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if err := s.Manager.Update(r.Context(), id, desc); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeStatus(w, r, id)
}

// GetDocument handles GET /documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	s.writeStatus(w, r, chi.URLParam(r, "id"))
}

func (s *Server) writeStatus(w http.ResponseWriter, r *http.Request, id string) {
	st := Status{ID: id}
	err := s.Manager.WithSession(r.Context(), id, func(_ context.Context, sess *quire.Session) error {
		st.Dirty = sess.IsDirty()
		st.Generation = sess.Generation()
		ld, err := sess.LayoutData()
		st.Pages = ld.PageCount()
		return err
	})
	if err == nil {
		st.Fingerprint, err = s.Manager.Fingerprint(r.Context(), id)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("ETag", etag(st.Fingerprint))
	writeJSON(w, http.StatusOK, st)
}

// DeleteDocument handles DELETE /documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.Manager.Destroy(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPDF handles GET /documents/{id}/pdf by piping a live buffer pass into
// the response. The ETag is the description fingerprint.
func (s *Server) GetPDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fp, err := s.Manager.Fingerprint(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tag := etag(fp)
	if match := r.Header.Get("If-None-Match"); match != "" && match == tag {
		w.Header().Set("ETag", tag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	var rc io.ReadCloser
	err = s.Manager.WithSession(r.Context(), id, func(ctx context.Context, sess *quire.Session) error {
		var err error
		rc, err = sess.ToBuffer(ctx)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer rc.Close()

	// Draining happens after the session lock is released; see session.Manager.
	w.Header().Set("Content-Type", domain.ContentTypePDF)
	w.Header().Set("ETag", tag)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		// Headers are gone; the client sees a truncated body.
		s.logger.Warn("PDF stream aborted", "document", id, "error", err)
	}
}

// GetBlob handles GET /documents/{id}/blob as an attachment download.
func (s *Server) GetBlob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var blob *domain.Blob
	err := s.Manager.WithSession(r.Context(), id, func(ctx context.Context, sess *quire.Session) error {
		var err error
		blob, err = sess.ToBlob(ctx)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", blob.Type())
	w.Header().Set("Content-Length", fmt.Sprint(blob.Size()))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": id + ".pdf"}))
	w.WriteHeader(http.StatusOK)
	if _, err := blob.WriteTo(w); err != nil {
		s.logger.Warn("Blob write failed", "document", id, "error", err)
	}
}

// GetText handles GET /documents/{id}/text.
func (s *Server) GetText(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var text string
	err := s.Manager.WithSession(r.Context(), id, func(ctx context.Context, sess *quire.Session) error {
		var err error
		text, err = sess.ToText(ctx)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, text)
}

// GetLayout handles GET /documents/{id}/layout. A dirty session, or one that
// never rendered, runs a text pass first so the geometry is current.
func (s *Server) GetLayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var ld domain.LayoutData
	err := s.Manager.WithSession(r.Context(), id, func(ctx context.Context, sess *quire.Session) error {
		var err error
		if ld, err = sess.LayoutData(); err != nil {
			return err
		}
		if !sess.IsDirty() && ld.PageCount() > 0 {
			return nil
		}
		if _, err := sess.ToText(ctx); err != nil {
			return err
		}
		ld, err = sess.LayoutData()
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ld)
}

// fail maps err to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTree), errors.Is(err, domain.ErrUnknownMount):
		code = http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionDestroyed):
		code = http.StatusGone
	case errors.Is(err, context.Canceled):
		// Client went away.
		return
	}
	if code == http.StatusInternalServerError {
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, code, errorBody{Error: err.Error()})
}

func requestFormat(r *http.Request) (schema.Format, error) {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return schema.FormatJSON, nil
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", err
	}
	switch {
	case mt == "application/json", strings.HasSuffix(mt, "+json"):
		return schema.FormatJSON, nil
	case mt == "application/yaml", mt == "application/x-yaml", mt == "text/yaml", mt == "text/x-yaml":
		return schema.FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported content type %q", mt)
	}
}

func etag(fp string) string {
	return `"` + fp + `"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// enableCORS allows browser tooling to call the API from any origin.
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, If-None-Match")
		w.Header().Set("Access-Control-Expose-Headers", "ETag")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
