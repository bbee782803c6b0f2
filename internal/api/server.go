package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/courtlab/drillboard/internal/codegen"
	"github.com/courtlab/drillboard/internal/dispatcher"
	"github.com/courtlab/drillboard/internal/document"
	"github.com/courtlab/drillboard/internal/engine"
	"github.com/courtlab/drillboard/internal/export"
	"github.com/courtlab/drillboard/internal/export/snapshot"
	v1 "github.com/courtlab/drillboard/internal/export/v1"
	"github.com/courtlab/drillboard/internal/geo"
	"github.com/courtlab/drillboard/internal/handlers"
	"github.com/courtlab/drillboard/internal/scene"
	"github.com/courtlab/drillboard/internal/session"
	"github.com/courtlab/drillboard/internal/storage"
	"github.com/courtlab/drillboard/internal/trajectory"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MaxBodySize bounds imported documents and command payloads.
const MaxBodySize = 4 << 20

// Dependencies holds everything the HTTP surface talks to.
type Dependencies struct {
	Session    *session.Context
	Dispatcher *dispatcher.Dispatcher
	Backend    storage.Backend // optional, /drills answers 503 without one
	Trajectory trajectory.Constants
	Logger     *slog.Logger
}

// Server exposes the open drill over HTTP.
type Server struct {
	deps Dependencies
	log  *slog.Logger
}

// CommandRequest is the body of POST /commands.
type CommandRequest struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer creates the HTTP surface.
func NewServer(deps Dependencies) *Server {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{deps: deps, log: log}
}

// Handler returns the router with the standard middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the API on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/healthcheck", s.healthcheck)

	r.Get("/document", s.getDocument)
	r.Put("/document", s.putDocument)
	r.Get("/snapshot", s.getSnapshot)
	r.Post("/commands", s.postCommand)
	r.Get("/codegen", s.getCodegen)
	r.Get("/scene", s.getScene)
	r.Get("/stats", s.getStats)

	r.Route("/drills", func(r chi.Router) {
		r.Get("/", s.listDrills)
		r.Post("/{name}", s.saveDrill)
		r.Get("/{name}", s.loadDrill)
		r.Delete("/{name}", s.deleteDrill)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"requestId", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRaw(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, handlers.ErrInvalidArgs),
		errors.Is(err, export.ErrMalformed),
		errors.Is(err, storage.ErrInvalidName),
		errors.Is(err, document.ErrInvalidKind),
		errors.Is(err, document.ErrDuplicateID):
		return http.StatusBadRequest
	case errors.Is(err, document.ErrNotFound),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusUnprocessableEntity
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", export.ErrMalformed, err)
	}
	return data, nil
}

func (s *Server) healthcheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// semantic builds the object graph of the open drill.
func (s *Server) semantic() v1.Export {
	var exp v1.Export
	_ = s.deps.Session.View(func(e *engine.Engine) error {
		exp = v1.Build(e.Document(), e.Frame())
		return nil
	})
	return exp
}

func (s *Server) getDocument(w http.ResponseWriter, _ *http.Request) {
	data, err := v1.Marshal(s.semantic())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeRaw(w, data)
}

// putDocument replaces the open drill with an imported one. Both the
// semantic graph and raw snapshots are accepted.
func (s *Server) putDocument(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	doc, err := DecodeDocument(data, s.frame())
	if err != nil {
		s.writeError(w, err)
		return
	}

	ch := s.deps.Session.Load(doc, "")
	s.log.Info("Imported drill", "title", doc.Title)
	writeJSON(w, http.StatusOK, ch)
}

// DecodeDocument reads either interchange shape. Semantic graphs are
// converted with frame.
func DecodeDocument(data []byte, frame geo.Frame) (*document.Document, error) {
	switch export.Detect(data) {
	case export.FormatSemantic:
		return v1.ParseAndApply(data, frame)
	case export.FormatSnapshot:
		return snapshot.Decode(data)
	}
	return document.New(), fmt.Errorf("%w: neither an object graph nor a snapshot", export.ErrMalformed)
}

func (s *Server) frame() (f geo.Frame) {
	_ = s.deps.Session.View(func(e *engine.Engine) error {
		f = e.Frame()
		return nil
	})
	return f
}

func (s *Server) getSnapshot(w http.ResponseWriter, _ *http.Request) {
	data, err := s.deps.Session.Snapshot()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeRaw(w, data)
}

func (s *Server) postCommand(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req CommandRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", handlers.ErrInvalidArgs, err))
		return
	}
	if !s.deps.Dispatcher.HasHandler(req.Command) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown command: " + req.Command})
		return
	}

	res, err := s.deps.Dispatcher.Dispatch(dispatcher.Event{Command: req.Command, Args: req.Args})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) getCodegen(w http.ResponseWriter, r *http.Request) {
	opts := codegen.PythonOptions{
		Title:  r.URL.Query().Get("title"),
		Output: r.URL.Query().Get("output"),
	}
	var script string
	_ = s.deps.Session.View(func(e *engine.Engine) error {
		script = codegen.GeneratePython(e.Document(), e.Frame(), opts)
		return nil
	})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, script)
}

func (s *Server) getScene(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, scene.Build(s.semantic(), s.deps.Trajectory))
}

func (s *Server) getStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"revision": s.deps.Session.Revision(),
		"commands": s.deps.Dispatcher.Stats(),
	})
}

func (s *Server) backend(w http.ResponseWriter) (storage.Backend, bool) {
	if s.deps.Backend == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "no storage backend configured"})
		return nil, false
	}
	return s.deps.Backend, true
}

func (s *Server) listDrills(w http.ResponseWriter, r *http.Request) {
	b, ok := s.backend(w)
	if !ok {
		return
	}
	list, err := b.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) saveDrill(w http.ResponseWriter, r *http.Request) {
	b, ok := s.backend(w)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	if err := storage.ValidateName(name); err != nil {
		s.writeError(w, err)
		return
	}

	data, err := s.deps.Session.Snapshot()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := b.Save(r.Context(), name, data); err != nil {
		s.writeError(w, err)
		return
	}
	s.deps.Session.SetName(name)
	s.log.Info("Saved drill", "name", name, "bytes", len(data))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) loadDrill(w http.ResponseWriter, r *http.Request) {
	b, ok := s.backend(w)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	data, err := b.Load(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	doc, err := snapshot.Decode(data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Session.Load(doc, name))
}

func (s *Server) deleteDrill(w http.ResponseWriter, r *http.Request) {
	b, ok := s.backend(w)
	if !ok {
		return
	}
	if err := b.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
