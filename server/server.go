package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/poiesic/studyguide"
	"github.com/poiesic/studyguide/core"
	"github.com/poiesic/studyguide/document"
	"github.com/poiesic/studyguide/guide"
	"github.com/poiesic/studyguide/progress"
)

const (
	// DefaultMaxUploadBytes limits the combined size of one upload request.
	DefaultMaxUploadBytes = 100 << 20

	writeTimeout = 10 * time.Second
)

// Guides is the service behind the HTTP API. *studyguide.Service implements it.
type Guides interface {
	Prepare(ctx context.Context, uploads ...document.Upload) (core.ID, []core.Chunk, error)
	Generate(ctx context.Context, id core.ID, subject string, renderer progress.Renderer) (*guide.Document, error)
	Download(ctx context.Context, id core.ID, subject string) (*guide.Document, error)
}

type Server struct {
	guides         Guides
	upgrader       websocket.Upgrader
	maxUploadBytes int64
	logger         *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUploadBytes sets the request body limit for uploads.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(guides Guides, opts ...Option) *Server {
	s := &Server{
		guides: guides,
		upgrader: websocket.Upgrader{
			// The API is meant to sit behind the same origin as its front end.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		maxUploadBytes: DefaultMaxUploadBytes,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/uploads", s.handleUpload)
	mux.HandleFunc("GET /api/uploads/{id}/generate", s.handleGenerate)
	mux.HandleFunc("GET /api/uploads/{id}/guide", s.handleDownload)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	return requestID(s.logger, mux)
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown failed", "err", err)
		}
	}()

	s.logger.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(r.Context(), w, "TOO_LARGE", fmt.Sprintf("upload exceeds %d MB", s.maxUploadBytes>>20), http.StatusRequestEntityTooLarge)
			return
		}
		s.writeError(r.Context(), w, "BAD_REQUEST", "expected a multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.writeError(r.Context(), w, "BAD_REQUEST", "no files uploaded", http.StatusBadRequest)
		return
	}

	uploads := make([]document.Upload, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			s.writeError(r.Context(), w, "BAD_REQUEST", "unable to read "+h.Filename, http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.writeError(r.Context(), w, "BAD_REQUEST", "unable to read "+h.Filename, http.StatusBadRequest)
			return
		}
		uploads = append(uploads, document.Upload{Name: h.Filename, Data: data})
	}

	id, chunks, err := s.guides.Prepare(r.Context(), uploads...)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"data": UploadResponse{UploadID: formatID(id), Chunks: len(chunks)},
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id, subject, ok := s.guideParams(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	runID := uuid.New().String()
	logger := s.logger.With("run_id", runID, "request_id", RequestID(r.Context()))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client never sends anything; a read error means it went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debug("websocket read error", "err", err)
				}
				return
			}
		}
	}()

	ws := &wsWriter{conn: conn}
	renderer := progress.RendererFunc(func(completed, total int) error {
		return ws.writeJSON(ProgressMessage{
			Type:      TypeProgress,
			RunID:     runID,
			Completed: completed,
			Total:     total,
			Text:      progress.FormatStep(completed, total),
		})
	})

	logger.Info("generation requested", "upload", id, "subject", subject)
	doc, err := s.guides.Generate(ctx, id, subject, renderer)
	if err != nil {
		logger.Warn("generation failed", "err", err)
		_ = ws.writeJSON(ErrorMessage{Type: TypeError, RunID: runID, Message: err.Error()})
		ws.close(websocket.CloseInternalServerErr, "generation failed")
		return
	}
	if doc.Partial() {
		logger.Warn("guide generated with missing sections", "failed", doc.Failed, "total", doc.Total)
	}

	_ = ws.writeJSON(DoneMessage{
		Type:        TypeDone,
		RunID:       runID,
		Subject:     doc.Subject,
		Total:       doc.Total,
		Failed:      doc.Failed,
		FileName:    doc.FileName(),
		DownloadURL: downloadURL(id, subject),
	})
	ws.close(websocket.CloseNormalClosure, "")
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, subject, ok := s.guideParams(w, r)
	if !ok {
		return
	}

	doc, err := s.guides.Download(r.Context(), id, subject)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName()))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, doc.Body)
}

func (s *Server) guideParams(w http.ResponseWriter, r *http.Request) (core.ID, string, bool) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		s.writeError(r.Context(), w, "BAD_REQUEST", "invalid upload id", http.StatusBadRequest)
		return 0, "", false
	}
	subject := r.URL.Query().Get("subject")
	if err := core.ValidateSubject(subject); err != nil {
		s.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return 0, "", false
	}
	return id, subject, true
}

func (s *Server) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, studyguide.ErrUnknownUpload), errors.Is(err, studyguide.ErrGuideNotFound):
		s.writeError(ctx, w, "NOT_FOUND", err.Error(), http.StatusNotFound)
	case errors.Is(err, document.ErrUnsupportedFormat), errors.Is(err, document.ErrNoUploads),
		errors.Is(err, studyguide.ErrEmptyUpload), errors.Is(err, core.ErrInvalidSubject):
		s.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("operation failed", "err", err, "request_id", RequestID(ctx))
		s.writeError(ctx, w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
	}
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	s.writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"request_id": RequestID(ctx),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}

// wsWriter serializes writes; gorilla connections allow one concurrent writer.
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteJSON(v)
}

func (w *wsWriter) close(code int, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := websocket.FormatCloseMessage(code, text)
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
}

func formatID(id core.ID) string {
	return strconv.FormatUint(uint64(id), 16)
}

func parseID(s string) (core.ID, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	return core.ID(v), err
}

func downloadURL(id core.ID, subject string) string {
	return fmt.Sprintf("/api/uploads/%s/guide?subject=%s", formatID(id), url.QueryEscape(subject))
}
