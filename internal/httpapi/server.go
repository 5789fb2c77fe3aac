// Package httpapi exposes the question-answering service over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"docqa/internal/domain"
	"docqa/internal/service"
)

const maxUploadMemory = 32 << 20

// Service is the part of service.RAGService the HTTP layer uses.
type Service interface {
	Ingest(ctx context.Context, doc domain.Document, path string) (service.IngestResult, error)
	Answer(ctx context.Context, question string, topK int) ([]domain.AnswerRecord, error)
	Summarize(documentID string, wordCount int) (string, error)
	Stats() (chunks, vectors int)
}

// Config holds HTTP server configuration.
type Config struct {
	Addr             string
	UploadDir        string
	DefaultTopK      int
	DefaultWordCount int
}

// Server is the HTTP front end.
type Server struct {
	config Config
	svc    Service
	logger *slog.Logger
	server *http.Server
}

// NewServer creates a new server. Uploaded files are kept in cfg.UploadDir.
func NewServer(cfg Config, svc Service, logger *slog.Logger) *Server {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	if cfg.DefaultWordCount <= 0 {
		cfg.DefaultWordCount = 120
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{config: cfg, svc: svc, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload_pdf", s.handleUpload)
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("POST /summary", s.handleSummary)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           corsMiddleware(s.loggingMiddleware(mux)),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Start serves until Stop is called.
func (s *Server) Start() error {
	if err := os.MkdirAll(s.config.UploadDir, 0o755); err != nil {
		return fmt.Errorf("creating upload dir: %w", err)
	}
	s.logger.Info("starting http server", "addr", s.config.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping http server")
	return s.server.Shutdown(ctx)
}

// handleUpload handles POST /upload_pdf
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.respondError(w, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, fmt.Errorf("%w: field file is required", domain.ErrInvalidInput))
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "." || filename == string(filepath.Separator) {
		s.respondError(w, fmt.Errorf("%w: missing file name", domain.ErrInvalidInput))
		return
	}
	doc := domain.Document{ID: service.NewDocumentID(), Filename: filename}
	path, err := s.save(file, doc)
	if err != nil {
		s.respondError(w, err)
		return
	}

	res, err := s.svc.Ingest(r.Context(), doc, path)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, res)
}

func (s *Server) save(src io.Reader, doc domain.Document) (string, error) {
	if err := os.MkdirAll(s.config.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}
	path := filepath.Join(s.config.UploadDir, doc.ID+"_"+doc.Filename)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("saving upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}
	return path, nil
}

// handleAsk handles POST /ask
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	question := r.FormValue("question")
	if strings.TrimSpace(question) == "" {
		s.respondError(w, fmt.Errorf("%w: field question is required", domain.ErrInvalidInput))
		return
	}
	topK, err := intField(r, "top_k", s.config.DefaultTopK)
	if err != nil {
		s.respondError(w, err)
		return
	}

	results, err := s.svc.Answer(r.Context(), question, topK)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, map[string]any{
		"question": question,
		"results":  results,
	})
}

// handleSummary handles POST /summary
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	docID := r.FormValue("doc_id")
	if docID == "" {
		s.respondError(w, fmt.Errorf("%w: field doc_id is required", domain.ErrInvalidInput))
		return
	}
	wordCount, err := intField(r, "word_count", s.config.DefaultWordCount)
	if err != nil {
		s.respondError(w, err)
		return
	}

	summary, err := s.svc.Summarize(docID, wordCount)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, map[string]string{
		"doc_id":  docID,
		"summary": summary,
	})
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	chunks, vectors := s.svc.Stats()
	s.respondJSON(w, map[string]any{
		"status":  "ok",
		"chunks":  chunks,
		"vectors": vectors,
	})
}

func intField(r *http.Request, name string, def int) (int, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, name)
	}
	return n, nil
}

func (s *Server) respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrInvalidInput) {
		status = http.StatusBadRequest
	} else {
		s.logger.Error("request failed", "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": err.Error()})
}

// corsMiddleware allows any origin, method and header.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if h := r.Header.Get("Access-Control-Request-Headers"); h != "" {
			w.Header().Set("Access-Control-Allow-Headers", h)
		} else {
			w.Header().Set("Access-Control-Allow-Headers", "*")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}
