// Package api exposes the answer pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/fabfab/rail-assist/answer"
	"github.com/fabfab/rail-assist/level"
)

// Answerer is the slice of the answer service the API depends on.
type Answerer interface {
	Answer(ctx context.Context, question, documentType string, lvl level.Level) (answer.Result, error)
	Classify(question string) level.Result
}

// Ingester loads documents into the store.
type Ingester interface {
	IngestDirectory(ctx context.Context, dir, documentType string) error
}

// Server routes HTTP requests to the injected services. Collaborators are
// constructed once at the process entry point and shared by all requests.
type Server struct {
	svc     Answerer
	ingest  Ingester
	dataDir string
	logger  *log.Logger
	handler http.Handler
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type askRequest struct {
	Question     string `json:"question"`
	DocumentType string `json:"document_type"`
	UserLevel    string `json:"user_level"`
}

type askResponse struct {
	Answer       string      `json:"answer"`
	DocumentType string      `json:"document_type"`
	UserLevel    string      `json:"user_level"`
	Confidence   string      `json:"confidence,omitempty"`
	AnswerLength int         `json:"answer_length"`
	AutoDetected bool        `json:"auto_detected"`
	Sources      []askSource `json:"sources,omitempty"`
}

type askSource struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Path       string  `json:"path"`
	Collection string  `json:"collection"`
	Score      float64 `json:"score"`
	ChunkCount int     `json:"chunk_count,omitempty"`
	FirstPage  int     `json:"first_page,omitempty"`
	LastPage   int     `json:"last_page,omitempty"`
}

type classifyRequest struct {
	Question string `json:"question"`
}

type ingestRequest struct {
	Dir          string `json:"dir"`
	DocumentType string `json:"document_type"`
}

// New constructs a Server around already-wired services.
func New(svc Answerer, ingest Ingester, dataDir string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{svc: svc, ingest: ingest, dataDir: dataDir, logger: logger}
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/user-levels", s.handleUserLevels)
	mux.HandleFunc("/ask", s.handleAsk)
	mux.HandleFunc("/classify", s.handleClassify)
	mux.HandleFunc("/ingest", s.handleIngest)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (s *Server) handleUserLevels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}
	s.writeJSON(w, http.StatusOK, level.Profiles())
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("question is required"))
		return
	}

	// An omitted user_level means auto-detect; anything else must parse.
	var lvl level.Level
	if req.UserLevel != "" {
		parsed, err := level.Parse(req.UserLevel)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		lvl = parsed
	}

	result, err := s.svc.Answer(r.Context(), req.Question, req.DocumentType, lvl)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("answer failed: %w", err))
		return
	}

	s.writeJSON(w, http.StatusOK, toAskResponse(result))
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req classifyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("question is required"))
		return
	}

	s.writeJSON(w, http.StatusOK, s.svc.Classify(req.Question))
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	dir := strings.TrimSpace(req.Dir)
	if dir == "" {
		dir = s.dataDir
	}

	if err := s.ingest.IngestDirectory(r.Context(), dir, req.DocumentType); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("ingestion failed: %w", err))
		return
	}

	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ingestion complete"})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed, use %s", allowed))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Printf("api error (%d): %v", status, err)
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}

	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}

	return nil
}

func toAskResponse(result answer.Result) askResponse {
	resp := askResponse{
		Answer:       result.Answer,
		DocumentType: result.DocumentType,
		UserLevel:    string(result.Level),
		Confidence:   string(result.Confidence),
		AnswerLength: result.LengthChars,
		AutoDetected: result.AutoDetected,
	}

	if len(result.Sources) == 0 {
		return resp
	}

	resp.Sources = make([]askSource, len(result.Sources))
	for i, src := range result.Sources {
		resp.Sources[i] = askSource{
			DocumentID: src.DocumentID,
			Title:      src.Title,
			Path:       src.Path,
			Collection: src.Collection,
			Score:      src.Score,
			ChunkCount: src.ChunkCount,
			FirstPage:  src.FirstPage,
			LastPage:   src.LastPage,
		}
	}
	return resp
}
