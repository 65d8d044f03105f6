package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/custodia-labs/codetutor/internal/core/domain"
	"github.com/custodia-labs/codetutor/internal/logger"
)

// BuildVectorsRequest is the body of POST /build_vectors.
// PDFPath is the historical field name; Path is accepted as an alias.
type BuildVectorsRequest struct {
	PDFPath string `json:"pdf_path"`
	Path    string `json:"path"`
}

// BuildVectorsResponse is the reply of POST /build_vectors.
type BuildVectorsResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Chunks  int    `json:"chunks,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// ChatResponse is the reply of POST /chat.
type ChatResponse struct {
	Answer  string    `json:"answer"`
	Context []Passage `json:"context"`
}

// ErrorResponse is the reply of a failed POST /chat.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Passage is one retrieved chunk in a chat reply.
type Passage struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// HealthResponse is the reply of GET /healthz.
type HealthResponse struct {
	Status      string `json:"status"`
	IndexLoaded bool   `json:"index_loaded"`
	Entries     int    `json:"entries"`
	Location    string `json:"location"`
}

func (s *Server) handleBuildVectors(w http.ResponseWriter, r *http.Request) {
	var req BuildVectorsRequest
	if err := decode(r, &req); err != nil {
		writeBuildError(w, err)
		return
	}
	path := req.PDFPath
	if path == "" {
		path = req.Path
	}
	if strings.TrimSpace(path) == "" {
		writeBuildError(w, fmt.Errorf("%w: pdf_path is required", domain.ErrInvalidDocument))
		return
	}

	index, result, err := s.ports.Indexes.BuildIndex(r.Context(), domain.IngestRequest{
		Path:     path,
		Location: s.ports.Index.Location(),
	})
	if err != nil {
		logger.Warn("build_vectors %s: %v", path, err)
		writeBuildError(w, err)
		return
	}
	s.ports.Index.Swap(index)

	writeJSON(w, http.StatusOK, BuildVectorsResponse{
		Status:  "success",
		Message: "Vector store created",
		Chunks:  result.Chunks,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decode(r, &req); err != nil {
		writeChatError(w, err)
		return
	}

	index, err := s.ports.Index.Get(r.Context())
	if err != nil {
		writeChatError(w, err)
		return
	}

	answer, err := s.ports.Answer.Answer(r.Context(), index, req.Question, domain.AnswerOptions{TopK: req.TopK})
	if err != nil {
		logger.Warn("chat: %v", err)
		writeChatError(w, err)
		return
	}

	resp := ChatResponse{Answer: answer.Text, Context: make([]Passage, len(answer.Context))}
	for i, c := range answer.Context {
		resp.Context[i] = Passage{Content: c.Chunk.Content, Score: c.Score}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "ok", Location: s.ports.Index.Location()}
	if ix := s.ports.Index.Current(); ix != nil {
		resp.IndexLoaded = true
		resp.Entries = ix.Len()
	}
	writeJSON(w, http.StatusOK, resp)
}

// decode reads a JSON body. Malformed input is ErrInvalidArgument.
func decode(r *http.Request, v any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", domain.ErrInvalidArgument)
		}
		return fmt.Errorf("%w: malformed JSON: %w", domain.ErrInvalidArgument, err)
	}
	return nil
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidDocument, domain.KindInvalidArgument, domain.KindDimensionMismatch:
		return http.StatusBadRequest
	case domain.KindIndexNotFound:
		return http.StatusNotFound
	case domain.KindEmbeddingFailed, domain.KindGenerationFailed:
		return http.StatusBadGateway
	case domain.KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	case domain.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeBuildError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), BuildVectorsResponse{
		Status:  "error",
		Message: err.Error(),
		Kind:    domain.KindOf(err).String(),
	})
}

func writeChatError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), ErrorResponse{
		Error: err.Error(),
		Kind:  domain.KindOf(err).String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("write response: %v", err)
	}
}
