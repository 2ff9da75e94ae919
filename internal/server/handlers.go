package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mapline/gantry/internal/analysis"
	"github.com/mapline/gantry/internal/chart"
	"github.com/mapline/gantry/internal/corpus"
	"github.com/mapline/gantry/internal/extract"
)

func (s *Server) handleCreateChart(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.config.Upload.MaxFileBytes * int64(s.config.Upload.MaxFiles)
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	instruction := strings.TrimSpace(r.FormValue("instruction"))
	if instruction == "" {
		s.respondError(w, http.StatusBadRequest, "instruction is required")
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.respondError(w, http.StatusBadRequest, "at least one file is required")
		return
	}
	if len(headers) > s.config.Upload.MaxFiles {
		s.respondError(w, http.StatusBadRequest,
			fmt.Sprintf("too many files: %d (limit %d)", len(headers), s.config.Upload.MaxFiles))
		return
	}

	files := make([]corpus.File, 0, len(headers))
	for _, h := range headers {
		if h.Size > s.config.Upload.MaxFileBytes {
			s.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("file %q exceeds the %d byte limit", h.Filename, s.config.Upload.MaxFileBytes))
			return
		}
		f, err := h.Open()
		if err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("cannot read file %q", h.Filename))
			return
		}
		content, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("cannot read file %q", h.Filename))
			return
		}
		text, err := s.extractor.ExtractUpload(h.Filename, h.Header.Get("Content-Type"), content)
		if err != nil {
			s.respondDomainError(w, err)
			return
		}
		files = append(files, corpus.File{Name: h.Filename, Text: text})
	}

	corpusText, filenames := corpus.Assemble(files)
	sessionID := s.store.Put(r.FormValue("session_id"), corpusText, filenames)
	s.logger.Debug("corpus stored",
		zap.String("session_id", sessionID),
		zap.Strings("files", filenames),
		zap.Int("corpus_len", len(corpusText)),
	)

	doc, err := s.synthesizer.Synthesize(r.Context(), instruction, corpusText)
	if err != nil {
		s.logger.Error("chart synthesis failed", zap.Error(err))
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"files":      filenames,
		"chart":      doc,
	})
}

type taskRequest struct {
	SessionID string `json:"session_id"`
	TaskName  string `json:"task_name"`
	Entity    string `json:"entity"`
	Question  string `json:"question,omitempty"`
}

// sessionCorpus resolves the request's corpus, defaulting to the watcher's
// session when no id is given.
func (s *Server) sessionCorpus(sessionID string) (corpus.Entry, bool) {
	if sessionID == "" {
		sessionID = corpus.DefaultSession
	}
	return s.store.Get(sessionID)
}

func (s *Server) handleAnalyzeTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	entry, ok := s.sessionCorpus(req.SessionID)
	if !ok || entry.Empty() {
		s.respondError(w, http.StatusBadRequest, "no documents uploaded for this session")
		return
	}
	id := analysis.TaskIdentifier{TaskName: req.TaskName, Entity: req.Entity}
	s.logger.Debug("analyze request", zap.String("task", req.TaskName), zap.String("entity", req.Entity))

	result, err := s.analyst.Analyze(r.Context(), id, entry.Corpus)
	if err != nil {
		s.logger.Error("analysis failed", zap.Error(err))
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	entry, ok := s.sessionCorpus(req.SessionID)
	if !ok || entry.Empty() {
		s.respondError(w, http.StatusBadRequest, "no documents uploaded for this session")
		return
	}
	id := analysis.TaskIdentifier{TaskName: req.TaskName, Entity: req.Entity}
	s.logger.Debug("question request", zap.String("task", req.TaskName), zap.Int("question_len", len(req.Question)))

	answer, err := s.analyst.Answer(r.Context(), id, req.Question, entry.Corpus)
	if err != nil {
		s.logger.Error("question failed", zap.Error(err))
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondDomainError maps component failures onto the HTTP taxonomy: input
// errors are 400, extraction and semantic failures are 422, everything else
// surfaces as a 502 generation failure with the underlying message attached.
func (s *Server) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analysis.ErrInvalidIdentifier),
		errors.Is(err, analysis.ErrInvalidQuestion),
		errors.Is(err, analysis.ErrEmptyCorpus):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, extract.ErrUnsupportedType):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, extract.ErrExtraction):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, chart.ErrNoTasks):
		s.respondError(w, http.StatusUnprocessableEntity,
			"no tasks found in the provided documents; revise the documents or the instruction")
	case errors.Is(err, chart.ErrInvalidChart),
		errors.Is(err, analysis.ErrUngroundedFact),
		errors.Is(err, analysis.ErrIncompleteAnalysis):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.respondError(w, http.StatusBadGateway, "generation failed: "+err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
