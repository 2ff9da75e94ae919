// Package server provides the HTTP API for Gantry.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mapline/gantry/internal/analysis"
	"github.com/mapline/gantry/internal/chart"
	"github.com/mapline/gantry/internal/config"
	"github.com/mapline/gantry/internal/corpus"
	"github.com/mapline/gantry/internal/extract"
)

// chartSynthesizer generates a chart document from an instruction and corpus.
type chartSynthesizer interface {
	Synthesize(ctx context.Context, instruction, corpusText string) (*chart.ChartDocument, error)
}

// taskAnalyst runs per-task analysis and follow-up Q&A.
type taskAnalyst interface {
	Analyze(ctx context.Context, id analysis.TaskIdentifier, corpusText string) (*analysis.AnalysisResult, error)
	Answer(ctx context.Context, id analysis.TaskIdentifier, question, corpusText string) (string, error)
}

// Server is the HTTP server for the Gantry API.
type Server struct {
	extractor   *extract.Extractor
	store       *corpus.Store
	synthesizer chartSynthesizer
	analyst     taskAnalyst
	config      *config.Config
	logger      *zap.Logger
	server      *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	extractor *extract.Extractor,
	store *corpus.Store,
	synthesizer chartSynthesizer,
	analyst taskAnalyst,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		extractor:   extractor,
		store:       store,
		synthesizer: synthesizer,
		analyst:     analyst,
		config:      cfg,
		logger:      logger,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/charts", s.handleCreateChart)
	r.Post("/api/v1/tasks/analyze", s.handleAnalyzeTask)
	r.Post("/api/v1/tasks/question", s.handleQuestion)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
