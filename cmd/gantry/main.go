// Package main is the Gantry CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mapline/gantry/internal/analysis"
	"github.com/mapline/gantry/internal/chart"
	"github.com/mapline/gantry/internal/config"
	"github.com/mapline/gantry/internal/corpus"
	"github.com/mapline/gantry/internal/extract"
	"github.com/mapline/gantry/internal/gemini"
	"github.com/mapline/gantry/internal/server"
	"github.com/mapline/gantry/internal/watcher"
	"github.com/mapline/gantry/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/gantry/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used instead. Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "generate":
		runGenerate()
	case "version", "--version", "-v":
		fmt.Printf("gantry version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (requests, completion timing, watch events)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	// The credential is checked once, before any request is accepted.
	apiKey, err := config.LoadAPIKey()
	if err != nil {
		logger.Fatal("Missing generative API credential", zap.Error(err))
	}

	components, err := initializeComponents(cfg, apiKey, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.Watcher
	if len(cfg.Watch.Directories) > 0 {
		refresher := watcher.NewRefresher(
			components.Extractor,
			components.Store,
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			logger,
		)
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc = watcher.NewWatcher(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			refresher.Refresh,
			watchOpts...,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		// Seed the default session with whatever is already on disk.
		refresher.Refresh()
	}

	srv := server.NewServer(
		components.Extractor,
		components.Store,
		components.Synthesizer,
		components.Analyst,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// runGenerate synthesizes a chart from local files without the HTTP server:
// gantry generate -instruction "..." file.md [file2.docx ...]
func runGenerate() {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	instruction := fs.String("instruction", "", "chart instruction (required)")
	_ = fs.Parse(os.Args[2:])

	if strings.TrimSpace(*instruction) == "" || fs.NArg() < 1 {
		fmt.Println("Usage: gantry generate -instruction \"...\" <file> [file ...]")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	apiKey, err := config.LoadAPIKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Missing generative API credential: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, apiKey, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	files := make([]corpus.File, 0, fs.NArg())
	for _, path := range fs.Args() {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
			os.Exit(1)
		}
		name := filepath.Base(path)
		text, err := components.Extractor.ExtractUpload(name, "", content)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to extract %s: %v\n", path, err)
			os.Exit(1)
		}
		files = append(files, corpus.File{Name: name, Text: text})
	}

	corpusText, _ := corpus.Assemble(files)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Gemini.Timeout()+time.Minute)
	defer cancel()
	doc, err := components.Synthesizer.Synthesize(ctx, *instruction, corpusText)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chart generation failed: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Extractor   *extract.Extractor
	Store       *corpus.Store
	Synthesizer *chart.Synthesizer
	Analyst     *analysis.Analyst
}

func initializeComponents(cfg *config.Config, apiKey string, logger *zap.Logger) (*Components, error) {
	anchor, err := cfg.Analysis.Anchor()
	if err != nil {
		return nil, err
	}

	client := gemini.NewClient(gemini.Config{
		APIKey:            apiKey,
		BaseURL:           cfg.Gemini.BaseURL,
		Model:             cfg.Gemini.Model,
		Timeout:           cfg.Gemini.Timeout(),
		MaxOutputTokens:   cfg.Gemini.MaxOutputTokens,
		RequestsPerSecond: cfg.Gemini.RequestsPerSecond,
		Burst:             cfg.Gemini.Burst,
	}, gemini.WithLogger(logger))

	anchorFn := func() time.Time { return anchor }
	if cfg.Analysis.AnchorDate == "" {
		anchorFn = nil // today (UTC), re-evaluated per request
	}

	return &Components{
		Extractor:   extract.NewExtractor(),
		Store:       corpus.NewStore(),
		Synthesizer: chart.NewSynthesizer(client, logger),
		Analyst:     analysis.NewAnalyst(client, anchorFn, logger),
	}, nil
}

func printUsage() {
	fmt.Println(`gantry - research documents to Gantt charts

Usage:
  gantry server [flags]                               Start the HTTP server
  gantry generate -instruction "..." <file> [...]     Generate a chart from local files
  gantry version                                      Show version
  gantry help                                         Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/gantry/config.yaml)
  --debug            Enable debug logging (requests, completion timing, watch events)

Generate Flags:
  --config string        Config file path
  --instruction string   Chart instruction (required)

The GEMINI_API_KEY environment variable must be set for server and generate.

Examples:
  gantry server
  gantry server --debug
  gantry generate -instruction "plan the Q3 rollout" roadmap.md notes.docx`)
}
