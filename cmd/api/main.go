package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/finlens/loansight/internal/api/handlers"
	"github.com/finlens/loansight/internal/api/middleware"
	"github.com/finlens/loansight/internal/config"
	"github.com/finlens/loansight/internal/extractor"
	"github.com/finlens/loansight/internal/llm"
	"github.com/finlens/loansight/internal/logger"
	"github.com/finlens/loansight/internal/pipeline"
	"github.com/finlens/loansight/internal/session"
	"github.com/finlens/loansight/internal/session/inmemory"
)

func main() {
	cfg := config.Load()

	var (
		port    = flag.String("port", cfg.Port, "HTTP server port")
		model   = flag.String("model", cfg.GeminiModel, "Gemini model name")
		workers = flag.Int("workers", 4, "Concurrent analysis sessions")
	)
	flag.Parse()

	log := logger.New()
	zerolog.SetGlobalLevel(logger.ParseLevel(cfg.LogLevel))

	ctx := context.Background()

	gen, err := llm.NewGemini(ctx, *model)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	analyzer := pipeline.NewAnalyzer(gen, log)
	pdfExtractor := extractor.NewPDF()

	// Session infrastructure: in-memory store + queue, one worker per session.
	store := inmemory.NewStore()
	queue := inmemory.NewQueue(cfg.QueueSize, *workers)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job *session.AnalysisJob) error {
		log.Info().
			Str("session_id", job.SessionID).
			Float64("loan_amount", job.RequestedAmount).
			Msg("Processing analysis session")

		runner := pipeline.NewAnalysisRunner(
			pdfExtractor,
			analyzer,
			pipeline.FormatWithMonth,
			func(step int) { store.SetStep(job.SessionID, step) },
			log,
		)

		state := &pipeline.State{
			DocumentBytes:   job.DocumentBytes,
			RequestedAmount: job.RequestedAmount,
		}
		if err := runner.Run(ctx, state); err != nil {
			log.Error().Err(err).Str("session_id", job.SessionID).Msg("Analysis session failed")
			store.Fail(job.SessionID, err.Error())
			return err
		}

		store.Complete(job.SessionID, pipeline.BuildReport(job.SessionID, state))
		log.Info().Str("session_id", job.SessionID).Msg("Analysis session completed")
		return nil
	}

	if err := queue.Start(workerCtx, jobHandler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start analysis workers")
	}

	// Evict stale sessions on an interval.
	go func() {
		ticker := time.NewTicker(cfg.SessionTTL / 2)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if n := store.PurgeOlderThan(cfg.SessionTTL); n > 0 {
					log.Info().Int("evicted", n).Msg("Purged stale sessions")
				}
			}
		}
	}()

	analysisHandler := handlers.NewAnalysisHandler(store, queue, cfg.MaxUploadBytes, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/analyze", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			analysisHandler.Analyze(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/progress/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		sessionID := strings.TrimPrefix(r.URL.Path, "/api/progress/")
		if sessionID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Session ID is required")
			return
		}
		analysisHandler.Progress(w, r, sessionID)
	})

	mux.HandleFunc("/api/result/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		sessionID := strings.TrimPrefix(r.URL.Path, "/api/result/")
		if sessionID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Session ID is required")
			return
		}
		analysisHandler.Result(w, r, sessionID)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Str("model", *model).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := queue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping analysis queue")
	}

	log.Info().Msg("Server exited")
}
