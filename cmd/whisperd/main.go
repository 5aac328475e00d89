package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/betterfasterwhisper/whisper-core/internal/api"
	"github.com/betterfasterwhisper/whisper-core/internal/config"
	"github.com/betterfasterwhisper/whisper-core/internal/engine"
	"github.com/betterfasterwhisper/whisper-core/internal/models"
	"github.com/betterfasterwhisper/whisper-core/internal/moduleinfo"
	"github.com/betterfasterwhisper/whisper-core/internal/store"
	"github.com/betterfasterwhisper/whisper-core/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A .env file is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cfg, err := config.Loader{}.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("starting daemon",
		"service", moduleinfo.Info.BinaryName,
		"version", moduleinfo.Info.Version,
		"listen_addr", cfg.ListenAddr,
		"backend", cfg.Backend,
		"model_size", cfg.ModelSize,
		"data_dir", cfg.DataDir,
	)

	recorder := telemetry.NewRecorder(logger)

	manager, err := models.NewManager(cfg.DataDir, logger)
	if err != nil {
		logger.Error("failed to initialise model manager", "error", err)
		os.Exit(1)
	}

	svc := engine.NewService(engine.ServiceOptions{
		Loader:  engine.NewLoader(manager, logger),
		Logger:  logger,
		Metrics: recorder,
	})
	defer svc.Shutdown()

	if err := svc.Initialize(ctx, cfg); err != nil {
		// The daemon still serves; clients can initialize later over HTTP.
		logger.Warn("engine not initialized at startup", "error", err)
	}

	historyPath := cfg.HistoryPath
	if historyPath == "" {
		historyPath = filepath.Join(cfg.DataDir, "history.db")
	}
	history, err := store.Open(historyPath, logger)
	if err != nil {
		logger.Error("failed to open history store", "error", err, "path", historyPath)
		os.Exit(1)
	}
	defer history.Close()

	srv := api.NewServer(api.ServerOptions{
		Service: svc,
		History: history,
		Config:  cfg,
		Logger:  logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown requested, stopping http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server terminated with error", "error", err)
		os.Exit(1)
	}

	if snapshot := recorder.Snapshot(); snapshot.Transcriptions > 0 || snapshot.Initializations > 0 {
		logger.Info("telemetry totals",
			"initializations", snapshot.Initializations,
			"init_failures", snapshot.InitFailures,
			"shutdowns", snapshot.Shutdowns,
			"transcriptions", snapshot.Transcriptions,
			"transcription_errors", snapshot.TranscriptionErrors,
			"samples_processed", snapshot.SamplesProcessed,
			"audio_ms_processed", snapshot.AudioMillisProcessed,
			"processing_ms", snapshot.ProcessingMillis,
		)
	}

	logger.Info("daemon stopped")
}

func newLogger(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

func parseLevel(value string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
