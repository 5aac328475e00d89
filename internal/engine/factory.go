package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/betterfasterwhisper/whisper-core/internal/config"
	"github.com/betterfasterwhisper/whisper-core/internal/models"
)

// NewLoader returns the Loader used by default: it resolves the model file
// through the manager and constructs the backend named by the configuration.
// The stub and openai backends do not require a local model file.
func NewLoader(manager *models.Manager, logger *slog.Logger) Loader {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "engine.factory")

	return func(ctx context.Context, cfg config.Config) (Inferencer, error) {
		switch cfg.Backend {
		case "stub":
			return NewStubInferencer(logger, cfg.ModelSize), nil

		case "openai":
			inf, err := NewOpenAIInferencer(cfg.OpenAIKey, logger)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
			}
			return inf, nil

		case "native":
			modelPath, err := resolveModel(ctx, manager, cfg)
			if err != nil {
				return nil, err
			}
			if !NativeAvailable() {
				log.Warn("native backend disabled at build time", "model_path", modelPath)
				return nil, ErrNativeUnavailable
			}
			inf, err := NewNativeInferencer(modelPath, cfg.UseGPU, logger)
			if err != nil {
				log.Error("native backend initialisation failed", "error", err, "model_path", modelPath)
				return nil, err
			}
			log.Info("native backend ready", "model_path", modelPath)
			return inf, nil

		default:
			return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidParameter, cfg.Backend)
		}
	}
}

func resolveModel(ctx context.Context, manager *models.Manager, cfg config.Config) (string, error) {
	if manager == nil {
		var err error
		manager, err = models.NewManager(cfg.DataDir, nil)
		if err != nil {
			return "", err
		}
	}
	path, err := manager.EnsureVariant(ctx, cfg.ModelSize, models.EnsureOptions{
		Override: cfg.ModelPath,
	})
	if err != nil {
		if errors.Is(err, models.ErrModelNotFound) {
			return "", fmt.Errorf("%w: no model for size %q at %s (fetch one with cmd/tools/download_model or set model_path)",
				ErrModelNotFound, cfg.ModelSize, cfg.ResolvedModelPath())
		}
		return "", err
	}
	return path, nil
}
