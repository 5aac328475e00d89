package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/betterfasterwhisper/whisper-core/internal/audio"
	"github.com/betterfasterwhisper/whisper-core/internal/config"
	"github.com/betterfasterwhisper/whisper-core/internal/telemetry"
)

// Loader constructs an Inferencer for a validated configuration. A missing
// or unloadable model surfaces as ErrModelNotFound.
type Loader func(ctx context.Context, cfg config.Config) (Inferencer, error)

// Decoder turns an audio file into a mono buffer at the engine's rate.
type Decoder func(path string) (audio.Buffer, error)

// Service is the engine lifecycle manager. It owns at most one Inferencer at
// a time and gates every operation behind the phase machine. The process-wide
// single-instance constraint is enforced by the whispercore boundary package;
// tests construct independent Services to verify isolation.
type Service struct {
	mu     sync.RWMutex
	phase  Phase
	inf    Inferencer
	cfg    config.Config
	hasCfg bool

	loader  Loader
	decode  Decoder
	log     *slog.Logger
	metrics *telemetry.Recorder
}

// ServiceOptions configures NewService. Loader is required; the rest default
// to the WAV decoder, slog.Default and a fresh telemetry recorder.
type ServiceOptions struct {
	Loader  Loader
	Decoder Decoder
	Logger  *slog.Logger
	Metrics *telemetry.Recorder
}

// NewService returns an uninitialized Service.
func NewService(opts ServiceOptions) *Service {
	if opts.Loader == nil {
		panic("engine: ServiceOptions.Loader must not be nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	decode := opts.Decoder
	if decode == nil {
		decode = audio.DecodeWAV
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewRecorder(logger)
	}
	return &Service{
		loader:  opts.Loader,
		decode:  decode,
		log:     logger.With("component", "engine.Service"),
		metrics: metrics,
	}
}

// Initialize validates cfg, loads the model, and transitions the engine to
// the initialized phase. A failed attempt leaves the prior state, if any,
// intact so the caller can retry with a corrected configuration. When the
// engine is already initialized the previous inferencer is released, but
// only after its replacement loaded successfully.
func (s *Service) Initialize(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inf, err := s.loader(ctx, cfg)
	if err != nil {
		s.metrics.RecordInitFailure()
		s.log.Error("initialization failed", "error", err, "model_path", cfg.ResolvedModelPath())
		return err
	}

	if s.inf != nil {
		if closeErr := s.inf.Close(); closeErr != nil {
			s.log.Warn("failed to close previous engine", "error", closeErr)
		}
	}

	s.inf = inf
	s.cfg = cfg
	s.hasCfg = true
	s.phase = PhaseInitialized
	s.metrics.RecordInit()
	s.log.Info("engine initialized",
		"model_path", cfg.ResolvedModelPath(),
		"model_size", cfg.ModelSize,
		"language", cfg.Language,
		"backend", cfg.Backend,
	)
	return nil
}

// InitializeDefault initializes with the synthesized default configuration.
// The most common failure is an absent model at the conventional default
// path, which surfaces as ErrModelNotFound.
func (s *Service) InitializeDefault(ctx context.Context) error {
	return s.Initialize(ctx, config.Default())
}

// Shutdown releases the engine and returns to the uninitialized phase. It is
// idempotent and safe from any goroutine. An inferencer with in-flight work
// blocks in Close until that work completes against the old handle.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseUninitialized {
		return
	}
	s.phase = PhaseShuttingDown

	if s.inf != nil {
		if err := s.inf.Close(); err != nil {
			s.log.Warn("failed to close engine", "error", err)
		}
		s.inf = nil
	}
	s.cfg = config.Config{}
	s.hasCfg = false
	s.phase = PhaseUninitialized
	s.metrics.RecordShutdown()
	s.log.Info("engine shut down")
}

// IsInitialized reports whether the engine is ready for transcription.
func (s *Service) IsInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase == PhaseInitialized
}

// Config returns the configuration the engine was initialized with, for
// introspection. The second return is false when uninitialized.
func (s *Service) Config() (config.Config, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, s.hasCfg
}

// TranscribeSamples runs recognition over in-memory samples. The sample rate
// must be exactly the engine rate (16 kHz); resampling is the caller's
// responsibility and any mismatch is rejected as an invalid parameter rather
// than guessed at.
func (s *Service) TranscribeSamples(ctx context.Context, samples []float32, sampleRate int) (Transcription, error) {
	if len(samples) == 0 {
		return Transcription{}, fmt.Errorf("%w: sample count must be greater than zero", ErrInvalidParameter)
	}
	if sampleRate != audio.SampleRate {
		return Transcription{}, fmt.Errorf("%w: sample rate must be %d Hz, got %d", ErrInvalidParameter, audio.SampleRate, sampleRate)
	}

	inf, opts, err := s.snapshot()
	if err != nil {
		return Transcription{}, err
	}
	return s.run(ctx, inf, opts, samples, sampleRate)
}

// TranscribeFile decodes an audio file through the decoder collaborator and
// transcribes the result. The decoder owns resampling to the engine rate.
func (s *Service) TranscribeFile(ctx context.Context, path string) (Transcription, error) {
	if strings.TrimSpace(path) == "" {
		return Transcription{}, fmt.Errorf("%w: file path must not be empty", ErrInvalidParameter)
	}

	inf, opts, err := s.snapshot()
	if err != nil {
		return Transcription{}, err
	}

	buf, err := s.decode(path)
	if err != nil {
		s.metrics.RecordTranscriptionFailure()
		return Transcription{}, fmt.Errorf("engine: decode %s: %w", path, err)
	}
	if buf.Len() == 0 {
		return Transcription{}, fmt.Errorf("%w: %s contains no audio", ErrInvalidParameter, path)
	}
	return s.run(ctx, inf, opts, buf.Samples(), buf.Rate())
}

// snapshot grabs the current inferencer and per-call options under the read
// lock. The lock is not held across inference so concurrent transcriptions
// against a stable handle proceed in parallel.
func (s *Service) snapshot() (Inferencer, InferOptions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.phase != PhaseInitialized || s.inf == nil {
		return nil, InferOptions{}, fmt.Errorf("%w: call Initialize first", ErrNotInitialized)
	}
	return s.inf, InferOptions{
		Language:  s.cfg.Language,
		Translate: s.cfg.Translate,
		Threads:   s.cfg.Threads,
	}, nil
}

func (s *Service) run(ctx context.Context, inf Inferencer, opts InferOptions, samples []float32, sampleRate int) (Transcription, error) {
	audioDurationMS := int64(len(samples)) * 1000 / int64(sampleRate)

	start := time.Now()
	inference, err := inf.Infer(ctx, samples, sampleRate, opts)
	processingMS := time.Since(start).Milliseconds()

	if err != nil {
		s.metrics.RecordTranscriptionFailure()
		s.log.Warn("inference failed",
			"error", err,
			"samples", len(samples),
			"audio_duration_ms", audioDurationMS,
		)
		return Transcription{}, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	result := Transcription{
		Text:             cleanTranscript(inference.Text),
		Language:         resolveLanguage(inference.Language, opts.Language),
		Segments:         inference.Segments,
		ProcessingTimeMS: processingMS,
		AudioDurationMS:  audioDurationMS,
	}
	s.metrics.RecordTranscription(len(samples), audioDurationMS, processingMS)
	s.log.Info("transcription complete",
		"chars", len(result.Text),
		"segments", len(result.Segments),
		"language", result.Language,
		"audio_duration_ms", audioDurationMS,
		"processing_ms", processingMS,
	)
	return result, nil
}
