package whispercore

import (
	"context"
	"errors"
	"log/slog"

	"github.com/betterfasterwhisper/whisper-core/internal/config"
	"github.com/betterfasterwhisper/whisper-core/internal/engine"
	"github.com/betterfasterwhisper/whisper-core/internal/moduleinfo"
)

// Config is the caller-supplied engine configuration, copied at
// initialization time.
type Config struct {
	// ModelPath must reference a loadable model; empty derives the
	// conventional path from DataDir and ModelSize.
	ModelPath string
	// ModelSize selects a variant (tiny, base, small, medium, large,
	// large-v2, large-v3, large-v3-turbo); empty means base.
	ModelSize string
	// Language hints the recognizer; empty or "auto" enables detection.
	Language string
	// Translate requests translation to English.
	Translate bool
	// Threads limits inference threads; 0 chooses automatically.
	Threads int
	// UseGPU requests GPU acceleration. Unsupported builds fall back to
	// CPU silently; this is a documented degradation, not an error.
	UseGPU bool

	// Backend optionally overrides the inference backend (native, stub,
	// openai). Empty means native.
	Backend string
	// DataDir roots the model directory for derived paths.
	DataDir string
	// OpenAIKey is consulted only by the openai backend.
	OpenAIKey string
}

func (c Config) internal() config.Config {
	return config.Config{
		ModelPath: c.ModelPath,
		ModelSize: c.ModelSize,
		Language:  c.Language,
		Translate: c.Translate,
		Threads:   c.Threads,
		UseGPU:    c.UseGPU,
		Backend:   c.Backend,
		DataDir:   c.DataDir,
		OpenAIKey: c.OpenAIKey,
	}
}

// Engine wraps the lifecycle manager behind the flat result contract. The
// package-level functions operate on a single shared Engine — the supported
// one-instance-per-process mode; independent Engines exist for tests.
type Engine struct {
	svc *engine.Service
}

// New constructs an uninitialized Engine with the default model loader and
// WAV decoder.
func New() *Engine {
	return &Engine{svc: engine.NewService(engine.ServiceOptions{
		Loader: engine.NewLoader(nil, slog.Default()),
	})}
}

// newWithService exists for tests that need to inject collaborators.
func newWithService(svc *engine.Service) *Engine {
	return &Engine{svc: svc}
}

// Initialize validates cfg, loads the model, and readies the engine. When
// already initialized the previous engine is released and replaced; a
// failed attempt leaves prior state intact.
func (e *Engine) Initialize(cfg Config) Code {
	return codeFor(e.svc.Initialize(context.Background(), cfg.internal()))
}

// InitializeDefault initializes with defaults: auto threads, CPU, auto
// language, no translation, the conventional model path. The usual failure
// is CodeModelNotFound when no model has been fetched yet.
func (e *Engine) InitializeDefault() Code {
	return codeFor(e.svc.InitializeDefault(context.Background()))
}

// TranscribeSamples recognizes speech in mono float32 samples recorded at
// 16 kHz. The returned record is owned by the caller and must be released
// exactly once with Release.
func (e *Engine) TranscribeSamples(samples []float32, sampleRate int) *Result {
	return marshal(e.svc.TranscribeSamples(context.Background(), samples, sampleRate))
}

// TranscribeFile decodes and recognizes an audio file. Ownership of the
// returned record follows TranscribeSamples.
func (e *Engine) TranscribeFile(path string) *Result {
	return marshal(e.svc.TranscribeFile(context.Background(), path))
}

// Shutdown releases the engine; it is idempotent and safe from any
// goroutine.
func (e *Engine) Shutdown() {
	e.svc.Shutdown()
}

// IsInitialized reports whether the engine is ready.
func (e *Engine) IsInitialized() bool {
	return e.svc.IsInitialized()
}

func codeFor(err error) Code {
	switch {
	case err == nil:
		return CodeSuccess
	case errors.Is(err, engine.ErrModelNotFound):
		return CodeModelNotFound
	case errors.Is(err, engine.ErrNotInitialized):
		return CodeNotInitialized
	case errors.Is(err, engine.ErrInvalidParameter):
		return CodeInvalidParameter
	case errors.Is(err, engine.ErrTranscriptionFailed):
		return CodeTranscriptionFailed
	default:
		return CodeError
	}
}

func marshal(t engine.Transcription, err error) *Result {
	if err != nil {
		return failure(codeFor(err), err.Error())
	}
	return &Result{
		Text:             t.Text,
		Language:         t.Language,
		SegmentCount:     len(t.Segments),
		ProcessingTimeMS: t.ProcessingTimeMS,
		AudioDurationMS:  t.AudioDurationMS,
		Code:             CodeSuccess,
	}
}

// The process-wide shared engine behind the package-level functions.
var shared = New()

// Initialize configures and readies the shared engine.
func Initialize(cfg Config) Code { return shared.Initialize(cfg) }

// InitializeDefault readies the shared engine with default configuration.
func InitializeDefault() Code { return shared.InitializeDefault() }

// TranscribeSamples transcribes samples with the shared engine.
func TranscribeSamples(samples []float32, sampleRate int) *Result {
	return shared.TranscribeSamples(samples, sampleRate)
}

// TranscribeFile transcribes an audio file with the shared engine.
func TranscribeFile(path string) *Result { return shared.TranscribeFile(path) }

// Shutdown releases the shared engine.
func Shutdown() { shared.Shutdown() }

// IsInitialized reports whether the shared engine is ready.
func IsInitialized() bool { return shared.IsInitialized() }

// Version returns the library version string.
func Version() string { return moduleinfo.Info.Version }
