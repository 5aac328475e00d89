package whispercore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/betterfasterwhisper/whisper-core/internal/audio"
	"github.com/betterfasterwhisper/whisper-core/internal/config"
	"github.com/betterfasterwhisper/whisper-core/internal/engine"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubEngine builds an independent Engine backed by the stub inferencer.
func stubEngine() *Engine {
	svc := engine.NewService(engine.ServiceOptions{
		Loader: func(ctx context.Context, cfg config.Config) (engine.Inferencer, error) {
			return engine.NewStubInferencer(discardLogger(), cfg.ModelSize), nil
		},
		Logger: discardLogger(),
	})
	return newWithService(svc)
}

// failingEngine builds an Engine whose loader always fails with err.
func failingEngine(err error) *Engine {
	svc := engine.NewService(engine.ServiceOptions{
		Loader: func(ctx context.Context, cfg config.Config) (engine.Inferencer, error) {
			return nil, err
		},
		Logger: discardLogger(),
	})
	return newWithService(svc)
}

func TestInitializeLifecycle(t *testing.T) {
	e := stubEngine()
	if e.IsInitialized() {
		t.Fatalf("fresh engine must not be initialized")
	}
	if code := e.Initialize(Config{}); code != CodeSuccess {
		t.Fatalf("Initialize = %v, want success", code)
	}
	if !e.IsInitialized() {
		t.Fatalf("expected initialized")
	}
	e.Shutdown()
	if e.IsInitialized() {
		t.Fatalf("expected uninitialized after Shutdown")
	}

	// Round-trip: the second cycle behaves like the first.
	if code := e.Initialize(Config{}); code != CodeSuccess {
		t.Fatalf("reinitialize after shutdown = %v, want success", code)
	}
	e.Shutdown()
}

func TestInitializeInvalidConfig(t *testing.T) {
	e := stubEngine()
	if code := e.Initialize(Config{Threads: -2}); code != CodeInvalidParameter {
		t.Fatalf("Initialize = %v, want invalid_parameter", code)
	}
	if e.IsInitialized() {
		t.Fatalf("failed Initialize must leave engine uninitialized")
	}
}

func TestInitializeDefaultWithoutModel(t *testing.T) {
	e := failingEngine(fmt.Errorf("%w: no model at default path", engine.ErrModelNotFound))
	if code := e.InitializeDefault(); code != CodeModelNotFound {
		t.Fatalf("InitializeDefault = %v, want model_not_found", code)
	}
	if e.IsInitialized() {
		t.Fatalf("IsInitialized must stay false after model_not_found")
	}
}

func TestTranscribeSamplesNotInitialized(t *testing.T) {
	e := stubEngine()
	result := e.TranscribeSamples(make([]float32, 16000), audio.SampleRate)
	if result.Code != CodeNotInitialized {
		t.Fatalf("code = %v, want not_initialized", result.Code)
	}
	if result.Text != "" || result.Language != "" {
		t.Fatalf("failure result must carry empty text/language")
	}
	if result.ErrorMessage == "" {
		t.Fatalf("failure result must carry a diagnostic message")
	}
	Release(result)
}

func TestTranscribeSamplesZeroCount(t *testing.T) {
	e := stubEngine()
	if code := e.Initialize(Config{}); code != CodeSuccess {
		t.Fatalf("Initialize = %v", code)
	}
	result := e.TranscribeSamples(nil, audio.SampleRate)
	if result.Code != CodeInvalidParameter {
		t.Fatalf("code = %v, want invalid_parameter", result.Code)
	}
	Release(result)
}

func TestTranscribeSamplesRateMismatch(t *testing.T) {
	e := stubEngine()
	if code := e.Initialize(Config{}); code != CodeSuccess {
		t.Fatalf("Initialize = %v", code)
	}
	result := e.TranscribeSamples(make([]float32, 44100), 44100)
	if result.Code != CodeInvalidParameter {
		t.Fatalf("code = %v, want invalid_parameter", result.Code)
	}
	Release(result)
}

func TestTranscribeSamplesSuccess(t *testing.T) {
	e := stubEngine()
	if code := e.Initialize(Config{Language: "en"}); code != CodeSuccess {
		t.Fatalf("Initialize = %v", code)
	}

	result := e.TranscribeSamples(make([]float32, 32000), 16000)
	if result.Code != CodeSuccess {
		t.Fatalf("code = %v (%s), want success", result.Code, result.ErrorMessage)
	}
	if result.AudioDurationMS != 2000 {
		t.Fatalf("audio duration = %d, want 2000", result.AudioDurationMS)
	}
	if result.Text == "" {
		t.Fatalf("success result must carry text")
	}
	if result.ErrorMessage != "" {
		t.Fatalf("success result must carry no error message")
	}
	if result.SegmentCount != 1 {
		t.Fatalf("segment count = %d, want 1", result.SegmentCount)
	}
	Release(result)
}

func TestTranscribeFileEmptyPath(t *testing.T) {
	e := stubEngine()
	if code := e.Initialize(Config{}); code != CodeSuccess {
		t.Fatalf("Initialize = %v", code)
	}
	result := e.TranscribeFile("")
	if result.Code != CodeInvalidParameter {
		t.Fatalf("code = %v, want invalid_parameter", result.Code)
	}
	Release(result)
}

func TestTranscribeFileDecodeFailure(t *testing.T) {
	svc := engine.NewService(engine.ServiceOptions{
		Loader: func(ctx context.Context, cfg config.Config) (engine.Inferencer, error) {
			return engine.NewStubInferencer(discardLogger(), cfg.ModelSize), nil
		},
		Decoder: func(path string) (audio.Buffer, error) {
			return audio.Buffer{}, errors.New("corrupt header")
		},
		Logger: discardLogger(),
	})
	e := newWithService(svc)
	if code := e.Initialize(Config{}); code != CodeSuccess {
		t.Fatalf("Initialize = %v", code)
	}

	result := e.TranscribeFile("broken.wav")
	if result.Code != CodeError {
		t.Fatalf("code = %v, want generic error for decode failure", result.Code)
	}
	if !strings.Contains(result.ErrorMessage, "corrupt header") {
		t.Fatalf("decoder message missing from %q", result.ErrorMessage)
	}
	Release(result)
}

func TestTranscriptionFailedCode(t *testing.T) {
	svc := engine.NewService(engine.ServiceOptions{
		Loader: func(ctx context.Context, cfg config.Config) (engine.Inferencer, error) {
			return failingInferencer{}, nil
		},
		Logger: discardLogger(),
	})
	e := newWithService(svc)
	if code := e.Initialize(Config{}); code != CodeSuccess {
		t.Fatalf("Initialize = %v", code)
	}

	result := e.TranscribeSamples(make([]float32, 16000), audio.SampleRate)
	if result.Code != CodeTranscriptionFailed {
		t.Fatalf("code = %v, want transcription_failed", result.Code)
	}
	Release(result)
}

type failingInferencer struct{}

func (failingInferencer) Infer(context.Context, []float32, int, engine.InferOptions) (engine.Inference, error) {
	return engine.Inference{}, errors.New("inference blew up")
}

func (failingInferencer) Close() error { return nil }

func TestReleaseIdempotent(t *testing.T) {
	result := &Result{
		Text:             "hello",
		Language:         "en",
		SegmentCount:     2,
		ProcessingTimeMS: 10,
		AudioDurationMS:  1000,
		Code:             CodeSuccess,
	}

	Release(result)
	if !result.Released() {
		t.Fatalf("expected released")
	}
	if result.Text != "" || result.Language != "" || result.ErrorMessage != "" {
		t.Fatalf("release must clear owned strings")
	}
	if result.SegmentCount != 0 || result.AudioDurationMS != 0 {
		t.Fatalf("release must zero counters")
	}

	// Double release and zero-valued release are safe no-ops.
	Release(result)
	Release(&Result{})
	Release(nil)

	var nilResult *Result
	if !nilResult.Released() {
		t.Fatalf("nil result reads as released")
	}
}

func TestConcurrentTranscriptions(t *testing.T) {
	e := stubEngine()
	if code := e.Initialize(Config{}); code != CodeSuccess {
		t.Fatalf("Initialize = %v", code)
	}

	const workers = 12
	var wg sync.WaitGroup
	results := make([]*Result, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.TranscribeSamples(make([]float32, 16000+i*320), audio.SampleRate)
		}(i)
	}
	wg.Wait()

	for i, result := range results {
		if result.Code != CodeSuccess {
			t.Fatalf("worker %d: code = %v (%s)", i, result.Code, result.ErrorMessage)
		}
		want := fmt.Sprintf("%d samples", 16000+i*320)
		if !strings.Contains(result.Text, want) {
			t.Fatalf("worker %d: text %q does not mention %q", i, result.Text, want)
		}
		Release(result)
	}
}

func TestVersion(t *testing.T) {
	if Version() == "" {
		t.Fatalf("Version must not be empty")
	}
}

func TestCodeStrings(t *testing.T) {
	cases := map[Code]string{
		CodeSuccess:             "success",
		CodeError:               "error",
		CodeModelNotFound:       "model_not_found",
		CodeNotInitialized:      "not_initialized",
		CodeInvalidParameter:    "invalid_parameter",
		CodeTranscriptionFailed: "transcription_failed",
	}
	for code, want := range cases {
		if got := code.String(); got != want {
			t.Fatalf("Code(%d).String() = %q, want %q", code, got, want)
		}
	}
	if got := Code(42).String(); got != "unknown" {
		t.Fatalf("unexpected string for unknown code: %q", got)
	}
}
