// Package engine owns the transcription engine lifecycle: the phase machine,
// the collaborator interfaces for model loading, inference and audio
// decoding, and the serialization rules that keep concurrent callers from
// observing a half-initialized or half-destroyed engine.
package engine

import (
	"context"
	"errors"
)

// Sentinel errors. The boundary package converts these into flat result
// codes; everything internal stays errors.Is-friendly.
var (
	ErrModelNotFound       = errors.New("engine: model not found")
	ErrNotInitialized      = errors.New("engine: not initialized")
	ErrInvalidParameter    = errors.New("engine: invalid parameter")
	ErrTranscriptionFailed = errors.New("engine: transcription failed")
)

// Phase is the engine lifecycle state.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseInitialized
	PhaseShuttingDown
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitialized:
		return "initialized"
	case PhaseShuttingDown:
		return "shutting_down"
	default:
		return "unknown"
	}
}

// Segment is a contiguous span of recognized speech as produced by the
// inference backend.
type Segment struct {
	StartMS int64
	EndMS   int64
	Text    string
}

// Transcription is the internal success value of a transcription attempt.
type Transcription struct {
	Text             string
	Language         string
	Segments         []Segment
	ProcessingTimeMS int64
	AudioDurationMS  int64
}

// InferOptions carries the per-call hints derived from the engine configuration.
type InferOptions struct {
	// Language is a hint; "auto" requests detection.
	Language  string
	Translate bool
	// Threads limits inference threads; 0 lets the backend choose.
	Threads int
}

// Inference is what a backend produces from raw samples.
type Inference struct {
	Text     string
	Language string
	Segments []Segment
}

// Inferencer runs speech recognition over a complete clip of mono float32
// samples. Implementations must tolerate concurrent Infer calls and must not
// return from Close while an Infer call is in flight.
type Inferencer interface {
	Infer(ctx context.Context, samples []float32, sampleRate int, opts InferOptions) (Inference, error)
	Close() error
}
