package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// StubInferencer produces deterministic transcripts without running a model.
// It exists so integrations and tests can exercise the full lifecycle and
// ownership contract with no model file present. Output depends only on the
// input clip, so concurrent calls cannot bleed into each other.
type StubInferencer struct {
	log       *slog.Logger
	modelSize string

	mu     sync.Mutex
	closed bool
}

// NewStubInferencer returns an Inferencer that generates placeholder transcripts.
func NewStubInferencer(logger *slog.Logger, modelSize string) *StubInferencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubInferencer{
		log:       logger.With("component", "engine.stub", "model_size", modelSize),
		modelSize: modelSize,
	}
}

// Infer implements the Inferencer interface.
func (s *StubInferencer) Infer(ctx context.Context, samples []float32, sampleRate int, opts InferOptions) (Inference, error) {
	if err := ctx.Err(); err != nil {
		return Inference{}, err
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return Inference{}, fmt.Errorf("stub: inferencer closed")
	}

	durationMS := int64(len(samples)) * 1000 / int64(sampleRate)
	text := fmt.Sprintf("[stub:%s] received %d samples (%d ms)", s.modelSize, len(samples), durationMS)
	s.log.Debug("stub transcript", "samples", len(samples), "duration_ms", durationMS)

	return Inference{
		Text:     text,
		Language: resolveLanguage("", opts.Language),
		Segments: []Segment{{StartMS: 0, EndMS: durationMS, Text: text}},
	}, nil
}

// Close implements the Inferencer interface.
func (s *StubInferencer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
