//go:build !whispercpp

package engine

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNativeUnavailable indicates the whisper.cpp backend was not compiled in.
var ErrNativeUnavailable = errors.New("engine: native backend unavailable (build with -tags whispercpp)")

// NativeAvailable reports whether the native whisper.cpp backend is compiled in.
func NativeAvailable() bool { return false }

// NewNativeInferencer returns an error when the native backend is not built.
func NewNativeInferencer(modelPath string, useGPU bool, logger *slog.Logger) (Inferencer, error) {
	return nil, ErrNativeUnavailable
}

// NativeInferencer satisfies the Inferencer interface when the native
// backend is absent.
type NativeInferencer struct{}

func (e *NativeInferencer) Infer(ctx context.Context, samples []float32, sampleRate int, opts InferOptions) (Inference, error) {
	return Inference{}, ErrNativeUnavailable
}

func (e *NativeInferencer) Close() error { return nil }
