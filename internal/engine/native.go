//go:build whispercpp

package engine

/*
#cgo CFLAGS: -I${SRCDIR}/../../third_party/whisper.cpp -I${SRCDIR}/../../third_party/whisper.cpp/include -I${SRCDIR}/../../third_party/whisper.cpp/ggml/include
#cgo CXXFLAGS: -std=c++17 -I${SRCDIR}/../../third_party/whisper.cpp -I${SRCDIR}/../../third_party/whisper.cpp/include -I${SRCDIR}/../../third_party/whisper.cpp/ggml/include
#cgo LDFLAGS: -L${SRCDIR}/../../third_party/whisper.cpp/build -L${SRCDIR}/../../third_party/whisper.cpp/build/src -Wl,-rpath,${SRCDIR}/../../third_party/whisper.cpp/build/src -lwhisper -lstdc++ -lm

#include "stdlib.h"
#include "include/whisper.h"
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unsafe"
)

// ErrNativeUnavailable mirrors the non-cgo build's sentinel so callers can
// test against it regardless of build tags.
var ErrNativeUnavailable = errors.New("engine: native backend unavailable")

// NativeAvailable reports whether the native whisper.cpp backend is compiled in.
func NativeAvailable() bool { return true }

// NativeInferencer runs whole-clip inference through whisper.cpp. A fresh
// whisper state per call keeps concurrent Infer calls independent; inferMu
// serializes access to the shared context, and Close takes it so an in-flight
// call always completes against a live handle.
type NativeInferencer struct {
	inferMu sync.Mutex

	ctx *C.struct_whisper_context
	log *slog.Logger
}

// NewNativeInferencer loads a ggml model from modelPath. GPU support is
// advisory: whisper.cpp falls back to CPU when the build lacks it.
func NewNativeInferencer(modelPath string, useGPU bool, logger *slog.Logger) (Inferencer, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("%w: model path required", ErrInvalidParameter)
	}
	if logger == nil {
		logger = slog.Default()
	}

	cPath := C.CString(modelPath)
	defer C.free(unsafe.Pointer(cPath))
	cParams := C.whisper_context_default_params()
	cParams.use_gpu = C.bool(useGPU)

	ctx := C.whisper_init_from_file_with_params(cPath, cParams)
	if ctx == nil {
		return nil, fmt.Errorf("%w: failed to load model %s", ErrModelNotFound, modelPath)
	}

	return &NativeInferencer{
		ctx: ctx,
		log: logger.With("component", "engine.native"),
	}, nil
}

// Infer implements the Inferencer interface.
func (e *NativeInferencer) Infer(ctx context.Context, samples []float32, sampleRate int, opts InferOptions) (Inference, error) {
	if err := ctx.Err(); err != nil {
		return Inference{}, err
	}
	if len(samples) == 0 {
		return Inference{}, nil
	}

	e.inferMu.Lock()
	defer e.inferMu.Unlock()

	if e.ctx == nil {
		return Inference{}, fmt.Errorf("whisper: context released")
	}

	state := C.whisper_init_state(e.ctx)
	if state == nil {
		return Inference{}, errors.New("whisper: failed to initialise state")
	}
	defer C.whisper_free_state(state)

	params := C.whisper_full_default_params(C.WHISPER_SAMPLING_GREEDY)
	params.print_progress = C.bool(false)
	params.print_realtime = C.bool(false)
	params.print_timestamps = C.bool(false)
	params.print_special = C.bool(false)
	params.suppress_blank = C.bool(true)
	params.translate = C.bool(opts.Translate)
	params.single_segment = C.bool(false)
	if opts.Threads > 0 {
		params.n_threads = C.int(opts.Threads)
	}

	lang := strings.TrimSpace(opts.Language)
	if lang == "" {
		lang = "auto"
	}
	cLang := C.CString(lang)
	defer C.free(unsafe.Pointer(cLang))
	params.language = cLang
	if strings.EqualFold(lang, "auto") {
		params.detect_language = C.bool(true)
	}

	cSamples := (*C.float)(unsafe.Pointer(&samples[0]))
	if ret := C.whisper_full_with_state(e.ctx, state, params, cSamples, C.int(len(samples))); ret != 0 {
		return Inference{}, fmt.Errorf("whisper: inference failed with code %d", int(ret))
	}

	return collectInference(state, lang), nil
}

// Close releases the whisper context. It blocks until in-flight inference
// completes so the handle is never freed under a running call.
func (e *NativeInferencer) Close() error {
	e.inferMu.Lock()
	defer e.inferMu.Unlock()
	if e.ctx != nil {
		C.whisper_free(e.ctx)
		e.ctx = nil
	}
	return nil
}

func collectInference(state *C.struct_whisper_state, requested string) Inference {
	count := int(C.whisper_full_n_segments_from_state(state))

	var (
		builder  strings.Builder
		segments []Segment
	)
	for i := 0; i < count; i++ {
		text := strings.TrimSpace(C.GoString(C.whisper_full_get_segment_text_from_state(state, C.int(i))))
		if text == "" {
			continue
		}
		// whisper timestamps are centiseconds.
		startMS := int64(C.whisper_full_get_segment_t0_from_state(state, C.int(i))) * 10
		endMS := int64(C.whisper_full_get_segment_t1_from_state(state, C.int(i))) * 10

		if builder.Len() > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(text)
		segments = append(segments, Segment{StartMS: startMS, EndMS: endMS, Text: text})
	}

	language := requested
	if strings.EqualFold(requested, "auto") {
		if id := C.whisper_full_lang_id_from_state(state); id >= 0 {
			if str := C.whisper_lang_str(id); str != nil {
				language = C.GoString(str)
			}
		}
	}

	return Inference{
		Text:     builder.String(),
		Language: language,
		Segments: segments,
	}
}
