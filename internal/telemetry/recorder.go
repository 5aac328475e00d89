// Package telemetry tracks engine-level counters that the daemon logs on
// shutdown and exposes through the status endpoint.
package telemetry

import (
	"log/slog"
	"sync/atomic"
)

// Recorder accumulates cumulative engine metrics. All methods are safe for
// concurrent use and tolerate a nil receiver.
type Recorder struct {
	log *slog.Logger

	initializations      atomic.Uint64
	initFailures         atomic.Uint64
	shutdowns            atomic.Uint64
	transcriptions       atomic.Uint64
	transcriptionErrors  atomic.Uint64
	samplesProcessed     atomic.Uint64
	audioMillisProcessed atomic.Uint64
	processingMillis     atomic.Uint64
}

// Snapshot captures the totals recorded so far.
type Snapshot struct {
	Initializations      uint64
	InitFailures         uint64
	Shutdowns            uint64
	Transcriptions       uint64
	TranscriptionErrors  uint64
	SamplesProcessed     uint64
	AudioMillisProcessed uint64
	ProcessingMillis     uint64
}

// NewRecorder constructs a Recorder using the provided logger.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		log: logger.With("component", "telemetry.Recorder"),
	}
}

// RecordInit counts a successful engine initialization.
func (r *Recorder) RecordInit() {
	if r == nil {
		return
	}
	r.initializations.Add(1)
}

// RecordInitFailure counts a failed initialization attempt.
func (r *Recorder) RecordInitFailure() {
	if r == nil {
		return
	}
	r.initFailures.Add(1)
}

// RecordShutdown counts an engine shutdown.
func (r *Recorder) RecordShutdown() {
	if r == nil {
		return
	}
	r.shutdowns.Add(1)
}

// RecordTranscription counts a completed transcription.
func (r *Recorder) RecordTranscription(samples int, audioMS, processingMS int64) {
	if r == nil {
		return
	}
	r.transcriptions.Add(1)
	if samples > 0 {
		r.samplesProcessed.Add(uint64(samples))
	}
	if audioMS > 0 {
		r.audioMillisProcessed.Add(uint64(audioMS))
	}
	if processingMS > 0 {
		r.processingMillis.Add(uint64(processingMS))
	}
	r.log.Debug("transcription recorded",
		"samples", samples,
		"audio_ms", audioMS,
		"processing_ms", processingMS,
	)
}

// RecordTranscriptionFailure counts a failed transcription attempt.
func (r *Recorder) RecordTranscriptionFailure() {
	if r == nil {
		return
	}
	r.transcriptionErrors.Add(1)
}

// Snapshot returns an immutable view of the recorder totals.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	return Snapshot{
		Initializations:      r.initializations.Load(),
		InitFailures:         r.initFailures.Load(),
		Shutdowns:            r.shutdowns.Load(),
		Transcriptions:       r.transcriptions.Load(),
		TranscriptionErrors:  r.transcriptionErrors.Load(),
		SamplesProcessed:     r.samplesProcessed.Load(),
		AudioMillisProcessed: r.audioMillisProcessed.Load(),
		ProcessingMillis:     r.processingMillis.Load(),
	}
}
