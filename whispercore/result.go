// Package whispercore is the public boundary of the transcription engine:
// callers configure and initialize a single process-wide engine, submit
// audio, and receive flat Result records they own until an explicit Release.
// Internal typed errors are flattened into result codes and diagnostic
// strings only at this layer.
package whispercore

// Code is the flat outcome of a boundary operation. Callers distinguish
// "fix your config", "call Initialize first" and "retry" purely from the
// code; the message is diagnostic only.
type Code int

const (
	CodeSuccess             Code = 0
	CodeError               Code = -1
	CodeModelNotFound       Code = -2
	CodeNotInitialized      Code = -3
	CodeInvalidParameter    Code = -4
	CodeTranscriptionFailed Code = -5
)

func (c Code) String() string {
	switch c {
	case CodeSuccess:
		return "success"
	case CodeError:
		return "error"
	case CodeModelNotFound:
		return "model_not_found"
	case CodeNotInitialized:
		return "not_initialized"
	case CodeInvalidParameter:
		return "invalid_parameter"
	case CodeTranscriptionFailed:
		return "transcription_failed"
	default:
		return "unknown"
	}
}

// Result is the record a transcription call hands to the caller. The caller
// owns it exclusively until Release; on success ErrorMessage is empty, on
// failure Text and Language are empty and SegmentCount is meaningless.
type Result struct {
	Text             string
	Language         string
	SegmentCount     int
	ProcessingTimeMS int64
	AudioDurationMS  int64
	Code             Code
	ErrorMessage     string

	released bool
}

// Released reports whether the record has been released. Reading other
// fields after release yields empty values rather than stale data.
func (r *Result) Released() bool {
	if r == nil {
		return true
	}
	return r.released
}

// Release frees the record's owned strings and marks it released. It is
// idempotent: a second call, a nil record, and a never-populated record are
// all safe no-ops.
func Release(r *Result) {
	if r == nil || r.released {
		return
	}
	r.Text = ""
	r.Language = ""
	r.ErrorMessage = ""
	r.SegmentCount = 0
	r.ProcessingTimeMS = 0
	r.AudioDurationMS = 0
	r.Code = CodeSuccess
	r.released = true
}

func failure(code Code, message string) *Result {
	return &Result{
		Code:         code,
		ErrorMessage: message,
	}
}
