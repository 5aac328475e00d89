package engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/betterfasterwhisper/whisper-core/internal/audio"
)

// transcriptionClient is the slice of the OpenAI client the backend uses;
// tests substitute a fake.
type transcriptionClient interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
	CreateTranslation(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// OpenAIInferencer delegates recognition to the hosted Whisper API. Samples
// are WAV-encoded in memory for upload.
type OpenAIInferencer struct {
	client transcriptionClient
	log    *slog.Logger
}

// NewOpenAIInferencer builds the remote backend. The API key is required.
func NewOpenAIInferencer(apiKey string, logger *slog.Logger) (*OpenAIInferencer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai: api key required (set OPENAI_API_KEY)")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIInferencer{
		client: openai.NewClient(apiKey),
		log:    logger.With("component", "engine.openai"),
	}, nil
}

// Infer implements the Inferencer interface.
func (o *OpenAIInferencer) Infer(ctx context.Context, samples []float32, sampleRate int, opts InferOptions) (Inference, error) {
	var payload bytes.Buffer
	if err := audio.EncodeWAV(&payload, audio.NewBuffer(samples, sampleRate)); err != nil {
		return Inference{}, err
	}

	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: "clip.wav",
		Reader:   &payload,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}
	if lang := strings.TrimSpace(opts.Language); lang != "" && !strings.EqualFold(lang, "auto") {
		req.Language = lang
	}

	var (
		resp openai.AudioResponse
		err  error
	)
	if opts.Translate {
		resp, err = o.client.CreateTranslation(ctx, req)
	} else {
		resp, err = o.client.CreateTranscription(ctx, req)
	}
	if err != nil {
		return Inference{}, fmt.Errorf("openai: transcription request: %w", err)
	}

	segments := make([]Segment, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		segments = append(segments, Segment{
			StartMS: int64(seg.Start * 1000),
			EndMS:   int64(seg.End * 1000),
			Text:    strings.TrimSpace(seg.Text),
		})
	}

	o.log.Debug("remote transcript", "chars", len(resp.Text), "segments", len(segments))
	return Inference{
		Text:     resp.Text,
		Language: resp.Language,
		Segments: segments,
	}, nil
}

// Close implements the Inferencer interface. The remote client holds no
// local resources.
func (o *OpenAIInferencer) Close() error { return nil }
