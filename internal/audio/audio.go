// Package audio provides the PCM buffer type and WAV decoding used by the
// transcription boundary. Decoded audio is always mono float32 at the
// engine's expected 16 kHz rate.
package audio

import (
	"encoding/binary"
	"math"
)

// SampleRate is the rate the recognizer expects (16 kHz).
const SampleRate = 16000

// Buffer holds mono float32 samples at a known rate.
type Buffer struct {
	samples    []float32
	sampleRate int
}

// NewBuffer wraps samples recorded at rate.
func NewBuffer(samples []float32, rate int) Buffer {
	return Buffer{samples: samples, sampleRate: rate}
}

// Samples returns the raw sample slice.
func (b Buffer) Samples() []float32 { return b.samples }

// Rate returns the sample rate.
func (b Buffer) Rate() int { return b.sampleRate }

// Len returns the number of samples.
func (b Buffer) Len() int { return len(b.samples) }

// DurationMS returns the audio duration in milliseconds.
func (b Buffer) DurationMS() int64 {
	if b.sampleRate <= 0 {
		return 0
	}
	return int64(len(b.samples)) * 1000 / int64(b.sampleRate)
}

// Resample converts the buffer to targetRate using linear interpolation.
func (b Buffer) Resample(targetRate int) Buffer {
	if b.sampleRate == targetRate || b.sampleRate <= 0 || len(b.samples) == 0 {
		return Buffer{samples: b.samples, sampleRate: targetRate}
	}

	ratio := float64(targetRate) / float64(b.sampleRate)
	newLen := int(float64(len(b.samples)) * ratio)
	resampled := make([]float32, 0, newLen)

	for i := 0; i < newLen; i++ {
		src := float64(i) / ratio
		idx := int(math.Floor(src))
		next := idx + 1
		if next >= len(b.samples) {
			next = len(b.samples) - 1
		}
		frac := src - float64(idx)
		sample := float64(b.samples[idx])*(1-frac) + float64(b.samples[next])*frac
		resampled = append(resampled, float32(sample))
	}
	return Buffer{samples: resampled, sampleRate: targetRate}
}

// DownmixStereo averages interleaved stereo frames into mono.
func DownmixStereo(interleaved []float32) []float32 {
	mono := make([]float32, 0, (len(interleaved)+1)/2)
	for i := 0; i < len(interleaved); i += 2 {
		left := interleaved[i]
		right := left
		if i+1 < len(interleaved) {
			right = interleaved[i+1]
		}
		mono = append(mono, (left+right)/2)
	}
	return mono
}

// PCM16ToFloat32 converts little-endian 16-bit PCM bytes to float32 samples.
func PCM16ToFloat32(buf []byte) []float32 {
	n := len(buf) / 2
	if n == 0 {
		return nil
	}
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		u := binary.LittleEndian.Uint16(buf[2*i:])
		samples[i] = float32(int16(u)) / 32768.0
	}
	return samples
}
