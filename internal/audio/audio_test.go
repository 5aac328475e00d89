package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDurationMS(t *testing.T) {
	buf := NewBuffer(make([]float32, 32000), 16000)
	if got := buf.DurationMS(); got != 2000 {
		t.Fatalf("expected 2000ms, got %d", got)
	}

	empty := NewBuffer(nil, 0)
	if got := empty.DurationMS(); got != 0 {
		t.Fatalf("expected 0ms for empty buffer, got %d", got)
	}
}

func TestResampleHalvesLength(t *testing.T) {
	samples := make([]float32, 48000)
	for i := range samples {
		samples[i] = float32(math.Sin(float64(i) / 48000))
	}
	buf := NewBuffer(samples, 48000)
	resampled := buf.Resample(16000)
	if resampled.Rate() != 16000 {
		t.Fatalf("expected rate 16000, got %d", resampled.Rate())
	}
	if resampled.Len() != 16000 {
		t.Fatalf("expected 16000 samples, got %d", resampled.Len())
	}
}

func TestResampleNoopAtTargetRate(t *testing.T) {
	buf := NewBuffer([]float32{0.1, 0.2, 0.3}, 16000)
	resampled := buf.Resample(16000)
	if resampled.Len() != 3 || resampled.Rate() != 16000 {
		t.Fatalf("expected unchanged buffer, got %d samples at %d", resampled.Len(), resampled.Rate())
	}
}

func TestDownmixStereo(t *testing.T) {
	mono := DownmixStereo([]float32{1, 0, 0.5, 0.5, -1, 1})
	want := []float32{0.5, 0.5, 0}
	if len(mono) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(mono))
	}
	for i := range want {
		if mono[i] != want[i] {
			t.Fatalf("sample %d: want %f, got %f", i, want[i], mono[i])
		}
	}
}

func TestPCM16ToFloat32(t *testing.T) {
	buf := make([]byte, 6)
	binary.LittleEndian.PutUint16(buf[0:], uint16(int16(0)))
	binary.LittleEndian.PutUint16(buf[2:], uint16(int16(16384)))
	minSample := int16(-32768)
	binary.LittleEndian.PutUint16(buf[4:], uint16(minSample))

	samples := PCM16ToFloat32(buf)
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if samples[0] != 0 {
		t.Fatalf("expected 0, got %f", samples[0])
	}
	if samples[1] != 0.5 {
		t.Fatalf("expected 0.5, got %f", samples[1])
	}
	if samples[2] != -1 {
		t.Fatalf("expected -1, got %f", samples[2])
	}
}

func writeWAV(t *testing.T, path string, samples []int16, channels uint16, rate uint32) {
	t.Helper()
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(s))
	}

	var body bytes.Buffer
	body.WriteString("WAVE")
	body.WriteString("fmt ")
	binary.Write(&body, binary.LittleEndian, uint32(16))
	binary.Write(&body, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&body, binary.LittleEndian, channels)
	binary.Write(&body, binary.LittleEndian, rate)
	binary.Write(&body, binary.LittleEndian, rate*uint32(channels)*2) // byte rate
	binary.Write(&body, binary.LittleEndian, channels*2)              // block align
	binary.Write(&body, binary.LittleEndian, uint16(16))              // bits
	body.WriteString("data")
	binary.Write(&body, binary.LittleEndian, uint32(len(data)))
	body.Write(data)

	var file bytes.Buffer
	file.WriteString("RIFF")
	binary.Write(&file, binary.LittleEndian, uint32(body.Len()))
	file.Write(body.Bytes())

	if err := os.WriteFile(path, file.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
}

func TestDecodeWAVMono16k(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	samples := make([]int16, 16000)
	for i := range samples {
		samples[i] = int16(8192 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}
	writeWAV(t, path, samples, 1, 16000)

	buf, err := DecodeWAV(path)
	if err != nil {
		t.Fatalf("DecodeWAV error: %v", err)
	}
	if buf.Rate() != SampleRate {
		t.Fatalf("expected rate %d, got %d", SampleRate, buf.Rate())
	}
	if buf.Len() != 16000 {
		t.Fatalf("expected 16000 samples, got %d", buf.Len())
	}
	if buf.DurationMS() != 1000 {
		t.Fatalf("expected 1000ms, got %d", buf.DurationMS())
	}
}

func TestDecodeWAVStereoResampled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	// One second of stereo audio at 32 kHz.
	samples := make([]int16, 64000)
	writeWAV(t, path, samples, 2, 32000)

	buf, err := DecodeWAV(path)
	if err != nil {
		t.Fatalf("DecodeWAV error: %v", err)
	}
	if buf.Rate() != SampleRate {
		t.Fatalf("expected rate %d, got %d", SampleRate, buf.Rate())
	}
	if buf.DurationMS() != 1000 {
		t.Fatalf("expected 1000ms, got %d", buf.DurationMS())
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("definitely not audio"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	if _, err := DecodeWAV(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestDecodeWAVMissingFile(t *testing.T) {
	if _, err := DecodeWAV(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
