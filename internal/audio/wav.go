package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

// DecodeWAV reads a RIFF/WAVE file and returns a mono 16 kHz buffer.
// 16-bit PCM and 32-bit float payloads are supported; stereo is downmixed
// and other rates are resampled.
func DecodeWAV(path string) (Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return Buffer{}, fmt.Errorf("audio: open %s: %w", path, err)
	}
	defer f.Close()
	return decodeWAV(f)
}

func decodeWAV(r io.Reader) (Buffer, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Buffer{}, fmt.Errorf("audio: read riff header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return Buffer{}, fmt.Errorf("audio: not a wav file")
	}

	var (
		format     uint16
		channels   uint16
		sampleRate uint32
		bits       uint16
		haveFmt    bool
	)

	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return Buffer{}, fmt.Errorf("audio: wav has no data chunk")
			}
			return Buffer{}, fmt.Errorf("audio: read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return Buffer{}, fmt.Errorf("audio: read fmt chunk: %w", err)
			}
			if size < 16 {
				return Buffer{}, fmt.Errorf("audio: fmt chunk too short")
			}
			format = binary.LittleEndian.Uint16(body[0:2])
			channels = binary.LittleEndian.Uint16(body[2:4])
			sampleRate = binary.LittleEndian.Uint32(body[4:8])
			bits = binary.LittleEndian.Uint16(body[14:16])
			haveFmt = true
		case "data":
			if !haveFmt {
				return Buffer{}, fmt.Errorf("audio: wav data chunk precedes fmt chunk")
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return Buffer{}, fmt.Errorf("audio: read data chunk: %w", err)
			}
			return samplesFromData(body, format, channels, int(sampleRate), bits)
		default:
			// Skip LIST, INFO and other metadata chunks. Chunks are padded
			// to even sizes.
			skip := int64(size)
			if size%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return Buffer{}, fmt.Errorf("audio: skip %s chunk: %w", id, err)
			}
		}
	}
}

// EncodeWAV writes the buffer as a mono 16-bit PCM WAV stream. Samples are
// clamped to [-1, 1].
func EncodeWAV(w io.Writer, buf Buffer) error {
	dataLen := uint32(buf.Len() * 2)
	rate := uint32(buf.Rate())

	var header bytes.Buffer
	header.WriteString("RIFF")
	binary.Write(&header, binary.LittleEndian, 36+dataLen)
	header.WriteString("WAVE")
	header.WriteString("fmt ")
	binary.Write(&header, binary.LittleEndian, uint32(16))
	binary.Write(&header, binary.LittleEndian, uint16(wavFormatPCM))
	binary.Write(&header, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&header, binary.LittleEndian, rate)
	binary.Write(&header, binary.LittleEndian, rate*2) // byte rate
	binary.Write(&header, binary.LittleEndian, uint16(2))
	binary.Write(&header, binary.LittleEndian, uint16(16))
	header.WriteString("data")
	binary.Write(&header, binary.LittleEndian, dataLen)
	if _, err := w.Write(header.Bytes()); err != nil {
		return fmt.Errorf("audio: write wav header: %w", err)
	}

	pcm := make([]byte, 2*buf.Len())
	for i, s := range buf.Samples() {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(s*32767)))
	}
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("audio: write wav data: %w", err)
	}
	return nil
}

func samplesFromData(data []byte, format, channels uint16, rate int, bits uint16) (Buffer, error) {
	if channels == 0 || channels > 2 {
		return Buffer{}, fmt.Errorf("audio: unsupported channel count %d", channels)
	}
	if rate <= 0 {
		return Buffer{}, fmt.Errorf("audio: invalid sample rate %d", rate)
	}

	var samples []float32
	switch {
	case format == wavFormatPCM && bits == 16:
		samples = PCM16ToFloat32(data)
	case format == wavFormatFloat && bits == 32:
		n := len(data) / 4
		samples = make([]float32, n)
		for i := 0; i < n; i++ {
			samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
		}
	default:
		return Buffer{}, fmt.Errorf("audio: unsupported wav encoding (format %d, %d bits)", format, bits)
	}

	if channels == 2 {
		samples = DownmixStereo(samples)
	}

	buf := NewBuffer(samples, rate)
	if rate != SampleRate {
		buf = buf.Resample(SampleRate)
	}
	return buf, nil
}
