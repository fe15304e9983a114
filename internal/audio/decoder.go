package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/keagan/vico/internal/errs"
	"github.com/keagan/vico/pkg/util"
	"github.com/rs/zerolog"
)

// Buffer is a decoded mono sample stream
type Buffer struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the buffer length in seconds
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Decoder turns an audio file into mono samples.
// A sampleRate of 0 keeps the file's native rate.
type Decoder interface {
	Decode(ctx context.Context, path string, sampleRate int) (*Buffer, error)
}

// PCMSource decodes any container ffmpeg understands
type PCMSource interface {
	DecodePCM(ctx context.Context, path string, sampleRate int) ([]float64, int, error)
}

// wavFormatPCM is the WAVE format tag of integer PCM
const wavFormatPCM = 1

// errResample signals that a native decoder cannot produce the requested rate or format
var errResample = errors.New("native decoder cannot handle this input")

// FileDecoder picks a native decoder by extension and falls back to ffmpeg
type FileDecoder struct {
	logger   zerolog.Logger
	fallback PCMSource
}

// NewFileDecoder creates a decoder; fallback may be nil when only WAV/MP3 input is expected
func NewFileDecoder(logger zerolog.Logger, fallback PCMSource) *FileDecoder {
	return &FileDecoder{
		logger:   logger.With().Str("component", "audio-decoder").Logger(),
		fallback: fallback,
	}
}

// Decode implements Decoder
func (d *FileDecoder) Decode(ctx context.Context, path string, sampleRate int) (*Buffer, error) {
	var (
		buf *Buffer
		err error
	)

	switch util.GetExtension(path) {
	case ".wav":
		buf, err = decodeWAV(path, sampleRate)
	case ".mp3":
		buf, err = decodeMP3(path, sampleRate)
	default:
		err = errResample
	}

	if errors.Is(err, errResample) {
		if d.fallback == nil {
			return nil, errs.Decodef("no decoder available for %s", path)
		}
		d.logger.Debug().Str("file", path).Msg("decoding through ffmpeg")
		samples, sr, ferr := d.fallback.DecodePCM(ctx, path, sampleRate)
		if ferr != nil {
			return nil, ferr
		}
		buf, err = &Buffer{Samples: samples, SampleRate: sr}, nil
	}
	if err != nil {
		return nil, err
	}

	if len(buf.Samples) == 0 {
		return nil, errs.Decodef("audio file %s is empty", path)
	}

	d.logger.Debug().
		Str("file", path).
		Int("sample_rate", buf.SampleRate).
		Float64("duration", buf.Duration()).
		Msg("audio decoded")

	return buf, nil
}

// decodeWAV reads integer PCM WAV files and mixes them down to mono
func decodeWAV(path string, sampleRate int) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Decodef("open %s: %v", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errs.Decodef("%s is not a valid WAV file", path)
	}
	// only integer PCM is read natively; float and extensible formats go through ffmpeg
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, errResample
	}
	if sampleRate > 0 && int(dec.SampleRate) != sampleRate {
		return nil, errResample
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, errs.Decodef("read %s: %v", path, err)
	}

	channels := pcm.Format.NumChannels
	bitDepth := int(dec.BitDepth)
	if channels <= 0 || bitDepth <= 0 {
		return nil, errs.Decodef("%s has an invalid WAV header", path)
	}

	scale := float64(int64(1) << (bitDepth - 1))
	if bitDepth == 8 {
		// 8-bit WAV is unsigned; go-audio returns raw 0..255 values
		return &Buffer{Samples: mixdown(pcm.Data, channels, func(v int) float64 { return float64(v-128) / 128 }), SampleRate: int(dec.SampleRate)}, nil
	}
	return &Buffer{Samples: mixdown(pcm.Data, channels, func(v int) float64 { return float64(v) / scale }), SampleRate: int(dec.SampleRate)}, nil
}

// decodeMP3 reads MP3 files; go-mp3 always yields 16-bit little-endian stereo
func decodeMP3(path string, sampleRate int) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Decodef("open %s: %v", path, err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, errs.Decodef("%s: %v", path, err)
	}
	if sampleRate > 0 && dec.SampleRate() != sampleRate {
		return nil, errResample
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, errs.Decodef("read %s: %v", path, err)
	}

	frames := len(raw) / 4
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		l := int16(binary.LittleEndian.Uint16(raw[i*4:]))
		r := int16(binary.LittleEndian.Uint16(raw[i*4+2:]))
		samples[i] = (float64(l) + float64(r)) / (2 * 32768)
	}
	return &Buffer{Samples: samples, SampleRate: dec.SampleRate()}, nil
}

// mixdown averages interleaved channels into one
func mixdown(data []int, channels int, norm func(int) float64) []float64 {
	frames := len(data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += norm(data[i*channels+c])
		}
		out[i] = sum / float64(channels)
	}
	return out
}

// String describes the decoder chain for logs
func (d *FileDecoder) String() string {
	return fmt.Sprintf("wav,mp3,fallback=%t", d.fallback != nil)
}
