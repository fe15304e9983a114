package ffmpeg

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/keagan/vico/internal/errs"
)

// DecodePCM decodes the first audio stream of a file to mono float64 samples.
// A sampleRate of 0 keeps the stream's native rate.
func (e *Executor) DecodePCM(ctx context.Context, input string, sampleRate int) ([]float64, int, error) {
	if sampleRate <= 0 {
		info, err := e.ProbeVideo(ctx, input)
		if err != nil {
			return nil, 0, err
		}
		if !info.HasAudio || info.SampleRate <= 0 {
			return nil, 0, errs.Decodef("%s has no decodable audio stream", input)
		}
		sampleRate = info.SampleRate
	}

	e.logger.Info().
		Str("input", input).
		Int("sample_rate", sampleRate).
		Msg("decoding audio")

	var pcm bytes.Buffer
	logHandler, diagnostics := e.captureLines("audio decode")

	opts := RunOptions{
		Args: []string{
			"-i", input,
			"-vn", // no video
			"-ac", "1", // mono
			"-ar", fmt.Sprintf("%d", sampleRate),
			"-f", "f64le",
			"-c:a", "pcm_f64le",
			"-",
		},
		LogLevel:   "error",
		LogHandler: logHandler,
		Stdout:     &pcm,
	}

	if err := e.Run(ctx, opts); err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, errs.Decodef("decode audio %s: %v: %s", input, err, diagnostics())
	}

	samples := decodeFloat64LE(pcm.Bytes())
	if len(samples) == 0 {
		return nil, 0, errs.Decodef("audio file %s is empty", input)
	}

	return samples, sampleRate, nil
}

// decodeFloat64LE converts raw f64le bytes to samples, dropping a trailing partial sample
func decodeFloat64LE(raw []byte) []float64 {
	n := len(raw) / 8
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		samples[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8 : i*8+8]))
	}
	return samples
}
