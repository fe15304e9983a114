package audio

import (
	"context"
	"math"
	"math/cmplx"

	"github.com/keagan/vico/internal/config"
	"github.com/keagan/vico/internal/errs"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Profiler builds spectral profiles from audio files
type Profiler struct {
	logger  zerolog.Logger
	decoder Decoder
	cfg     config.AnalysisConfig
}

// NewProfiler creates a profiler using the given analysis settings
func NewProfiler(logger zerolog.Logger, decoder Decoder, cfg config.AnalysisConfig) *Profiler {
	return &Profiler{
		logger:  logger.With().Str("component", "profiler").Logger(),
		decoder: decoder,
		cfg:     cfg,
	}
}

// Profile decodes path and analyzes it
func (p *Profiler) Profile(ctx context.Context, path string) (*Profile, error) {
	buf, err := p.decoder.Decode(ctx, path, p.cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prof, err := Analyze(buf, p.cfg)
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("file", path).
		Int("samples", len(prof.Samples)).
		Float64("duration", prof.Duration).
		Msg("spectral profile built")

	return prof, nil
}

// Analyze runs a short-time Fourier transform over buf and splits each
// frame's magnitude into low/mid/high shares.
//
// Frames are centred: the signal is zero padded by fft/2 on both sides so
// frame k covers the window centred at k*hop samples, and k*hop/sr is its time.
func Analyze(buf *Buffer, cfg config.AnalysisConfig) (*Profile, error) {
	if buf == nil || len(buf.Samples) == 0 || buf.SampleRate <= 0 {
		return nil, errs.Decodef("no audio samples to analyze")
	}
	if cfg.FFTSize <= 0 || cfg.HopLength <= 0 {
		return nil, errs.Configf("fft_size and hop_length must be positive")
	}

	n := cfg.FFTSize
	hop := cfg.HopLength
	sr := float64(buf.SampleRate)

	bands := binBands(n, sr, cfg.LowCutoff, cfg.HighCutoff)
	window := hann(n)
	fft := fourier.NewFFT(n)

	frames := 1 + len(buf.Samples)/hop
	pad := n / 2

	seq := make([]float64, n)
	coeff := make([]complex128, n/2+1)
	samples := make([]Sample, frames)

	for k := 0; k < frames; k++ {
		start := k*hop - pad
		for i := range seq {
			j := start + i
			if j < 0 || j >= len(buf.Samples) {
				seq[i] = 0
				continue
			}
			seq[i] = buf.Samples[j] * window[i]
		}

		coeff = fft.Coefficients(coeff, seq)

		var energy Ratios
		for bin, c := range coeff {
			energy[bands[bin]] += cmplx.Abs(c)
		}

		samples[k] = Sample{
			Time:   float64(k*hop) / sr,
			Ratios: normalize(energy),
		}
	}

	return &Profile{
		SampleRate: buf.SampleRate,
		HopLength:  hop,
		Duration:   buf.Duration(),
		Samples:    samples,
	}, nil
}

// binBands assigns every FFT bin to a band by its centre frequency
func binBands(n int, sr, low, high float64) []Band {
	out := make([]Band, n/2+1)
	for k := range out {
		f := float64(k) * sr / float64(n)
		switch {
		case f < low:
			out[k] = Low
		case f < high:
			out[k] = Mid
		default:
			out[k] = High
		}
	}
	return out
}

// hann returns a periodic Hann window of length n
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

func normalize(e Ratios) Ratios {
	total := e.Sum()
	if total <= 0 {
		return Ratios{}
	}
	return Ratios{e[Low] / total, e[Mid] / total, e[High] / total}
}
