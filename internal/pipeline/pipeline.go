package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/keagan/vico/internal/audio"
	"github.com/keagan/vico/internal/config"
	"github.com/keagan/vico/internal/effects"
	"github.com/keagan/vico/internal/errs"
	"github.com/keagan/vico/internal/ffmpeg"
	"github.com/keagan/vico/internal/framestore"
	"github.com/keagan/vico/internal/render"
	"github.com/keagan/vico/internal/sequence"
	"github.com/keagan/vico/pkg/util"
	"github.com/rs/zerolog"
)

// Backend is the external media tooling the pipeline delegates to
type Backend interface {
	sequence.Prober
	render.FrameExtractor
	framestore.Encoder
	audio.PCMSource
}

// Pipeline orchestrates a render job from audio analysis to the encoded file
type Pipeline struct {
	logger   zerolog.Logger
	config   *config.Config
	backend  Backend
	profiler *audio.Profiler
}

// New creates a pipeline backed by the ffmpeg binaries
func New(logger zerolog.Logger, cfg *config.Config) (*Pipeline, error) {
	exec, err := ffmpeg.New(logger, cfg.FFmpeg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}
	return NewWithBackend(logger, cfg, exec), nil
}

// NewWithBackend creates a pipeline around any Backend
func NewWithBackend(logger zerolog.Logger, cfg *config.Config, backend Backend) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}

	decoder := audio.NewFileDecoder(logger, backend)

	return &Pipeline{
		logger:   logger.With().Str("component", "pipeline").Logger(),
		config:   cfg,
		backend:  backend,
		profiler: audio.NewProfiler(logger, decoder, cfg.Analysis),
	}
}

// Profile builds the spectral profile of an audio file
func (p *Pipeline) Profile(ctx context.Context, audioPath string) (*audio.Profile, error) {
	if audioPath == "" {
		return nil, errs.Configf("audio path cannot be empty")
	}
	return p.profiler.Profile(ctx, audioPath)
}

// Render executes every stage of a render job. The frame store is released
// on every exit path, including cancellation.
func (p *Pipeline) Render(ctx context.Context, req RenderRequest, opts RenderOptions) (*RenderResult, error) {
	start := time.Now()

	// Stage 1: validate everything before touching any media
	params, err := p.effectParams(req)
	if err != nil {
		return nil, err
	}
	engine, err := effects.NewEngine(params)
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("output", req.Output).
		Str("audio", req.Audio).
		Int("videos", len(req.Videos)).
		Int("fps", req.FPS).
		Msg("starting render pipeline")

	if req.Crossfade > 0 {
		p.logger.Debug().
			Float64("crossfade", req.Crossfade).
			Str("mode", req.CrossfadeMode).
			Msg("crossfade is reserved and has no effect")
	}

	// Stage 2: spectral profile
	profile, err := p.profiler.Profile(ctx, req.Audio)
	if err != nil {
		return nil, fmt.Errorf("profile audio: %w", err)
	}
	sampler, err := audio.NewSampler(profile)
	if err != nil {
		return nil, err
	}
	if profile.Duration <= 0 {
		return nil, errs.Decodef("audio %s has zero duration", req.Audio)
	}

	// Stage 3: source sequence covering the audio
	clips, err := sequence.ProbeClips(ctx, p.backend, req.Videos, p.workers(req))
	if err != nil {
		return nil, fmt.Errorf("probe sources: %w", err)
	}
	seq, err := sequence.Build(clips, profile.Duration, req.Reverse)
	if err != nil {
		return nil, err
	}
	width, height := seq.Canvas()

	p.logger.Info().
		Float64("duration", profile.Duration).
		Int("segments", len(seq.Segments)).
		Float64("sequence_duration", seq.Duration).
		Int("width", width).
		Int("height", height).
		Msg("source sequence built")

	// Stage 4: render into the scoped frame store
	store, err := framestore.Open(p.logger, p.config.TempDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			p.logger.Warn().Err(cerr).Msg("failed to release frame store")
		}
	}()

	total := render.FrameCount(profile.Duration, req.FPS)
	if opts.OnFrames != nil {
		opts.OnFrames(total)
	}

	renderer := render.New(p.logger, p.backend, render.Options{
		Workers:     p.workers(req),
		WindowAhead: p.config.Render.WindowAhead,
		Progress:    opts.FrameProgress,
	})

	job := render.Job{
		Sequence: seq,
		Sampler:  sampler,
		Engine:   engine,
		FPS:      req.FPS,
		Duration: profile.Duration,
	}
	if err := renderer.Render(ctx, job, store); err != nil {
		return nil, fmt.Errorf("render frames: %w", err)
	}

	// Stage 5: encode
	if err := store.Encode(ctx, p.backend, framestore.EncodeOptions{
		FPS:       req.FPS,
		AudioPath: req.Audio,
		Output:    req.Output,
		Progress:  opts.EncodeProgress,
	}); err != nil {
		return nil, err
	}

	result := &RenderResult{
		Output:   req.Output,
		Frames:   store.Count(),
		FPS:      req.FPS,
		Duration: profile.Duration,
		Segments: len(seq.Segments),
		Width:    width,
		Height:   height,
		Elapsed:  time.Since(start),
	}

	p.logger.Info().
		Str("output", result.Output).
		Int("frames", result.Frames).
		Dur("elapsed", result.Elapsed).
		Msg("render pipeline complete")

	return result, nil
}

// effectParams validates req and converts it into effect parameters
func (p *Pipeline) effectParams(req RenderRequest) (effects.Params, error) {
	if req.Output == "" {
		return effects.Params{}, errs.Configf("output path cannot be empty")
	}
	if req.Audio == "" {
		return effects.Params{}, errs.Configf("audio path cannot be empty")
	}
	if len(req.Videos) == 0 {
		return effects.Params{}, errs.Configf("at least one source video is required")
	}
	for _, path := range append([]string{req.Audio}, req.Videos...) {
		if !util.FileExists(path) {
			return effects.Params{}, errs.Decodef("input %s does not exist", path)
		}
	}
	if req.Crossfade < 0 {
		return effects.Params{}, errs.Configf("crossfade must not be negative")
	}
	switch strings.ToLower(req.CrossfadeMode) {
	case "", CrossfadeFFmpeg, CrossfadeMoviepy:
	default:
		return effects.Params{}, errs.Configf("unknown crossfade mode %q", req.CrossfadeMode)
	}

	policy, err := effects.ParseOpenPolicy(p.config.Render.OpenWindow)
	if err != nil {
		return effects.Params{}, err
	}

	zoom, err := effects.ParseWindows(req.ZoomRanges)
	if err != nil {
		return effects.Params{}, fmt.Errorf("zoom range: %w", err)
	}
	shake, err := effects.ParseWindows(req.ShakeRanges)
	if err != nil {
		return effects.Params{}, fmt.Errorf("shake range: %w", err)
	}
	glitch, err := effects.ParseWindows(req.GlitchRanges)
	if err != nil {
		return effects.Params{}, fmt.Errorf("glitch range: %w", err)
	}

	seed := p.config.Seed
	if req.SeedSet {
		seed = req.Seed
	}

	return effects.Params{
		Factor:          req.Factor,
		ZoomFactor:      req.ZoomFactor,
		ZoomWindows:     zoom,
		Shake:           req.Shake,
		ShakeIntensity:  req.ShakeIntensity,
		ShakeWindows:    shake,
		Glitch:          req.Glitch,
		GlitchIntensity: req.GlitchIntensity,
		GlitchWindows:   glitch,
		Debug:           req.Debug,
		Seed:            seed,
		FPS:             req.FPS,
		OpenPolicy:      policy,
	}, nil
}

func (p *Pipeline) workers(req RenderRequest) int {
	if req.Workers > 0 {
		return req.Workers
	}
	return p.config.Workers()
}
