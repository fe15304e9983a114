package ffmpeg

import (
	"context"
	"fmt"

	"github.com/keagan/vico/internal/errs"
)

// EncodeSequence muxes a numbered image sequence with an audio track.
// The output ends with the shorter of the two streams.
func (e *Executor) EncodeSequence(ctx context.Context, opts EncodeOptions) error {
	if err := validateEncodeOptions(opts); err != nil {
		return errs.Configf("invalid encode options: %v", err)
	}

	e.logger.Info().
		Str("pattern", opts.Pattern).
		Str("audio", opts.AudioPath).
		Str("output", opts.Output).
		Int("fps", opts.FPS).
		Msg("starting encode")

	logHandler, diagnostics := e.captureLines("encode output")

	runOpts := RunOptions{
		Args:            e.encodeArgs(opts),
		ProgressHandler: opts.ProgressFunc,
		LogHandler:      logHandler,
	}

	if err := e.Run(ctx, runOpts); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &errs.EncodeError{Output: diagnostics(), Err: err}
	}

	e.logger.Info().Str("output", opts.Output).Msg("encode completed")
	return nil
}

// encodeArgs builds the input, filter and codec arguments for EncodeSequence
func (e *Executor) encodeArgs(opts EncodeOptions) []string {
	videoCodec := e.cfg.VideoCodec
	if videoCodec == "" {
		videoCodec = DefaultVideoCodec
	}
	audioCodec := e.cfg.AudioCodec
	if audioCodec == "" {
		audioCodec = DefaultAudioCodec
	}
	preset := e.cfg.Preset
	if preset == "" {
		preset = DefaultPreset
	}
	crf := e.cfg.CRF
	if crf == 0 {
		crf = DefaultCRF
	}
	pixFmt := e.cfg.PixelFormat
	if pixFmt == "" {
		pixFmt = DefaultPixelFormat
	}

	filter := NewFilterBuilder().EvenDimensions().Format(pixFmt).Build()

	return []string{
		"-framerate", fmt.Sprintf("%d", opts.FPS),
		"-i", opts.Pattern,
		"-i", opts.AudioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-vf", filter,
		"-c:v", videoCodec,
		"-preset", preset,
		"-crf", fmt.Sprintf("%d", crf),
		"-c:a", audioCodec,
		"-shortest",
		opts.Output,
	}
}

// validateEncodeOptions validates the encode options
func validateEncodeOptions(opts EncodeOptions) error {
	if opts.Pattern == "" {
		return fmt.Errorf("frame pattern is required")
	}
	if opts.AudioPath == "" {
		return fmt.Errorf("audio path is required")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if opts.FPS <= 0 {
		return fmt.Errorf("fps must be positive")
	}
	return nil
}
