// Package framestore keeps rendered frames in a scoped temporary directory
// and hands them to the encoder.
package framestore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/keagan/vico/internal/errs"
	"github.com/keagan/vico/internal/ffmpeg"
	"github.com/keagan/vico/pkg/util"
	"github.com/rs/zerolog"
)

// FramePattern names frame files for both writing and the encoder input pattern
const FramePattern = "frame_%05d.png"

// Encoder muxes an image sequence with an audio track
type Encoder interface {
	EncodeSequence(ctx context.Context, opts ffmpeg.EncodeOptions) error
}

// Store is a temporary directory of sequentially numbered frames.
// Callers must Close it on every path.
type Store struct {
	logger  zerolog.Logger
	dir     string
	count   int
	encoder *png.Encoder
}

// Open creates the frame directory under parent (the OS temp dir when empty)
func Open(logger zerolog.Logger, parent string) (*Store, error) {
	if parent != "" {
		if err := util.EnsureDir(parent); err != nil {
			return nil, fmt.Errorf("create temp parent: %w", err)
		}
	}

	dir, err := os.MkdirTemp(parent, "vico-frames-")
	if err != nil {
		return nil, fmt.Errorf("create frame store: %w", err)
	}

	s := &Store{
		logger:  logger.With().Str("component", "framestore").Logger(),
		dir:     dir,
		encoder: &png.Encoder{CompressionLevel: png.BestSpeed},
	}
	s.logger.Debug().Str("dir", dir).Msg("frame store opened")
	return s, nil
}

// Dir returns the store directory
func (s *Store) Dir() string {
	return s.dir
}

// Pattern returns the printf-style path of frame files
func (s *Store) Pattern() string {
	return filepath.Join(s.dir, FramePattern)
}

// Count returns the number of frames written
func (s *Store) Count() int {
	return s.count
}

// WriteFrame stores frame index. Frames must arrive as 0, 1, 2, ... without gaps.
func (s *Store) WriteFrame(index int, img *image.RGBA) error {
	if index != s.count {
		return fmt.Errorf("frame %d written out of order, expected %d", index, s.count)
	}

	path := filepath.Join(s.dir, fmt.Sprintf(FramePattern, index))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create frame file: %w", err)
	}

	w := bufio.NewWriter(f)
	if err := s.encoder.Encode(w, img); err != nil {
		f.Close()
		return fmt.Errorf("encode frame %d: %w", index, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write frame %d: %w", index, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close frame %d: %w", index, err)
	}

	s.count++
	return nil
}

// EncodeOptions describes the final mux
type EncodeOptions struct {
	FPS       int
	AudioPath string
	Output    string
	Progress  ffmpeg.ProgressFunc
}

// Encode muxes the stored frames with the audio track into Output.
// The encoder writes a hidden partial file that is renamed into place on
// success and removed on failure.
func (s *Store) Encode(ctx context.Context, enc Encoder, opts EncodeOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.count == 0 {
		return errs.Configf("no frames to encode")
	}
	if opts.Output == "" {
		return errs.Configf("output path cannot be empty")
	}

	if err := util.EnsureDir(filepath.Dir(opts.Output)); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	partial := util.PartialPath(opts.Output)

	s.logger.Info().
		Int("frames", s.count).
		Int("fps", opts.FPS).
		Str("audio", opts.AudioPath).
		Str("output", opts.Output).
		Msg("encoding video")

	err := enc.EncodeSequence(ctx, ffmpeg.EncodeOptions{
		Pattern:      s.Pattern(),
		FPS:          opts.FPS,
		AudioPath:    opts.AudioPath,
		Output:       partial,
		ProgressFunc: opts.Progress,
	})
	if err != nil {
		s.removePartial(partial)
		return err
	}

	if err := os.Rename(partial, opts.Output); err != nil {
		s.removePartial(partial)
		return &errs.EncodeError{Err: fmt.Errorf("move output into place: %w", err)}
	}

	return nil
}

func (s *Store) removePartial(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn().Err(err).Str("file", path).Msg("failed to remove partial output")
	}
}

// Close removes the directory and every frame in it
func (s *Store) Close() error {
	if s.dir == "" {
		return nil
	}
	err := os.RemoveAll(s.dir)
	s.logger.Debug().Str("dir", s.dir).Int("frames", s.count).Msg("frame store released")
	s.dir = ""
	return err
}
