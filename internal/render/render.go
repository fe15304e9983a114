// Package render drives frame extraction and effects across a worker pool
// and hands finished frames to a sink in index order.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/keagan/vico/internal/audio"
	"github.com/keagan/vico/internal/effects"
	"github.com/keagan/vico/internal/errs"
	"github.com/keagan/vico/internal/ffmpeg"
	"github.com/keagan/vico/internal/sequence"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultWindowAhead bounds frames dispatched but not yet written
const DefaultWindowAhead = 64

// endOfStreamRetries bounds how many earlier timestamps are tried after a seek
// lands past the last decodable frame
const endOfStreamRetries = 3

// FrameExtractor decodes one source frame at a timestamp
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, req ffmpeg.FrameRequest) (*image.RGBA, error)
}

// Sink receives rendered frames in ascending index order
type Sink interface {
	WriteFrame(index int, img *image.RGBA) error
}

// ProgressFunc is called after each frame is written
type ProgressFunc func(done, total int)

// Job is the read-only state shared by every worker
type Job struct {
	Sequence *sequence.Sequence
	Sampler  *audio.Sampler
	Engine   *effects.Engine
	FPS      int
	Duration float64
}

// Options tunes the worker pool
type Options struct {
	Workers     int
	WindowAhead int
	Progress    ProgressFunc
}

// Renderer renders jobs
type Renderer struct {
	logger    zerolog.Logger
	extractor FrameExtractor
	opts      Options
}

// New creates a renderer; zero options fall back to NumCPU workers and DefaultWindowAhead
func New(logger zerolog.Logger, extractor FrameExtractor, opts Options) *Renderer {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.WindowAhead <= 0 {
		opts.WindowAhead = DefaultWindowAhead
	}
	return &Renderer{
		logger:    logger.With().Str("component", "renderer").Logger(),
		extractor: extractor,
		opts:      opts,
	}
}

// FrameCount is ceil(duration*fps)
func FrameCount(duration float64, fps int) int {
	if duration <= 0 || fps <= 0 {
		return 0
	}
	// absorb float noise such as 2.0*10 = 20.000000000000004
	return int(math.Ceil(duration*float64(fps) - 1e-9))
}

// FrameTime is the output timestamp of frame k
func FrameTime(k, fps int) float64 {
	return float64(k) / float64(fps)
}

type rendered struct {
	index int
	img   *image.RGBA
}

// Render produces every output frame of job and writes them to sink in order.
// The first error cancels outstanding work.
func (r *Renderer) Render(ctx context.Context, job Job, sink Sink) error {
	if job.Sequence == nil || job.Sampler == nil || job.Engine == nil {
		return errs.Configf("render job is incomplete")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	total := FrameCount(job.Duration, job.FPS)
	if total == 0 {
		return errs.Configf("nothing to render: duration %.3fs at %d fps", job.Duration, job.FPS)
	}

	width, height := job.Sequence.Canvas()
	if width <= 0 || height <= 0 {
		return errs.Configf("source canvas is empty")
	}

	workers := min(r.opts.Workers, total)

	r.logger.Info().
		Int("frames", total).
		Int("workers", workers).
		Int("window_ahead", r.opts.WindowAhead).
		Int("width", width).
		Int("height", height).
		Msg("rendering frames")

	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)

	jobs := make(chan int)
	results := make(chan rendered, workers)
	slots := make(chan struct{}, r.opts.WindowAhead)

	// Dispatcher: a slot is taken per frame and returned once the frame is written
	g.Go(func() error {
		defer close(jobs)
		for k := 0; k < total; k++ {
			select {
			case slots <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			select {
			case jobs <- k:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for k := range jobs {
				img, err := r.renderFrame(gctx, job, k, width, height)
				if err != nil {
					return err
				}
				select {
				case results <- rendered{index: k, img: img}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collector: reorders completed frames and writes them sequentially
	g.Go(func() error {
		pending := make(map[int]*image.RGBA)
		next := 0
		for res := range results {
			pending[res.index] = res.img
			for {
				img, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := sink.WriteFrame(next, img); err != nil {
					return err
				}
				<-slots
				next++
				if r.opts.Progress != nil {
					r.opts.Progress(next, total)
				}
			}
		}
		if next != total {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fmt.Errorf("renderer stopped after %d of %d frames", next, total)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	r.logger.Info().
		Int("frames", total).
		Dur("elapsed", time.Since(start)).
		Msg("frames rendered")

	return nil
}

// renderFrame extracts, conforms and transforms output frame k
func (r *Renderer) renderFrame(ctx context.Context, job Job, k, width, height int) (*image.RGBA, error) {
	t := FrameTime(k, job.FPS)
	seg, local := job.Sequence.Locate(t)

	raw, err := r.extract(ctx, seg, local, float64(job.FPS))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &errs.FrameError{Index: k, Time: t, Err: fmt.Errorf("extract %s at %.3fs: %w", seg.Clip.Path, local, err)}
	}

	frame := Conform(raw, width, height)

	out, err := job.Engine.Apply(frame, t, k, job.Sampler.At(t))
	if err != nil {
		return nil, err
	}

	r.logger.Debug().
		Int("frame", k).
		Float64("t", t).
		Stringer("segment", seg).
		Float64("local", local).
		Msg("frame rendered")

	return out, nil
}

// extract decodes the clip frame at local. A seek that lands past the last
// decodable frame steps back one source frame at a time, holding the last
// frame the clip can produce.
func (r *Renderer) extract(ctx context.Context, seg sequence.Segment, local, fps float64) (*image.RGBA, error) {
	req := ffmpeg.FrameRequest{
		Path:   seg.Clip.Path,
		Time:   local,
		Width:  seg.Clip.Width,
		Height: seg.Clip.Height,
	}

	step := 1 / fps
	if seg.Clip.FPS > 0 {
		step = 1 / seg.Clip.FPS
	}

	raw, err := r.extractor.ExtractFrame(ctx, req)
	for i := 0; i < endOfStreamRetries && errors.Is(err, ffmpeg.ErrEndOfStream) && req.Time > 0; i++ {
		if last := seg.Clip.LastFrameTime(); req.Time > last {
			req.Time = last
		} else {
			req.Time = math.Max(0, req.Time-step)
		}

		r.logger.Debug().
			Str("clip", seg.Clip.Path).
			Float64("local", local).
			Float64("retry", req.Time).
			Msg("seek past end of stream, holding earlier frame")

		raw, err = r.extractor.ExtractFrame(ctx, req)
	}
	return raw, err
}
