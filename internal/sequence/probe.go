package sequence

import (
	"context"

	"github.com/keagan/vico/internal/errs"
	"github.com/keagan/vico/internal/ffmpeg"
	"golang.org/x/sync/errgroup"
)

// Prober reads stream metadata for a source file
type Prober interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
}

// ProbeClips probes paths with at most limit ffprobe processes in flight and
// keeps input order. A limit of zero or less probes every path at once.
func ProbeClips(ctx context.Context, prober Prober, paths []string, limit int) ([]Clip, error) {
	if len(paths) == 0 {
		return nil, errs.Configf("no source videos given")
	}

	clips := make([]Clip, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, path := range paths {
		g.Go(func() error {
			info, err := prober.ProbeVideo(ctx, path)
			if err != nil {
				return err
			}
			if !info.HasVideo || info.Width <= 0 || info.Height <= 0 {
				return errs.Decodef("%s has no video stream", path)
			}
			clips[i] = Clip{
				Path:     path,
				Duration: info.Duration,
				FPS:      info.FPS,
				Width:    info.Width,
				Height:   info.Height,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return clips, nil
}
