package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/keagan/vico/internal/errs"
	"github.com/keagan/vico/pkg/util"
)

// ExtractFrame decodes the frame displayed at req.Time as RGBA.
// Each call runs its own ffmpeg process, so it is safe for concurrent use.
func (e *Executor) ExtractFrame(ctx context.Context, req FrameRequest) (*image.RGBA, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return nil, errs.Configf("frame size %dx%d is invalid for %s", req.Width, req.Height, req.Path)
	}

	var raw bytes.Buffer
	logHandler, diagnostics := e.captureLines("frame extraction")

	// -ss before -i seeks on the input, which keeps per-frame cost bounded
	args := []string{
		"-ss", util.FormatSeconds(req.Time),
		"-i", req.Path,
		"-an",
		"-frames:v", "1",
		"-vf", NewFilterBuilder().Scale(req.Width, req.Height).Build(),
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	}

	opts := RunOptions{
		Args:       args,
		LogLevel:   "error",
		LogHandler: logHandler,
		Stdout:     &raw,
	}

	if err := e.Run(ctx, opts); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.Decodef("extract frame from %s at %.3fs: %v: %s", req.Path, req.Time, err, diagnostics())
	}

	if raw.Len() == 0 {
		return nil, ErrEndOfStream
	}

	img, err := rgb24ToRGBA(raw.Bytes(), req.Width, req.Height)
	if err != nil {
		return nil, errs.Decodef("frame from %s at %.3fs: %v", req.Path, req.Time, err)
	}
	return img, nil
}

// rgb24ToRGBA expands packed rgb24 pixels to an opaque RGBA image
func rgb24ToRGBA(raw []byte, width, height int) (*image.RGBA, error) {
	want := width * height * 3
	if len(raw) < want {
		return nil, fmt.Errorf("short frame: got %d bytes, want %d", len(raw), want)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i < want; i, j = i+3, j+4 {
		img.Pix[j] = raw[i]
		img.Pix[j+1] = raw[i+1]
		img.Pix[j+2] = raw[i+2]
		img.Pix[j+3] = 0xff
	}
	return img, nil
}
