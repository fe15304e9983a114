package pipeline

import (
	"time"

	"github.com/keagan/vico/internal/ffmpeg"
	"github.com/keagan/vico/internal/render"
)

// Crossfade modes accepted on the command line
const (
	CrossfadeFFmpeg  = "ffmpeg"
	CrossfadeMoviepy = "moviepy"
)

// RenderRequest is one render job as requested by the user
type RenderRequest struct {
	Output string
	Audio  string
	Videos []string

	FPS    int
	Factor float64

	ZoomFactor float64
	ZoomRanges []string

	Shake          bool
	ShakeIntensity int
	ShakeRanges    []string

	Glitch          bool
	GlitchIntensity int
	GlitchRanges    []string

	Reverse bool
	Debug   bool

	// Crossfade settings are accepted but not applied
	Crossfade     float64
	CrossfadeMode string

	// Seed replaces the configured glitch seed when SeedSet is true
	Seed    uint64
	SeedSet bool
	Workers int
}

// RenderOptions carries progress callbacks for a render
type RenderOptions struct {
	FrameProgress  render.ProgressFunc
	EncodeProgress ffmpeg.ProgressFunc
	// OnFrames is called once the frame total is known
	OnFrames func(total int)
}

// RenderResult summarizes a finished render
type RenderResult struct {
	Output   string
	Frames   int
	FPS      int
	Duration float64
	Segments int
	Width    int
	Height   int
	Elapsed  time.Duration
}
