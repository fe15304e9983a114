// Package effects implements the per-frame visual transforms driven by the
// spectral profile: color modulation, zoom, shake, glitch and a debug overlay.
//
// Effects run in a fixed order on a private copy of the input frame; the
// input is never modified, so one Engine can serve many workers at once.
package effects

import (
	"errors"
	"image"
	"math/rand/v2"

	"github.com/keagan/vico/internal/audio"
	"github.com/keagan/vico/internal/errs"
	"golang.org/x/image/draw"
)

// Kind names a windowed effect
type Kind int

const (
	Color Kind = iota
	Zoom
	Shake
	Glitch
)

func (k Kind) String() string {
	switch k {
	case Color:
		return "color"
	case Zoom:
		return "zoom"
	case Shake:
		return "shake"
	case Glitch:
		return "glitch"
	default:
		return "unknown"
	}
}

// Params is the immutable effect configuration of one render job
type Params struct {
	Factor float64

	ZoomFactor  float64
	ZoomWindows []Window

	Shake          bool
	ShakeIntensity int
	ShakeWindows   []Window

	Glitch          bool
	GlitchIntensity int
	GlitchWindows   []Window

	Debug bool

	// Seed and the frame index derive the glitch random stream
	Seed uint64
	FPS  int

	OpenPolicy OpenPolicy
}

// Validate rejects settings no frame could be rendered with
func (p Params) Validate() error {
	if p.FPS <= 0 {
		return errs.Configf("fps must be positive, got %d", p.FPS)
	}
	if p.ShakeIntensity < 0 {
		return errs.Configf("shake intensity must not be negative")
	}
	if p.GlitchIntensity < 0 {
		return errs.Configf("glitch intensity must not be negative")
	}
	return nil
}

// Engine applies Params to frames
type Engine struct {
	params   Params
	frameDur float64
}

// NewEngine validates params and builds an engine
func NewEngine(params Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		params:   params,
		frameDur: 1 / float64(params.FPS),
	}, nil
}

// Params returns the engine configuration
func (e *Engine) Params() Params {
	return e.params
}

// Active reports whether effect k runs at time t
func (e *Engine) Active(k Kind, t float64) bool {
	p := e.params
	switch k {
	case Color:
		return p.Factor != 0
	case Zoom:
		return p.ZoomFactor > 0 && anyContains(p.ZoomWindows, t, e.frameDur, p.OpenPolicy)
	case Shake:
		return p.Shake && anyContains(p.ShakeWindows, t, e.frameDur, p.OpenPolicy)
	case Glitch:
		return p.Glitch && anyContains(p.GlitchWindows, t, e.frameDur, p.OpenPolicy)
	default:
		return false
	}
}

var errEmptyFrame = errors.New("frame has zero width or height")

// Apply renders output frame index at time t from src using the band ratios r
func (e *Engine) Apply(src *image.RGBA, t float64, index int, r audio.Ratios) (*image.RGBA, error) {
	if src == nil || src.Bounds().Dx() <= 0 || src.Bounds().Dy() <= 0 {
		return nil, &errs.FrameError{Index: index, Time: t, Err: errEmptyFrame}
	}

	frame := clone(src)

	if e.Active(Color, t) {
		ModulateColor(frame, r, e.params.Factor)
	}

	if e.Active(Zoom, t) {
		frame = ZoomFrame(frame, ZoomAmount(t, r, e.params.ZoomFactor))
	}

	if e.Active(Shake, t) {
		dx, dy := ShakeOffset(t, e.params.ShakeIntensity)
		frame = ShiftFrame(frame, dx, dy)
	}

	if e.Active(Glitch, t) {
		rng := FrameRand(e.params.Seed, index)
		b := frame.Bounds()
		for _, s := range GlitchBands(rng, b.Dx(), b.Dy(), e.params.GlitchIntensity) {
			RollBand(frame, s)
		}
	}

	if e.params.Debug {
		DebugOverlay(frame)
	}

	return frame, nil
}

// FrameRand returns the deterministic random stream for one output frame
func FrameRand(seed uint64, index int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(index)))
}

// clone copies src into a new RGBA image anchored at the origin
func clone(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
