package effects

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"sort"
	"testing"

	"github.com/keagan/vico/internal/audio"
	"github.com/keagan/vico/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradient builds a frame whose pixels are all distinct enough to spot moves
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 11), B: uint8((x + y) * 3), A: 255})
		}
	}
	return img
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func newEngine(t *testing.T, p Params) *Engine {
	t.Helper()
	if p.FPS == 0 {
		p.FPS = 10
	}
	e, err := NewEngine(p)
	require.NoError(t, err)
	return e
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    Window
		wantErr bool
	}{
		{"0-2", Window{Start: 0, End: 2}, false},
		{"1.5-3", Window{Start: 1.5, End: 3}, false},
		{"1:00-1:30", Window{Start: 60, End: 90}, false},
		{"0:01:00-0:02:00", Window{Start: 60, End: 120}, false},
		{"5-0", Window{Start: 5, Open: true}, false},
		{"5-0:00", Window{Start: 5, Open: true}, false},
		{"5-", Window{Start: 5, Open: true}, false},
		{"3-1", Window{}, true},
		{"abc", Window{}, true},
		{"1-x", Window{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWindow(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, errs.ErrConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseWindows(t *testing.T) {
	ws, err := ParseWindows([]string{"0-1", "", "2-3"})
	require.NoError(t, err)
	assert.Len(t, ws, 2)

	_, err = ParseWindows([]string{"0-1", "4-2"})
	assert.ErrorIs(t, err, errs.ErrConfig)
}

func TestWindowContains(t *testing.T) {
	bounded := Window{Start: 1, End: 2}
	assert.False(t, bounded.Contains(0.99, 0.1, OpenPulse))
	assert.True(t, bounded.Contains(1, 0.1, OpenPulse))
	assert.True(t, bounded.Contains(1.99, 0.1, OpenPulse))
	assert.False(t, bounded.Contains(2, 0.1, OpenPulse), "bounded windows are half-open")

	open := Window{Start: 1, Open: true}
	assert.True(t, open.Contains(1, 0.1, OpenPulse))
	assert.True(t, open.Contains(1.05, 0.1, OpenPulse))
	assert.False(t, open.Contains(1.1, 0.1, OpenPulse), "pulse lasts one frame")
	assert.False(t, open.Contains(5, 0.1, OpenPulse))

	assert.True(t, open.Contains(5, 0.1, OpenSustain))
	assert.False(t, open.Contains(0.5, 0.1, OpenSustain))
}

func TestParseOpenPolicy(t *testing.T) {
	p, err := ParseOpenPolicy("")
	require.NoError(t, err)
	assert.Equal(t, OpenPulse, p)

	p, err = ParseOpenPolicy("sustain")
	require.NoError(t, err)
	assert.Equal(t, OpenSustain, p)

	_, err = ParseOpenPolicy("forever")
	assert.ErrorIs(t, err, errs.ErrConfig)
}

func TestApplyDisabledIsIdentity(t *testing.T) {
	e := newEngine(t, Params{
		ZoomWindows:   []Window{{Start: 0, End: 10}},
		ShakeWindows:  []Window{{Start: 0, End: 10}},
		GlitchWindows: []Window{{Start: 0, End: 10}},
	})

	src := gradient(32, 24)
	for k := 0; k < 10; k++ {
		out, err := e.Apply(src, float64(k)/10, k, audio.Ratios{0.2, 0.3, 0.5})
		require.NoError(t, err)
		assert.True(t, bytes.Equal(src.Pix, out.Pix), "frame %d changed", k)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	e := newEngine(t, Params{
		Factor:          3,
		ZoomFactor:      0.5,
		ZoomWindows:     []Window{{Start: 0, End: 10}},
		Shake:           true,
		ShakeIntensity:  4,
		ShakeWindows:    []Window{{Start: 0, End: 10}},
		Glitch:          true,
		GlitchIntensity: 8,
		GlitchWindows:   []Window{{Start: 0, End: 10}},
		Debug:           true,
	})

	src := gradient(32, 24)
	before := bytes.Clone(src.Pix)

	out, err := e.Apply(src, 0.3, 3, audio.Ratios{0.2, 0.3, 0.5})
	require.NoError(t, err)

	assert.Equal(t, before, src.Pix)
	assert.Equal(t, src.Bounds(), out.Bounds())
}

func TestApplyZeroDimensions(t *testing.T) {
	e := newEngine(t, Params{})

	_, err := e.Apply(image.NewRGBA(image.Rect(0, 0, 0, 10)), 1.5, 15, audio.Ratios{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrFrame)

	var fe *errs.FrameError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 15, fe.Index)
	assert.Equal(t, 1.5, fe.Time)
}

func TestModulateColor(t *testing.T) {
	img := solid(2, 2, color.RGBA{100, 100, 100, 255})
	ModulateColor(img, audio.Ratios{0.5, 0.25, 0.25}, 2)

	// high->R, mid->G, low->B
	assert.Equal(t, color.RGBA{150, 150, 200, 255}, img.RGBAAt(1, 1))

	img = solid(1, 1, color.RGBA{200, 10, 0, 255})
	ModulateColor(img, audio.Ratios{0, 0, 1}, 3)
	assert.Equal(t, color.RGBA{255, 10, 0, 255}, img.RGBAAt(0, 0), "clamped to 255")

	img = solid(1, 1, color.RGBA{101, 101, 101, 255})
	ModulateColor(img, audio.Ratios{1.0 / 3, 1.0 / 3, 1.0 / 3}, 0.01)
	assert.Equal(t, uint8(101), img.RGBAAt(0, 0).R, "fractions are truncated")
}

func TestZoomAmount(t *testing.T) {
	got := ZoomAmount(1.0, audio.Ratios{0.2, 0.3, 0.5}, 0.5)
	want := 1 + 1*0.5*(0.98+0.04*math.Sin(2*math.Pi*1.0))
	assert.InDelta(t, want, got, 1e-12)

	assert.Equal(t, 1.0, ZoomAmount(0.25, audio.Ratios{}, 2))
	assert.Equal(t, 1.0, ZoomAmount(0.25, audio.Ratios{1, 0, 0}, -5), "never below 1")
}

func TestZoomWindowKeepsDimensions(t *testing.T) {
	e := newEngine(t, Params{
		ZoomFactor:  0.5,
		ZoomWindows: []Window{{Start: 0, End: 2}},
	})
	assert.True(t, e.Active(Zoom, 1.0))
	assert.False(t, e.Active(Zoom, 2.0))

	for _, size := range []image.Point{{64, 48}, {33, 21}, {1, 1}} {
		src := gradient(size.X, size.Y)
		out, err := e.Apply(src, 1.0, 10, audio.Ratios{0.2, 0.3, 0.5})
		require.NoError(t, err)
		assert.Equal(t, src.Bounds(), out.Bounds())
	}
}

func TestZoomFrameUniform(t *testing.T) {
	c := color.RGBA{40, 80, 120, 255}
	out := ZoomFrame(solid(20, 10, c), 1.7)
	assert.Equal(t, image.Rect(0, 0, 20, 10), out.Bounds())
	for _, p := range []image.Point{{0, 0}, {10, 5}, {19, 9}} {
		got := out.RGBAAt(p.X, p.Y)
		assert.InDelta(t, c.R, got.R, 1)
		assert.InDelta(t, c.G, got.G, 1)
		assert.InDelta(t, c.B, got.B, 1)
	}
}

func TestZoomFrameMagnifiesCentre(t *testing.T) {
	// a black frame with a white centre square grows under zoom
	img := solid(40, 40, color.RGBA{0, 0, 0, 255})
	for y := 15; y < 25; y++ {
		for x := 15; x < 25; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}

	out := ZoomFrame(img, 2)
	assert.Greater(t, out.RGBAAt(20, 20).R, uint8(250))
	assert.Greater(t, out.RGBAAt(12, 20).R, uint8(250), "white reaches further out")
	assert.Equal(t, uint8(0), out.RGBAAt(2, 2).R)
}

func TestShakeOffset(t *testing.T) {
	dx, dy := ShakeOffset(0, 5)
	assert.Equal(t, 0, dx)
	assert.Equal(t, 5, dy)

	dx, dy = ShakeOffset(0.1, 10)
	assert.Equal(t, int(math.Round(math.Sin(2.5)*10)), dx)
	assert.Equal(t, int(math.Round(math.Cos(3.3)*10)), dy)

	dx, dy = ShakeOffset(0.7, 0)
	assert.Zero(t, dx)
	assert.Zero(t, dy)
}

func TestShiftFrameReplicatesEdges(t *testing.T) {
	src := gradient(8, 6)
	out := ShiftFrame(src, 2, -1)

	// content moves right by 2 and up by 1
	assert.Equal(t, src.RGBAAt(3, 4), out.RGBAAt(5, 3))
	// left border repeats column 0
	assert.Equal(t, src.RGBAAt(0, 2), out.RGBAAt(0, 1))
	assert.Equal(t, src.RGBAAt(0, 2), out.RGBAAt(1, 1))
	// bottom border repeats the last row
	assert.Equal(t, src.RGBAAt(5, 5), out.RGBAAt(7, 5))
}

func TestGlitchBandsInvariants(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		for _, intensity := range []int{0, 1, 2, 15} {
			shifts := GlitchBands(FrameRand(seed, int(seed)*3), 64, 48, intensity)
			require.Len(t, shifts, 3)
			for _, s := range shifts {
				assert.GreaterOrEqual(t, s.Height, 1)
				assert.Less(t, s.Height, 10)
				assert.GreaterOrEqual(t, s.Y, 0)
				assert.LessOrEqual(t, s.Y+s.Height, 48)
				if intensity > 0 {
					assert.Less(t, abs(s.DX), intensity)
				} else {
					assert.Zero(t, s.DX)
				}
			}
		}
	}
}

func TestGlitchBandsShortFrame(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		for _, s := range GlitchBands(FrameRand(seed, 0), 10, 2, 5) {
			assert.Equal(t, 0, s.Y)
			assert.LessOrEqual(t, s.Height, 2)
		}
	}
}

func TestRollBand(t *testing.T) {
	src := gradient(10, 6)
	out := clone(src)
	RollBand(out, BandShift{Y: 2, Height: 2, DX: 3})

	for x := 0; x < 10; x++ {
		assert.Equal(t, src.RGBAAt(x, 2), out.RGBAAt((x+3)%10, 2))
		assert.Equal(t, src.RGBAAt(x, 3), out.RGBAAt((x+3)%10, 3))
		assert.Equal(t, src.RGBAAt(x, 4), out.RGBAAt(x, 4), "rows outside the band are untouched")
	}

	out = clone(src)
	RollBand(out, BandShift{Y: 0, Height: 1, DX: -2})
	assert.Equal(t, src.RGBAAt(2, 0), out.RGBAAt(0, 0))
}

func TestGlitchDeterministic(t *testing.T) {
	e := newEngine(t, Params{
		Glitch:          true,
		GlitchIntensity: 20,
		GlitchWindows:   []Window{{Start: 0, End: 5}},
		Seed:            42,
	})

	src := gradient(64, 48)
	a, err := e.Apply(src, 1, 10, audio.Ratios{})
	require.NoError(t, err)
	b, err := e.Apply(src, 1, 10, audio.Ratios{})
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)

	// a glitch only moves pixels within their rows
	for y := 0; y < 48; y++ {
		assert.Equal(t, rowMultiset(src, y), rowMultiset(a, y), "row %d", y)
	}
}

func TestDebugOverlay(t *testing.T) {
	img := solid(2, 2, color.RGBA{0, 0, 0, 255})
	DebugOverlay(img)
	assert.Equal(t, color.RGBA{102, 0, 0, 255}, img.RGBAAt(0, 0))

	img = solid(1, 1, color.RGBA{255, 100, 50, 255})
	DebugOverlay(img)
	assert.Equal(t, color.RGBA{255, 60, 30, 255}, img.RGBAAt(0, 0))
}

func TestActiveRequiresEnableFlag(t *testing.T) {
	e := newEngine(t, Params{
		ShakeIntensity:  5,
		ShakeWindows:    []Window{{Start: 0, End: 5}},
		GlitchIntensity: 5,
		GlitchWindows:   []Window{{Start: 0, End: 5}},
	})
	assert.False(t, e.Active(Shake, 1))
	assert.False(t, e.Active(Glitch, 1))
	assert.False(t, e.Active(Color, 1))

	e = newEngine(t, Params{Shake: true, ShakeIntensity: 5})
	assert.False(t, e.Active(Shake, 1), "no windows means never active")
}

func TestParamsValidate(t *testing.T) {
	_, err := NewEngine(Params{})
	assert.ErrorIs(t, err, errs.ErrConfig)

	_, err = NewEngine(Params{FPS: 30, ShakeIntensity: -1})
	assert.ErrorIs(t, err, errs.ErrConfig)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func rowMultiset(img *image.RGBA, y int) []uint32 {
	b := img.Bounds()
	out := make([]uint32, 0, b.Dx())
	for x := 0; x < b.Dx(); x++ {
		c := img.RGBAAt(x, y)
		out = append(out, uint32(c.R)<<16|uint32(c.G)<<8|uint32(c.B))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
