// Package sequence lays source clips end to end until they cover a target duration.
package sequence

import (
	"fmt"
	"math"
	"sort"

	"github.com/keagan/vico/internal/errs"
)

// Clip describes one probed source video
type Clip struct {
	Path     string
	Duration float64
	FPS      float64
	Width    int
	Height   int
}

// LastFrameTime is the latest timestamp that still decodes to a frame
func (c Clip) LastFrameTime() float64 {
	if c.FPS <= 0 {
		return c.Duration
	}
	return math.Max(0, c.Duration-1/c.FPS)
}

// Segment is one placement of a clip on the output timeline
type Segment struct {
	Clip     Clip
	Reversed bool
	Start    float64
}

// End returns the timeline time at which the segment stops
func (s Segment) End() float64 {
	return s.Start + s.Clip.Duration
}

// LocalTime maps a timeline time inside the segment to a clip timestamp.
// Reversed segments play the clip backwards.
func (s Segment) LocalTime(t float64) float64 {
	local := t - s.Start
	if s.Reversed {
		local = s.Clip.Duration - local
	}
	return math.Min(math.Max(local, 0), s.Clip.LastFrameTime())
}

func (s Segment) String() string {
	dir := "fwd"
	if s.Reversed {
		dir = "rev"
	}
	return fmt.Sprintf("%s[%s @%.3fs]", s.Clip.Path, dir, s.Start)
}

// Sequence is an ordered, read-only list of segments
type Sequence struct {
	Segments []Segment
	Duration float64
}

// Build loops clips until the accumulated duration reaches target, stopping
// at the first segment that covers it. With reverse each clip contributes a
// forward then a mirrored segment.
func Build(clips []Clip, target float64, reverse bool) (*Sequence, error) {
	if len(clips) == 0 {
		return nil, errs.Configf("no source videos given")
	}
	if target <= 0 || math.IsNaN(target) || math.IsInf(target, 0) {
		return nil, errs.Configf("target duration must be positive, got %v", target)
	}

	var working []Segment
	for _, c := range clips {
		if c.Duration <= 0 {
			return nil, errs.Configf("source %s has no duration", c.Path)
		}
		working = append(working, Segment{Clip: c})
		if reverse {
			working = append(working, Segment{Clip: c, Reversed: true})
		}
	}

	seq := &Sequence{}
	for i := 0; seq.Duration < target; i++ {
		seg := working[i%len(working)]
		seg.Start = seq.Duration
		seq.Segments = append(seq.Segments, seg)
		seq.Duration += seg.Clip.Duration
	}

	return seq, nil
}

// Locate returns the segment covering t and the clip-local timestamp to decode.
// Times past the end resolve to the last frame of the final segment.
func (s *Sequence) Locate(t float64) (Segment, float64) {
	if t < 0 {
		t = 0
	}
	// first segment ending after t
	i := sort.Search(len(s.Segments), func(i int) bool {
		return s.Segments[i].End() > t
	})
	if i == len(s.Segments) {
		i--
	}
	seg := s.Segments[i]
	return seg, seg.LocalTime(t)
}

// Canvas returns the output frame size: the largest width and height over all clips
func (s *Sequence) Canvas() (width, height int) {
	for _, seg := range s.Segments {
		width = max(width, seg.Clip.Width)
		height = max(height, seg.Clip.Height)
	}
	return width, height
}
