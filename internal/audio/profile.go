// Package audio decodes audio tracks and turns them into a time-indexed
// low/mid/high spectral energy profile.
package audio

import (
	"fmt"
	"sort"

	"github.com/keagan/vico/internal/errs"
)

// Band is one of the three analysis frequency bands
type Band int

const (
	Low Band = iota
	Mid
	High
	bandCount
)

func (b Band) String() string {
	switch b {
	case Low:
		return "low"
	case Mid:
		return "mid"
	case High:
		return "high"
	default:
		return fmt.Sprintf("band(%d)", int(b))
	}
}

// Ratios holds per-band energy fractions indexed by Band.
// They sum to 1, or are all zero for a silent analysis window.
type Ratios [bandCount]float64

// Sum returns low+mid+high
func (r Ratios) Sum() float64 {
	return r[Low] + r[Mid] + r[High]
}

// Sample is the band energy distribution of one analysis frame
type Sample struct {
	Time   float64
	Ratios Ratios
}

// MarshalYAML flattens the ratios for profile dumps
func (s Sample) MarshalYAML() (any, error) {
	return struct {
		Time float64 `yaml:"time"`
		Low  float64 `yaml:"low"`
		Mid  float64 `yaml:"mid"`
		High float64 `yaml:"high"`
	}{s.Time, s.Ratios[Low], s.Ratios[Mid], s.Ratios[High]}, nil
}

// Profile is the full spectral profile of one audio track.
// It is immutable once built and safe for concurrent reads.
type Profile struct {
	SampleRate int      `yaml:"sample_rate"`
	HopLength  int      `yaml:"hop_length"`
	Duration   float64  `yaml:"duration"`
	Samples    []Sample `yaml:"samples"`
}

// Sampler answers step-held lookups against a profile
type Sampler struct {
	samples []Sample
}

// NewSampler wraps a non-empty, time-ascending profile
func NewSampler(p *Profile) (*Sampler, error) {
	if p == nil || len(p.Samples) == 0 {
		return nil, errs.Configf("spectral profile is empty")
	}
	return &Sampler{samples: p.Samples}, nil
}

// At returns the ratios of the latest sample whose time is <= t.
// Queries before the first sample return the first, queries past the last return the last.
func (s *Sampler) At(t float64) Ratios {
	n := len(s.samples)
	if t <= s.samples[0].Time {
		return s.samples[0].Ratios
	}
	if t >= s.samples[n-1].Time {
		return s.samples[n-1].Ratios
	}
	// first index with Time > t, minus one
	i := sort.Search(n, func(i int) bool { return s.samples[i].Time > t }) - 1
	return s.samples[i].Ratios
}

// Len returns the number of samples
func (s *Sampler) Len() int {
	return len(s.samples)
}
