package effects

import (
	"fmt"
	"strings"

	"github.com/keagan/vico/internal/config"
	"github.com/keagan/vico/internal/errs"
	"github.com/keagan/vico/pkg/util"
)

// OpenPolicy decides how a window without an end is interpreted
type OpenPolicy int

const (
	// OpenPulse keeps an open window active for one output frame after its start
	OpenPulse OpenPolicy = iota
	// OpenSustain keeps an open window active from its start onward
	OpenSustain
)

// ParseOpenPolicy maps the config value to a policy
func ParseOpenPolicy(s string) (OpenPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", config.OpenWindowPulse:
		return OpenPulse, nil
	case config.OpenWindowSustain:
		return OpenSustain, nil
	default:
		return OpenPulse, errs.Configf("unknown open window policy %q", s)
	}
}

func (p OpenPolicy) String() string {
	if p == OpenSustain {
		return config.OpenWindowSustain
	}
	return config.OpenWindowPulse
}

// Window is a time range during which an effect may run.
// Bounded windows are half-open: [Start, End).
type Window struct {
	Start float64
	End   float64
	Open  bool
}

// ParseWindow parses "START-END". Either side is seconds, M:SS or H:MM:SS.
// An END evaluating to zero leaves the window open.
func ParseWindow(s string) (Window, error) {
	startStr, endStr, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Window{}, errs.Configf("invalid range %q: expected START-END", s)
	}

	start, err := util.ParseSeconds(startStr)
	if err != nil {
		return Window{}, errs.Configf("invalid range %q: %v", s, err)
	}
	end, err := util.ParseSeconds(endStr)
	if err != nil {
		return Window{}, errs.Configf("invalid range %q: %v", s, err)
	}

	if end == 0 {
		return Window{Start: start, Open: true}, nil
	}
	if end < start {
		return Window{}, errs.Configf("invalid range %q: end before start", s)
	}
	return Window{Start: start, End: end}, nil
}

// ParseWindows parses every non-empty range string
func ParseWindows(specs []string) ([]Window, error) {
	var out []Window
	for _, s := range specs {
		if strings.TrimSpace(s) == "" {
			continue
		}
		w, err := ParseWindow(s)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// Contains reports whether t is inside the window.
// frameDur is the output frame period used by OpenPulse.
func (w Window) Contains(t, frameDur float64, policy OpenPolicy) bool {
	if t < w.Start {
		return false
	}
	if !w.Open {
		return t < w.End
	}
	if policy == OpenSustain {
		return true
	}
	return t < w.Start+frameDur
}

func (w Window) String() string {
	if w.Open {
		return fmt.Sprintf("%s-", util.FormatSeconds(w.Start))
	}
	return fmt.Sprintf("%s-%s", util.FormatSeconds(w.Start), util.FormatSeconds(w.End))
}

// anyContains reports whether any window contains t
func anyContains(windows []Window, t, frameDur float64, policy OpenPolicy) bool {
	for _, w := range windows {
		if w.Contains(t, frameDur, policy) {
			return true
		}
	}
	return false
}
