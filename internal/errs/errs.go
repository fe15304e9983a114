// Package errs defines the failure taxonomy shared by every render stage.
//
// Component boundaries wrap their errors with one of the sentinels below so
// the orchestrator and CLI can classify a failure with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode indicates an audio or video input could not be read.
	ErrDecode = errors.New("decode error")

	// ErrConfig indicates invalid inputs or settings, detected before rendering.
	ErrConfig = errors.New("config error")

	// ErrFrame indicates a degenerate frame was produced mid-render.
	ErrFrame = errors.New("frame error")

	// ErrEncode indicates the external encoder failed.
	ErrEncode = errors.New("encode error")
)

// FrameError reports a failure tied to one output frame.
type FrameError struct {
	Index int
	Time  float64
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d at t=%.3fs: %v", e.Index, e.Time, e.Err)
}

// Unwrap exposes both the underlying cause and the ErrFrame classification.
func (e *FrameError) Unwrap() []error {
	return []error{ErrFrame, e.Err}
}

// EncodeError carries the encoder's captured diagnostic output.
type EncodeError struct {
	Output string
	Err    error
}

func (e *EncodeError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("encoder failed: %v", e.Err)
	}
	return fmt.Sprintf("encoder failed: %v\n%s", e.Err, e.Output)
}

func (e *EncodeError) Unwrap() []error {
	return []error{ErrEncode, e.Err}
}

// Configf builds an ErrConfig-classified error.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// Decodef builds an ErrDecode-classified error.
func Decodef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDecode, fmt.Sprintf(format, args...))
}

// Stage names the failing pipeline stage for a classified error.
func Stage(err error) string {
	switch {
	case errors.Is(err, ErrConfig):
		return "config"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrFrame):
		return "render"
	case errors.Is(err, ErrEncode):
		return "encode"
	default:
		return "job"
	}
}
