package ffmpeg

import (
	"errors"
	"io"
)

// ErrEndOfStream is returned when a frame is requested past the last decodable frame
var ErrEndOfStream = errors.New("end of stream")

// VideoInfo contains metadata about a media file
type VideoInfo struct {
	FilePath   string
	Duration   float64 // seconds
	Width      int
	Height     int
	FPS        float64
	Bitrate    int64
	VideoCodec string
	HasVideo   bool
	HasAudio   bool
	AudioCodec string
	SampleRate int
	Channels   int
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame   int
	FPS     float64
	Bitrate string
	Time    string
	Speed   string
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler func(*Progress)
	LogHandler      func(line string)
	// Stdout receives raw stdout bytes; when nil stdout is line-scanned into LogHandler
	Stdout io.Writer
	// LogLevel overrides the default "info" ffmpeg log level
	LogLevel string
}

// ProgressFunc is a callback for progress updates during ffmpeg operations.
// Called periodically with progress information as the operation executes.
type ProgressFunc func(*Progress)

// FrameRequest identifies a single decoded frame
type FrameRequest struct {
	Path   string
	Time   float64 // seconds into the file
	Width  int
	Height int
}

// EncodeOptions configures muxing an image sequence with an audio track
type EncodeOptions struct {
	// Pattern is a printf-style image path, e.g. /tmp/x/frame_%05d.png
	Pattern      string
	FPS          int
	AudioPath    string
	Output       string
	ProgressFunc ProgressFunc
}

// Default encoding settings
const (
	DefaultCRF         = 18
	DefaultPreset      = "fast"
	DefaultVideoCodec  = "libx264"
	DefaultAudioCodec  = "aac"
	DefaultPixelFormat = "yuv420p"
)
