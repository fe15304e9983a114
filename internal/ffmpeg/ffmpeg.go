package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/keagan/vico/internal/config"
	"github.com/rs/zerolog"
)

// Executor handles all ffmpeg operations with progress streaming
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	cfg         config.FFmpegConfig
}

// New creates a new ffmpeg executor
func New(logger zerolog.Logger, cfg config.FFmpegConfig) (*Executor, error) {
	bin := cfg.BinaryPath
	if bin == "" {
		bin = "ffmpeg"
	}
	probe := cfg.ProbePath
	if probe == "" {
		probe = "ffprobe"
	}

	ffmpegPath, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	ffprobePath, err := exec.LookPath(probe)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	return &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		cfg:         cfg,
	}, nil
}

// Run executes ffmpeg with the given arguments and streams progress
func (e *Executor) Run(ctx context.Context, opts RunOptions) error {
	if len(opts.Args) == 0 {
		return fmt.Errorf("no arguments provided")
	}

	args := e.baseArgs(opts)
	args = append(args, opts.Args...)

	e.logger.Debug().
		Str("cmd", "ffmpeg").
		Strs("args", args).
		Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)

	// Stream stderr (progress + logs)
	go func() {
		defer wg.Done()
		e.streamOutput(stderr, opts.ProgressHandler, opts.LogHandler)
	}()

	// Stream stdout
	var copyErr error
	go func() {
		defer wg.Done()
		if opts.Stdout != nil {
			_, copyErr = io.Copy(opts.Stdout, stdout)
			return
		}
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if opts.LogHandler != nil {
				opts.LogHandler(scanner.Text())
			}
		}
	}()

	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg execution failed: %w", err)
	}
	if copyErr != nil {
		return fmt.Errorf("failed to read ffmpeg output: %w", copyErr)
	}

	return nil
}

// baseArgs builds global flags; threads must precede the inputs
func (e *Executor) baseArgs(opts RunOptions) []string {
	level := opts.LogLevel
	if level == "" {
		level = "info"
	}
	args := []string{"-y", "-hide_banner", "-nostdin", "-loglevel", level}

	if e.cfg.Threads > 0 {
		args = append(args, "-threads", fmt.Sprintf("%d", e.cfg.Threads))
	}

	if opts.ProgressHandler != nil {
		args = append(args, "-progress", "pipe:2")
	}
	return args
}

// streamOutput parses ffmpeg output and calls handlers
func (e *Executor) streamOutput(r io.Reader, progressHandler func(*Progress), logHandler func(string)) {
	scanner := bufio.NewScanner(r)
	progressData := &Progress{}

	for scanner.Scan() {
		line := scanner.Text()

		if logHandler != nil {
			logHandler(line)
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "frame":
			fmt.Sscanf(value, "%d", &progressData.Frame)
		case "fps":
			fmt.Sscanf(value, "%f", &progressData.FPS)
		case "bitrate":
			progressData.Bitrate = value
		case "out_time":
			progressData.Time = value
		case "speed":
			progressData.Speed = value
		case "progress":
			// End of progress block
			if progressHandler != nil && progressData.Frame > 0 {
				progressHandler(progressData)
			}
			progressData = &Progress{}
		}
	}
}

// captureLines returns a log handler that also records lines for error reporting
func (e *Executor) captureLines(msg string) (func(string), func() string) {
	var mu sync.Mutex
	var lines []string

	handler := func(line string) {
		mu.Lock()
		lines = append(lines, line)
		mu.Unlock()
		e.logger.Debug().Str("ffmpeg", line).Msg(msg)
	}
	collect := func() string {
		mu.Lock()
		defer mu.Unlock()
		return strings.Join(diagnosticLines(lines, 20), "\n")
	}
	return handler, collect
}

// diagnosticLines drops progress key=value noise and keeps the last n lines
func diagnosticLines(lines []string, n int) []string {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if k, _, ok := strings.Cut(line, "="); ok && !strings.ContainsAny(k, " :[") {
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return kept
}
