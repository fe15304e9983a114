package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/keagan/vico/internal/errs"
	"github.com/stretchr/testify/assert"
)

func TestPrintErrorNamesStage(t *testing.T) {
	tests := []struct {
		err   error
		stage string
	}{
		{errs.Configf("no source videos given"), "config:"},
		{fmt.Errorf("profile audio: %w", errs.Decodef("cannot open song.wav")), "decode:"},
		{&errs.FrameError{Index: 3, Time: 0.3, Err: errors.New("zero width")}, "render:"},
		{errors.New("boom"), "job:"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		PrintError(&buf, tt.err)

		out := buf.String()
		assert.Contains(t, out, "Error:")
		assert.Contains(t, out, tt.stage)
		assert.Contains(t, out, tt.err.Error())
		assert.Equal(t, 1, strings.Count(out, "\n"))
	}
}

func TestPrintErrorEncoderDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, &errs.EncodeError{Output: "Unknown encoder 'libx265'\nConversion failed!", Err: errors.New("exit status 1")})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "encode:")
	assert.Contains(t, lines[0], "exit status 1")
	assert.Contains(t, lines[1], "Unknown encoder")
	assert.Contains(t, lines[2], "Conversion failed!")
}

func TestPrintErrorNil(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, nil)
	assert.Empty(t, buf.String())
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, Summary{
		Output:   "out.mp4",
		Frames:   60,
		FPS:      30,
		Duration: 2,
		Segments: 3,
		Width:    640,
		Height:   360,
		Elapsed:  1500 * time.Millisecond,
	})

	out := buf.String()
	assert.Contains(t, out, "out.mp4")
	assert.Contains(t, out, "60 @ 30 fps")
	assert.Contains(t, out, "640x360")
	assert.Contains(t, out, "00:00:02.000")
	assert.Contains(t, out, "1.5s")
}
