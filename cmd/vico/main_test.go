package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/keagan/vico/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		cfgFile = ""
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigShow(t *testing.T) {
	out, err := execute(t, "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "hop_length: 2048")
	assert.Contains(t, out, "open_window: pulse")
	assert.Contains(t, out, "video_codec: libx264")
}

func TestConfigShowFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vico.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 99\nrender:\n  open_window: sustain\n  window_ahead: 8\n"), 0644))

	out, err := execute(t, "--config", path, "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "seed: 99")
	assert.Contains(t, out, "open_window: sustain")
}

func TestConfigInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vico.yaml")
	require.NoError(t, os.WriteFile(path, []byte("render:\n  open_window: forever\n"), 0644))

	_, err := execute(t, "--config", path, "config", "show")
	assert.ErrorIs(t, err, errs.ErrConfig)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vico.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = execute(t, "config", "init", path)
	assert.ErrorIs(t, err, errs.ErrConfig)

	out, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "window_ahead: 64")
}

func TestRenderRequiresArguments(t *testing.T) {
	_, err := execute(t, "render", "out.mp4", "song.wav")
	assert.Error(t, err)
}

func TestRenderFlagDefaults(t *testing.T) {
	f := renderCmd.Flags()

	fps, err := f.GetInt("fps")
	require.NoError(t, err)
	assert.Equal(t, 30, fps)

	factor, err := f.GetFloat64("factor")
	require.NoError(t, err)
	assert.Equal(t, 3.0, factor)

	zoom, err := f.GetFloat64("zoom-factor")
	require.NoError(t, err)
	assert.Zero(t, zoom)

	mode, err := f.GetString("crossfade-mode")
	require.NoError(t, err)
	assert.Equal(t, "ffmpeg", mode)
}
