package main

import (
	"os"
	"time"

	"github.com/keagan/vico/internal/cli"
	"github.com/keagan/vico/internal/config"
	"github.com/keagan/vico/internal/ffmpeg"
	"github.com/keagan/vico/internal/pipeline"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var renderReq pipeline.RenderRequest

var renderCmd = &cobra.Command{
	Use:   "render OUTPUT AUDIO VIDEO...",
	Short: "Render source videos against an audio track",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		req := renderReq
		req.Output = args[0]
		req.Audio = args[1]
		req.Videos = args[2:]
		req.SeedSet = cmd.Flags().Changed("seed")

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		var frameBar, encodeBar *progressbar.ProgressBar
		opts := pipeline.RenderOptions{
			OnFrames: func(total int) {
				frameBar = newBar(total, "Rendering")
				encodeBar = newBar(total, "Encoding ")
			},
			FrameProgress: func(done, total int) {
				frameBar.Set(done)
			},
			EncodeProgress: func(p *ffmpeg.Progress) {
				encodeBar.Set(p.Frame)
			},
		}

		result, err := pipe.Render(cmd.Context(), req, opts)
		if encodeBar != nil {
			encodeBar.Finish()
		}
		if err != nil {
			return err
		}

		cli.PrintSummary(cmd.OutOrStdout(), cli.Summary{
			Output:   result.Output,
			Frames:   result.Frames,
			FPS:      result.FPS,
			Duration: result.Duration,
			Segments: result.Segments,
			Width:    result.Width,
			Height:   result.Height,
			Elapsed:  result.Elapsed,
		})
		return nil
	},
}

func newBar(total int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

func init() {
	f := renderCmd.Flags()
	f.IntVar(&renderReq.FPS, "fps", 30, "output frame rate")
	f.Float64Var(&renderReq.Factor, "factor", 3.0, "color modulation strength")

	f.Float64Var(&renderReq.ZoomFactor, "zoom-factor", 0, "zoom strength (0 disables zoom)")
	f.StringArrayVar(&renderReq.ZoomRanges, "zoom-range", nil, "zoom window START-END, repeatable; END=0 is open")

	f.BoolVar(&renderReq.Shake, "shake", false, "enable camera shake")
	f.IntVar(&renderReq.ShakeIntensity, "shake-intensity", 0, "shake amplitude in pixels")
	f.StringArrayVar(&renderReq.ShakeRanges, "shake-range", nil, "shake window START-END, repeatable")

	f.BoolVar(&renderReq.Glitch, "glitch", false, "enable glitch bands")
	f.IntVar(&renderReq.GlitchIntensity, "glitch-intensity", 0, "maximum glitch shift in pixels")
	f.StringArrayVar(&renderReq.GlitchRanges, "glitch-range", nil, "glitch window START-END, repeatable")

	f.BoolVar(&renderReq.Reverse, "reverse", false, "follow each source with a reversed copy")
	f.BoolVar(&renderReq.Debug, "debug", false, "blend a red diagnostic overlay over every frame")

	f.Float64Var(&renderReq.Crossfade, "crossfade", 0, "reserved, currently has no effect")
	f.StringVar(&renderReq.CrossfadeMode, "crossfade-mode", pipeline.CrossfadeFFmpeg, "reserved: ffmpeg or moviepy")

	f.Uint64Var(&renderReq.Seed, "seed", 0, "glitch random seed (defaults to the config seed)")
	f.IntVar(&renderReq.Workers, "workers", 0, "render workers (0 uses the config concurrency)")
}
