package main

import (
	"github.com/keagan/vico/internal/config"
	"github.com/keagan/vico/internal/pipeline"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	profileHop        int
	profileSampleRate int
)

var profileCmd = &cobra.Command{
	Use:   "profile AUDIO",
	Short: "Print the spectral band profile of an audio file as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *config.FromContext(cmd.Context())
		if cmd.Flags().Changed("hop-length") {
			cfg.Analysis.HopLength = profileHop
		}
		if cmd.Flags().Changed("sample-rate") {
			cfg.Analysis.SampleRate = profileSampleRate
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		pipe, err := pipeline.New(log.Logger, &cfg)
		if err != nil {
			return err
		}

		prof, err := pipe.Profile(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		return enc.Encode(prof)
	},
}

func init() {
	profileCmd.Flags().IntVar(&profileHop, "hop-length", 2048, "samples between analysis frames")
	profileCmd.Flags().IntVar(&profileSampleRate, "sample-rate", 0, "resample to this rate (0 keeps the native rate)")
}
