package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/8ff/gesturesd/internal/config"
	"github.com/8ff/gesturesd/internal/engine"
	"github.com/8ff/gesturesd/internal/logging"
)

func newRunCmd() *cobra.Command {
	var (
		configPath string
		grab       bool
		inputPath  string
	)

	cmd := &cobra.Command{
		Use:   "run [device-path ...]",
		Short: "Run the gesture recognition daemon",
		Long: "Run the gesture recognition daemon. It reads the wire-protocol stream from --input or stdin\n" +
			"and opens no input devices: device-path arguments are accepted and ignored.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, v, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if grab {
				cfg.Grab = true
			}
			if inputPath != "" {
				cfg.Input = inputPath
			}

			log := logging.New(cfg.Debug, os.Stderr)

			table := make([]engine.BoundCommand, 0, len(cfg.Bindings))
			for _, b := range cfg.Bindings {
				table = append(table, engine.BoundCommand{Binding: b.ToBinding(), Command: b.Command})
			}

			ctx := engine.New(table, log)

			if v != nil {
				config.Watch(v, log, func(next *config.Config) {
					table := make([]engine.BoundCommand, 0, len(next.Bindings))
					for _, b := range next.Bindings {
						table = append(table, engine.BoundCommand{Binding: b.ToBinding(), Command: b.Command})
					}
					ctx.SetTable(table)
				})
			}

			input, err := openInput(cfg.Input)
			if err != nil {
				return err
			}
			defer input.Close()

			go ctx.Dispatch()

			log.Info().Str("input", cfg.Input).Msg("gesturesd: running")
			if err := ctx.Run(input); err != nil {
				ctx.Queue.Close()
				return fmt.Errorf("gesturesd: %w", err)
			}
			ctx.Queue.Close()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to configuration file (JSON/YAML/TOML)")
	cmd.Flags().BoolVar(&grab, "grab", false, "set the configuration's grab flag (run itself opens and grabs no devices)")
	cmd.Flags().StringVar(&inputPath, "input", "", "wire-protocol input path, or '-' for stdin")

	return cmd
}

type nopCloser struct{ io.Reader }

func (nopCloser) Close() error { return nil }

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdin}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gesturesd: opening input %s: %w", path, err)
	}
	return f, nil
}
