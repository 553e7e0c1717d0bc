package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/8ff/gesturesd/internal/engine"
	"github.com/8ff/gesturesd/internal/gesture"
)

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump [capture-file]",
		Short: "Decode a wire-protocol capture and print dumpGesture-style lines",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input io.ReadCloser = os.Stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("gesturesd dump: %w", err)
				}
				input = f
			}
			defer input.Close()

			ctx := engine.New(nil, zerolog.Nop())
			ctx.OnEvent(func(ev *gesture.Event) {
				fmt.Println(ev.Dump())
			})

			return ctx.Run(input)
		},
	}
	return cmd
}
