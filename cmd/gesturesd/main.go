// Command gesturesd consumes a touch-sample wire stream and dispatches
// matched gesture bindings as shell commands, the way the teacher's
// ffgestures shelled out to libinput and ran a gestureActions entry — only
// generalized to the full recorder/queue/matcher pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "gesturesd version 2.0.0"

func main() {
	root := &cobra.Command{
		Use:   "gesturesd",
		Short: "Multi-touch gesture recognition daemon",
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newDumpCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}
