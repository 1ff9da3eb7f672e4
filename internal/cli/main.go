package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "sioviz <trial-dir>",
		Short:        "Load a multi-sensor trial and report its synchronized timeline",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	// Visible flags
	root.Flags().String("config", "trial.yaml", "Trial config file, relative to the trial directory")
	root.Flags().Int("tick", 0, "Timeline tick to report")
	root.Flags().Bool("verbose", false, "Log component construction")

	// Hidden tuning flag (internal)
	root.Flags().Float64("window", 0, "Decode prefetch window seconds override")
	_ = root.Flags().MarkHidden("window")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
