package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	logLevelFlag string
	rootCmd      = &cobra.Command{
		Use:   "posterctl",
		Short: "Render birth posters and manage saved designs from the command line",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "warn", "Log level")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
