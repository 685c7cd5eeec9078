package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "stride",
	Short: "AI-assisted goal tracking",
	Long: `stride breaks long-term goals into scheduled, trackable tasks using an
AI decomposition pipeline, keeps them in sync with the goal service through
optimistic mutations, and offers coaching along the way.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "stride.yaml", "config file")
}
