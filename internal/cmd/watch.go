package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stride/internal/config"
	"github.com/felixgeelhaar/stride/internal/entity"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the config file and propagate settings changes",
	Long: `Watch the config file for changes to the settings section. When settings
change, notification preferences are propagated onto existing tasks the same
way an in-app settings save would.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if err := a.engine.LoadGoals(ctx); err != nil {
		return err
	}

	watcher, err := config.NewWatcher(cfgFile, a.logger, func(s entity.UserSettings) {
		a.engine.UpdateSettings(s)
		fmt.Println("Settings updated and propagated to existing tasks")
	})
	if err != nil {
		return err
	}

	fmt.Printf("Watching %s for settings changes (Ctrl+C to stop)\n", cfgFile)
	if err := watcher.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
