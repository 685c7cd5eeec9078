package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stride/internal/decompose"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Create, list, and manage goals",
}

var goalCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a goal and break it down into tasks",
	Long: `Create a goal. Unless --empty is set, the AI pipeline breaks the goal
down into tasks and subtasks with schedules and time estimates before it is
persisted to the goal service.`,
	RunE: runGoalCreate,
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals with their progress",
	RunE:  runGoalList,
}

var goalDeleteCmd = &cobra.Command{
	Use:   "delete <goal-id>",
	Short: "Delete a goal",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalDelete,
}

var goalToggleCmd = &cobra.Command{
	Use:   "toggle <goal-id> <task-id>",
	Short: "Toggle a task's completion state",
	Args:  cobra.ExactArgs(2),
	RunE:  runGoalToggle,
}

var (
	goalTitle          string
	goalTimeConstraint int
	goalInfo           string
	goalEmpty          bool
	goalJSON           bool
	toggleCompleted    bool
)

func init() {
	goalCreateCmd.Flags().StringVarP(&goalTitle, "title", "t", "", "goal title (required)")
	goalCreateCmd.Flags().IntVar(&goalTimeConstraint, "time-constraint", 0, "available minutes per week")
	goalCreateCmd.Flags().StringVar(&goalInfo, "info", "", "additional context for the breakdown")
	goalCreateCmd.Flags().BoolVar(&goalEmpty, "empty", false, "create the goal without an AI breakdown")
	_ = goalCreateCmd.MarkFlagRequired("title")

	goalListCmd.Flags().BoolVar(&goalJSON, "json", false, "output goals as JSON")

	goalToggleCmd.Flags().BoolVar(&toggleCompleted, "completed", true, "target completion state")

	goalCmd.AddCommand(goalCreateCmd)
	goalCmd.AddCommand(goalListCmd)
	goalCmd.AddCommand(goalDeleteCmd)
	goalCmd.AddCommand(goalToggleCmd)
	rootCmd.AddCommand(goalCmd)
}

func runGoalCreate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()

	if goalEmpty {
		goal, err := a.engine.CreateEmptyGoal(ctx, goalTitle)
		if err != nil {
			return err
		}
		a.engine.Wait()
		fmt.Printf("Created goal %q (%s)\n", goal.Title, goal.ID)
		return nil
	}

	goal, err := a.engine.CreateGoal(ctx, decompose.Request{
		Title:                 goalTitle,
		TimeConstraintMinutes: goalTimeConstraint,
		AdditionalInfo:        goalInfo,
	})
	if err != nil {
		return err
	}
	a.engine.Wait()

	fmt.Printf("Created goal %q (%s) with %d tasks, ~%d minutes total\n",
		goal.Title, goal.ID, len(goal.Tasks), goal.TotalEstimatedMinutes)
	for _, task := range goal.Tasks {
		fmt.Printf("  - %s [%s, %d min]\n", task.Title, task.Complexity, task.EstimatedMinutes)
	}
	return nil
}

func runGoalList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.engine.LoadGoals(cmd.Context()); err != nil {
		return err
	}
	goals := a.engine.Goals()

	if goalJSON {
		data, err := json.MarshalIndent(goals, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal goals: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(goals) == 0 {
		fmt.Println("No goals yet. Create one with: stride goal create --title \"...\"")
		return nil
	}
	for _, g := range goals {
		fmt.Printf("%s  %-40s %3d%%  (%d tasks)\n", g.ID, g.Title, g.Progress, len(g.Tasks))
	}
	return nil
}

func runGoalDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if err := a.engine.LoadGoals(ctx); err != nil {
		return err
	}
	if err := a.engine.DeleteGoal(ctx, args[0]); err != nil {
		return err
	}
	a.engine.Wait()
	fmt.Printf("Deleted goal %s\n", args[0])
	return nil
}

func runGoalToggle(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if err := a.engine.LoadGoals(ctx); err != nil {
		return err
	}
	if err := a.engine.ToggleTaskCompletion(ctx, args[0], args[1], toggleCompleted); err != nil {
		return err
	}
	a.engine.Wait()

	if goal := a.engine.Goal(args[0]); goal != nil {
		fmt.Printf("Goal %q is now at %d%%\n", goal.Title, goal.Progress)
	}
	return nil
}
