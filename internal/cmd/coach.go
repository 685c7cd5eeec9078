package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stride/internal/coach"
	"github.com/felixgeelhaar/stride/internal/errors"
)

var coachCmd = &cobra.Command{
	Use:   "coach",
	Short: "Get coaching messages and roadblock advice",
}

var coachMessageCmd = &cobra.Command{
	Use:   "message <goal-id>",
	Short: "Generate a coaching message for a goal",
	Args:  cobra.ExactArgs(1),
	RunE:  runCoachMessage,
}

var coachTipsCmd = &cobra.Command{
	Use:   "tips <goal-id>",
	Short: "Generate tips for working around a roadblock",
	Args:  cobra.ExactArgs(1),
	RunE:  runCoachTips,
}

var coachDiscussCmd = &cobra.Command{
	Use:   "discuss <goal-id> <task-id>",
	Short: "Discuss a task with the coach",
	Args:  cobra.ExactArgs(2),
	RunE:  runCoachDiscuss,
}

var (
	coachRoadblock string
	coachMessage   string
)

func init() {
	coachTipsCmd.Flags().StringVar(&coachRoadblock, "roadblock", "", "roadblock description (defaults to the goal's recorded roadblock)")

	coachDiscussCmd.Flags().StringVarP(&coachMessage, "message", "m", "", "what you want to ask about the task (required)")
	_ = coachDiscussCmd.MarkFlagRequired("message")

	coachCmd.AddCommand(coachMessageCmd)
	coachCmd.AddCommand(coachTipsCmd)
	coachCmd.AddCommand(coachDiscussCmd)
	rootCmd.AddCommand(coachCmd)
}

func runCoachMessage(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if err := a.engine.LoadGoals(ctx); err != nil {
		return err
	}
	goal := a.engine.Goal(args[0])
	if goal == nil {
		return errors.New(errors.ErrCodeGoalNotFound, "goal "+args[0]+" not found")
	}

	completed := 0
	for _, t := range goal.Tasks {
		if t.Completed {
			completed++
		}
	}

	msg := a.coach.GenerateMessage(ctx, coach.Context{
		GoalTitle:             goal.Title,
		Progress:              goal.Progress,
		CompletedTasks:        completed,
		TotalTasks:            len(goal.Tasks),
		HasRoadblock:          goal.Roadblocks != "",
		RoadblockText:         goal.Roadblocks,
		TimeConstraintMinutes: goal.TimeConstraintMinutes,
		LastProgressUpdate:    goal.LastProgressUpdate,
	})
	fmt.Printf("[%s] %s\n", msg.Type, msg.Text)
	return nil
}

func runCoachTips(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if err := a.engine.LoadGoals(ctx); err != nil {
		return err
	}
	goal := a.engine.Goal(args[0])
	if goal == nil {
		return errors.New(errors.ErrCodeGoalNotFound, "goal "+args[0]+" not found")
	}

	roadblock := coachRoadblock
	if roadblock == "" {
		roadblock = goal.Roadblocks
	}
	if roadblock == "" {
		return errors.New(errors.ErrCodeConfigInvalid,
			"no roadblock recorded for this goal; pass one with --roadblock")
	}

	for _, tip := range a.coach.GenerateRoadblockTips(ctx, goal.Title, roadblock) {
		fmt.Printf("  - %s\n", tip)
	}
	return nil
}

func runCoachDiscuss(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if err := a.engine.LoadGoals(ctx); err != nil {
		return err
	}
	goal := a.engine.Goal(args[0])
	if goal == nil {
		return errors.New(errors.ErrCodeGoalNotFound, "goal "+args[0]+" not found")
	}
	task := goal.Task(args[1])
	if task == nil {
		return errors.New(errors.ErrCodeTaskNotFound, "task "+args[1]+" not found in goal "+args[0])
	}

	reply := a.coach.DiscussTask(ctx, coach.TaskContext{
		GoalTitle:   goal.Title,
		TaskTitle:   task.Title,
		TaskContext: task.Context,
		Completed:   task.Completed,
		ActionItems: task.ActionItems,
	}, coachMessage)
	fmt.Println(reply)
	return nil
}
