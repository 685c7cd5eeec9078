package entity

import "math"

// Recalculate recomputes every derived value on the goal from its raw fields:
// cascading task completion first, then progress, then the estimate total.
// Callers must invoke it in the same critical section as the raw field change
// so derived values are never observably stale.
func Recalculate(g *Goal) {
	for i := range g.Tasks {
		cascadeCompletion(&g.Tasks[i])
	}
	g.Progress = computeProgress(g.Tasks)
	g.TotalEstimatedMinutes = totalEstimate(g.Tasks)
}

// cascadeCompletion marks a task completed once every one of its subtasks is
// completed. Tasks without subtasks keep their own flag. A task with
// incomplete subtasks is not forced back to incomplete: the user may complete
// a task wholesale without ticking each subtask.
func cascadeCompletion(t *Task) {
	if len(t.Subtasks) == 0 {
		return
	}
	for _, sub := range t.Subtasks {
		if !sub.Completed {
			return
		}
	}
	t.Completed = true
}

func computeProgress(tasks []Task) int {
	if len(tasks) == 0 {
		return 0
	}
	completed := 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}
	return int(math.Round(100 * float64(completed) / float64(len(tasks))))
}

// totalEstimate sums task-level estimates only. Subtask estimates are
// informational detail and must not be added again.
func totalEstimate(tasks []Task) int {
	total := 0
	for _, t := range tasks {
		total += t.EstimatedMinutes
	}
	return total
}
