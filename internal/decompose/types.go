// Package decompose turns free-form goal text into a validated, structured
// task breakdown via two sequential provider calls: a chain-of-thought
// analysis pass whose output is never parsed, then a schema-constrained
// extraction pass validated before anything reaches the entity model.
package decompose

import (
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/stride/internal/entity"
)

// Request describes the goal to decompose.
type Request struct {
	Title                 string
	TimeConstraintMinutes int
	AdditionalInfo        string
}

// ReasoningContext is the opaque stage-1 output. It exists only to prime the
// stage-2 prompt; nothing may parse or branch on its content.
type ReasoningContext string

// Breakdown is the validated result of the pipeline.
type Breakdown struct {
	Tasks                 []TaskPlan `json:"tasks"`
	TotalEstimatedMinutes int        `json:"totalEstimatedMinutes"`

	// ExceedsConstraint flags a total estimate above the requested time
	// constraint. Advisory only; never an error and estimates are never
	// rescaled.
	ExceedsConstraint bool `json:"exceedsConstraint,omitempty"`
}

// TaskPlan is one planned task as returned by the extraction stage.
type TaskPlan struct {
	Title            string            `json:"title"`
	EstimatedMinutes int               `json:"estimatedMinutes"`
	Complexity       entity.Complexity `json:"complexity"`
	Context          string            `json:"context,omitempty"`
	ActionItems      []string          `json:"actionItems,omitempty"`
	DueDate          string            `json:"dueDate,omitempty"`
	Subtasks         []SubtaskPlan     `json:"subtasks,omitempty"`
}

// SubtaskPlan is one planned subtask.
type SubtaskPlan struct {
	Title            string `json:"title"`
	EstimatedMinutes int    `json:"estimatedMinutes,omitempty"`
	Context          string `json:"context,omitempty"`
	DueDate          string `json:"dueDate,omitempty"`
}

// Goal materializes the breakdown into an entity goal with client-generated
// task and subtask IDs. Derived values are recalculated before returning.
func (b *Breakdown) Goal(req Request) entity.Goal {
	goal := entity.Goal{
		Title:                 req.Title,
		TimeConstraintMinutes: req.TimeConstraintMinutes,
		AdditionalInfo:        req.AdditionalInfo,
		Tasks:                 make([]entity.Task, 0, len(b.Tasks)),
		CreatedAt:             time.Now().UTC(),
	}

	for _, plan := range b.Tasks {
		task := entity.Task{
			ID:               uuid.NewString(),
			Title:            plan.Title,
			EstimatedMinutes: plan.EstimatedMinutes,
			Complexity:       plan.Complexity,
			Context:          plan.Context,
			ActionItems:      plan.ActionItems,
			DueDate:          plan.DueDate,
		}
		for _, sub := range plan.Subtasks {
			task.Subtasks = append(task.Subtasks, entity.Subtask{
				ID:               uuid.NewString(),
				Title:            sub.Title,
				EstimatedMinutes: sub.EstimatedMinutes,
				Context:          sub.Context,
				DueDate:          sub.DueDate,
			})
		}
		goal.Tasks = append(goal.Tasks, task)
	}

	entity.Recalculate(&goal)
	return goal
}
