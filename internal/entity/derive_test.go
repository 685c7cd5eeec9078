package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecalculate_Progress(t *testing.T) {
	tests := []struct {
		name         string
		tasks        []Task
		wantProgress int
	}{
		{
			name:         "no tasks",
			tasks:        nil,
			wantProgress: 0,
		},
		{
			name: "none completed",
			tasks: []Task{
				{ID: "t1", Title: "a"},
				{ID: "t2", Title: "b"},
			},
			wantProgress: 0,
		},
		{
			name: "one of three completed rounds to 33",
			tasks: []Task{
				{ID: "t1", Title: "a", Completed: true},
				{ID: "t2", Title: "b"},
				{ID: "t3", Title: "c"},
			},
			wantProgress: 33,
		},
		{
			name: "two of three completed rounds to 67",
			tasks: []Task{
				{ID: "t1", Title: "a", Completed: true},
				{ID: "t2", Title: "b", Completed: true},
				{ID: "t3", Title: "c"},
			},
			wantProgress: 67,
		},
		{
			name: "all completed",
			tasks: []Task{
				{ID: "t1", Title: "a", Completed: true},
				{ID: "t2", Title: "b", Completed: true},
			},
			wantProgress: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal := Goal{ID: "g1", Title: "goal", Tasks: tt.tasks}
			Recalculate(&goal)
			assert.Equal(t, tt.wantProgress, goal.Progress)
		})
	}
}

func TestRecalculate_CascadingCompletion(t *testing.T) {
	goal := Goal{
		ID:    "g1",
		Title: "goal",
		Tasks: []Task{
			{
				ID:    "t1",
				Title: "task with all subtasks done",
				Subtasks: []Subtask{
					{ID: "s1", Title: "one", Completed: true},
					{ID: "s2", Title: "two", Completed: true},
				},
			},
			{
				ID:    "t2",
				Title: "task with one subtask open",
				Subtasks: []Subtask{
					{ID: "s3", Title: "three", Completed: true},
					{ID: "s4", Title: "four"},
				},
			},
			{
				ID:    "t3",
				Title: "task without subtasks keeps its own flag",
			},
		},
	}

	Recalculate(&goal)

	assert.True(t, goal.Tasks[0].Completed, "all subtasks completed must cascade")
	assert.False(t, goal.Tasks[1].Completed)
	assert.False(t, goal.Tasks[2].Completed)
	assert.Equal(t, 33, goal.Progress)
}

func TestRecalculate_ManualCompletionNotReverted(t *testing.T) {
	// A task completed wholesale keeps its flag even with open subtasks.
	goal := Goal{
		ID:    "g1",
		Title: "goal",
		Tasks: []Task{
			{
				ID:        "t1",
				Title:     "manually done",
				Completed: true,
				Subtasks:  []Subtask{{ID: "s1", Title: "open"}},
			},
		},
	}

	Recalculate(&goal)

	assert.True(t, goal.Tasks[0].Completed)
	assert.Equal(t, 100, goal.Progress)
}

func TestRecalculate_TotalEstimateSkipsSubtasks(t *testing.T) {
	goal := Goal{
		ID:    "g1",
		Title: "goal",
		Tasks: []Task{
			{
				ID:               "t1",
				Title:            "a",
				EstimatedMinutes: 60,
				Subtasks: []Subtask{
					{ID: "s1", Title: "sub", EstimatedMinutes: 45},
				},
			},
			{ID: "t2", Title: "b", EstimatedMinutes: 120},
		},
	}

	Recalculate(&goal)

	assert.Equal(t, 180, goal.TotalEstimatedMinutes,
		"subtask estimates must not be double counted")
}

func TestGoal_Validate(t *testing.T) {
	tests := []struct {
		name    string
		goal    Goal
		wantErr string
	}{
		{
			name: "valid goal",
			goal: Goal{
				Title: "Learn guitar",
				Tasks: []Task{
					{ID: "t1", Title: "Buy a guitar", Complexity: ComplexityLow},
					{ID: "t2", Title: "Practice chords", Subtasks: []Subtask{
						{ID: "s1", Title: "E minor"},
					}},
				},
			},
		},
		{
			name:    "empty title",
			goal:    Goal{Title: "  "},
			wantErr: "goal title",
		},
		{
			name: "duplicate task IDs",
			goal: Goal{
				Title: "g",
				Tasks: []Task{
					{ID: "t1", Title: "a"},
					{ID: "t1", Title: "b"},
				},
			},
			wantErr: "duplicate ID",
		},
		{
			name: "invalid complexity",
			goal: Goal{
				Title: "g",
				Tasks: []Task{{ID: "t1", Title: "a", Complexity: "extreme"}},
			},
			wantErr: "invalid complexity",
		},
		{
			name: "subtask without title",
			goal: Goal{
				Title: "g",
				Tasks: []Task{{ID: "t1", Title: "a", Subtasks: []Subtask{
					{ID: "s1", Title: ""},
				}}},
			},
			wantErr: "title must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.goal.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestGoal_Clone_NoAliasing(t *testing.T) {
	goal := Goal{
		ID:    "g1",
		Title: "goal",
		Tasks: []Task{
			{
				ID:          "t1",
				Title:       "a",
				ActionItems: []string{"one"},
				Subtasks:    []Subtask{{ID: "s1", Title: "sub"}},
			},
		},
	}

	clone := goal.Clone()
	clone.Tasks[0].Subtasks[0].Completed = true
	clone.Tasks[0].ActionItems[0] = "mutated"

	assert.False(t, goal.Tasks[0].Subtasks[0].Completed, "clone must not alias subtasks")
	assert.Equal(t, "one", goal.Tasks[0].ActionItems[0], "clone must not alias action items")
}
