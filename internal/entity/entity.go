// Package entity defines the goal/task/subtask data model shared by the
// decomposition pipeline, the mutation engine, and the coaching pipeline.
// Derived values (goal progress, cascading task completion, estimate totals)
// are never stored independently; Recalculate recomputes them from raw fields.
package entity

import (
	"fmt"
	"strings"
	"time"
)

// Complexity classifies how involved a task is expected to be.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Valid reports whether the complexity is one of the enumerated values.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
		return true
	}
	return false
}

// ReminderFrequency controls how often reminder notifications fire.
type ReminderFrequency string

const (
	ReminderDaily    ReminderFrequency = "daily"
	ReminderWeekly   ReminderFrequency = "weekly"
	ReminderTaskOnly ReminderFrequency = "task-only"
)

// Valid reports whether the frequency is one of the enumerated values.
func (f ReminderFrequency) Valid() bool {
	switch f {
	case ReminderDaily, ReminderWeekly, ReminderTaskOnly:
		return true
	}
	return false
}

// NotificationChannel identifies an outbound notification transport.
type NotificationChannel string

const (
	ChannelEmail    NotificationChannel = "email"
	ChannelWhatsapp NotificationChannel = "whatsapp"
)

// Goal is a top-level user objective: an ordered task list plus derived
// progress. Progress is always round(100*completed/total), 0 for an empty
// goal, and only ever written by Recalculate.
type Goal struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"userId,omitempty"`
	Title                 string    `json:"title"`
	Tasks                 []Task    `json:"tasks"`
	Progress              int       `json:"progress"`
	TimeConstraintMinutes int       `json:"timeConstraintMinutes,omitempty"`
	AdditionalInfo        string    `json:"additionalInfo,omitempty"`
	Roadblocks            string    `json:"roadblocks,omitempty"`
	LastProgressUpdate    string    `json:"lastProgressUpdate,omitempty"`
	TotalEstimatedMinutes int       `json:"totalEstimatedMinutes,omitempty"`
	CreatedAt             time.Time `json:"createdAt,omitempty"`
}

// Task is a decomposition unit of a goal. The ID is an opaque string unique
// within the goal; the client generates UUIDs, the server may reassign.
type Task struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Completed        bool       `json:"completed"`
	Subtasks         []Subtask  `json:"subtasks,omitempty"`
	EstimatedMinutes int        `json:"estimatedMinutes,omitempty"`
	Complexity       Complexity `json:"complexity,omitempty"`
	Context          string     `json:"context,omitempty"`
	ActionItems      []string   `json:"actionItems,omitempty"`

	// Scheduling fields
	DueDate         string `json:"dueDate,omitempty"` // RFC 3339
	AddedToCalendar bool   `json:"addedToCalendar,omitempty"`
	ReminderEnabled bool   `json:"reminderEnabled,omitempty"`
	ReminderTime    string `json:"reminderTime,omitempty"` // "HH:MM"
	EnableWhatsapp  bool   `json:"enableWhatsapp,omitempty"`
	WhatsappNumber  string `json:"whatsappNumber,omitempty"`
}

// Subtask is a leaf child of a task.
type Subtask struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Completed        bool   `json:"completed"`
	EstimatedMinutes int    `json:"estimatedMinutes,omitempty"`
	Context          string `json:"context,omitempty"`
	DueDate          string `json:"dueDate,omitempty"`
	AddedToCalendar  bool   `json:"addedToCalendar,omitempty"`
}

// UserSettings holds per-user notification preferences. Loaded at session
// start and mutated only by explicit user action; changes are propagated onto
// existing tasks by ApplySettings.
type UserSettings struct {
	WhatsappNumber              string                `json:"whatsappNumber,omitempty" yaml:"whatsappNumber"`
	EnableWhatsappNotifications bool                  `json:"enableWhatsappNotifications" yaml:"enableWhatsappNotifications"`
	ReminderFrequency           ReminderFrequency     `json:"reminderFrequency,omitempty" yaml:"reminderFrequency"`
	ReminderTime                string                `json:"reminderTime,omitempty" yaml:"reminderTime"`
	DefaultNotificationChannels []NotificationChannel `json:"defaultNotificationChannels,omitempty" yaml:"defaultNotificationChannels"`
}

// Validate checks structural invariants on a goal: non-empty title, task IDs
// unique within the goal, subtask IDs unique within their task, and
// complexity values inside the enumeration.
func (g *Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return fmt.Errorf("goal title must not be empty")
	}

	seen := make(map[string]struct{}, len(g.Tasks))
	for i, task := range g.Tasks {
		if strings.TrimSpace(task.Title) == "" {
			return fmt.Errorf("task %d: title must not be empty", i)
		}
		if task.ID != "" {
			if _, dup := seen[task.ID]; dup {
				return fmt.Errorf("task %d: duplicate ID %q", i, task.ID)
			}
			seen[task.ID] = struct{}{}
		}
		if task.Complexity != "" && !task.Complexity.Valid() {
			return fmt.Errorf("task %d: invalid complexity %q", i, task.Complexity)
		}

		subSeen := make(map[string]struct{}, len(task.Subtasks))
		for j, sub := range task.Subtasks {
			if strings.TrimSpace(sub.Title) == "" {
				return fmt.Errorf("task %d subtask %d: title must not be empty", i, j)
			}
			if sub.ID != "" {
				if _, dup := subSeen[sub.ID]; dup {
					return fmt.Errorf("task %d subtask %d: duplicate ID %q", i, j, sub.ID)
				}
				subSeen[sub.ID] = struct{}{}
			}
		}
	}

	return nil
}

// Task returns a pointer to the task with the given ID, or nil.
func (g *Goal) Task(taskID string) *Task {
	for i := range g.Tasks {
		if g.Tasks[i].ID == taskID {
			return &g.Tasks[i]
		}
	}
	return nil
}

// Subtask returns a pointer to the subtask with the given ID, or nil.
func (t *Task) Subtask(subtaskID string) *Subtask {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == subtaskID {
			return &t.Subtasks[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the goal. Snapshots handed to readers must
// never alias the engine's live slices.
func (g Goal) Clone() Goal {
	out := g
	if g.Tasks != nil {
		out.Tasks = make([]Task, len(g.Tasks))
		for i, task := range g.Tasks {
			out.Tasks[i] = task.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	out := t
	if t.Subtasks != nil {
		out.Subtasks = make([]Subtask, len(t.Subtasks))
		copy(out.Subtasks, t.Subtasks)
	}
	if t.ActionItems != nil {
		out.ActionItems = make([]string, len(t.ActionItems))
		copy(out.ActionItems, t.ActionItems)
	}
	return out
}

// CloneGoals deep-copies a goal slice.
func CloneGoals(goals []Goal) []Goal {
	if goals == nil {
		return nil
	}
	out := make([]Goal, len(goals))
	for i, g := range goals {
		out[i] = g.Clone()
	}
	return out
}
