// Package engine implements the optimistic mutation protocol over the entity
// model. Every state-changing operation follows the same shape: apply the
// change and recompute derived values synchronously, publish immediately, then
// confirm against the backend asynchronously. Failures never roll back fields
// one by one; the affected goal is refetched and replaced wholesale.
//
// Mutations against the same goal are deliberately not sequenced: both
// optimistic updates land in issuance order and whichever network response or
// refetch resolves last wins at goal granularity.
package engine

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/stride/internal/backend"
	"github.com/felixgeelhaar/stride/internal/decompose"
	"github.com/felixgeelhaar/stride/internal/entity"
	"github.com/felixgeelhaar/stride/internal/errors"
	"github.com/felixgeelhaar/stride/internal/log"
)

// Backend is the slice of the goal-service contract the engine consumes.
// *backend.Client satisfies it.
type Backend interface {
	GetGoals(ctx context.Context) ([]entity.Goal, error)
	GetGoal(ctx context.Context, goalID string) (*entity.Goal, error)
	CreateGoal(ctx context.Context, req backend.CreateGoalRequest) (*entity.Goal, error)
	DeleteGoal(ctx context.Context, goalID string) error
	PatchTask(ctx context.Context, goalID, taskID string, completed bool) error
	PatchSubtask(ctx context.Context, goalID, taskID, subtaskID string, completed bool) error
	PatchTaskSchedule(ctx context.Context, goalID, taskID string, updates backend.TaskScheduleUpdates) error
	PatchSubtaskSchedule(ctx context.Context, goalID, taskID, subtaskID string, updates backend.SubtaskScheduleUpdates) error
	PostProgressUpdate(ctx context.Context, goalID string, req backend.ProgressUpdateRequest) (*entity.Goal, error)
	PostRoadblock(ctx context.Context, goalID string, req backend.RoadblockRequest) (*entity.Goal, error)
}

// Decomposer produces a task breakdown for a new goal. *decompose.Pipeline
// satisfies it.
type Decomposer interface {
	Decompose(ctx context.Context, req decompose.Request) (*decompose.Breakdown, error)
}

// Engine owns the entity model while mutations are in flight.
type Engine struct {
	mu       sync.Mutex
	goals    []entity.Goal
	settings entity.UserSettings

	backend  Backend
	pipeline Decomposer
	logger   *log.Logger
	listener Listener

	inflight sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithListener sets the outcome listener.
func WithListener(l Listener) Option {
	return func(e *Engine) { e.listener = l }
}

// WithSettings seeds the user settings at construction.
func WithSettings(s entity.UserSettings) Option {
	return func(e *Engine) { e.settings = s }
}

// New creates an engine over the given backend and decomposition pipeline.
func New(b Backend, pipeline Decomposer, logger *log.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	e := &Engine{
		backend:  b,
		pipeline: pipeline,
		logger:   logger.With("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadGoals seeds the store from the backend. Called once at session start.
func (e *Engine) LoadGoals(ctx context.Context) error {
	goals, err := e.backend.GetGoals(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	for i := range goals {
		entity.Recalculate(&goals[i])
	}
	e.goals = goals
	e.mu.Unlock()

	e.logger.Info("goals loaded", "count", len(goals))
	return nil
}

// Goals returns a deep-copied snapshot of every goal.
func (e *Engine) Goals() []entity.Goal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return entity.CloneGoals(e.goals)
}

// Goal returns a deep-copied snapshot of one goal, or nil.
func (e *Engine) Goal(goalID string) *entity.Goal {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.goals {
		if e.goals[i].ID == goalID {
			g := e.goals[i].Clone()
			return &g
		}
	}
	return nil
}

// Settings returns the current user settings.
func (e *Engine) Settings() entity.UserSettings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// Wait blocks until every in-flight network round trip has settled.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// ToggleTaskCompletion sets a task's completed flag. The write is
// unconditional: toggling to the value already held issues the same PATCH and
// changes nothing locally.
func (e *Engine) ToggleTaskCompletion(ctx context.Context, goalID, taskID string, completed bool) error {
	return e.mutate(ctx, "toggleTaskCompletion", goalID,
		func(g *entity.Goal) error {
			task := g.Task(taskID)
			if task == nil {
				return errors.New(errors.ErrCodeTaskNotFound, "task "+taskID+" not found in goal "+goalID)
			}
			task.Completed = completed
			return nil
		},
		func(ctx context.Context) (*entity.Goal, error) {
			return nil, e.backend.PatchTask(ctx, goalID, taskID, completed)
		})
}

// ToggleSubtaskCompletion sets a subtask's completed flag. Cascading task
// completion happens in the same synchronous apply, never lazily.
func (e *Engine) ToggleSubtaskCompletion(ctx context.Context, goalID, taskID, subtaskID string, completed bool) error {
	return e.mutate(ctx, "toggleSubtaskCompletion", goalID,
		func(g *entity.Goal) error {
			task := g.Task(taskID)
			if task == nil {
				return errors.New(errors.ErrCodeTaskNotFound, "task "+taskID+" not found in goal "+goalID)
			}
			sub := task.Subtask(subtaskID)
			if sub == nil {
				return errors.New(errors.ErrCodeSubtaskNotFound, "subtask "+subtaskID+" not found in task "+taskID)
			}
			sub.Completed = completed
			return nil
		},
		func(ctx context.Context) (*entity.Goal, error) {
			return nil, e.backend.PatchSubtask(ctx, goalID, taskID, subtaskID, completed)
		})
}

// UpdateTaskSchedule applies partial scheduling updates to a task.
func (e *Engine) UpdateTaskSchedule(ctx context.Context, goalID, taskID string, updates backend.TaskScheduleUpdates) error {
	return e.mutate(ctx, "updateTaskSchedule", goalID,
		func(g *entity.Goal) error {
			task := g.Task(taskID)
			if task == nil {
				return errors.New(errors.ErrCodeTaskNotFound, "task "+taskID+" not found in goal "+goalID)
			}
			applyTaskSchedule(task, updates)
			return nil
		},
		func(ctx context.Context) (*entity.Goal, error) {
			return nil, e.backend.PatchTaskSchedule(ctx, goalID, taskID, updates)
		})
}

// UpdateSubtaskSchedule applies partial scheduling updates to a subtask.
func (e *Engine) UpdateSubtaskSchedule(ctx context.Context, goalID, taskID, subtaskID string, updates backend.SubtaskScheduleUpdates) error {
	return e.mutate(ctx, "updateSubtaskSchedule", goalID,
		func(g *entity.Goal) error {
			task := g.Task(taskID)
			if task == nil {
				return errors.New(errors.ErrCodeTaskNotFound, "task "+taskID+" not found in goal "+goalID)
			}
			sub := task.Subtask(subtaskID)
			if sub == nil {
				return errors.New(errors.ErrCodeSubtaskNotFound, "subtask "+subtaskID+" not found in task "+taskID)
			}
			if updates.DueDate != nil {
				sub.DueDate = *updates.DueDate
			}
			if updates.AddedToCalendar != nil {
				sub.AddedToCalendar = *updates.AddedToCalendar
			}
			return nil
		},
		func(ctx context.Context) (*entity.Goal, error) {
			return nil, e.backend.PatchSubtaskSchedule(ctx, goalID, taskID, subtaskID, updates)
		})
}

// AddProgressUpdate records a free-text progress note on a goal.
func (e *Engine) AddProgressUpdate(ctx context.Context, goalID string, req backend.ProgressUpdateRequest) error {
	return e.mutate(ctx, "addProgressUpdate", goalID,
		func(g *entity.Goal) error {
			g.LastProgressUpdate = req.UpdateMessage
			return nil
		},
		func(ctx context.Context) (*entity.Goal, error) {
			return e.backend.PostProgressUpdate(ctx, goalID, req)
		})
}

// ReportRoadblock records roadblock text on a goal.
func (e *Engine) ReportRoadblock(ctx context.Context, goalID string, req backend.RoadblockRequest) error {
	return e.mutate(ctx, "reportRoadblock", goalID,
		func(g *entity.Goal) error {
			g.Roadblocks = req.Description
			return nil
		},
		func(ctx context.Context) (*entity.Goal, error) {
			return e.backend.PostRoadblock(ctx, goalID, req)
		})
}

// CreateGoal runs the decomposition pipeline, inserts the resulting goal
// optimistically, and persists it. Decomposition failure aborts with no
// partial goal; persistence failure removes the optimistic entry again (there
// is nothing authoritative to refetch for a goal the server never accepted).
func (e *Engine) CreateGoal(ctx context.Context, req decompose.Request) (*entity.Goal, error) {
	breakdown, err := e.pipeline.Decompose(ctx, req)
	if err != nil {
		return nil, err
	}
	goal := breakdown.Goal(req)
	return e.insertGoal(ctx, goal, req)
}

// CreateEmptyGoal is the explicit shortcut that skips decomposition.
func (e *Engine) CreateEmptyGoal(ctx context.Context, title string) (*entity.Goal, error) {
	if strings.TrimSpace(title) == "" {
		return nil, errors.New(errors.ErrCodeGoalNotFound, "goal title must not be empty")
	}
	goal := entity.Goal{Title: title, Tasks: []entity.Task{}}
	entity.Recalculate(&goal)
	return e.insertGoal(ctx, goal, decompose.Request{Title: title})
}

func (e *Engine) insertGoal(ctx context.Context, goal entity.Goal, req decompose.Request) (*entity.Goal, error) {
	mutationID := uuid.NewString()
	// Temporary client ID until the server assigns the canonical one.
	goal.ID = "local-" + mutationID

	e.mu.Lock()
	e.goals = append(e.goals, goal)
	snapshot := goal.Clone()
	e.mu.Unlock()

	e.publish(Outcome{Kind: OutcomeOptimistic, MutationID: mutationID, Op: "createGoal",
		GoalID: goal.ID, Goal: &snapshot})

	createReq := backend.CreateGoalRequest{
		Title:                 goal.Title,
		TimeConstraintMinutes: req.TimeConstraintMinutes,
		AdditionalInfo:        req.AdditionalInfo,
		Tasks:                 goal.Tasks,
	}

	localID := goal.ID
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		// The operation is not cancellable once issued.
		bgCtx := context.WithoutCancel(ctx)

		canonical, err := e.backend.CreateGoal(bgCtx, createReq)
		if err != nil {
			netErr := errors.Wrap(errors.ErrCodeMutationNetwork, "create goal failed", err)
			e.logger.WithError(netErr).Warn("removing optimistic goal", "goal_id", localID)

			e.mu.Lock()
			e.removeGoalLocked(localID)
			e.mu.Unlock()

			e.publish(Outcome{Kind: OutcomeReconciled, MutationID: mutationID, Op: "createGoal",
				GoalID: localID, Err: netErr})
			return
		}

		entity.Recalculate(canonical)

		e.mu.Lock()
		e.replaceGoalLocked(localID, *canonical)
		snapshot := canonical.Clone()
		e.mu.Unlock()

		e.publish(Outcome{Kind: OutcomeConfirmed, MutationID: mutationID, Op: "createGoal",
			GoalID: canonical.ID, Goal: &snapshot})
	}()

	result := snapshot.Clone()
	return &result, nil
}

// DeleteGoal removes a goal optimistically. On failure the goal is refetched
// and reinstated.
func (e *Engine) DeleteGoal(ctx context.Context, goalID string) error {
	mutationID := uuid.NewString()

	e.mu.Lock()
	removed := e.removeGoalLocked(goalID)
	e.mu.Unlock()

	if !removed {
		return errors.New(errors.ErrCodeGoalNotFound, "goal "+goalID+" not found")
	}

	e.publish(Outcome{Kind: OutcomeOptimistic, MutationID: mutationID, Op: "deleteGoal", GoalID: goalID})

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		bgCtx := context.WithoutCancel(ctx)

		if err := e.backend.DeleteGoal(bgCtx, goalID); err != nil {
			netErr := errors.Wrap(errors.ErrCodeMutationNetwork, "delete goal failed", err)
			e.reconcile(bgCtx, mutationID, "deleteGoal", goalID, netErr)
			return
		}
		e.publish(Outcome{Kind: OutcomeConfirmed, MutationID: mutationID, Op: "deleteGoal", GoalID: goalID})
	}()

	return nil
}

// UpdateSettings stores new user settings and runs the retroactive
// reconciliation pass over every goal. Local-only: scheduling PATCHes are not
// replayed for inherited fields.
func (e *Engine) UpdateSettings(settings entity.UserSettings) {
	e.mu.Lock()
	e.settings = settings
	e.goals = entity.ApplySettings(settings, e.goals)
	e.mu.Unlock()

	e.logger.Info("settings applied to existing goals",
		"whatsapp_configured", settings.WhatsappNumber != "")
}

// mutate is the optimistic protocol stated once. apply runs under the store
// lock together with the derived-value recompute; call runs on its own
// goroutine and may return a canonical goal to merge on success.
func (e *Engine) mutate(ctx context.Context, op, goalID string,
	apply func(*entity.Goal) error,
	call func(context.Context) (*entity.Goal, error)) error {

	mutationID := uuid.NewString()

	e.mu.Lock()
	goal := e.findGoalLocked(goalID)
	if goal == nil {
		e.mu.Unlock()
		return errors.New(errors.ErrCodeGoalNotFound, "goal "+goalID+" not found")
	}
	if err := apply(goal); err != nil {
		e.mu.Unlock()
		return err
	}
	entity.Recalculate(goal)
	snapshot := goal.Clone()
	e.mu.Unlock()

	e.publish(Outcome{Kind: OutcomeOptimistic, MutationID: mutationID, Op: op,
		GoalID: goalID, Goal: &snapshot})

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		bgCtx := context.WithoutCancel(ctx)

		canonical, err := call(bgCtx)
		if err != nil {
			netErr := errors.Wrap(errors.ErrCodeMutationNetwork, op+" failed", err)
			e.reconcile(bgCtx, mutationID, op, goalID, netErr)
			return
		}

		var confirmed *entity.Goal
		if canonical != nil {
			// Server is authoritative for fields the client cannot compute.
			entity.Recalculate(canonical)
			e.mu.Lock()
			e.replaceGoalLocked(goalID, *canonical)
			s := canonical.Clone()
			e.mu.Unlock()
			confirmed = &s
		} else {
			e.mu.Lock()
			if g := e.findGoalLocked(goalID); g != nil {
				s := g.Clone()
				confirmed = &s
			}
			e.mu.Unlock()
		}

		e.publish(Outcome{Kind: OutcomeConfirmed, MutationID: mutationID, Op: op,
			GoalID: goalID, Goal: confirmed})
	}()

	return nil
}

// reconcile is the failure path: refetch the goal and replace it wholesale.
// Partial rollback of a derived-value recompute is error-prone; one extra
// round trip buys guaranteed consistency.
func (e *Engine) reconcile(ctx context.Context, mutationID, op, goalID string, netErr error) {
	e.logger.WithError(netErr).Warn("mutation failed, refetching goal", "op", op, "goal_id", goalID)

	authoritative, err := e.backend.GetGoal(ctx, goalID)
	if err != nil {
		refetchErr := errors.Wrap(errors.ErrCodeRefetchFailed, "refetch after failed "+op, err)
		e.logger.WithError(refetchErr).Error("leaving optimistic state in place", "goal_id", goalID)
		e.publish(Outcome{Kind: OutcomeReconcileFailed, MutationID: mutationID, Op: op,
			GoalID: goalID, Err: refetchErr})
		return
	}

	entity.Recalculate(authoritative)

	e.mu.Lock()
	e.replaceGoalLocked(goalID, *authoritative)
	snapshot := authoritative.Clone()
	e.mu.Unlock()

	e.publish(Outcome{Kind: OutcomeReconciled, MutationID: mutationID, Op: op,
		GoalID: goalID, Goal: &snapshot, Err: netErr})
}

func (e *Engine) publish(o Outcome) {
	if e.listener != nil {
		e.listener(o)
	}
}

func (e *Engine) findGoalLocked(goalID string) *entity.Goal {
	for i := range e.goals {
		if e.goals[i].ID == goalID {
			return &e.goals[i]
		}
	}
	return nil
}

// replaceGoalLocked swaps the stored goal (matched by ID) for the given one,
// appending when the ID is no longer present.
func (e *Engine) replaceGoalLocked(goalID string, goal entity.Goal) {
	for i := range e.goals {
		if e.goals[i].ID == goalID {
			e.goals[i] = goal
			return
		}
	}
	e.goals = append(e.goals, goal)
}

func (e *Engine) removeGoalLocked(goalID string) bool {
	for i := range e.goals {
		if e.goals[i].ID == goalID {
			e.goals = append(e.goals[:i], e.goals[i+1:]...)
			return true
		}
	}
	return false
}

func applyTaskSchedule(task *entity.Task, updates backend.TaskScheduleUpdates) {
	if updates.DueDate != nil {
		task.DueDate = *updates.DueDate
	}
	if updates.AddedToCalendar != nil {
		task.AddedToCalendar = *updates.AddedToCalendar
	}
	if updates.ReminderEnabled != nil {
		task.ReminderEnabled = *updates.ReminderEnabled
	}
	if updates.ReminderTime != nil {
		task.ReminderTime = *updates.ReminderTime
	}
	if updates.EnableWhatsapp != nil {
		task.EnableWhatsapp = *updates.EnableWhatsapp
	}
	if updates.WhatsappNumber != nil {
		task.WhatsappNumber = *updates.WhatsappNumber
	}
}
