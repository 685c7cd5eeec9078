package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stride/internal/backend"
	"github.com/felixgeelhaar/stride/internal/decompose"
	"github.com/felixgeelhaar/stride/internal/entity"
	"github.com/felixgeelhaar/stride/internal/errors"
)

// fakeBackend is an in-memory goal service with overridable behavior per
// endpoint, so tests control failure and resolution order deterministically.
type fakeBackend struct {
	mu    sync.Mutex
	goals map[string]entity.Goal

	patchTaskFn         func(goalID, taskID string, completed bool) error
	patchSubtaskFn      func(goalID, taskID, subtaskID string, completed bool) error
	patchTaskSchedFn    func(goalID, taskID string, updates backend.TaskScheduleUpdates) error
	getGoalFn           func(goalID string) (*entity.Goal, error)
	createGoalFn        func(req backend.CreateGoalRequest) (*entity.Goal, error)
	deleteGoalFn        func(goalID string) error
	postProgressFn      func(goalID string, req backend.ProgressUpdateRequest) (*entity.Goal, error)
	postRoadblockFn     func(goalID string, req backend.RoadblockRequest) (*entity.Goal, error)
	patchSubtaskSchedFn func(goalID, taskID, subtaskID string, updates backend.SubtaskScheduleUpdates) error
}

func newFakeBackend(goals ...entity.Goal) *fakeBackend {
	fb := &fakeBackend{goals: make(map[string]entity.Goal)}
	for _, g := range goals {
		fb.goals[g.ID] = g.Clone()
	}
	return fb
}

func (f *fakeBackend) serverGoal(goalID string) (entity.Goal, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.goals[goalID]
	return g.Clone(), ok
}

func (f *fakeBackend) setServerGoal(g entity.Goal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.goals[g.ID] = g.Clone()
}

func (f *fakeBackend) GetGoals(context.Context) ([]entity.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.Goal, 0, len(f.goals))
	for _, g := range f.goals {
		out = append(out, g.Clone())
	}
	return out, nil
}

func (f *fakeBackend) GetGoal(_ context.Context, goalID string) (*entity.Goal, error) {
	if f.getGoalFn != nil {
		return f.getGoalFn(goalID)
	}
	g, ok := f.serverGoal(goalID)
	if !ok {
		return nil, fmt.Errorf("goal %s not on server", goalID)
	}
	return &g, nil
}

func (f *fakeBackend) CreateGoal(_ context.Context, req backend.CreateGoalRequest) (*entity.Goal, error) {
	if f.createGoalFn != nil {
		return f.createGoalFn(req)
	}
	g := entity.Goal{ID: "srv-" + req.Title, Title: req.Title, Tasks: req.Tasks,
		TimeConstraintMinutes: req.TimeConstraintMinutes, AdditionalInfo: req.AdditionalInfo}
	f.setServerGoal(g)
	out := g.Clone()
	return &out, nil
}

func (f *fakeBackend) DeleteGoal(_ context.Context, goalID string) error {
	if f.deleteGoalFn != nil {
		return f.deleteGoalFn(goalID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.goals, goalID)
	return nil
}

func (f *fakeBackend) PatchTask(_ context.Context, goalID, taskID string, completed bool) error {
	if f.patchTaskFn != nil {
		return f.patchTaskFn(goalID, taskID, completed)
	}
	return nil
}

func (f *fakeBackend) PatchSubtask(_ context.Context, goalID, taskID, subtaskID string, completed bool) error {
	if f.patchSubtaskFn != nil {
		return f.patchSubtaskFn(goalID, taskID, subtaskID, completed)
	}
	return nil
}

func (f *fakeBackend) PatchTaskSchedule(_ context.Context, goalID, taskID string, updates backend.TaskScheduleUpdates) error {
	if f.patchTaskSchedFn != nil {
		return f.patchTaskSchedFn(goalID, taskID, updates)
	}
	return nil
}

func (f *fakeBackend) PatchSubtaskSchedule(_ context.Context, goalID, taskID, subtaskID string, updates backend.SubtaskScheduleUpdates) error {
	if f.patchSubtaskSchedFn != nil {
		return f.patchSubtaskSchedFn(goalID, taskID, subtaskID, updates)
	}
	return nil
}

func (f *fakeBackend) PostProgressUpdate(_ context.Context, goalID string, req backend.ProgressUpdateRequest) (*entity.Goal, error) {
	if f.postProgressFn != nil {
		return f.postProgressFn(goalID, req)
	}
	return nil, nil
}

func (f *fakeBackend) PostRoadblock(_ context.Context, goalID string, req backend.RoadblockRequest) (*entity.Goal, error) {
	if f.postRoadblockFn != nil {
		return f.postRoadblockFn(goalID, req)
	}
	return nil, nil
}

// recorder collects outcomes and lets tests block until one of a given kind
// arrives.
type recorder struct {
	mu       sync.Mutex
	outcomes []Outcome
	signal   chan Outcome
}

func newRecorder() *recorder {
	return &recorder{signal: make(chan Outcome, 64)}
}

func (r *recorder) listen(o Outcome) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, o)
	r.mu.Unlock()
	r.signal <- o
}

func (r *recorder) waitFor(t *testing.T, kind OutcomeKind) Outcome {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case o := <-r.signal:
			if o.Kind == kind {
				return o
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %v outcome", kind)
		}
	}
}

func (r *recorder) kinds() []OutcomeKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]OutcomeKind, len(r.outcomes))
	for i, o := range r.outcomes {
		out[i] = o.Kind
	}
	return out
}

// stubDecomposer returns a fixed breakdown.
type stubDecomposer struct {
	breakdown *decompose.Breakdown
	err       error
}

func (s *stubDecomposer) Decompose(context.Context, decompose.Request) (*decompose.Breakdown, error) {
	return s.breakdown, s.err
}

func twoSubtaskGoal() entity.Goal {
	g := entity.Goal{
		ID:    "g1",
		Title: "Learn guitar",
		Tasks: []entity.Task{
			{ID: "t1", Title: "Buy a guitar", Completed: true, EstimatedMinutes: 60},
			{ID: "t2", Title: "Learn chords", EstimatedMinutes: 90, Subtasks: []entity.Subtask{
				{ID: "s1", Title: "E minor", Completed: true},
				{ID: "s2", Title: "A major"},
			}},
		},
	}
	entity.Recalculate(&g)
	return g
}

func newEngine(t *testing.T, fb *fakeBackend, rec *recorder) *Engine {
	t.Helper()
	e := New(fb, &stubDecomposer{}, nil, WithListener(rec.listen))
	require.NoError(t, e.LoadGoals(context.Background()))
	return e
}

func TestEngine_ToggleSubtaskCompletion_CascadesSynchronously(t *testing.T) {
	// Scenario: completing the last open subtask of a 2-subtask task must
	// flip the task and bump progress before any network response returns.
	released := make(chan struct{})
	fb := newFakeBackend(twoSubtaskGoal())
	fb.patchSubtaskFn = func(string, string, string, bool) error {
		<-released // hold the network response
		return nil
	}
	rec := newRecorder()
	e := newEngine(t, fb, rec)

	require.NoError(t, e.ToggleSubtaskCompletion(context.Background(), "g1", "t2", "s2", true))

	// Synchronous state, network still pending.
	goal := e.Goal("g1")
	require.NotNil(t, goal)
	assert.True(t, goal.Task("t2").Completed, "cascade must apply in the same update")
	assert.Equal(t, 100, goal.Progress)

	optimistic := rec.waitFor(t, OutcomeOptimistic)
	assert.True(t, optimistic.Goal.Task("t2").Completed)

	close(released)
	rec.waitFor(t, OutcomeConfirmed)
}

func TestEngine_ToggleTaskCompletion_FailureTriggersWholesaleRefetch(t *testing.T) {
	// Scenario: the PATCH fails with a 500-equivalent; the optimistic flip
	// is visible immediately, then the goal is replaced by server state.
	serverState := twoSubtaskGoal()
	fb := newFakeBackend(serverState)
	fb.patchTaskFn = func(string, string, bool) error {
		return fmt.Errorf("500 internal server error")
	}
	rec := newRecorder()
	e := newEngine(t, fb, rec)

	require.NoError(t, e.ToggleTaskCompletion(context.Background(), "g1", "t2", true))

	// Optimistic flip visible.
	assert.True(t, e.Goal("g1").Task("t2").Completed)

	reconciled := rec.waitFor(t, OutcomeReconciled)
	require.Error(t, reconciled.Err)
	assert.True(t, errors.HasCode(reconciled.Err, errors.ErrCodeMutationNetwork))

	// The store now matches the server's authoritative version, which never
	// saw the toggle.
	goal := e.Goal("g1")
	assert.False(t, goal.Task("t2").Completed)
	assert.Equal(t, 50, goal.Progress)
}

func TestEngine_ReconcileFailed_LeavesOptimisticState(t *testing.T) {
	fb := newFakeBackend(twoSubtaskGoal())
	fb.patchTaskFn = func(string, string, bool) error { return fmt.Errorf("boom") }
	fb.getGoalFn = func(string) (*entity.Goal, error) { return nil, fmt.Errorf("also down") }
	rec := newRecorder()
	e := newEngine(t, fb, rec)

	require.NoError(t, e.ToggleTaskCompletion(context.Background(), "g1", "t2", true))

	failed := rec.waitFor(t, OutcomeReconcileFailed)
	assert.True(t, errors.HasCode(failed.Err, errors.ErrCodeRefetchFailed))
	assert.True(t, e.Goal("g1").Task("t2").Completed, "optimistic state stays when refetch fails")
}

func TestEngine_ToggleTaskCompletion_Idempotent(t *testing.T) {
	patches := 0
	fb := newFakeBackend(twoSubtaskGoal())
	fb.patchTaskFn = func(string, string, bool) error { patches++; return nil }
	rec := newRecorder()
	e := newEngine(t, fb, rec)

	before := e.Goal("g1").Progress

	// t1 is already completed; toggling it to true changes nothing.
	require.NoError(t, e.ToggleTaskCompletion(context.Background(), "g1", "t1", true))
	e.Wait()

	assert.Equal(t, before, e.Goal("g1").Progress)
	assert.Equal(t, 1, patches, "the PATCH is still issued unconditionally")
}

func TestEngine_ScheduleRace_LastResolvedWins(t *testing.T) {
	// Scenario: two schedule updates against the same task are in flight
	// together; both fail, and the refetches resolve in reverse issuance
	// order. The final dueDate is whatever the last-resolved refetch said,
	// not the second-issued call.
	serverState := twoSubtaskGoal()
	fb := newFakeBackend(serverState)

	firstRefetch := make(chan struct{})
	secondRefetch := make(chan struct{})
	refetches := 0
	var refetchMu sync.Mutex

	fb.patchTaskSchedFn = func(string, string, backend.TaskScheduleUpdates) error {
		return fmt.Errorf("conflict")
	}
	fb.getGoalFn = func(goalID string) (*entity.Goal, error) {
		refetchMu.Lock()
		refetches++
		n := refetches
		refetchMu.Unlock()

		g, _ := fb.serverGoal(goalID)
		if n == 1 {
			<-firstRefetch // resolves last
			g.Tasks[0].DueDate = "2026-09-01T09:00:00Z"
		} else {
			<-secondRefetch // resolves first
			g.Tasks[0].DueDate = "2026-09-02T09:00:00Z"
		}
		return &g, nil
	}

	rec := newRecorder()
	e := newEngine(t, fb, rec)

	due1 := "2026-10-01T09:00:00Z"
	due2 := "2026-10-02T09:00:00Z"
	require.NoError(t, e.UpdateTaskSchedule(context.Background(), "g1", "t1",
		backend.TaskScheduleUpdates{DueDate: &due1}))
	require.NoError(t, e.UpdateTaskSchedule(context.Background(), "g1", "t1",
		backend.TaskScheduleUpdates{DueDate: &due2}))

	// Both optimistic updates landed in issuance order.
	assert.Equal(t, due2, e.Goal("g1").Task("t1").DueDate)

	// Resolve the second-issued refetch first, then the first-issued one.
	close(secondRefetch)
	rec.waitFor(t, OutcomeReconciled)
	close(firstRefetch)
	rec.waitFor(t, OutcomeReconciled)
	e.Wait()

	assert.Equal(t, "2026-09-01T09:00:00Z", e.Goal("g1").Task("t1").DueDate,
		"whichever refetch resolves last wins")
}

func TestEngine_CreateGoal_MergesServerCanonical(t *testing.T) {
	fb := newFakeBackend()
	rec := newRecorder()
	e := New(fb, &stubDecomposer{breakdown: &decompose.Breakdown{
		Tasks: []decompose.TaskPlan{
			{Title: "Buy a guitar", EstimatedMinutes: 60, Complexity: entity.ComplexityLow},
		},
	}}, nil, WithListener(rec.listen))

	goal, err := e.CreateGoal(context.Background(), decompose.Request{Title: "Learn guitar"})
	require.NoError(t, err)
	require.NotNil(t, goal)
	assert.Contains(t, goal.ID, "local-", "client assigns a temporary ID")

	confirmed := rec.waitFor(t, OutcomeConfirmed)
	assert.Equal(t, "srv-Learn guitar", confirmed.GoalID, "server ID is authoritative")

	goals := e.Goals()
	require.Len(t, goals, 1)
	assert.Equal(t, "srv-Learn guitar", goals[0].ID)
}

func TestEngine_CreateGoal_DecompositionFailureCreatesNothing(t *testing.T) {
	fb := newFakeBackend()
	rec := newRecorder()
	e := New(fb, &stubDecomposer{err: errors.New(errors.ErrCodeDecompositionFailed, "provider down")},
		nil, WithListener(rec.listen))

	_, err := e.CreateGoal(context.Background(), decompose.Request{Title: "Learn guitar"})
	require.Error(t, err)
	assert.Empty(t, e.Goals(), "no partial goal on decomposition failure")
}

func TestEngine_CreateGoal_PersistFailureRemovesOptimisticEntry(t *testing.T) {
	fb := newFakeBackend()
	fb.createGoalFn = func(backend.CreateGoalRequest) (*entity.Goal, error) {
		return nil, fmt.Errorf("503")
	}
	rec := newRecorder()
	e := New(fb, &stubDecomposer{breakdown: &decompose.Breakdown{
		Tasks: []decompose.TaskPlan{
			{Title: "a", EstimatedMinutes: 30, Complexity: entity.ComplexityLow},
		},
	}}, nil, WithListener(rec.listen))

	goal, err := e.CreateGoal(context.Background(), decompose.Request{Title: "Learn guitar"})
	require.NoError(t, err)
	assert.Len(t, e.Goals(), 1, "optimistic entry visible immediately")
	_ = goal

	reconciled := rec.waitFor(t, OutcomeReconciled)
	require.Error(t, reconciled.Err)
	assert.Empty(t, e.Goals(), "optimistic goal removed after persist failure")
}

func TestEngine_DeleteGoal_FailureReinstatesGoal(t *testing.T) {
	fb := newFakeBackend(twoSubtaskGoal())
	fb.deleteGoalFn = func(string) error { return fmt.Errorf("403") }
	rec := newRecorder()
	e := newEngine(t, fb, rec)

	require.NoError(t, e.DeleteGoal(context.Background(), "g1"))
	assert.Empty(t, e.Goals(), "optimistic removal is immediate")

	rec.waitFor(t, OutcomeReconciled)
	goals := e.Goals()
	require.Len(t, goals, 1, "failed delete reinstates the authoritative goal")
	assert.Equal(t, "g1", goals[0].ID)
}

func TestEngine_AddProgressUpdate_MergesReturnedGoal(t *testing.T) {
	fb := newFakeBackend(twoSubtaskGoal())
	fb.postProgressFn = func(goalID string, req backend.ProgressUpdateRequest) (*entity.Goal, error) {
		g, _ := fb.serverGoal(goalID)
		g.LastProgressUpdate = req.UpdateMessage
		g.Roadblocks = "server-side note"
		return &g, nil
	}
	rec := newRecorder()
	e := newEngine(t, fb, rec)

	require.NoError(t, e.AddProgressUpdate(context.Background(), "g1",
		backend.ProgressUpdateRequest{UpdateMessage: "practiced 30 minutes"}))

	// Optimistic write visible at once.
	assert.Equal(t, "practiced 30 minutes", e.Goal("g1").LastProgressUpdate)

	rec.waitFor(t, OutcomeConfirmed)
	assert.Equal(t, "server-side note", e.Goal("g1").Roadblocks,
		"server-returned canonical goal is merged on success")
}

func TestEngine_ProgressInvariantAfterEveryMutation(t *testing.T) {
	fb := newFakeBackend(twoSubtaskGoal())
	rec := newRecorder()
	e := newEngine(t, fb, rec)

	ctx := context.Background()
	require.NoError(t, e.ToggleTaskCompletion(ctx, "g1", "t1", false))
	require.NoError(t, e.ToggleSubtaskCompletion(ctx, "g1", "t2", "s2", true))
	require.NoError(t, e.ToggleTaskCompletion(ctx, "g1", "t1", true))
	e.Wait()

	goal := e.Goal("g1")
	completed := 0
	for _, task := range goal.Tasks {
		if task.Completed {
			completed++
		}
	}
	want := 0
	if len(goal.Tasks) > 0 {
		want = int(float64(completed)/float64(len(goal.Tasks))*100 + 0.5)
	}
	assert.Equal(t, want, goal.Progress)
}

func TestEngine_UpdateSettings_RunsReconciliationPass(t *testing.T) {
	g := twoSubtaskGoal()
	g.Tasks[1].ReminderEnabled = true
	fb := newFakeBackend(g)
	rec := newRecorder()
	e := newEngine(t, fb, rec)

	e.UpdateSettings(entity.UserSettings{
		WhatsappNumber:              "+4915112345678",
		EnableWhatsappNotifications: true,
	})

	task := e.Goal("g1").Task("t2")
	assert.Equal(t, "+4915112345678", task.WhatsappNumber)
	assert.True(t, task.EnableWhatsapp)

	// Task without reminders untouched.
	assert.Empty(t, e.Goal("g1").Task("t1").WhatsappNumber)
}

func TestEngine_MutationAgainstUnknownGoal(t *testing.T) {
	fb := newFakeBackend()
	rec := newRecorder()
	e := newEngine(t, fb, rec)

	err := e.ToggleTaskCompletion(context.Background(), "missing", "t1", true)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeGoalNotFound))
	assert.Empty(t, rec.kinds(), "no outcome published for a rejected mutation")
}
