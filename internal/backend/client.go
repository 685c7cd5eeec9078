// Package backend is the typed client for the goal-service REST contract.
// It owns nothing: the service behind it is an external collaborator, and
// every method maps one-to-one onto a contract endpoint.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felixgeelhaar/stride/internal/entity"
	"github.com/felixgeelhaar/stride/internal/errors"
)

// Client talks to the goal service.
type Client struct {
	baseURL string
	client  *http.Client
}

// Config holds client construction options.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a goal-service client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "backend base URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// CreateGoalRequest is the POST /goals body.
type CreateGoalRequest struct {
	Title                 string                       `json:"title"`
	TimeConstraintMinutes int                          `json:"timeConstraintMinutes,omitempty"`
	AdditionalInfo        string                       `json:"additionalInfo,omitempty"`
	NotificationChannels  []entity.NotificationChannel `json:"notificationChannels,omitempty"`
	ContactEmail          string                       `json:"contactEmail,omitempty"`
	ContactPhone          string                       `json:"contactPhone,omitempty"`

	// Tasks carries a client-side decomposition when present; when empty the
	// service decomposes server-side behind the same contract.
	Tasks []entity.Task `json:"tasks,omitempty"`
}

// TaskScheduleUpdates is the updates object of PATCH /tasks/schedule.
// Pointer fields distinguish "not supplied" from zero values.
type TaskScheduleUpdates struct {
	DueDate         *string `json:"dueDate,omitempty"`
	AddedToCalendar *bool   `json:"addedToCalendar,omitempty"`
	ReminderEnabled *bool   `json:"reminderEnabled,omitempty"`
	ReminderTime    *string `json:"reminderTime,omitempty"`
	EnableWhatsapp  *bool   `json:"enableWhatsapp,omitempty"`
	WhatsappNumber  *string `json:"whatsappNumber,omitempty"`
}

// SubtaskScheduleUpdates is the updates object of PATCH /subtasks/schedule.
type SubtaskScheduleUpdates struct {
	DueDate         *string `json:"dueDate,omitempty"`
	AddedToCalendar *bool   `json:"addedToCalendar,omitempty"`
}

// ProgressUpdateRequest is the POST /goals/{id}/progress body.
type ProgressUpdateRequest struct {
	UpdateMessage  string                       `json:"updateMessage"`
	NotifyChannels []entity.NotificationChannel `json:"notifyChannels,omitempty"`
	ContactEmail   string                       `json:"contactEmail,omitempty"`
	ContactPhone   string                       `json:"contactPhone,omitempty"`
}

// RoadblockRequest is the POST /goals/{id}/roadblock body.
type RoadblockRequest struct {
	Description    string                       `json:"description"`
	NeedsHelp      bool                         `json:"needsHelp,omitempty"`
	NotifyChannels []entity.NotificationChannel `json:"notifyChannels,omitempty"`
	ContactEmail   string                       `json:"contactEmail,omitempty"`
	ContactPhone   string                       `json:"contactPhone,omitempty"`
}

// GetGoals fetches all goals for the session user.
func (c *Client) GetGoals(ctx context.Context) ([]entity.Goal, error) {
	var goals []entity.Goal
	if err := c.do(ctx, "GET", "/goals", nil, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

// GetGoal fetches a single goal; the engine uses it for post-failure refetch.
func (c *Client) GetGoal(ctx context.Context, goalID string) (*entity.Goal, error) {
	var goal entity.Goal
	if err := c.do(ctx, "GET", "/goals/"+goalID, nil, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

// CreateGoal creates a goal and returns the server's canonical version.
func (c *Client) CreateGoal(ctx context.Context, req CreateGoalRequest) (*entity.Goal, error) {
	var goal entity.Goal
	if err := c.do(ctx, "POST", "/goals", req, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

// DeleteGoal removes a goal.
func (c *Client) DeleteGoal(ctx context.Context, goalID string) error {
	return c.do(ctx, "DELETE", "/goals/"+goalID, nil, nil)
}

// PatchTask updates a task's completion flag.
func (c *Client) PatchTask(ctx context.Context, goalID, taskID string, completed bool) error {
	body := map[string]any{"goalId": goalID, "taskId": taskID, "completed": completed}
	return c.do(ctx, "PATCH", "/tasks", body, nil)
}

// PatchSubtask updates a subtask's completion flag.
func (c *Client) PatchSubtask(ctx context.Context, goalID, taskID, subtaskID string, completed bool) error {
	body := map[string]any{"goalId": goalID, "taskId": taskID, "subtaskId": subtaskID, "completed": completed}
	return c.do(ctx, "PATCH", "/subtasks", body, nil)
}

// PatchTaskSchedule updates a task's scheduling fields.
func (c *Client) PatchTaskSchedule(ctx context.Context, goalID, taskID string, updates TaskScheduleUpdates) error {
	body := map[string]any{"goalId": goalID, "taskId": taskID, "updates": updates}
	return c.do(ctx, "PATCH", "/tasks/schedule", body, nil)
}

// PatchSubtaskSchedule updates a subtask's scheduling fields.
func (c *Client) PatchSubtaskSchedule(ctx context.Context, goalID, taskID, subtaskID string, updates SubtaskScheduleUpdates) error {
	body := map[string]any{"goalId": goalID, "taskId": taskID, "subtaskId": subtaskID, "updates": updates}
	return c.do(ctx, "PATCH", "/subtasks/schedule", body, nil)
}

// PostProgressUpdate records a progress note and returns the updated goal.
func (c *Client) PostProgressUpdate(ctx context.Context, goalID string, req ProgressUpdateRequest) (*entity.Goal, error) {
	var goal entity.Goal
	if err := c.do(ctx, "POST", "/goals/"+goalID+"/progress", req, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

// PostRoadblock records a roadblock and returns the updated goal.
func (c *Client) PostRoadblock(ctx context.Context, goalID string, req RoadblockRequest) (*entity.Goal, error) {
	var goal entity.Goal
	if err := c.do(ctx, "POST", "/goals/"+goalID+"/roadblock", req, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

// do sends one request and decodes the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(errors.ErrCodeMutationNetwork, "marshal request body", err)
		}
		reqBody = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrap(errors.ErrCodeMutationNetwork, "create request", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBackendUnreachable,
			fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBackendDecode, "read response body", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return errors.New(errors.ErrCodeMutationNetwork,
			fmt.Sprintf("%s %s returned status %d", method, path, httpResp.StatusCode))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errors.Wrap(errors.ErrCodeBackendDecode,
				fmt.Sprintf("decode %s %s response", method, path), err)
		}
	}
	return nil
}
