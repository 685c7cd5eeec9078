// Package coach produces short advisory messages from entity-model snapshots.
// It is strictly read-then-generate: one provider call per operation, no
// mutation, and a provider failure is always absorbed into a static fallback
// so the primary task-tracking workflow can never be blocked from here.
package coach

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/stride/internal/log"
	"github.com/felixgeelhaar/stride/internal/provider"
)

// MessageType classifies an advisory message.
type MessageType string

const (
	TypeEncouragement  MessageType = "encouragement"
	TypeTip            MessageType = "tip"
	TypeCongratulation MessageType = "congratulation"
	TypeMilestone      MessageType = "milestone"
)

// Message is one generated advisory.
type Message struct {
	Text string      `json:"message"`
	Type MessageType `json:"type"`
}

// Context is the entity-model snapshot a message is generated from.
type Context struct {
	GoalTitle             string
	Progress              int
	CompletedTasks        int
	TotalTasks            int
	HasRoadblock          bool
	RoadblockText         string
	TimeConstraintMinutes int
	LastProgressUpdate    string
}

// TaskContext is the snapshot for task-level discussion.
type TaskContext struct {
	GoalTitle   string
	TaskTitle   string
	TaskContext string
	Completed   bool
	ActionItems []string
}

// Coach generates advisory text over a provider client.
type Coach struct {
	client provider.Client
	logger *log.Logger
}

// New creates a coach over the given provider client.
func New(client provider.Client, logger *log.Logger) *Coach {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Coach{
		client: client,
		logger: logger.With("component", "coach"),
	}
}

// GenerateMessage produces a short advisory for the current goal state. On
// any provider error it returns a neutral fallback, never an error.
func (c *Coach) GenerateMessage(ctx context.Context, snapshot Context) Message {
	msgType := classify(snapshot)

	resp, err := c.client.Generate(ctx, &provider.GenerateRequest{
		Prompt:       buildMessagePrompt(snapshot, msgType),
		SystemPrompt: coachSystemPrompt,
		Temperature:  0.8,
		MaxTokens:    200,
	})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		c.logger.WithError(err).Warn("falling back to static message",
			"goal", snapshot.GoalTitle, "type", string(msgType))
		return Message{Text: fallbackText(msgType), Type: msgType}
	}

	return Message{Text: strings.TrimSpace(resp.Content), Type: msgType}
}

// GenerateRoadblockTips suggests ways around a reported roadblock. On
// provider error it returns three generic tips.
func (c *Coach) GenerateRoadblockTips(ctx context.Context, goalTitle, roadblockText string) []string {
	resp, err := c.client.Generate(ctx, &provider.GenerateRequest{
		Prompt:       buildRoadblockPrompt(goalTitle, roadblockText),
		SystemPrompt: coachSystemPrompt,
		Temperature:  0.7,
		MaxTokens:    300,
	})
	if err != nil {
		c.logger.WithError(err).Warn("falling back to static roadblock tips", "goal", goalTitle)
		return fallbackRoadblockTips()
	}

	tips := parseTips(resp.Content)
	if len(tips) == 0 {
		return fallbackRoadblockTips()
	}
	return tips
}

// DiscussTask answers a free-text question about a task. On provider error
// it returns a neutral reply.
func (c *Coach) DiscussTask(ctx context.Context, task TaskContext, userMessage string) string {
	resp, err := c.client.Generate(ctx, &provider.GenerateRequest{
		Prompt:       buildDiscussPrompt(task, userMessage),
		SystemPrompt: coachSystemPrompt,
		Temperature:  0.7,
		MaxTokens:    400,
	})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		c.logger.WithError(err).Warn("falling back to static discussion reply",
			"task", task.TaskTitle)
		return fallbackDiscussReply
	}
	return strings.TrimSpace(resp.Content)
}

// classify picks the message type from the snapshot: completion beats
// milestones, milestones beat roadblock tips, everything else is
// encouragement.
func classify(snapshot Context) MessageType {
	switch {
	case snapshot.TotalTasks > 0 && snapshot.Progress >= 100:
		return TypeCongratulation
	case snapshot.HasRoadblock:
		return TypeTip
	case snapshot.TotalTasks > 0 && snapshot.Progress >= 25:
		return TypeMilestone
	default:
		return TypeEncouragement
	}
}

// parseTips splits a response into non-empty lines, trimming list markers.
func parseTips(text string) []string {
	var tips []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789. ")
		if line != "" {
			tips = append(tips, line)
		}
	}
	return tips
}
