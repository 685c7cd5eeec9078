package decompose

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/stride/internal/errors"
	"github.com/felixgeelhaar/stride/internal/log"
	"github.com/felixgeelhaar/stride/internal/provider"
)

// Pipeline runs the two-stage decomposition against a text-generation
// provider.
type Pipeline struct {
	client provider.Client
	logger *log.Logger

	// analysisTemp and extractionTemp tune each stage. Analysis benefits
	// from some variance; extraction wants determinism.
	analysisTemp   float64
	extractionTemp float64
}

// NewPipeline creates a pipeline over the given provider client.
func NewPipeline(client provider.Client, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Pipeline{
		client:         client,
		logger:         logger.With("component", "decompose"),
		analysisTemp:   0.7,
		extractionTemp: 0.2,
	}
}

// Decompose runs both stages and returns a validated breakdown.
//
// Stage 1 failure degrades to an empty reasoning context rather than failing
// the pipeline. Stage 2 gets exactly one retry with a stricter JSON-only
// instruction; after that the whole operation fails and no partial result is
// returned.
func (p *Pipeline) Decompose(ctx context.Context, req Request) (*Breakdown, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, errors.New(errors.ErrCodeDecompositionFailed, "goal title must not be empty")
	}

	reasoning := p.analyze(ctx, req)

	breakdown, err := p.extract(ctx, req, reasoning, false)
	if err != nil {
		p.logger.WithError(err).Warn("extraction failed, retrying with strict instruction",
			"goal", req.Title)
		breakdown, err = p.extract(ctx, req, reasoning, true)
	}
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeMalformedBreakdown) {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeDecompositionFailed,
			"goal decomposition failed after retry", err).
			WithSuggestion("check provider availability and API key")
	}

	total := 0
	for _, task := range breakdown.Tasks {
		total += task.EstimatedMinutes
	}
	breakdown.TotalEstimatedMinutes = total

	if req.TimeConstraintMinutes > 0 && total > req.TimeConstraintMinutes {
		breakdown.ExceedsConstraint = true
		p.logger.Info("estimate exceeds time constraint",
			"goal", req.Title,
			"total_minutes", total,
			"constraint_minutes", req.TimeConstraintMinutes)
	}

	return breakdown, nil
}

// analyze runs the chain-of-thought stage. Its output is opaque; a provider
// failure here degrades to empty reasoning instead of failing the pipeline.
func (p *Pipeline) analyze(ctx context.Context, req Request) ReasoningContext {
	resp, err := p.client.Generate(ctx, &provider.GenerateRequest{
		Prompt:       buildAnalysisPrompt(req),
		SystemPrompt: analysisSystemPrompt,
		Temperature:  p.analysisTemp,
	})
	if err != nil {
		p.logger.WithError(err).Warn("analysis stage failed, proceeding without reasoning",
			"goal", req.Title)
		return ""
	}

	p.logger.Debug("analysis stage complete",
		"goal", req.Title,
		"reasoning_chars", len(resp.Content),
		"tokens", resp.TokensUsed)
	return ReasoningContext(resp.Content)
}

// extract runs the structured stage and validates the result.
func (p *Pipeline) extract(ctx context.Context, req Request, reasoning ReasoningContext, strict bool) (*Breakdown, error) {
	resp, err := p.client.Generate(ctx, &provider.GenerateRequest{
		Prompt:       buildExtractionPrompt(req, reasoning, strict),
		SystemPrompt: extractionSystemPrompt,
		Temperature:  p.extractionTemp,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProviderUnavailable, "extraction stage provider call failed", err)
	}

	jsonStr, err := extractJSON(resp.Content)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedBreakdown, "extraction output is not JSON", err)
	}

	var breakdown Breakdown
	if err := json.Unmarshal([]byte(jsonStr), &breakdown); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedBreakdown, "extraction output does not match schema", err)
	}

	if err := validateBreakdown(&breakdown); err != nil {
		return nil, err
	}

	p.logger.Debug("extraction stage complete",
		"goal", req.Title,
		"tasks", len(breakdown.Tasks),
		"tokens", resp.TokensUsed)
	return &breakdown, nil
}

// validateBreakdown enforces the extraction schema: every task needs a title,
// a positive estimate, and an in-range complexity; every subtask needs a
// title. Violations are malformed breakdowns, never partially accepted.
func validateBreakdown(b *Breakdown) error {
	if len(b.Tasks) == 0 {
		return errors.New(errors.ErrCodeEmptyBreakdown, "breakdown contains no tasks")
	}

	for i, task := range b.Tasks {
		if strings.TrimSpace(task.Title) == "" {
			return errors.New(errors.ErrCodeMalformedBreakdown,
				fmt.Sprintf("task %d is missing a title", i))
		}
		if task.EstimatedMinutes <= 0 {
			return errors.New(errors.ErrCodeMalformedBreakdown,
				fmt.Sprintf("task %d has a non-positive estimate", i))
		}
		if !task.Complexity.Valid() {
			return errors.New(errors.ErrCodeMalformedBreakdown,
				fmt.Sprintf("task %d has complexity %q outside low/medium/high", i, task.Complexity))
		}
		for j, sub := range task.Subtasks {
			if strings.TrimSpace(sub.Title) == "" {
				return errors.New(errors.ErrCodeMalformedBreakdown,
					fmt.Sprintf("task %d subtask %d is missing a title", i, j))
			}
		}
	}
	return nil
}
