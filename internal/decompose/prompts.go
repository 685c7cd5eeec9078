package decompose

import (
	"fmt"
	"strings"
)

const analysisSystemPrompt = `You are a productivity coach who breaks large goals into achievable steps. Think out loud: list candidate steps, how they should be sequenced, realistic time estimates, and risk factors. Do not produce JSON or any structured output yet.`

const extractionSystemPrompt = `You convert goal analyses into structured task breakdowns. Respond with a JSON object of this exact shape:
{
  "tasks": [
    {
      "title": "string, required",
      "estimatedMinutes": 30,
      "complexity": "low|medium|high",
      "context": "optional string",
      "actionItems": ["optional strings"],
      "dueDate": "optional ISO-8601 date-time",
      "subtasks": [
        {"title": "string, required", "estimatedMinutes": 15, "context": "optional", "dueDate": "optional"}
      ]
    }
  ]
}
Every task needs a title, a positive estimatedMinutes, and a complexity of low, medium, or high. Keep tasks in execution order.`

const strictRetryInstruction = `Return ONLY the JSON object. No prose, no markdown fences, no commentary before or after. Every task must have a non-empty title, estimatedMinutes > 0, and complexity of exactly "low", "medium", or "high".`

func buildAnalysisPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", req.Title)
	if req.TimeConstraintMinutes > 0 {
		fmt.Fprintf(&b, "Available time: %d minutes\n", req.TimeConstraintMinutes)
	}
	if req.AdditionalInfo != "" {
		fmt.Fprintf(&b, "Additional context: %s\n", req.AdditionalInfo)
	}
	b.WriteString("\nAnalyze how this goal should be broken down into tasks and subtasks.")
	return b.String()
}

func buildExtractionPrompt(req Request, reasoning ReasoningContext, strict bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", req.Title)
	if req.TimeConstraintMinutes > 0 {
		fmt.Fprintf(&b, "Available time: %d minutes\n", req.TimeConstraintMinutes)
	}
	if req.AdditionalInfo != "" {
		fmt.Fprintf(&b, "Additional context: %s\n", req.AdditionalInfo)
	}
	if reasoning != "" {
		fmt.Fprintf(&b, "\nAnalysis of the goal:\n%s\n", string(reasoning))
	}
	b.WriteString("\nProduce the task breakdown JSON for this goal.")
	if strict {
		b.WriteString("\n\n" + strictRetryInstruction)
	}
	return b.String()
}
