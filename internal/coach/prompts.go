package coach

import (
	"fmt"
	"strings"
)

const coachSystemPrompt = `You are a supportive productivity coach. Keep replies short, concrete, and encouraging. Never invent progress the user has not reported.`

func buildMessagePrompt(snapshot Context, msgType MessageType) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", snapshot.GoalTitle)
	fmt.Fprintf(&b, "Progress: %d%% (%d of %d tasks done)\n",
		snapshot.Progress, snapshot.CompletedTasks, snapshot.TotalTasks)
	if snapshot.TimeConstraintMinutes > 0 {
		fmt.Fprintf(&b, "Time budget: %d minutes\n", snapshot.TimeConstraintMinutes)
	}
	if snapshot.HasRoadblock {
		fmt.Fprintf(&b, "Reported roadblock: %s\n", snapshot.RoadblockText)
	}
	if snapshot.LastProgressUpdate != "" {
		fmt.Fprintf(&b, "Latest update from the user: %s\n", snapshot.LastProgressUpdate)
	}
	fmt.Fprintf(&b, "\nWrite one short %s message (2 sentences max) for this user.", string(msgType))
	return b.String()
}

func buildRoadblockPrompt(goalTitle, roadblockText string) string {
	return fmt.Sprintf(`Goal: %s
Roadblock the user reported: %s

Suggest 3 concrete, practical ways to get past this roadblock. One suggestion per line, no numbering preamble.`, goalTitle, roadblockText)
}

func buildDiscussPrompt(task TaskContext, userMessage string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\nTask: %s\n", task.GoalTitle, task.TaskTitle)
	if task.TaskContext != "" {
		fmt.Fprintf(&b, "Task context: %s\n", task.TaskContext)
	}
	if len(task.ActionItems) > 0 {
		fmt.Fprintf(&b, "Action items: %s\n", strings.Join(task.ActionItems, "; "))
	}
	if task.Completed {
		b.WriteString("The task is already completed.\n")
	}
	fmt.Fprintf(&b, "\nThe user asks: %s\n\nAnswer helpfully and briefly.", userMessage)
	return b.String()
}

func fallbackText(msgType MessageType) string {
	switch msgType {
	case TypeCongratulation:
		return "You did it — every task is done. Take a moment to enjoy that."
	case TypeMilestone:
		return "Solid progress so far. Keep the momentum going, one task at a time."
	case TypeTip:
		return "Stuck? Try breaking the current task into the smallest possible next step."
	default:
		return "Keep going — small consistent steps are what finish goals."
	}
}

func fallbackRoadblockTips() []string {
	return []string{
		"Break the roadblock into the smallest concrete question you can answer today.",
		"Ask someone who has done this before; a 10-minute conversation can save hours.",
		"Set the blocked task aside and make progress on another task in the meantime.",
	}
}

const fallbackDiscussReply = "I can't reach the assistant right now. Your task list is unaffected — try asking again in a moment."
