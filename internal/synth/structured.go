package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"manualhub/internal/ai"
	"manualhub/internal/chunk"
	"manualhub/internal/model"
)

// Completer is the chat-completion surface structured generation needs.
type Completer interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

// Generator derives structured monitoring rules, maintenance schedules and
// safety items from manual chunks. The model is asked for JSON; when the
// reply isn't parseable, line-based fallback parsers salvage what they can
// instead of failing the request.
type Generator struct {
	llm Completer
}

func NewGenerator(llm Completer) *Generator {
	return &Generator{llm: llm}
}

const (
	rulesSystemPrompt       = "You are an IoT systems engineer specializing in industrial monitoring rules. Generate practical, actionable monitoring rules based on technical documentation."
	maintenanceSystemPrompt = "You are a maintenance engineer specializing in industrial equipment. Extract comprehensive maintenance schedules from technical documentation."
	safetySystemPrompt      = "You are a safety engineer specializing in industrial equipment safety. Extract comprehensive safety information from technical documentation."
)

func (g *Generator) Rules(ctx context.Context, chunks []chunk.Chunk) ([]model.GeneratedRule, error) {
	prompt := fmt.Sprintf(`Analyze these technical manual sections and generate IoT monitoring rules.
Focus on operational parameters, thresholds, and automated responses.
Avoid safety procedures - focus on operational monitoring.

Context:
%s

Generate rules as a JSON array:
[
  {
    "condition": "Temperature > 30°C",
    "action": "Send notification to operator",
    "category": "temperature_monitoring",
    "priority": "medium"
  }
]`, chunkContext(chunks))

	reply, err := g.complete(ctx, rulesSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	var rules []model.GeneratedRule
	if err := decodeJSONArray(reply, &rules); err != nil {
		log.Printf("[generate] rules reply not valid JSON, using text fallback: %v", err)
		return parseRulesFromText(reply), nil
	}
	return rules, nil
}

func (g *Generator) MaintenanceSchedule(ctx context.Context, chunks []chunk.Chunk) ([]model.MaintenanceTask, error) {
	prompt := fmt.Sprintf(`Extract maintenance schedules from these manual sections.
Identify daily, weekly, monthly, and periodic maintenance tasks.

Context:
%s

Generate maintenance tasks as a JSON array:
[
  {
    "task": "Check oil levels",
    "frequency": "daily",
    "category": "lubrication",
    "description": "Visual inspection of oil levels in main reservoir"
  }
]`, chunkContext(chunks))

	reply, err := g.complete(ctx, maintenanceSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	var tasks []model.MaintenanceTask
	if err := decodeJSONArray(reply, &tasks); err != nil {
		log.Printf("[generate] maintenance reply not valid JSON, using text fallback: %v", err)
		return parseMaintenanceFromText(reply), nil
	}
	return tasks, nil
}

func (g *Generator) SafetyInformation(ctx context.Context, chunks []chunk.Chunk) ([]model.SafetyItem, error) {
	prompt := fmt.Sprintf(`Extract safety procedures and warnings from these manual sections.
Generate comprehensive safety guidelines categorized by type.

Context:
%s

Generate safety information as a JSON array:
[
  {
    "type": "warning",
    "title": "High Temperature Warning",
    "description": "Equipment surfaces may reach temperatures exceeding 80°C during operation",
    "category": "thermal_hazard"
  }
]`, chunkContext(chunks))

	reply, err := g.complete(ctx, safetySystemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	var items []model.SafetyItem
	if err := decodeJSONArray(reply, &items); err != nil {
		log.Printf("[generate] safety reply not valid JSON, using text fallback: %v", err)
		return parseSafetyFromText(reply), nil
	}
	return items, nil
}

func (g *Generator) complete(ctx context.Context, system, prompt string) (string, error) {
	reply, err := g.llm.Complete(ctx, []ai.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("structured generation failed: %w", err)
	}
	return reply, nil
}

func chunkContext(chunks []chunk.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		parts = append(parts, fmt.Sprintf("**%s**\n%s", ch.Heading, ch.Text))
	}
	return strings.Join(parts, "\n\n")
}

// decodeJSONArray pulls the first [...] span out of the reply; models often
// wrap JSON in prose or code fences.
func decodeJSONArray(reply string, out any) error {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON array in reply")
	}
	return json.Unmarshal([]byte(reply[start:end+1]), out)
}

// parseRulesFromText keeps lines that read like a condition: an "if" plus
// either a "then" or a comparison operator.
func parseRulesFromText(text string) []model.GeneratedRule {
	var rules []model.GeneratedRule
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "if") &&
			(strings.Contains(lower, "then") || strings.Contains(line, ">") || strings.Contains(line, "<")) {
			rules = append(rules, model.GeneratedRule{
				Condition: strings.TrimSpace(line),
				Action:    "Monitor and alert",
				Category:  "general",
				Priority:  "medium",
			})
		}
	}
	return rules
}

var maintenanceFrequencies = []string{"daily", "weekly", "monthly", "annually"}

func parseMaintenanceFromText(text string) []model.MaintenanceTask {
	var tasks []model.MaintenanceTask
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, freq := range maintenanceFrequencies {
			if strings.Contains(lower, freq) {
				trimmed := strings.TrimSpace(line)
				tasks = append(tasks, model.MaintenanceTask{
					Task:        trimmed,
					Frequency:   freq,
					Category:    "general",
					Description: trimmed,
				})
				break
			}
		}
	}
	return tasks
}

var safetySignals = []string{"warning", "caution", "danger", "safety", "hazard"}

func parseSafetyFromText(text string) []model.SafetyItem {
	var items []model.SafetyItem
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		matched := false
		for _, signal := range safetySignals {
			if strings.Contains(lower, signal) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		safetyType := "warning"
		if strings.Contains(lower, "procedure") {
			safetyType = "procedure"
		}
		trimmed := strings.TrimSpace(line)
		title := trimmed
		if len(title) > 100 {
			title = title[:100]
		}
		items = append(items, model.SafetyItem{
			Type:        safetyType,
			Title:       title,
			Description: trimmed,
			Category:    "general",
		})
	}
	return items
}
