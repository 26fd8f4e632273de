// Package responseparser turns free-text model output into a RefinedPrompt.
// Parsing never fails: malformed output degrades to treating the raw text as the prompt.
package responseparser

import (
	"regexp"
	"strings"

	"github.com/llmgate/promptcoder/models"
)

// ImprovementsMarker separates the refined prompt from the improvement notes.
const ImprovementsMarker = "### Key Improvements"

var (
	// first fenced block; an optional language tag must end the opening line
	codeBlockPattern = regexp.MustCompile("(?s)```(?:[a-zA-Z]+\n)?(.*?)```")
	bulletPattern    = regexp.MustCompile(`(?m)^[ \t]*[-*][ \t]+`)
)

// Parse extracts the refined prompt and the ordered improvement bullets from raw.
func Parse(raw string) models.RefinedPrompt {
	if raw == "" {
		return models.RefinedPrompt{Prompt: "", Improvements: []string{}}
	}

	idx := strings.Index(raw, ImprovementsMarker)
	if idx == -1 {
		return models.RefinedPrompt{Prompt: extractPrompt(raw), Improvements: []string{}}
	}

	promptPart := strings.TrimSpace(raw[:idx])
	improvementsPart := strings.TrimSpace(raw[idx+len(ImprovementsMarker):])

	return models.RefinedPrompt{
		Prompt:       extractPrompt(promptPart),
		Improvements: splitBullets(improvementsPart),
	}
}

func extractPrompt(text string) string {
	if match := codeBlockPattern.FindStringSubmatch(text); match != nil {
		return strings.TrimSpace(match[1])
	}
	return strings.TrimSpace(text)
}

func splitBullets(text string) []string {
	improvements := []string{}
	for _, segment := range bulletPattern.Split(text, -1) {
		segment = strings.TrimSpace(segment)
		if segment != "" {
			improvements = append(improvements, segment)
		}
	}
	return improvements
}
