package promptassembler

import (
	"strings"

	"github.com/llmgate/promptcoder/models"
)

const sectionSeparator = "\n\n---\n\n"

type section struct {
	heading string
	value   func(models.PromptFields) string
}

var sections = []section{
	{"ROLE", func(f models.PromptFields) string { return f.Role }},
	{"OBJECTIVE", func(f models.PromptFields) string { return f.Objective }},
	{"CONTEXT", func(f models.PromptFields) string { return f.Context }},
	{"SPECIFIC INSTRUCTIONS", func(f models.PromptFields) string { return f.Instructions }},
	{"CONSTRAINTS", func(f models.PromptFields) string { return f.Constraints }},
}

// Assemble joins the non-blank structured fields into one prompt, each under
// its bracketed heading, in a fixed order.
func Assemble(fields models.PromptFields) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		value := strings.TrimSpace(s.value(fields))
		if value == "" {
			continue
		}
		parts = append(parts, "["+s.heading+"]\n"+value)
	}
	return strings.Join(parts, sectionSeparator)
}

func HasObjective(fields models.PromptFields) bool {
	return strings.TrimSpace(fields.Objective) != ""
}
