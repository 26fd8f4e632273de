package promptassembler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/llmgate/promptcoder/models"
)

func TestAssemble_AllFields(t *testing.T) {
	fields := models.PromptFields{
		Role:         " Senior Go engineer ",
		Objective:    "Build a URL shortener",
		Context:      "Side project",
		Instructions: "1. Use net/http\n2. Store in memory",
		Constraints:  "- No frameworks",
	}

	got := Assemble(fields)

	want := "[ROLE]\nSenior Go engineer" +
		"\n\n---\n\n[OBJECTIVE]\nBuild a URL shortener" +
		"\n\n---\n\n[CONTEXT]\nSide project" +
		"\n\n---\n\n[SPECIFIC INSTRUCTIONS]\n1. Use net/http\n2. Store in memory" +
		"\n\n---\n\n[CONSTRAINTS]\n- No frameworks"
	assert.Equal(t, want, got)
}

func TestAssemble_SkipsBlankFields(t *testing.T) {
	fields := models.PromptFields{Objective: "Parse CSV", Constraints: "   "}

	assert.Equal(t, "[OBJECTIVE]\nParse CSV", Assemble(fields))
}

func TestAssemble_Empty(t *testing.T) {
	assert.Equal(t, "", Assemble(models.PromptFields{}))
}

func TestHasObjective(t *testing.T) {
	assert.False(t, HasObjective(models.PromptFields{Role: "x"}))
	assert.False(t, HasObjective(models.PromptFields{Objective: " \n\t"}))
	assert.True(t, HasObjective(models.PromptFields{Objective: "do it"}))
}
