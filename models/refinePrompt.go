package models

// RefinePromptRequest is the body accepted by POST /refine.
type RefinePromptRequest struct {
	Mode       string       `json:"mode"`
	Prompt     string       `json:"prompt"`
	Fields     PromptFields `json:"fields"`
	Regenerate bool         `json:"regenerate"`
}

type AssemblePromptRequest struct {
	Fields PromptFields `json:"fields"`
}

type AssemblePromptResponse struct {
	Prompt string `json:"prompt"`
}

// PromptFields holds the structured-mode inputs.
type PromptFields struct {
	Role         string `json:"role"`
	Objective    string `json:"objective"`
	Context      string `json:"context"`
	Instructions string `json:"instructions"`
	Constraints  string `json:"constraints"`
}

// RefinedPrompt is the parsed result of one refinement.
type RefinedPrompt struct {
	Prompt       string   `json:"prompt"`
	Improvements []string `json:"improvements"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestId string `json:"requestId,omitempty"`
}
