package models

// CompletionRequest is the provider-neutral request sent to a completion transport.
type CompletionRequest struct {
	Model             string
	SystemInstruction string
	Content           string
	Temperature       float32
	TopP              float32
}
