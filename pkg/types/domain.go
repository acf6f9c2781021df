package types

import "time"

// ModelDescriptor identifies a model installed on the server.
type ModelDescriptor struct {
	// Name of the model as accepted by the generate endpoint.
	// example: llama3.2:latest
	Name string `json:"name" example:"llama3.2:latest"`
	// Last modification time reported by the server.
	ModifiedAt time.Time `json:"modified_at,omitempty"`
	// Size on disk in bytes.
	// example: 2019393189
	Size int64 `json:"size,omitempty" example:"2019393189"`
	// Content digest of the model blob.
	Digest string `json:"digest,omitempty"`
}

// GenerateResult is the outcome of a non-streaming generation.
type GenerateResult struct {
	// Concatenated generated text. Never empty on success.
	Text string `json:"response"`
	// Model that produced the text, as echoed by the server.
	Model string `json:"model,omitempty"`
	// Whether the server marked the generation as finished.
	Done bool `json:"done"`
	// Why generation stopped (e.g., stop, length).
	DoneReason string `json:"done_reason,omitempty"`
	// Number of generated tokens.
	EvalCount int `json:"eval_count,omitempty"`
	// Total server-side duration in nanoseconds.
	TotalDuration int64 `json:"total_duration,omitempty"`
}
