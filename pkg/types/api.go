package types

import "encoding/json"

// VersionResponse is the body of GET /api/version. Version is nil when the field is
// absent or null.
type VersionResponse struct {
	Version *string `json:"version"`
}

// TagsResponse is the body of GET /api/tags. Entries stay raw so a malformed one
// can be skipped without failing the list.
type TagsResponse struct {
	Models *[]json.RawMessage `json:"models"`
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	// Model to run. Required on the wire; clients fill it from the bound model when empty.
	// example: llama3.2
	Model string `json:"model" example:"llama3.2"`
	// Prompt text to generate a completion for.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
	// Optional system prompt overriding the model's default.
	System string `json:"system,omitempty"`
	// Streaming is always disabled; the full text is collected before returning.
	Stream bool `json:"stream"`
	// Sampling options passed through verbatim (temperature, top_p, seed, num_predict, ...).
	Options map[string]any `json:"options,omitempty"`
}

// GenerateChunk is one JSON object of a generate response. A non-streaming response is a
// single chunk; some servers still emit several newline-delimited chunks.
type GenerateChunk struct {
	Model         string  `json:"model,omitempty"`
	Response      *string `json:"response,omitempty"`
	Done          bool    `json:"done,omitempty"`
	DoneReason    string  `json:"done_reason,omitempty"`
	EvalCount     int     `json:"eval_count,omitempty"`
	TotalDuration int64   `json:"total_duration,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// ServerError is the error body returned by the model server on non-2xx responses.
type ServerError struct {
	Error string `json:"error"`
}

// PromptRequest is the gateway payload for POST /prompt.
type PromptRequest struct {
	// Optional model; when empty the gateway's bound model is used.
	// example: llama3.2
	Model string `json:"model,omitempty" example:"llama3.2"`
	// Required prompt text.
	// example: Why is the sky blue?
	Prompt string `json:"prompt" example:"Why is the sky blue?"`
}

// PromptResponse is returned by POST /prompt.
type PromptResponse struct {
	// Model used for generation.
	// example: llama3.2
	Model string `json:"model" example:"llama3.2"`
	// Generated text.
	Response string `json:"response"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of installed models.
	Models []ModelDescriptor `json:"models"`
}

// VersionInfo is returned by GET /version. Version may be a diagnostic sentinel
// such as "not connected" when the server cannot be reached.
type VersionInfo struct {
	// example: 0.5.7
	Version string `json:"version" example:"0.5.7"`
}

// ModelSelection is used by GET/PUT /model.
type ModelSelection struct {
	// example: llama3.2
	Model string `json:"model" example:"llama3.2"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: no model selected
	Error string `json:"error" example:"no model selected"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
