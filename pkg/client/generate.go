package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"ollamactl/pkg/types"
)

// Prompt generates a completion for text using model, or the bound model when model is
// empty, and returns the concatenated text.
func (c *Client) Prompt(ctx context.Context, model, text string) (string, error) {
	res, err := c.Generate(ctx, types.GenerateRequest{Model: model, Prompt: text})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Generate runs a non-streaming generation. req.Stream is always sent as false.
// It fails with ErrNoModelSelected, before any I/O, when neither req.Model nor the
// bound model is set.
func (c *Client) Generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResult, error) {
	if strings.TrimSpace(req.Model) == "" {
		req.Model = c.Model()
	}
	if strings.TrimSpace(req.Model) == "" {
		return types.GenerateResult{}, ErrNoModelSelected
	}
	req.Stream = false
	body, err := json.Marshal(req)
	if err != nil {
		return types.GenerateResult{}, fmt.Errorf("encode generate request: %w", err)
	}
	resp, err := c.roundTrip(ctx, "generate", &Request{Method: http.MethodPost, Path: "/api/generate", Body: body}, req.Model)
	if err != nil {
		return types.GenerateResult{}, err
	}
	res, err := decodeGenerate(resp)
	if err != nil {
		observeResponseError("generate", err)
		return types.GenerateResult{}, err
	}
	return res, nil
}

// decodeGenerate parses each body line as a chunk and concatenates their "response"
// fields. Only when that yields no text is the whole body parsed as one object.
// Text wins over the status code; a non-2xx status only decides the error when
// there is none.
func decodeGenerate(resp *Response) (types.GenerateResult, error) {
	var res types.GenerateResult
	var sb strings.Builder
	var serverMsg string
	for _, line := range bytes.Split(resp.Body, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		var chunk types.GenerateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			serverMsg = chunk.Error
		}
		if chunk.Response == nil {
			continue
		}
		sb.WriteString(*chunk.Response)
		mergeChunk(&res, chunk)
	}
	res.Text = sb.String()

	if res.Text == "" {
		var whole types.GenerateChunk
		if err := json.Unmarshal(resp.Body, &whole); err == nil {
			if whole.Error != "" {
				serverMsg = whole.Error
			}
			if whole.Response != nil {
				res = types.GenerateResult{}
				mergeChunk(&res, whole)
				res.Text = *whole.Response
			}
		}
	}
	switch {
	case res.Text != "":
		return res, nil
	case !resp.OK():
		return types.GenerateResult{}, statusError(resp, serverMsg)
	default:
		return types.GenerateResult{}, &EmptyResponseError{Body: resp.Body, ServerError: serverMsg}
	}
}

// mergeChunk copies metadata from a chunk; later chunks win.
func mergeChunk(res *types.GenerateResult, chunk types.GenerateChunk) {
	if chunk.Model != "" {
		res.Model = chunk.Model
	}
	if chunk.Done {
		res.Done = true
	}
	if chunk.DoneReason != "" {
		res.DoneReason = chunk.DoneReason
	}
	if chunk.EvalCount != 0 {
		res.EvalCount = chunk.EvalCount
	}
	if chunk.TotalDuration != 0 {
		res.TotalDuration = chunk.TotalDuration
	}
}
