package client

import (
	"context"
	"encoding/json"
	"net/http"

	"ollamactl/pkg/types"
)

// ListModels returns the models installed on the server in server order. Entries
// without a string "name" are skipped.
func (c *Client) ListModels(ctx context.Context) ([]types.ModelDescriptor, error) {
	resp, err := c.roundTrip(ctx, "tags", &Request{Method: http.MethodGet, Path: "/api/tags"}, "")
	if err != nil {
		return nil, err
	}
	models, err := decodeTags(resp)
	if err != nil {
		observeResponseError("tags", err)
		return nil, err
	}
	return models, nil
}

// ModelNames is ListModels reduced to the model names.
func (c *Client) ModelNames(ctx context.Context) ([]string, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
	}
	return names, nil
}

// decodeTags reads the models array. The status code only decides the error when
// the body carries no array.
func decodeTags(resp *Response) ([]types.ModelDescriptor, error) {
	var parsed types.TagsResponse
	err := json.Unmarshal(resp.Body, &parsed)
	if (err != nil || parsed.Models == nil) && !resp.OK() {
		return nil, statusError(resp, "")
	}
	if err != nil {
		return nil, &ProtocolError{Msg: "JSON parse error", StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
	}
	if parsed.Models == nil {
		return nil, &ProtocolError{Msg: "Invalid models format in response", StatusCode: resp.StatusCode, Body: resp.Body}
	}
	out := make([]types.ModelDescriptor, 0, len(*parsed.Models))
	for _, raw := range *parsed.Models {
		var named struct {
			Name *string `json:"name"`
		}
		if err := json.Unmarshal(raw, &named); err != nil || named.Name == nil {
			continue
		}
		var md types.ModelDescriptor
		// Metadata is best-effort; the name alone makes the entry valid.
		_ = json.Unmarshal(raw, &md)
		md.Name = *named.Name
		out = append(out, md)
	}
	return out, nil
}

// statusError converts a non-2xx response into a ProtocolError. The message is
// serverMsg when set, else the body's {"error": "..."} field.
func statusError(resp *Response, serverMsg string) error {
	if serverMsg == "" {
		serverMsg = serverErrorMessage(resp.Body)
	}
	if serverMsg == "" {
		serverMsg = "unexpected status"
	}
	return &ProtocolError{Msg: serverMsg, StatusCode: resp.StatusCode, Body: resp.Body}
}

func serverErrorMessage(body []byte) string {
	var se types.ServerError
	if err := json.Unmarshal(body, &se); err != nil {
		return ""
	}
	return se.Error
}
