package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"ollamactl/pkg/types"
)

// Sentinels returned by Version when the server version cannot be obtained.
const (
	VersionNotConnected    = "not connected"
	VersionWriteError      = "write error"
	VersionReadError       = "read error"
	VersionInvalidResponse = "invalid response"
)

// Version returns the server's version string. It never fails: when the version cannot
// be determined it returns one of the Version* sentinels, or the first raw response line
// mentioning "version" when the body is not the expected JSON.
func (c *Client) Version(ctx context.Context) string {
	resp, err := c.roundTrip(ctx, "version", &Request{Method: http.MethodGet, Path: "/api/version"}, "")
	if err != nil {
		var te *TransportError
		var pe *ProtocolError
		switch {
		case IsConnectionError(err):
			return VersionNotConnected
		case errors.As(err, &te):
			if te.Op == "read" {
				return VersionReadError
			}
			return VersionWriteError
		case errors.As(err, &pe):
			return scanVersionLine(pe.Body)
		default:
			return VersionNotConnected
		}
	}
	var v types.VersionResponse
	if err := json.Unmarshal(bytes.TrimSpace(resp.Body), &v); err == nil && v.Version != nil {
		return *v.Version
	}
	return scanVersionLine(resp.Raw())
}

// scanVersionLine returns the first line of raw containing "version", or the
// invalid-response sentinel.
func scanVersionLine(raw []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), len(raw)+1)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if strings.Contains(line, "version") {
			return line
		}
	}
	return VersionInvalidResponse
}
