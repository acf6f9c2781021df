package client

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httputil"
	"net/textproto"
	"strconv"
	"strings"
)

// headerBodySep is the canonical blank line separating HTTP headers from the payload.
const headerBodySep = "\r\n\r\n"

// Transport executes a single request against the model server and returns the
// complete response. Implementations open a fresh connection per call and close it
// before returning.
type Transport interface {
	RoundTrip(ctx context.Context, req *Request) (*Response, error)
}

// Request is a transport-neutral description of one API call.
type Request struct {
	Method string
	Path   string
	Body   []byte // nil for GET; sent as application/json otherwise
}

// Response is a fully read server response.
type Response struct {
	StatusCode int
	// Head is the status line and header block, without the trailing blank line.
	Head []byte
	Body []byte
}

// OK reports a 2xx status. A zero status (unparsable status line) is treated as OK
// so callers still attempt to decode the body.
func (r *Response) OK() bool {
	return r.StatusCode == 0 || (r.StatusCode >= 200 && r.StatusCode < 300)
}

// Raw reassembles the response as it appeared on the wire.
func (r *Response) Raw() []byte {
	out := make([]byte, 0, len(r.Head)+len(headerBodySep)+len(r.Body))
	out = append(out, r.Head...)
	out = append(out, headerBodySep...)
	return append(out, r.Body...)
}

// newHTTPRequest builds the wire request: Host localhost, Connection close, and a JSON
// content type with exact Content-Length when a body is present.
func newHTTPRequest(ctx context.Context, addr string, req *Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hr, err := http.NewRequestWithContext(ctx, req.Method, "http://"+addr+req.Path, body)
	if err != nil {
		return nil, err
	}
	hr.Host = "localhost"
	hr.Close = true
	if req.Body != nil {
		hr.Header.Set("Content-Type", "application/json")
		hr.ContentLength = int64(len(req.Body))
	}
	return hr, nil
}

// SplitResponse splits a raw HTTP response once on the first blank line and decodes
// the head. Absence of the separator is a ProtocolError carrying the raw bytes.
func SplitResponse(raw []byte) (*Response, error) {
	head, body, ok := bytes.Cut(raw, []byte(headerBodySep))
	if !ok {
		return nil, &ProtocolError{Msg: "Invalid HTTP response (missing body)", Body: raw}
	}
	resp := &Response{Head: head, Body: body}

	tp := textproto.NewReader(bufio.NewReader(bytes.NewReader(append(append([]byte(nil), head...), headerBodySep...))))
	status, err := tp.ReadLine()
	if err != nil {
		return resp, nil
	}
	resp.StatusCode = parseStatusCode(status)
	hdr, err := tp.ReadMIMEHeader()
	if err != nil {
		// Headers are advisory; the body is what callers decode.
		return resp, nil
	}
	if strings.EqualFold(strings.TrimSpace(hdr.Get("Transfer-Encoding")), "chunked") {
		decoded, err := io.ReadAll(httputil.NewChunkedReader(bytes.NewReader(body)))
		if err != nil {
			return nil, &ProtocolError{Msg: "invalid chunked body", StatusCode: resp.StatusCode, Body: raw, Err: err}
		}
		resp.Body = decoded
	}
	return resp, nil
}

// parseStatusCode extracts the code from a line like "HTTP/1.1 200 OK"; 0 when malformed.
func parseStatusCode(line string) int {
	fields := strings.Fields(line)
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/") {
		return 0
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0
	}
	return code
}
