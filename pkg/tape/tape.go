// Package tape defines the request and response values that flow through
// httptape's capture and replay machinery.
package tape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Request is an outgoing HTTP request as seen by the engine.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Timing describes when and how a response was produced.
type Timing struct {
	Start     time.Time
	Total     time.Duration
	FromCache bool
}

// Response is a completed HTTP exchange.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Timing     Timing

	// Request is the request that produced this response.
	Request *Request
}

// NewRequest creates a request with an empty header set.
func NewRequest(method, rawURL string, body []byte) *Request {
	if method == "" {
		method = http.MethodGet
	}
	return &Request{
		Method: strings.ToUpper(method),
		URL:    rawURL,
		Header: make(http.Header),
		Body:   body,
	}
}

// Clone returns a deep copy of the request.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	return &Request{
		Method: r.Method,
		URL:    r.URL,
		Header: cloneHeader(r.Header),
		Body:   cloneBytes(r.Body),
	}
}

// ParsedURL parses the request URL.
func (r *Request) ParsedURL() (*url.URL, error) {
	return url.Parse(r.URL)
}

// Host returns the lowercased host (without port) of the request URL, or
// "" when the URL cannot be parsed.
func (r *Request) Host() string {
	u, err := r.ParsedURL()
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// FromHTTP converts an *http.Request into a Request. The body of req is
// consumed in full and replaced so req can still be sent unchanged.
func FromHTTP(req *http.Request) (*Request, error) {
	var body []byte
	if req.Body != nil && req.Body != http.NoBody {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		_ = req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	return &Request{
		Method: method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
		Body:   body,
	}, nil
}

// ToHTTP builds an outgoing *http.Request from r.
func (r *Request) ToHTTP(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// Clone returns a deep copy of the response, including its request.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	return &Response{
		StatusCode: r.StatusCode,
		Status:     r.Status,
		Header:     cloneHeader(r.Header),
		Body:       cloneBytes(r.Body),
		Timing:     r.Timing,
		Request:    r.Request.Clone(),
	}
}

// ReadResponse buffers all of resp into a Response and closes its body.
func ReadResponse(resp *http.Response, req *Request, start time.Time) (*Response, error) {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header.Clone(),
		Body:       body,
		Timing: Timing{
			Start: start,
			Total: time.Since(start),
		},
		Request: req,
	}, nil
}

// ToHTTP builds an *http.Response answering req.
func (r *Response) ToHTTP(req *http.Request) *http.Response {
	status := r.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", r.StatusCode, http.StatusText(r.StatusCode))
	}
	header := cloneHeader(r.Header)
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		Status:        status,
		StatusCode:    r.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
		Request:       req,
	}
}

func cloneHeader(h http.Header) http.Header {
	if h == nil {
		return nil
	}
	return h.Clone()
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
