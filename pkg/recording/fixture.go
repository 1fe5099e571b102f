// Package recording captures responses to fixture files and resolves
// requests back to them.
package recording

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/getmockd/httptape/pkg/tape"
)

// FixtureVersion is the current fixture format version.
const FixtureVersion = "1.0"

// DataEncoding indicates how a body is stored.
type DataEncoding string

const (
	DataEncodingUTF8   DataEncoding = "utf8"
	DataEncodingBase64 DataEncoding = "base64"
)

// Fixture is the persisted form of one response.
type Fixture struct {
	FormatVersion string          `json:"formatVersion" yaml:"formatVersion"`
	RecordedAt    time.Time       `json:"recordedAt" yaml:"recordedAt"`
	DurationMs    int64           `json:"durationMs" yaml:"durationMs"`
	Request       FixtureRequest  `json:"request" yaml:"request"`
	Response      FixtureResponse `json:"response" yaml:"response"`
}

// FixtureRequest records the request a fixture answers. Request headers are
// not persisted.
type FixtureRequest struct {
	Method       string       `json:"method" yaml:"method"`
	URL          string       `json:"url" yaml:"url"`
	Body         string       `json:"body,omitempty" yaml:"body,omitempty"`
	BodyEncoding DataEncoding `json:"bodyEncoding,omitempty" yaml:"bodyEncoding,omitempty"`
}

// FixtureResponse records the response itself.
type FixtureResponse struct {
	StatusCode   int          `json:"statusCode" yaml:"statusCode"`
	Status       string       `json:"status,omitempty" yaml:"status,omitempty"`
	Headers      http.Header  `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body         string       `json:"body,omitempty" yaml:"body,omitempty"`
	BodyEncoding DataEncoding `json:"bodyEncoding,omitempty" yaml:"bodyEncoding,omitempty"`
}

// NewFixture converts a (redacted) response into its persisted form.
func NewFixture(resp *tape.Response, recordedAt time.Time) *Fixture {
	fx := &Fixture{
		FormatVersion: FixtureVersion,
		RecordedAt:    recordedAt.UTC(),
		DurationMs:    resp.Timing.Total.Milliseconds(),
		Response: FixtureResponse{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Headers:    resp.Header.Clone(),
		},
	}
	fx.Response.Body, fx.Response.BodyEncoding = encodeBody(resp.Body)
	if req := resp.Request; req != nil {
		fx.Request.Method = req.Method
		fx.Request.URL = req.URL
		fx.Request.Body, fx.Request.BodyEncoding = encodeBody(req.Body)
	}
	return fx
}

// ToResponse rebuilds the stored response. The request back-reference is the
// recorded (redacted) request.
func (f *Fixture) ToResponse() (*tape.Response, error) {
	body, err := decodeBody(f.Response.Body, f.Response.BodyEncoding)
	if err != nil {
		return nil, fmt.Errorf("response body: %w", err)
	}
	reqBody, err := decodeBody(f.Request.Body, f.Request.BodyEncoding)
	if err != nil {
		return nil, fmt.Errorf("request body: %w", err)
	}

	header := f.Response.Headers.Clone()
	if header == nil {
		header = make(http.Header)
	}

	return &tape.Response{
		StatusCode: f.Response.StatusCode,
		Status:     f.Response.Status,
		Header:     header,
		Body:       body,
		Request: &tape.Request{
			Method: f.Request.Method,
			URL:    f.Request.URL,
			Header: make(http.Header),
			Body:   reqBody,
		},
	}, nil
}

// stable returns a copy without the fields that change on every capture.
func (f *Fixture) stable() *Fixture {
	cp := *f
	cp.RecordedAt = time.Time{}
	cp.DurationMs = 0
	return &cp
}

func encodeBody(b []byte) (string, DataEncoding) {
	if len(b) == 0 {
		return "", ""
	}
	if utf8.Valid(b) {
		return string(b), DataEncodingUTF8
	}
	return base64.StdEncoding.EncodeToString(b), DataEncodingBase64
}

func decodeBody(s string, enc DataEncoding) ([]byte, error) {
	switch enc {
	case "", DataEncodingUTF8:
		if s == "" {
			return nil, nil
		}
		return []byte(s), nil
	case DataEncodingBase64:
		return base64.StdEncoding.DecodeString(s)
	default:
		return nil, fmt.Errorf("unknown body encoding %q", enc)
	}
}
