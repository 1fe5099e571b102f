package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/getmockd/httptape/pkg/fingerprint"
	"github.com/getmockd/httptape/pkg/mockpath"
	"github.com/getmockd/httptape/pkg/recording"
	"github.com/getmockd/httptape/pkg/tape"
)

// FixtureBuilder builds a fixture by hand using a fluent API.
type FixtureBuilder struct {
	req     *tape.Request
	resp    *tape.Response
	codec   recording.Codec
	variant int
	err     error // First error encountered during building
}

// Fixture starts a fixture answering method and url. The response defaults
// to 200 with no body.
func Fixture(method, url string) *FixtureBuilder {
	req := tape.NewRequest(method, url, nil)
	return &FixtureBuilder{
		req: req,
		resp: &tape.Response{
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Request:    req,
		},
		codec: recording.JSONCodec{},
	}
}

// setError records the first error encountered during building.
// Subsequent errors are ignored (first error wins pattern).
func (b *FixtureBuilder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns any error encountered during building.
func (b *FixtureBuilder) Err() error {
	return b.err
}

// WithRequestBody sets the request body, which is part of the fingerprint
// for methods that carry one.
func (b *FixtureBuilder) WithRequestBody(body string) *FixtureBuilder {
	b.req.Body = []byte(body)
	return b
}

// WithStatus sets the HTTP response status code.
func (b *FixtureBuilder) WithStatus(status int) *FixtureBuilder {
	b.resp.StatusCode = status
	b.resp.Status = fmt.Sprintf("%d %s", status, http.StatusText(status))
	return b
}

// WithBody sets the response body.
// For structs/maps, use WithJSON instead for automatic JSON encoding.
func (b *FixtureBuilder) WithBody(body any) *FixtureBuilder {
	switch v := body.(type) {
	case string:
		b.resp.Body = []byte(v)
	case []byte:
		b.resp.Body = v
	default:
		return b.WithJSON(v)
	}
	return b
}

// WithJSON sets the response body as JSON.
// Automatically sets Content-Type to application/json.
func (b *FixtureBuilder) WithJSON(body any) *FixtureBuilder {
	data, err := json.Marshal(body)
	if err != nil {
		b.setError(fmt.Errorf("WithJSON: failed to marshal body: %w", err))
		return b
	}
	b.resp.Body = data
	b.resp.Header.Set("Content-Type", "application/json")
	return b
}

// WithHeader adds a response header.
func (b *FixtureBuilder) WithHeader(key, value string) *FixtureBuilder {
	b.resp.Header.Add(key, value)
	return b
}

// WithHeaders sets multiple response headers at once.
func (b *FixtureBuilder) WithHeaders(headers map[string]string) *FixtureBuilder {
	for k, v := range headers {
		b.resp.Header.Set(k, v)
	}
	return b
}

// WithDuration sets the recorded response time.
// Accepts duration strings like "100ms", "1s", "500ms".
func (b *FixtureBuilder) WithDuration(d string) *FixtureBuilder {
	parsed, err := time.ParseDuration(d)
	if err != nil {
		b.setError(fmt.Errorf("WithDuration: invalid duration %q: %w", d, err))
		return b
	}
	b.resp.Timing.Total = parsed
	return b
}

// AsYAML writes the fixture as YAML instead of JSON.
func (b *FixtureBuilder) AsYAML() *FixtureBuilder {
	b.codec = recording.YAMLCodec{}
	return b
}

// Variant writes the n-th response for the request, replayed on the n-th
// lookup. Variant 1 is the base fixture.
func (b *FixtureBuilder) Variant(n int) *FixtureBuilder {
	if n < 1 {
		b.setError(fmt.Errorf("Variant: %d is not positive", n))
		return b
	}
	b.variant = n
	return b
}

// Path returns the file the fixture is written to under entry.
func (b *FixtureBuilder) Path(entry string) string {
	base := mockpath.FixturePath(entry, fingerprint.Path(b.req), "")
	return recording.VariantPath(base, b.variant, b.codec.Ext())
}

// WriteTo writes the fixture below entry and returns its path.
func (b *FixtureBuilder) WriteTo(entry string) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	data, err := b.codec.Marshal(recording.NewFixture(b.resp, time.Now()))
	if err != nil {
		return "", err
	}
	path := b.Path(entry)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // fixtures are not secret
		return "", err
	}
	return path, nil
}

// Write writes the fixture below entry, failing the test on error.
func (b *FixtureBuilder) Write(t testing.TB, entry string) string {
	t.Helper()

	path, err := b.WriteTo(entry)
	if err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}
