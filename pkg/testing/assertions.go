package testing

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/getmockd/httptape/pkg/session"
)

// RequestLog records one request made through a Tape's client.
type RequestLog struct {
	// Method is the HTTP method (GET, POST, etc.)
	Method string
	// URL is the full request URL
	URL string
	// Mode is the session state the request ran in
	Mode session.State
	// StatusCode is the response status, 0 when the request failed
	StatusCode int
	// Body is the response body
	Body string
	// Err is the transport error, if any
	Err error
}

// AssertJSONBody asserts that the response body matches the expected JSON.
// The expected value can be a string, []byte, or any struct/map that will be JSON encoded.
func (r *RequestLog) AssertJSONBody(t testing.TB, expected any) {
	t.Helper()

	var expectedJSON any
	var actualJSON any

	switch v := expected.(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &expectedJSON); err != nil {
			t.Errorf("failed to parse expected JSON: %v", err)
			return
		}
	case []byte:
		if err := json.Unmarshal(v, &expectedJSON); err != nil {
			t.Errorf("failed to parse expected JSON: %v", err)
			return
		}
	default:
		data, err := json.Marshal(v)
		if err != nil {
			t.Errorf("failed to marshal expected value: %v", err)
			return
		}
		if err := json.Unmarshal(data, &expectedJSON); err != nil {
			t.Errorf("failed to parse expected JSON: %v", err)
			return
		}
	}

	if err := json.Unmarshal([]byte(r.Body), &actualJSON); err != nil {
		t.Errorf("response body is not valid JSON: %v\nbody: %s", err, r.Body)
		return
	}

	if !reflect.DeepEqual(actualJSON, expectedJSON) {
		expectedBytes, _ := json.MarshalIndent(expectedJSON, "", "  ")
		actualBytes, _ := json.MarshalIndent(actualJSON, "", "  ")
		t.Errorf("response body does not match expected JSON\nexpected:\n%s\nactual:\n%s",
			string(expectedBytes), string(actualBytes))
	}
}

// AssertBody asserts that the response body exactly matches the expected string.
func (r *RequestLog) AssertBody(t testing.TB, expected string) {
	t.Helper()

	if r.Body != expected {
		t.Errorf("response body does not match\nexpected: %q\nactual: %q", expected, r.Body)
	}
}

// AssertBodyContains asserts that the response body contains the expected substring.
func (r *RequestLog) AssertBodyContains(t testing.TB, substr string) {
	t.Helper()

	if !strings.Contains(r.Body, substr) {
		t.Errorf("response body does not contain %q\nbody: %s", substr, r.Body)
	}
}

// AssertStatus asserts the response status code.
func (r *RequestLog) AssertStatus(t testing.TB, expected int) {
	t.Helper()

	if r.StatusCode != expected {
		t.Errorf("status mismatch for %s %s\nexpected: %d\nactual: %d", r.Method, r.URL, expected, r.StatusCode)
	}
}

// JSONField evaluates a JSONPath such as "$.items[0].id" against the
// response body. Returns nil if the body is not valid JSON, the path is
// invalid or nothing matches.
func (r *RequestLog) JSONField(path string) any {
	x, err := jp.ParseString(path)
	if err != nil {
		return nil
	}
	data, err := oj.ParseString(r.Body)
	if err != nil {
		return nil
	}
	return x.First(data)
}

// AssertJSONField asserts that a JSONPath in the response body has the expected value.
// JSON numbers decode as int64 or float64.
func (r *RequestLog) AssertJSONField(t testing.TB, path string, expected any) {
	t.Helper()

	actual := r.JSONField(path)
	if actual == nil {
		t.Errorf("JSON field %q not found in response body: %s", path, r.Body)
		return
	}

	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("JSON field %q mismatch\nexpected: %v (%T)\nactual: %v (%T)",
			path, expected, expected, actual, actual)
	}
}

// AssertMode asserts the controller's current state.
func (tp *Tape) AssertMode(t testing.TB, expected session.State) {
	t.Helper()

	if actual := tp.ctrl.State(); actual != expected {
		t.Errorf("session mode mismatch\nexpected: %s\nactual: %s", expected, actual)
	}
}

// AssertCalled asserts that at least one request was made to method and url.
func (tp *Tape) AssertCalled(t testing.TB, method, url string) {
	t.Helper()

	if tp.count(method, url) == 0 {
		t.Errorf("expected %s %s to be called", method, url)
	}
}

// AssertCalledTimes asserts the number of requests made to method and url.
func (tp *Tape) AssertCalledTimes(t testing.TB, method, url string, times int) {
	t.Helper()

	if n := tp.count(method, url); n != times {
		t.Errorf("expected %s %s to be called %d times, got %d", method, url, times, n)
	}
}

// AssertNotCalled asserts that no request was made to method and url.
func (tp *Tape) AssertNotCalled(t testing.TB, method, url string) {
	t.Helper()

	if n := tp.count(method, url); n != 0 {
		t.Errorf("expected %s %s not to be called, got %d calls", method, url, n)
	}
}

// AssertCaptured asserts how many fixture files the current or last capture
// session wrote.
func (tp *Tape) AssertCaptured(t testing.TB, files int) {
	t.Helper()

	if got := tp.ctrl.Files(); len(got) != files {
		t.Errorf("expected %d captured fixtures, got %d: %v", files, len(got), got)
	}
}

func (tp *Tape) count(method, url string) int {
	n := 0
	for _, r := range tp.Requests() {
		if strings.EqualFold(r.Method, method) && r.URL == url {
			n++
		}
	}
	return n
}
