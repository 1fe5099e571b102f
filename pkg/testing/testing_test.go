package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	stdtesting "testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/httptape/pkg/recording"
	"github.com/getmockd/httptape/pkg/session"
	"github.com/getmockd/httptape/pkg/tape"
)

var errOffline = errors.New("network disabled")

func offline() session.Executor {
	return session.ExecutorFunc(func(context.Context, *tape.Request) (*tape.Response, error) {
		return nil, errOffline
	})
}

func get(t *stdtesting.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestFixtureBuilderPath(t *stdtesting.T) {
	t.Parallel()

	tests := []struct {
		name    string
		builder *FixtureBuilder
		want    string
	}{
		{"json", Fixture("GET", "https://api.example.com/v1/items"), "fx/api.example.com/v1/items.json"},
		{"yaml", Fixture("GET", "https://api.example.com/v1/items").AsYAML(), "fx/api.example.com/v1/items.yaml"},
		{"variant", Fixture("GET", "https://api.example.com/v1/items").Variant(3), "fx/api.example.com/v1/items__3.json"},
		{"index", Fixture("GET", "https://api.example.com/"), "fx/api.example.com/index.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *stdtesting.T) {
			t.Parallel()
			assert.Equal(t, filepath.FromSlash(tt.want), tt.builder.Path("fx"))
		})
	}
}

func TestFixtureBuilderErrors(t *stdtesting.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := Fixture("GET", "https://api.example.com/").WithDuration("soon").WriteTo(dir)
	assert.ErrorContains(t, err, "WithDuration")

	b := Fixture("GET", "https://api.example.com/").Variant(0)
	assert.Error(t, b.Err())

	_, err = Fixture("GET", "https://api.example.com/").WithJSON(func() {}).WriteTo(dir)
	assert.ErrorContains(t, err, "WithJSON")
}

func TestFixtureBuilderWritesLoadableFixture(t *stdtesting.T) {
	t.Parallel()
	dir := t.TempDir()

	path := Fixture("POST", "https://api.example.com/v1/cart").
		WithRequestBody(`{"sku":"a1"}`).
		WithStatus(http.StatusCreated).
		WithHeader("X-Request-Id", "r1").
		WithBody(map[string]int{"count": 1}).
		WithDuration("40ms").
		Write(t, dir)

	fx, err := recording.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "POST", fx.Request.Method)
	assert.Equal(t, `{"sku":"a1"}`, fx.Request.Body)
	assert.Equal(t, http.StatusCreated, fx.Response.StatusCode)
	assert.Equal(t, "201 Created", fx.Response.Status)
	assert.Equal(t, "application/json", fx.Response.Headers.Get("Content-Type"))
	assert.Equal(t, `{"count":1}`, fx.Response.Body)
	assert.EqualValues(t, 40, fx.DurationMs)
}

func TestVignetteReplaysHandWrittenFixtures(t *stdtesting.T) {
	root := t.TempDir()
	url := "https://api.example.com/v1/cart"

	Fixture("GET", url).
		WithStatus(http.StatusServiceUnavailable).
		WithJSON(map[string]string{"error": "maintenance"}).
		Write(t, filepath.Join(root, "0"))
	Fixture("GET", url).WithJSON(map[string]any{"items": []string{"a1"}}).Write(t, filepath.Join(root, "1"))

	tp := New(t, WithExecutor(offline())).Vignette(root)
	tp.AssertMode(t, session.Mocking)

	resp, _ := get(t, tp.Client(), url)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	tp.ChangeState()
	resp, _ = get(t, tp.Client(), url)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	reqs := tp.Requests()
	require.Len(t, reqs, 2)
	reqs[0].AssertStatus(t, http.StatusServiceUnavailable)
	reqs[0].AssertJSONField(t, "$.error", "maintenance")
	reqs[1].AssertJSONBody(t, `{"items":["a1"]}`)
	reqs[1].AssertJSONField(t, "$.items[0]", "a1")
	assert.Equal(t, session.Mocking, reqs[1].Mode)

	tp.AssertCalledTimes(t, "GET", url, 2)
	tp.AssertNotCalled(t, "DELETE", url)
}

func TestVignetteCapturesThenReplays(t *stdtesting.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "hello")
	}))
	defer srv.Close()

	root := t.TempDir()

	t.Run("capture", func(t *stdtesting.T) {
		tp := New(t, WithExecutor(session.RealExecutor{Client: srv.Client()})).Vignette(root)
		tp.AssertMode(t, session.Capturing)

		_, body := get(t, tp.Client(), srv.URL+"/greeting")
		assert.Equal(t, "hello", body)
		tp.AssertCaptured(t, 1)
		tp.Requests()[0].AssertBody(t, "hello")
	})

	t.Run("replay", func(t *stdtesting.T) {
		tp := New(t, WithExecutor(offline())).Vignette(root)
		tp.AssertMode(t, session.Mocking)

		_, body := get(t, tp.Client(), srv.URL+"/greeting")
		assert.Equal(t, "hello", body)
		tp.AssertCalled(t, "GET", srv.URL+"/greeting")
	})

	assert.Equal(t, 1, calls)
}

func TestClientLogsFailures(t *stdtesting.T) {
	tp := New(t, WithExecutor(offline()))
	tp.AssertMode(t, session.Off)

	_, err := tp.Client().Get("https://api.example.com/")
	require.Error(t, err)

	reqs := tp.Requests()
	require.Len(t, reqs, 1)
	assert.ErrorIs(t, reqs[0].Err, errOffline)
	assert.Equal(t, session.Off, reqs[0].Mode)

	tp.Reset()
	assert.Empty(t, tp.Requests())
}

func TestWithRedactorsAppliesToCapture(t *stdtesting.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "token=abc123")
	}))
	defer srv.Close()

	root := t.TempDir()
	tp := New(t,
		WithExecutor(session.RealExecutor{Client: srv.Client()}),
		WithRedactors(redactToken),
	).Vignette(root)

	_, body := get(t, tp.Client(), srv.URL+"/auth")
	assert.Equal(t, "token=abc123", body, "live response is not redacted")

	files := tp.Controller().Files()
	require.Len(t, files, 1)
	fx, err := recording.LoadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "token=REDACTED", fx.Response.Body)
}

func redactToken(resp *tape.Response) (*tape.Response, error) {
	resp.Body = []byte("token=REDACTED")
	return resp, nil
}
