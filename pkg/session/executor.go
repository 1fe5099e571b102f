package session

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/getmockd/httptape/pkg/recording"
	"github.com/getmockd/httptape/pkg/tape"
)

// Executor performs a request and returns its complete response.
type Executor interface {
	Do(ctx context.Context, req *tape.Request) (*tape.Response, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, req *tape.Request) (*tape.Response, error)

// Do calls f(ctx, req).
func (f ExecutorFunc) Do(ctx context.Context, req *tape.Request) (*tape.Response, error) {
	return f(ctx, req)
}

// RealExecutor sends requests over the network.
type RealExecutor struct {
	// Client defaults to http.DefaultClient. It must not route through a
	// Controller's Transport.
	Client *http.Client
}

// Do sends req and buffers the response.
func (e RealExecutor) Do(ctx context.Context, req *tape.Request) (*tape.Response, error) {
	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	httpReq, err := req.ToHTTP(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	return tape.ReadResponse(resp, req.Clone(), start)
}

// CapturingExecutor forwards to Delegate and records every response the
// filter admits.
type CapturingExecutor struct {
	Delegate Executor
	Recorder *recording.Recorder
	Filter   *recording.Filter
}

// Do forwards req and records the response. The live response is returned
// unredacted.
func (e *CapturingExecutor) Do(ctx context.Context, req *tape.Request) (*tape.Response, error) {
	resp, err := e.Delegate.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Request == nil {
		resp.Request = req.Clone()
	}
	if !e.Filter.ShouldRecord(req.Host(), urlPath(req.URL)) {
		return resp, nil
	}
	return e.Recorder.Record(resp)
}

// MockingExecutor answers requests from fixtures only.
type MockingExecutor struct {
	Resolver *recording.Resolver
}

// Do resolves req against the fixture tree. It never touches the network.
func (e *MockingExecutor) Do(ctx context.Context, req *tape.Request) (*tape.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.Resolver.Resolve(req)
}

func urlPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}
