package testing

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/getmockd/httptape/pkg/redact"
	"github.com/getmockd/httptape/pkg/session"
)

// Tape drives a session controller for one test.
type Tape struct {
	t    testing.TB
	ctrl *session.Controller

	mu       sync.RWMutex
	requests []RequestLog
}

type options struct {
	exec      session.Executor
	cfg       session.Config
	redactors []redact.Redactor
	redacting bool
}

// Option configures New.
type Option func(*options)

// WithConfig sets the controller configuration.
func WithConfig(cfg session.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithExecutor replaces the network executor, e.g. with one bound to an
// httptest server's client.
func WithExecutor(exec session.Executor) Option {
	return func(o *options) { o.exec = exec }
}

// WithRedactors sets the session pipeline.
func WithRedactors(rs ...redact.Redactor) Option {
	return func(o *options) {
		o.redactors = rs
		o.redacting = true
	}
}

// New creates a Tape in the Off state. Any session still running when the
// test completes is stopped.
func New(t testing.TB, opts ...Option) *Tape {
	t.Helper()

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	ctrl := session.New(o.exec, o.cfg)
	if o.redacting {
		ctrl.SetRedactors(o.redactors...)
	}

	tp := &Tape{t: t, ctrl: ctrl}
	t.Cleanup(func() {
		if ctrl.State() != session.Off {
			_ = ctrl.Stop()
		}
	})
	return tp
}

// Controller returns the underlying controller.
func (tp *Tape) Controller() *session.Controller {
	return tp.ctrl
}

// Vignette starts a vignette at root and ends it during test cleanup.
func (tp *Tape) Vignette(root string) *Tape {
	tp.t.Helper()

	if err := tp.ctrl.StartVignette(context.Background(), root); err != nil {
		tp.t.Fatalf("failed to start vignette %s: %v", root, err)
	}
	tp.t.Cleanup(func() {
		if err := tp.ctrl.EndVignette(context.Background()); err != nil {
			tp.t.Errorf("failed to end vignette %s: %v", root, err)
		}
	})
	return tp
}

// ChangeState layers the next numbered state of the vignette.
func (tp *Tape) ChangeState() {
	tp.t.Helper()

	if err := tp.ctrl.ChangeState(); err != nil {
		tp.t.Fatalf("failed to change state: %v", err)
	}
}

// Client returns an HTTP client whose requests go through the controller
// and are logged for assertions.
func (tp *Tape) Client() *http.Client {
	return &http.Client{Transport: &logTransport{tape: tp, next: tp.ctrl.Transport()}}
}

// Requests returns the requests made through Client, oldest first.
func (tp *Tape) Requests() []RequestLog {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	out := make([]RequestLog, len(tp.requests))
	copy(out, tp.requests)
	return out
}

// Reset clears the request log.
func (tp *Tape) Reset() {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.requests = nil
}

func (tp *Tape) log(entry RequestLog) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.requests = append(tp.requests, entry)
}

type logTransport struct {
	tape *Tape
	next http.RoundTripper
}

func (lt *logTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	mode := lt.tape.ctrl.State()
	entry := RequestLog{
		Method: req.Method,
		URL:    req.URL.String(),
		Mode:   mode,
	}

	resp, err := lt.next.RoundTrip(req)
	if err != nil {
		entry.Err = err
		lt.tape.log(entry)
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	entry.StatusCode = resp.StatusCode
	entry.Body = string(body)
	lt.tape.log(entry)
	return resp, nil
}
