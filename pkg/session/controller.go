// Package session switches an application's outgoing HTTP traffic between
// the real network, capture to fixture files and replay from them.
//
// A Controller holds the executor requests go through. Off installs the real
// executor; StartCapturing wraps it with a recorder; StartMocking replaces it
// with a resolver so the network is never touched. Stop puts back whatever
// was installed before, including the mock path stack.
//
//	c := session.New(session.RealExecutor{}, session.Config{})
//	if err := c.StartVignette(ctx, "testdata/fixtures/checkout"); err != nil {
//		return err
//	}
//	defer c.EndVignette(ctx)
//
//	client := &http.Client{Transport: c.Transport()}
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/getmockd/httptape/internal/id"
	"github.com/getmockd/httptape/pkg/fingerprint"
	"github.com/getmockd/httptape/pkg/logging"
	"github.com/getmockd/httptape/pkg/mockpath"
	"github.com/getmockd/httptape/pkg/recording"
	"github.com/getmockd/httptape/pkg/redact"
	"github.com/getmockd/httptape/pkg/tape"
)

// Settings are the process-wide options a vignette saves and restores.
type Settings struct {
	// Verbose logs each written or used fixture at Info.
	Verbose bool

	// Redaction is the session pipeline. Nil means redact.Default().
	Redaction *redact.Pipeline
}

// pipeline returns the configured pipeline, or the default one.
func (s Settings) pipeline() *redact.Pipeline {
	if s.Redaction == nil {
		return redact.Default()
	}
	return s.Redaction
}

// Config configures a Controller.
type Config struct {
	// Stack is the mock path stack shared by capture and replay. Defaults to
	// an empty stack.
	Stack *mockpath.Stack

	// Codec writes fixtures and is tried first on lookup. Defaults to JSON.
	Codec recording.Codec

	Fingerprinter fingerprint.Fingerprinter

	// Filter limits which requests are captured. Nil captures everything.
	Filter *recording.Filter

	// MaxVariants bounds distinct captures per fixture path.
	MaxVariants int

	// Settings are the initial settings.
	Settings Settings

	// Logger for session events (nil = no logging).
	Logger *slog.Logger

	// Now stamps fixtures and replayed responses. Defaults to time.Now.
	Now func() time.Time
}

// CaptureOptions configures StartCapturing.
type CaptureOptions struct {
	// Path, when set, replaces the stack with this single entry for the
	// session. Otherwise the current stack is used as is.
	Path string
}

// MockOptions configures StartMocking.
type MockOptions struct {
	// Path, when set, replaces the stack with this single entry for the
	// session. Otherwise the current stack is used as is.
	Path string
}

// Hook runs before a vignette starts or after it ends.
type Hook func(ctx context.Context, c *Controller) error

type packageRedactors struct {
	name      string
	redactors []redact.Redactor
}

// Controller is the Off / Capturing / Mocking state machine. It is safe for
// concurrent use, but a session is expected to be driven by one test at a
// time.
type Controller struct {
	mu       sync.RWMutex
	real     Executor
	cfg      Config
	stack    *mockpath.Stack
	log      *slog.Logger
	state    State
	active   Executor
	saved    []string
	settings Settings

	sessionID string
	recorder  *recording.Recorder

	packages  []packageRedactors
	preHooks  []Hook
	postHooks []Hook
	vignette  *vignette
}

// New creates a controller in the Off state. real performs network calls.
func New(real Executor, cfg Config) *Controller {
	if real == nil {
		real = RealExecutor{}
	}
	stack := cfg.Stack
	if stack == nil {
		stack = mockpath.NewStack()
	}
	if cfg.Codec == nil {
		cfg.Codec = recording.JSONCodec{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Controller{
		real:     real,
		cfg:      cfg,
		stack:    stack,
		log:      log,
		active:   real,
		settings: cfg.Settings,
	}
}

// State returns the current mode.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Stack returns the mock path stack.
func (c *Controller) Stack() *mockpath.Stack {
	return c.stack
}

// SessionID returns the ID of the active session, or "" when Off.
func (c *Controller) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// Files returns the fixtures written by the current or last capture session.
func (c *Controller) Files() []string {
	c.mu.RLock()
	rec := c.recorder
	c.mu.RUnlock()
	if rec == nil {
		return nil
	}
	return rec.Files()
}

// Do sends req through the installed executor.
func (c *Controller) Do(ctx context.Context, req *tape.Request) (*tape.Response, error) {
	c.mu.RLock()
	exec := c.active
	c.mu.RUnlock()
	return exec.Do(ctx, req)
}

// Settings returns the current settings.
func (c *Controller) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// SetSettings replaces the settings. Changes apply to the next session.
func (c *Controller) SetSettings(s Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = s
}

// SetRedactors sets the session pipeline to rs. No redactors disables
// redaction, apart from package redactors.
func (c *Controller) SetRedactors(rs ...redact.Redactor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Redaction = redact.New(rs...)
}

// DisableRedaction turns off the session pipeline. Package redactors still
// run.
func (c *Controller) DisableRedaction() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Redaction = redact.None()
}

// RegisterPackageRedactors registers redactors a library requires for its
// own traffic. They run ahead of the session pipeline in every session
// started afterwards and cannot be disabled. Registering a name again
// replaces its redactors.
func (c *Controller) RegisterPackageRedactors(name string, rs ...redact.Redactor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.packages {
		if p.name == name {
			c.packages[i].redactors = rs
			return
		}
	}
	c.packages = append(c.packages, packageRedactors{name: name, redactors: rs})
}

// StartCapturing sends requests to the network and writes a fixture for
// each response under the top of the stack.
func (c *Controller) StartCapturing(opts CaptureOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.begin(opts.Path); err != nil {
		return err
	}
	c.enter(Capturing)

	c.recorder = recording.NewRecorder(c.stack, recording.RecorderOptions{
		Pipeline:      c.sessionPipeline(),
		Codec:         c.cfg.Codec,
		Fingerprinter: c.cfg.Fingerprinter,
		MaxVariants:   c.cfg.MaxVariants,
		Logger:        c.log,
		Verbose:       c.settings.Verbose,
		Now:           c.cfg.Now,
	})
	c.active = &CapturingExecutor{
		Delegate: c.real,
		Recorder: c.recorder,
		Filter:   c.cfg.Filter,
	}
	return nil
}

// StartMocking answers every request from fixtures on the stack. The real
// executor is not called until Stop.
func (c *Controller) StartMocking(opts MockOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.begin(opts.Path); err != nil {
		return err
	}
	c.enter(Mocking)

	c.recorder = nil
	c.active = &MockingExecutor{
		Resolver: recording.NewResolver(c.stack, recording.ResolverOptions{
			Pipeline:      c.sessionPipeline(),
			Codec:         c.cfg.Codec,
			Fingerprinter: c.cfg.Fingerprinter,
			MaxVariants:   c.cfg.MaxVariants,
			Logger:        c.log,
			Verbose:       c.settings.Verbose,
			Now:           c.cfg.Now,
		}),
	}
	return nil
}

// Stop ends the active session, reinstalls the real executor and restores
// the stack as it was when the session started.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Off {
		return tape.ErrNoActiveSession
	}

	c.log.Info("session stopped", "files", len(c.filesLocked()))

	c.stack.Restore(c.saved)
	c.saved = nil
	c.active = c.real
	c.state = Off
	c.sessionID = ""
	c.log = c.baseLogger()
	return nil
}

// begin validates the transition out of Off and sets up the stack. Callers
// hold c.mu.
func (c *Controller) begin(path string) error {
	if c.state != Off {
		return tape.ErrSessionActive
	}
	saved := c.stack.Snapshot()
	if path != "" {
		c.stack.Set(path)
	}
	if c.stack.Len() == 0 {
		return recording.ErrEmptyStack
	}
	c.saved = saved
	return nil
}

// enter switches to state and tags the log with a new session ID. Callers
// hold c.mu.
func (c *Controller) enter(state State) {
	c.state = state
	c.sessionID = id.Session()
	c.log = logging.Session(c.baseLogger(), id.Short(c.sessionID), state.String())
	c.log.Info("session started", "stack", c.stack.Entries())
}

// sessionPipeline puts package redactors ahead of the session pipeline.
// Callers hold c.mu.
func (c *Controller) sessionPipeline() *redact.Pipeline {
	var pkg []redact.Redactor
	for _, p := range c.packages {
		pkg = append(pkg, p.redactors...)
	}
	return c.settings.pipeline().Prepend(pkg...)
}

func (c *Controller) filesLocked() []string {
	if c.recorder == nil || c.state != Capturing {
		return nil
	}
	return c.recorder.Files()
}

func (c *Controller) baseLogger() *slog.Logger {
	if c.cfg.Logger == nil {
		return logging.Nop()
	}
	return c.cfg.Logger
}
