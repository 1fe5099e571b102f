package recording

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/httptape/pkg/fingerprint"
	"github.com/getmockd/httptape/pkg/logging"
	"github.com/getmockd/httptape/pkg/mockpath"
	"github.com/getmockd/httptape/pkg/redact"
	"github.com/getmockd/httptape/pkg/tape"
)

// DefaultMaxVariants bounds the distinct fixtures one session may write for
// a single fingerprint.
const DefaultMaxVariants = 99

// variantSep separates a fixture stem from its variant number: the second
// distinct capture of api.test/items is stored as api.test/items__2.json.
const variantSep = "__"

// Errors for capture.
var (
	ErrEmptyStack = errors.New("mock path stack is empty")
	ErrNoRequest  = errors.New("response has no request")
)

// RecorderOptions configures a Recorder.
type RecorderOptions struct {
	// Pipeline redacts responses before they are written. Nil writes them
	// unredacted.
	Pipeline *redact.Pipeline

	// Codec serializes fixtures. Defaults to JSONCodec.
	Codec Codec

	Fingerprinter fingerprint.Fingerprinter

	// MaxVariants defaults to DefaultMaxVariants.
	MaxVariants int

	// Logger for capture events (nil = no logging).
	Logger *slog.Logger

	// Verbose logs every written fixture at Info instead of Debug.
	Verbose bool

	// Now stamps fixtures. Defaults to time.Now.
	Now func() time.Time
}

// Recorder writes redacted responses under the top of a mock path stack.
//
// Within one Recorder, a second capture of the same fingerprint with the same
// content overwrites the fixture in place; different content is written to
// the next variant (items__2.json, items__3.json, ...), which Resolver
// replays in order.
type Recorder struct {
	stack *mockpath.Stack
	opts  RecorderOptions
	log   *slog.Logger

	mu      sync.Mutex
	written map[string]writeState
	files   []string
}

type writeState struct {
	variant int
	digest  string
}

// NewRecorder creates a recorder writing to stack.Current().
func NewRecorder(stack *mockpath.Stack, opts RecorderOptions) *Recorder {
	if opts.Codec == nil {
		opts.Codec = JSONCodec{}
	}
	if opts.MaxVariants <= 0 {
		opts.MaxVariants = DefaultMaxVariants
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Recorder{
		stack:   stack,
		opts:    opts,
		log:     log,
		written: make(map[string]writeState),
	}
}

// Record persists a redacted copy of resp and returns resp itself, unchanged.
func (r *Recorder) Record(resp *tape.Response) (*tape.Response, error) {
	if _, err := r.Save(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Save persists a redacted copy of resp and returns the file written.
func (r *Recorder) Save(resp *tape.Response) (string, error) {
	redacted, err := r.opts.Pipeline.Apply(resp)
	if err != nil {
		return "", err
	}
	if redacted == nil || redacted.Request == nil {
		return "", ErrNoRequest
	}

	top := r.stack.Current()
	if top == "" {
		return "", ErrEmptyStack
	}

	rel := r.opts.Fingerprinter.Path(redacted.Request)
	base := mockpath.FixturePath(top, rel, "")

	fx := NewFixture(redacted, r.opts.Now())
	data, err := r.opts.Codec.Marshal(fx)
	if err != nil {
		return "", err
	}
	digest, err := r.digest(fx)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, seen := r.written[base]
	variant := 1
	if seen {
		variant = prev.variant
		if prev.digest != digest {
			variant++
		}
	}
	if variant > r.opts.MaxVariants {
		return "", &tape.CaptureCollisionError{Path: base + r.opts.Codec.Ext(), Variants: r.opts.MaxVariants}
	}

	path := VariantPath(base, variant, r.opts.Codec.Ext())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", &tape.FilesystemError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // fixtures are meant to be committed
		return "", &tape.FilesystemError{Op: "write", Path: path, Err: err}
	}

	if !seen {
		// Variants left by an earlier session would replay after this one.
		if err := removeVariants(base, r.opts.Codec.Ext()); err != nil {
			return "", err
		}
	}
	if !seen || variant != prev.variant {
		r.files = append(r.files, path)
	}
	r.written[base] = writeState{variant: variant, digest: digest}

	r.logWrite(path, redacted)
	return path, nil
}

// Files returns the fixture files written so far, in first-write order.
func (r *Recorder) Files() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.files))
	copy(out, r.files)
	return out
}

func (r *Recorder) digest(fx *Fixture) (string, error) {
	data, err := r.opts.Codec.Marshal(fx.stable())
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func (r *Recorder) logWrite(path string, resp *tape.Response) {
	level := slog.LevelDebug
	if r.opts.Verbose {
		level = slog.LevelInfo
	}
	r.log.Log(context.Background(), level, "wrote fixture",
		"path", path,
		"method", resp.Request.Method,
		"url", resp.Request.URL,
		"status", resp.StatusCode,
	)
}

// removeVariants deletes base__n+ext files for n >= 2.
func removeVariants(base, ext string) error {
	dir, stem := filepath.Split(base)
	entries, err := os.ReadDir(filepath.Clean(dir))
	if err != nil {
		return nil //nolint:nilerr // no directory, no variants
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, stem+variantSep) || !strings.HasSuffix(name, ext) {
			continue
		}
		n := strings.TrimSuffix(strings.TrimPrefix(name, stem+variantSep), ext)
		if _, err := strconv.Atoi(n); err != nil {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return &tape.FilesystemError{Op: "remove", Path: path, Err: err}
		}
	}
	return nil
}

// VariantPath returns base+ext for the first variant and base__n+ext after.
func VariantPath(base string, n int, ext string) string {
	if n <= 1 {
		return base + ext
	}
	return base + variantSep + strconv.Itoa(n) + ext
}
