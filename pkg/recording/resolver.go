package recording

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/getmockd/httptape/pkg/fingerprint"
	"github.com/getmockd/httptape/pkg/logging"
	"github.com/getmockd/httptape/pkg/mockpath"
	"github.com/getmockd/httptape/pkg/redact"
	"github.com/getmockd/httptape/pkg/tape"
)

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	// Pipeline is applied to each request before fingerprinting so lookups
	// match the paths the Recorder wrote. Use the capture pipeline here.
	Pipeline *redact.Pipeline

	// Codec is the preferred fixture format; the others are tried after it.
	// Defaults to JSONCodec.
	Codec Codec

	Fingerprinter fingerprint.Fingerprinter

	// MaxVariants defaults to DefaultMaxVariants.
	MaxVariants int

	// Logger for lookup events (nil = no logging).
	Logger *slog.Logger

	// Verbose logs every hit at Info instead of Debug.
	Verbose bool

	// Now stamps replayed responses. Defaults to time.Now.
	Now func() time.Time
}

// Resolver answers requests from fixtures found on a mock path stack. It
// never writes to disk.
type Resolver struct {
	stack  *mockpath.Stack
	opts   ResolverOptions
	codecs []Codec
	log    *slog.Logger

	mu   sync.Mutex
	hits map[string]int
}

// Match is the outcome of a successful lookup.
type Match struct {
	// Path is the fixture file used.
	Path string
	// Entry is the stack entry the fixture was found under.
	Entry string
	// Rel is the request fingerprint.
	Rel string
}

// NewResolver creates a resolver searching stack from the top down.
func NewResolver(stack *mockpath.Stack, opts ResolverOptions) *Resolver {
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
	return &Resolver{
		stack:  stack,
		opts:   opts,
		codecs: searchOrder(opts.Codec),
		log:    log,
		hits:   make(map[string]int),
	}
}

// Resolve loads the fixture for req. The k-th lookup of one fixture returns
// the k-th captured variant when it exists, else the highest variant below
// it. A miss returns a *tape.NoMockFoundError.
func (r *Resolver) Resolve(req *tape.Request) (*tape.Response, error) {
	rel, err := r.fingerprint(req)
	if err != nil {
		return nil, err
	}

	m, codec, ok := r.find(rel, r.next)
	if !ok {
		return nil, r.miss(req, rel)
	}

	fx, err := loadWith(codec, m.Path)
	if err != nil {
		return nil, err
	}
	resp, err := fx.ToResponse()
	if err != nil {
		return nil, &tape.FilesystemError{Op: "decode", Path: m.Path, Err: err}
	}

	resp.Request = req.Clone()
	resp.Timing = tape.Timing{Start: r.opts.Now(), FromCache: true}

	level := slog.LevelDebug
	if r.opts.Verbose {
		level = slog.LevelInfo
	}
	r.log.Log(context.Background(), level, "using fixture",
		"path", m.Path,
		"method", req.Method,
		"url", req.URL,
	)
	return resp, nil
}

// Locate reports which fixture would answer req first, without counting the
// lookup.
func (r *Resolver) Locate(req *tape.Request) (Match, error) {
	rel, err := r.fingerprint(req)
	if err != nil {
		return Match{}, err
	}
	m, _, ok := r.find(rel, first)
	if !ok {
		return Match{}, r.miss(req, rel)
	}
	return m, nil
}

// Reset forgets lookup counts.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits = make(map[string]int)
}

func (r *Resolver) fingerprint(req *tape.Request) (string, error) {
	lookup, err := r.opts.Pipeline.ApplyRequest(req)
	if err != nil {
		return "", err
	}
	return r.opts.Fingerprinter.Path(lookup), nil
}

// next counts a lookup of the fixture at path and returns its number.
func (r *Resolver) next(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits[path]++
	return r.hits[path]
}

func first(string) int { return 1 }

// find searches entries top to bottom; within the first entry holding the
// base fixture it picks the variant for the lookup number returned by count.
func (r *Resolver) find(rel string, count func(path string) int) (Match, Codec, bool) {
	for _, entry := range r.stack.Entries() {
		base := mockpath.FixturePath(entry, rel, "")
		for _, codec := range r.codecs {
			if !isFile(base + codec.Ext()) {
				continue
			}
			k := min(count(base+codec.Ext()), r.opts.MaxVariants)
			for n := k; n >= 2; n-- {
				if p := VariantPath(base, n, codec.Ext()); isFile(p) {
					return Match{Path: p, Entry: entry, Rel: rel}, codec, true
				}
			}
			return Match{Path: base + codec.Ext(), Entry: entry, Rel: rel}, codec, true
		}
	}
	return Match{}, nil, false
}

func (r *Resolver) miss(req *tape.Request, rel string) error {
	exts := make([]string, len(r.codecs))
	for i, c := range r.codecs {
		exts[i] = c.Ext()
	}
	r.log.Debug("no fixture found",
		"method", req.Method,
		"url", req.URL,
		"searched", r.stack.Candidates(rel, exts),
	)

	top := r.stack.Current()
	if top == "" {
		top = "."
	}
	return &tape.NoMockFoundError{
		Method: req.Method,
		URL:    req.URL,
		Path:   mockpath.FixturePath(top, rel, r.opts.Codec.Ext()),
	}
}

func isFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
