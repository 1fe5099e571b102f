package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"

	"github.com/getmockd/httptape/pkg/fingerprint"
	"github.com/getmockd/httptape/pkg/logging"
	"github.com/getmockd/httptape/pkg/mockpath"
	"github.com/getmockd/httptape/pkg/recording"
	"github.com/getmockd/httptape/pkg/redact"
	"github.com/getmockd/httptape/pkg/session"
)

// Codec returns the fixture codec for Format.
func (c *Config) Codec() (recording.Codec, error) {
	return recording.CodecFor(recording.Format(c.Format))
}

// Fingerprinter returns the fingerprint settings.
func (c *Config) Fingerprinter() fingerprint.Fingerprinter {
	return fingerprint.Fingerprinter{MaxSegment: c.Fingerprint.MaxSegment}
}

// Filter returns the capture filter, or nil when it has no patterns.
func (c *Config) Filter() (*recording.Filter, error) {
	f := c.Capture
	if len(f.IncludeHosts)+len(f.ExcludeHosts)+len(f.IncludePaths)+len(f.ExcludePaths) == 0 {
		return nil, nil
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	return &f, nil
}

// Pipeline returns the session pipeline: nil (the default) when Redact is
// absent, otherwise one step per rule.
func (c *Config) Pipeline() (*redact.Pipeline, error) {
	if c.Redact == nil {
		return nil, nil
	}
	steps, err := c.Redactors()
	if err != nil {
		return nil, err
	}
	return redact.New(steps...), nil
}

// Redactors builds one redactor per rule.
func (c *Config) Redactors() ([]redact.Redactor, error) {
	out := make([]redact.Redactor, 0, len(c.Redact))
	for i, rule := range c.Redact {
		r, err := rule.Redactor()
		if err != nil {
			return nil, fmt.Errorf("redact[%d]: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Redactor builds the rule: its steps run in field order, limited to Hosts
// and guarded by When.
func (r RedactRule) Redactor() (redact.Redactor, error) {
	var steps []redact.Redactor
	if r.Cookies {
		steps = append(steps, redact.RedactCookies)
	}
	if len(r.Headers) > 0 {
		steps = append(steps, redact.RedactHeaders(r.Headers...))
	}
	if len(r.QueryParams) > 0 {
		steps = append(steps, redact.RedactQueryParams(r.QueryParams...))
	}
	if len(r.JSONPaths) > 0 {
		step, err := redact.RedactJSONPaths(r.JSONPaths...)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	for _, rep := range r.Replace {
		if !rep.Regexp {
			steps = append(steps, redact.ReplaceString(rep.From, rep.To))
			continue
		}
		re, err := regexp.Compile(rep.From)
		if err != nil {
			return nil, fmt.Errorf("replace %q: %w", rep.From, err)
		}
		steps = append(steps, redact.ReplaceRegexp(re, rep.To))
	}
	for _, p := range r.URLPrefix {
		steps = append(steps, redact.RewriteURLPrefix(p.From, p.To))
	}

	group := redact.New(steps...)
	var out redact.Redactor = group.Apply

	if len(r.Hosts) > 0 {
		var err error
		if out, err = redact.OnHosts(r.Hosts, out); err != nil {
			return nil, err
		}
	}
	if r.When != "" {
		var err error
		if out, err = redact.When(r.When, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Logger builds the logger described by Log, writing text or JSON to out.
// The returned closer releases the mirror file, if any.
func (c *Config) Logger(out io.Writer) (*slog.Logger, io.Closer, error) {
	lc := logging.DefaultConfig()
	lc.Level = logging.ParseLevel(c.Log.Level)
	lc.Format = logging.ParseFormat(c.Log.Format)
	if out != nil {
		lc.Output = out
	}
	var closer io.Closer = io.NopCloser(nil)
	if c.Log.File != "" {
		f, err := os.OpenFile(c.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec // path comes from the user's own config
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		lc.Mirror = f
		closer = f
	}
	return logging.New(lc), closer, nil
}

// Session builds a session.Config rooted at Fixtures.
func (c *Config) Session(log *slog.Logger) (session.Config, error) {
	codec, err := c.Codec()
	if err != nil {
		return session.Config{}, err
	}
	filter, err := c.Filter()
	if err != nil {
		return session.Config{}, err
	}
	pipeline, err := c.Pipeline()
	if err != nil {
		return session.Config{}, err
	}
	return session.Config{
		Stack:         mockpath.NewStack(c.Fixtures),
		Codec:         codec,
		Fingerprinter: c.Fingerprinter(),
		Filter:        filter,
		MaxVariants:   c.MaxVariants,
		Settings: session.Settings{
			Verbose:   c.Verbose,
			Redaction: pipeline,
		},
		Logger: log,
	}, nil
}
