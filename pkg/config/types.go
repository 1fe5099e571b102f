package config

import (
	"github.com/getmockd/httptape/pkg/recording"
)

// Config is the root of an httptape configuration file.
type Config struct {
	// Fixtures is the fixture root directory.
	Fixtures string `json:"fixtures,omitempty" yaml:"fixtures,omitempty"`

	// Format is the fixture format: json (default) or yaml.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// Verbose logs every written or used fixture at Info.
	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`

	// MaxVariants bounds distinct captures per fixture path.
	MaxVariants int `json:"maxVariants,omitempty" yaml:"maxVariants,omitempty"`

	Log         LogConfig         `json:"log,omitempty" yaml:"log,omitempty"`
	Fingerprint FingerprintConfig `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Capture     recording.Filter  `json:"capture,omitempty" yaml:"capture,omitempty"`

	// Redact replaces the default pipeline when present.
	Redact []RedactRule `json:"redact,omitempty" yaml:"redact,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
	// File receives a JSON copy of every log entry.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// FingerprintConfig configures fixture path generation.
type FingerprintConfig struct {
	MaxSegment int `json:"maxSegment,omitempty" yaml:"maxSegment,omitempty"`
}

// RedactRule is one group of redactions, optionally limited to some hosts
// and guarded by an expression.
type RedactRule struct {
	// When is an expr-lang condition over method, url, host, path, status
	// and headers (lowercase names).
	When string `json:"when,omitempty" yaml:"when,omitempty"`

	// Hosts limits the rule to hosts matching these globs.
	Hosts []string `json:"hosts,omitempty" yaml:"hosts,omitempty"`

	Cookies     bool          `json:"cookies,omitempty" yaml:"cookies,omitempty"`
	Headers     []string      `json:"headers,omitempty" yaml:"headers,omitempty"`
	QueryParams []string      `json:"queryParams,omitempty" yaml:"queryParams,omitempty"`
	JSONPaths   []string      `json:"jsonPaths,omitempty" yaml:"jsonPaths,omitempty"`
	Replace     []Replacement `json:"replace,omitempty" yaml:"replace,omitempty"`
	URLPrefix   []URLPrefix   `json:"urlPrefix,omitempty" yaml:"urlPrefix,omitempty"`
}

// Replacement replaces text in URLs, headers and bodies.
type Replacement struct {
	From   string `json:"from" yaml:"from"`
	To     string `json:"to" yaml:"to"`
	Regexp bool   `json:"regexp,omitempty" yaml:"regexp,omitempty"`
}

// URLPrefix rewrites a URL prefix, e.g. a staging host to a public one.
type URLPrefix struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Fixtures: "testdata/fixtures",
		Format:   "json",
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}
