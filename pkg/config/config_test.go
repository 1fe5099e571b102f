package config

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/httptape/pkg/logging"
	"github.com/getmockd/httptape/pkg/redact"
	"github.com/getmockd/httptape/pkg/tape"
)

const sampleYAML = `
fixtures: ${FIXTURES_DIR:-testdata/fixtures}
format: yaml
verbose: true
maxVariants: 5
log:
  level: debug
  format: json
fingerprint:
  maxSegment: 64
capture:
  excludeHosts: ["telemetry.*"]
  includePaths: ["/api/**"]
redact:
  - cookies: true
  - hosts: ["api.example.com"]
    headers: [Authorization]
    queryParams: [token]
    jsonPaths: ["$.token"]
  - when: 'path startsWith "/admin"'
    replace:
      - from: "[0-9]{4}"
        to: "NNNN"
        regexp: true
  - urlPrefix:
      - from: "https://staging.example.com"
        to: "https://api.example.com"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile_YAML(t *testing.T) {
	cfg, err := LoadFromFile(writeFile(t, "httptape.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "testdata/fixtures", cfg.Fixtures)
	assert.Equal(t, "yaml", cfg.Format)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, 5, cfg.MaxVariants)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 64, cfg.Fingerprint.MaxSegment)
	assert.Equal(t, []string{"telemetry.*"}, cfg.Capture.ExcludeHosts)
	require.Len(t, cfg.Redact, 4)
	assert.Equal(t, []string{"$.token"}, cfg.Redact[1].JSONPaths)
	assert.True(t, cfg.Redact[2].Replace[0].Regexp)
}

func TestLoadFromFile_JSON(t *testing.T) {
	path := writeFile(t, "httptape.json", `{"fixtures": "fx", "capture": {"excludePaths": ["/health"]}}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fx", cfg.Fixtures)
	assert.Equal(t, "json", cfg.Format, "defaults survive decoding")
	assert.Equal(t, []string{"/health"}, cfg.Capture.ExcludePaths)
	assert.Nil(t, cfg.Redact)
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	t.Setenv("FIXTURES_DIR", "from-env")

	cfg, err := LoadFromFile(writeFile(t, "httptape.yaml", sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Fixtures)
}

func TestLoadFromFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{"empty", "httptape.yaml", "  \n", ErrEmptyFile},
		{"bad json", "httptape.json", "{", ErrInvalidJSON},
		{"bad yaml", "httptape.yaml", "fixtures: [", ErrInvalidYAML},
		{"unknown format", "httptape.yaml", "format: toml", ErrInvalidConfig},
		{"unknown field", "httptape.json", `{"fixture": "x"}`, ErrInvalidConfig},
		{"bad level", "httptape.yaml", "log:\n  level: loud", ErrInvalidConfig},
		{"empty rule", "httptape.yaml", "redact:\n  - {}", ErrInvalidConfig},
		{"replace without to", "httptape.yaml", "redact:\n  - replace:\n      - from: x", ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = LoadFromFile(t.TempDir())
	assert.Error(t, err)
}

func TestSchemaErrorNamesField(t *testing.T) {
	_, err := ParseYAML([]byte("maxVariants: 0\nlog:\n  format: xml\n"))
	require.Error(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	var paths []string
	for _, issue := range schemaErr.Issues {
		paths = append(paths, issue.Path)
	}
	assert.Contains(t, paths, "log.format")
	assert.Contains(t, paths, "maxVariants")
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestValidateDocumentNumbers(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		valid bool
	}{
		{"in range", `{"maxVariants": 5, "fingerprint": {"maxSegment": 64}}`, true},
		{"below minimum", `{"maxVariants": 0}`, false},
		{"above maximum", `{"maxVariants": 10000}`, false},
		{"not an integer", `{"maxVariants": 1.5}`, false},
		{"segment too short", `{"fingerprint": {"maxSegment": 10}}`, false},
		{"unknown key", `{"fixture": "x"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument([]byte(tt.doc))
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			var schemaErr *SchemaError
			assert.ErrorAs(t, err, &schemaErr)
		})
	}

	err := ValidateDocument([]byte(`{"maxVariants":`))
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()

	path, err := Discover(dir)
	require.NoError(t, err)
	assert.Empty(t, path)

	want := filepath.Join(dir, "httptape.yml")
	require.NoError(t, os.WriteFile(want, []byte("verbose: true\n"), 0o644))
	path, err = Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, want, path)

	t.Setenv(EnvConfig, filepath.Join(dir, "nope.yaml"))
	_, err = Discover(dir)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("HTTPTAPE_TEST_SET", "value")

	tests := []struct {
		input string
		want  string
	}{
		{"${HTTPTAPE_TEST_SET}", "value"},
		{"${HTTPTAPE_TEST_UNSET}", ""},
		{"${HTTPTAPE_TEST_UNSET:-fallback}", "fallback"},
		{"${HTTPTAPE_TEST_SET:-fallback}", "value"},
		{"plain $HOME", "plain $HOME"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandEnvVars(tt.input))
		})
	}
}

func TestBuilders(t *testing.T) {
	cfg, err := ParseYAML([]byte(sampleYAML))
	require.NoError(t, err)

	codec, err := cfg.Codec()
	require.NoError(t, err)
	assert.Equal(t, ".yaml", codec.Ext())

	filter, err := cfg.Filter()
	require.NoError(t, err)
	require.NotNil(t, filter)
	assert.False(t, filter.ShouldRecord("telemetry.example", "/api/x"))
	assert.True(t, filter.ShouldRecord("api.example.com", "/api/x"))

	assert.Equal(t, 64, cfg.Fingerprinter().MaxSegment)

	sc, err := cfg.Session(logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"testdata/fixtures"}, sc.Stack.Entries())
	assert.Equal(t, 5, sc.MaxVariants)
	assert.True(t, sc.Settings.Verbose)
	require.NotNil(t, sc.Settings.Redaction)
	assert.Equal(t, 4, sc.Settings.Redaction.Len())
}

func TestDefaultConfigKeepsDefaultPipeline(t *testing.T) {
	p, err := Default().Pipeline()
	require.NoError(t, err)
	assert.Nil(t, p)

	filter, err := Default().Filter()
	require.NoError(t, err)
	assert.Nil(t, filter)
}

func TestRedactRules(t *testing.T) {
	cfg, err := ParseYAML([]byte(sampleYAML))
	require.NoError(t, err)
	p, err := cfg.Pipeline()
	require.NoError(t, err)

	req := tape.NewRequest(http.MethodGet, "https://api.example.com/admin/1234?token=abc", nil)
	req.Header.Set("Authorization", "Bearer x")
	resp := &tape.Response{
		StatusCode: 200,
		Header:     http.Header{"Set-Cookie": {"sid=1"}},
		Body:       []byte(`{"token":"t","pin":"9876"}`),
		Request:    req,
	}

	out, err := p.Apply(resp)
	require.NoError(t, err)
	assert.Equal(t, redact.Marker, out.Header.Get("Set-Cookie"))
	assert.Equal(t, redact.Marker, out.Request.Header.Get("Authorization"))
	assert.Contains(t, out.Request.URL, "token="+redact.Marker)
	assert.JSONEq(t, `{"pin":"NNNN","token":"REDACTED"}`, string(out.Body))
	assert.NotContains(t, out.Request.URL, "1234")

	// The when guard keeps the regexp away from other paths.
	other := resp.Clone()
	other.Request.URL = "https://api.example.com/public/1234"
	out, err = p.Apply(other)
	require.NoError(t, err)
	assert.Contains(t, out.Request.URL, "1234")

	// Host-limited rules skip other hosts.
	elsewhere := resp.Clone()
	elsewhere.Request.URL = "https://cdn.example.com/x"
	out, err = p.Apply(elsewhere)
	require.NoError(t, err)
	assert.Equal(t, "Bearer x", out.Request.Header.Get("Authorization"))
}

func TestRedactRuleErrors(t *testing.T) {
	tests := []struct {
		name string
		rule RedactRule
	}{
		{"bad regexp", RedactRule{Replace: []Replacement{{From: "(", To: "", Regexp: true}}}},
		{"bad json path", RedactRule{JSONPaths: []string{"$[?"}}},
		{"bad host glob", RedactRule{Hosts: []string{"[x"}, Cookies: true}},
		{"bad expression", RedactRule{When: "path +", Cookies: true}},
		{"unknown name", RedactRule{When: `Path startsWith "/admin"`, Cookies: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.rule.Redactor()
			assert.Error(t, err)
		})
	}
}

func TestLoggerMirror(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Log.File = filepath.Join(dir, "httptape.log")

	var out bytes.Buffer
	log, closer, err := cfg.Logger(&out)
	require.NoError(t, err)
	log.Info("session started")
	require.NoError(t, closer.Close())

	assert.Contains(t, out.String(), "session started")
	data, err := os.ReadFile(cfg.Log.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"session started"`)
}
