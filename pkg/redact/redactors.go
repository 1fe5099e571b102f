package redact

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/getmockd/httptape/pkg/tape"
)

// RedactCookies replaces the value of every Set-Cookie style header with
// Marker. Header names are matched case-insensitively.
func RedactCookies(resp *tape.Response) (*tape.Response, error) {
	for name, values := range resp.Header {
		if !strings.HasPrefix(strings.ToLower(name), "set-cookie") {
			continue
		}
		for i := range values {
			values[i] = Marker
		}
	}
	return resp, nil
}

// RedactHeaders replaces the named headers with Marker on the response and on
// the echoed request.
func RedactHeaders(names ...string) Redactor {
	return func(resp *tape.Response) (*tape.Response, error) {
		redactHeader(resp.Header, names)
		if resp.Request != nil {
			redactHeader(resp.Request.Header, names)
		}
		return resp, nil
	}
}

func redactHeader(h http.Header, names []string) {
	for key, values := range h {
		for _, name := range names {
			if strings.EqualFold(key, name) {
				for i := range values {
					values[i] = Marker
				}
				break
			}
		}
	}
}

// ReplaceString replaces every occurrence of old with replacement in the
// request URL, header values and bodies.
func ReplaceString(old, replacement string) Redactor {
	return func(resp *tape.Response) (*tape.Response, error) {
		if old == "" {
			return resp, nil
		}
		rewrite(resp, func(s string) string {
			return strings.ReplaceAll(s, old, replacement)
		})
		return resp, nil
	}
}

// ReplaceRegexp is ReplaceString for a regular expression; repl may use
// $1-style references.
func ReplaceRegexp(re *regexp.Regexp, repl string) Redactor {
	return func(resp *tape.Response) (*tape.Response, error) {
		rewrite(resp, func(s string) string {
			return re.ReplaceAllString(s, repl)
		})
		return resp, nil
	}
}

// RewriteURLPrefix shortens URLs: a request URL starting with from has that
// prefix replaced by to, and occurrences of from in headers and bodies are
// rewritten the same way.
func RewriteURLPrefix(from, to string) Redactor {
	return func(resp *tape.Response) (*tape.Response, error) {
		if from == "" {
			return resp, nil
		}
		if req := resp.Request; req != nil && strings.HasPrefix(req.URL, from) {
			req.URL = to + strings.TrimPrefix(req.URL, from)
		}
		replace := func(s string) string { return strings.ReplaceAll(s, from, to) }
		rewriteHeaders(resp.Header, replace)
		resp.Body = rewriteBytes(resp.Body, replace)
		return resp, nil
	}
}

// RedactQueryParams replaces the values of the named query parameters in the
// echoed request URL with Marker. Because the URL changes, so does the
// fixture path: requests differing only in these values share one fixture.
func RedactQueryParams(names ...string) Redactor {
	return func(resp *tape.Response) (*tape.Response, error) {
		req := resp.Request
		if req == nil {
			return resp, nil
		}
		u, err := url.Parse(req.URL)
		if err != nil || u.RawQuery == "" {
			return resp, nil
		}
		q := u.Query()
		changed := false
		for _, name := range names {
			if vals, ok := q[name]; ok {
				for i := range vals {
					vals[i] = Marker
				}
				changed = true
			}
		}
		if changed {
			u.RawQuery = q.Encode()
			req.URL = u.String()
		}
		return resp, nil
	}
}

// RedactJSONPaths replaces every value matched by the JSONPath expressions in
// a JSON response body with Marker. Non-JSON bodies pass through untouched.
func RedactJSONPaths(paths ...string) (Redactor, error) {
	exprs := make([]jp.Expr, 0, len(paths))
	for _, p := range paths {
		x, err := jp.ParseString(p)
		if err != nil {
			return nil, fmt.Errorf("invalid JSONPath %q: %w", p, err)
		}
		exprs = append(exprs, x)
	}

	return func(resp *tape.Response) (*tape.Response, error) {
		if len(resp.Body) == 0 {
			return resp, nil
		}
		data, err := oj.Parse(resp.Body)
		if err != nil {
			return resp, nil
		}
		changed := false
		for _, x := range exprs {
			data, err = x.Modify(data, func(element any) (any, bool) {
				changed = true
				return Marker, true
			})
			if err != nil {
				return nil, fmt.Errorf("redacting %s: %w", x, err)
			}
		}
		if changed {
			resp.Body = []byte(oj.JSON(data, &oj.Options{Sort: true}))
		}
		return resp, nil
	}, nil
}

// OnHosts runs r only for requests whose host matches one of the doublestar
// patterns (for example "*.example.com").
func OnHosts(patterns []string, r Redactor) (Redactor, error) {
	lowered := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(p)
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid host pattern %q", p)
		}
		lowered = append(lowered, p)
	}

	return func(resp *tape.Response) (*tape.Response, error) {
		if resp.Request == nil {
			return resp, nil
		}
		host := resp.Request.Host()
		for _, p := range lowered {
			if ok, _ := doublestar.Match(p, host); ok {
				return r(resp)
			}
		}
		return resp, nil
	}, nil
}

func rewrite(resp *tape.Response, fn func(string) string) {
	rewriteHeaders(resp.Header, fn)
	resp.Body = rewriteBytes(resp.Body, fn)
	if req := resp.Request; req != nil {
		req.URL = fn(req.URL)
		rewriteHeaders(req.Header, fn)
		req.Body = rewriteBytes(req.Body, fn)
	}
}

func rewriteHeaders(h http.Header, fn func(string) string) {
	for _, values := range h {
		for i, v := range values {
			values[i] = fn(v)
		}
	}
}

func rewriteBytes(b []byte, fn func(string) string) []byte {
	if len(b) == 0 {
		return b
	}
	return []byte(fn(string(b)))
}
