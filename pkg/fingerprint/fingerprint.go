// Package fingerprint maps a request to the relative path of its fixture.
//
// A fingerprint is a slash-separated path built from the request host and
// URL path segments. Query parameters and (for methods that carry one) the
// request body are folded into a short hash suffix on the file stem, and any
// method other than GET is appended as "-METHOD":
//
//	GET  http://api.test/items              -> api.test/items
//	GET  http://api.test/items?page=2       -> api.test/items-<hash>
//	POST http://api.test/items {"name":"x"} -> api.test/items-<hash>-POST
//	GET  http://api.test/                   -> api.test/index
//
// The returned path has no extension; the fixture codec adds one.
// Fingerprinting never fails.
package fingerprint

import (
	"crypto/sha1" //nolint:gosec // used for short stable names, not security
	"encoding/hex"
	"mime"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ohler55/ojg/oj"
	"golang.org/x/net/idna"
	"golang.org/x/text/unicode/norm"

	"github.com/getmockd/httptape/pkg/tape"
)

const (
	// DefaultMaxSegment is the length budget, in bytes, of one path segment.
	DefaultMaxSegment = 100

	// ExtReserve is held back from the file name budget for the codec
	// extension and variant suffix.
	ExtReserve = 8

	// HashLen is the number of hex characters in a suffix hash.
	HashLen = 6

	// IndexStem names the file for an empty URL path.
	IndexStem = "index"

	// UnparsedDir holds fixtures for URLs that could not be parsed.
	UnparsedDir = "_unparsed"

	minSegment = 24
)

// Fingerprinter computes fixture paths. The zero value uses the defaults.
type Fingerprinter struct {
	// MaxSegment bounds each path segment. Values below 24 are raised to 24.
	MaxSegment int
}

// Path returns the fingerprint of req using the default Fingerprinter.
func Path(req *tape.Request) string {
	return Fingerprinter{}.Path(req)
}

// Path returns the fixture path of req, relative to a mock path root.
func (f Fingerprinter) Path(req *tape.Request) string {
	maxSeg := f.MaxSegment
	if maxSeg <= 0 {
		maxSeg = DefaultMaxSegment
	}
	if maxSeg < minSegment {
		maxSeg = minSegment
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	methodSuffix := ""
	if method != http.MethodGet {
		methodSuffix = "-" + sanitize(method)
	}

	u, err := url.Parse(req.URL)
	if err != nil || u.Host == "" {
		return UnparsedDir + "/" + hashHex(req.URL, 12) + methodSuffix
	}

	dirs := []string{f.bound(hostSegment(u), maxSeg)}

	segments := pathSegments(u)
	stem := IndexStem
	if len(segments) > 0 {
		stem = segments[len(segments)-1]
		for _, seg := range segments[:len(segments)-1] {
			dirs = append(dirs, f.bound(seg, maxSeg))
		}
	}

	params := canonicalQuery(u)
	if hasBody(method) && len(req.Body) > 0 {
		params += "\n" + canonicalBody(req)
	}

	name := stem
	if params != "" {
		name += "-" + hashHex(params, HashLen)
	}
	name += methodSuffix

	budget := maxSeg - ExtReserve
	if len(name) > budget {
		keep := budget - len(methodSuffix) - 1 - HashLen
		name = truncate(stem, keep) + "-" + hashHex(stem+"\n"+params, HashLen) + methodSuffix
	}

	return strings.Join(append(dirs, name), "/")
}

// bound shortens an oversized directory segment, folding the excess into a hash.
func (f Fingerprinter) bound(seg string, maxSeg int) string {
	if len(seg) <= maxSeg {
		return seg
	}
	return truncate(seg, maxSeg-1-HashLen) + "-" + hashHex(seg, HashLen)
}

func hostSegment(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		host = ascii
	}
	host = sanitize(host)
	if port := u.Port(); port != "" {
		host += "_" + sanitize(port)
	}
	return host
}

// pathSegments returns the cleaned, decoded and sanitized URL path segments.
func pathSegments(u *url.URL) []string {
	escaped := u.EscapedPath()
	if escaped == "" || escaped == "/" {
		return nil
	}
	cleaned := path.Clean("/" + escaped)

	var out []string
	for _, raw := range strings.Split(cleaned, "/") {
		if raw == "" {
			continue
		}
		seg, err := url.PathUnescape(raw)
		if err != nil {
			seg = raw
		}
		out = append(out, sanitize(seg))
	}
	return out
}

// canonicalQuery returns the query with keys sorted, or "". A query that
// does not parse cleanly keeps every raw pair, sorted, so no pair is lost.
func canonicalQuery(u *url.URL) string {
	if u.RawQuery == "" {
		return ""
	}
	if vals, err := url.ParseQuery(u.RawQuery); err == nil {
		return vals.Encode()
	}
	pairs := strings.Split(u.RawQuery, "&")
	sort.Strings(pairs)
	return strings.Join(pairs, "&")
}

// canonicalBody normalizes JSON and form bodies so that equivalent payloads
// share a fingerprint.
func canonicalBody(req *tape.Request) string {
	ct := ""
	if req.Header != nil {
		ct, _, _ = mime.ParseMediaType(req.Header.Get("Content-Type"))
	}

	trimmed := strings.TrimSpace(string(req.Body))
	if ct == "application/json" || strings.HasSuffix(ct, "+json") ||
		strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		if v, err := oj.Parse(req.Body); err == nil {
			return oj.JSON(v, &oj.Options{Sort: true})
		}
	}

	if ct == "application/x-www-form-urlencoded" {
		if vals, err := url.ParseQuery(string(req.Body)); err == nil {
			return vals.Encode()
		}
	}

	return string(req.Body)
}

func hasBody(method string) bool {
	return method != http.MethodGet && method != http.MethodHead
}

// sanitize replaces characters that are unsafe in file names on common
// filesystems.
func sanitize(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r), unicode.IsControl(r), unicode.IsSpace(r), r == utf8.RuneError:
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	// Windows strips trailing dots; a name made only of dots is special everywhere.
	if strings.Trim(out, ".") == "" || strings.HasSuffix(out, ".") {
		out = strings.TrimRight(out, ".") + "_"
	}
	return out
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if n < 1 {
		n = 1
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func hashHex(s string, n int) string {
	sum := sha1.Sum([]byte(s)) //nolint:gosec // naming only
	return hex.EncodeToString(sum[:])[:n]
}
