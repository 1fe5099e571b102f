package recording

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter defines include/exclude patterns for capture. Patterns use
// doublestar syntax: "*.example.com" for hosts, "/api/**" for paths.
//
// Requests the filter rejects still reach the network while capturing but
// leave no fixture, so mocking the same run fails for them with
// NoMockFoundError. Filter only traffic the mocked run will not repeat.
type Filter struct {
	IncludeHosts []string `json:"includeHosts,omitempty" yaml:"includeHosts,omitempty"` // Capture only these hosts (empty = all)
	ExcludeHosts []string `json:"excludeHosts,omitempty" yaml:"excludeHosts,omitempty"` // Never capture these hosts
	IncludePaths []string `json:"includePaths,omitempty" yaml:"includePaths,omitempty"` // Capture only if path matches (empty = all)
	ExcludePaths []string `json:"excludePaths,omitempty" yaml:"excludePaths,omitempty"` // Never capture if path matches
}

// Validate checks every pattern.
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}
	for _, group := range [][]string{f.IncludeHosts, f.ExcludeHosts, f.IncludePaths, f.ExcludePaths} {
		for _, p := range group {
			if !doublestar.ValidatePattern(p) {
				return fmt.Errorf("invalid filter pattern %q", p)
			}
		}
	}
	return nil
}

// ShouldRecord determines if a request should be captured.
// Precedence:
// 1. If matches ANY exclude pattern → NOT captured
// 2. If include patterns exist AND matches NONE → NOT captured
// 3. Otherwise → captured
//
// Hosts match case-insensitively, paths case-sensitively. A nil filter
// captures everything.
func (f *Filter) ShouldRecord(host, path string) bool {
	if f == nil {
		return true
	}
	host = strings.ToLower(host)

	if matchAny(f.ExcludeHosts, host, true) || matchAny(f.ExcludePaths, path, false) {
		return false
	}
	if len(f.IncludeHosts) > 0 && !matchAny(f.IncludeHosts, host, true) {
		return false
	}
	if len(f.IncludePaths) > 0 && !matchAny(f.IncludePaths, path, false) {
		return false
	}
	return true
}

func matchAny(patterns []string, s string, fold bool) bool {
	for _, p := range patterns {
		if fold {
			p = strings.ToLower(p)
		}
		if ok, _ := doublestar.Match(p, s); ok {
			return true
		}
	}
	return false
}
