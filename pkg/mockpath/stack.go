// Package mockpath implements the ordered stack of fixture roots that
// capture writes to and replay searches.
//
// Index 0 is the highest priority entry. Capture always writes under the top
// entry; replay searches every entry from the top down, so a freshly layered
// entry masks older recordings while leaving them available as fallbacks.
package mockpath

import (
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/getmockd/httptape/pkg/tape"
)

// Stack is an ordered list of fixture roots. It is safe for concurrent use.
type Stack struct {
	mu      sync.RWMutex
	entries []string
}

// NewStack creates a stack with the given entries, highest priority first.
func NewStack(entries ...string) *Stack {
	s := &Stack{}
	s.Restore(entries)
	return s
}

// Current returns the top entry, or "" when the stack is empty.
func (s *Stack) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return ""
	}
	return s.entries[0]
}

// Entries returns a copy of the stack, highest priority first.
func (s *Stack) Entries() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *Stack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Set replaces the whole stack with a single entry.
func (s *Stack) Set(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = []string{clean(entry)}
}

// Layer pushes entry on top, keeping the existing entries as fallbacks.
func (s *Stack) Layer(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]string{clean(entry)}, s.entries...)
}

// LayerNext pushes the next integer layer after the current top entry: a top
// of "demo/0" pushes "demo/1". It returns an *tape.InvalidLayerError when the
// top entry does not end in an integer segment.
func (s *Stack) LayerNext() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return "", &tape.InvalidLayerError{}
	}
	top := s.entries[0]

	n, err := strconv.Atoi(filepath.Base(top))
	if err != nil || n < 0 {
		return "", &tape.InvalidLayerError{Entry: top}
	}

	next := filepath.Join(filepath.Dir(top), strconv.Itoa(n+1))
	s.entries = append([]string{next}, s.entries...)
	return next, nil
}

// Snapshot returns the stack for a later Restore.
func (s *Stack) Snapshot() []string {
	return s.Entries()
}

// Restore replaces the stack with a snapshot.
func (s *Stack) Restore(entries []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]string, 0, len(entries))
	for _, e := range entries {
		s.entries = append(s.entries, clean(e))
	}
}

// Candidates lists every file to try for the relative fingerprint rel, in
// search order: entries top to bottom, and for each entry the extensions in
// the given order.
func (s *Stack) Candidates(rel string, exts []string) []string {
	entries := s.Entries()
	out := make([]string, 0, len(entries)*len(exts))
	for _, entry := range entries {
		for _, ext := range exts {
			out = append(out, FixturePath(entry, rel, ext))
		}
	}
	return out
}

// VignetteRoot returns the first layer of a vignette rooted at root.
func VignetteRoot(root string) string {
	return filepath.Join(root, "0")
}

// FixturePath joins a stack entry, a slash-separated fingerprint and an
// extension into a file path.
func FixturePath(entry, rel, ext string) string {
	return filepath.Join(entry, filepath.FromSlash(path.Clean(rel))) + ext
}

func clean(entry string) string {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return "."
	}
	return filepath.Clean(entry)
}
