package recording

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/getmockd/httptape/pkg/tape"
)

// FixtureGlob matches every fixture file below a root.
const FixtureGlob = "**/*.{json,yaml,yml}"

// FixtureInfo describes a fixture file found on disk.
type FixtureInfo struct {
	// Path is the file path, including the scanned root.
	Path string `json:"path"`
	// Rel is the path relative to the scanned root, slash-separated.
	Rel  string `json:"rel"`
	Size int64  `json:"size"`

	Method     string `json:"method,omitempty"`
	URL        string `json:"url,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
}

// Layer is one integer-named layer of a vignette tree.
type Layer struct {
	Index    int    `json:"index"`
	Path     string `json:"path"`
	Fixtures int    `json:"fixtures"`
}

// LoadFile reads and decodes one fixture, picking the codec by extension.
func LoadFile(path string) (*Fixture, error) {
	codec, ok := CodecForPath(path)
	if !ok {
		return nil, &tape.FilesystemError{Op: "decode", Path: path, Err: ErrUnknownFormat}
	}
	return loadWith(codec, path)
}

func loadWith(codec Codec, path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &tape.FilesystemError{Op: "read", Path: path, Err: err}
	}
	fx, err := codec.Unmarshal(data)
	if err != nil {
		return nil, &tape.FilesystemError{Op: "decode", Path: path, Err: err}
	}
	return fx, nil
}

// Scan lists every fixture below dir, sorted by path. Files that fail to
// decode are listed without request details.
func Scan(dir string) ([]FixtureInfo, error) {
	var out []FixtureInfo
	err := doublestar.GlobWalk(os.DirFS(dir), FixtureGlob, func(rel string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		info := FixtureInfo{
			Path: filepath.Join(dir, filepath.FromSlash(rel)),
			Rel:  rel,
		}
		if st, err := d.Info(); err == nil {
			info.Size = st.Size()
		}
		if fx, err := LoadFile(info.Path); err == nil {
			info.Method = fx.Request.Method
			info.URL = fx.Request.URL
			info.StatusCode = fx.Response.StatusCode
		}
		out = append(out, info)
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Rel < out[j].Rel })
	return out, nil
}

// CountFixtures counts fixture files below dir.
func CountFixtures(dir string) int {
	count := 0
	_ = doublestar.GlobWalk(os.DirFS(dir), FixtureGlob, func(_ string, d fs.DirEntry) error {
		if !d.IsDir() {
			count++
		}
		return nil
	})
	return count
}

// HasFiles reports whether dir contains at least one regular file at any
// depth. A missing directory has none.
func HasFiles(dir string) bool {
	found := false
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // unreadable entries do not count
		}
		if d.Type().IsRegular() {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found
}

// ListLayers lists the integer-named layer directories of a vignette root in
// layer order.
func ListLayers(root string) ([]Layer, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read vignette directory: %w", err)
	}

	var layers []Layer
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := strconv.Atoi(e.Name())
		if err != nil || n < 0 {
			continue
		}
		path := filepath.Join(root, e.Name())
		layers = append(layers, Layer{
			Index:    n,
			Path:     path,
			Fixtures: CountFixtures(path),
		})
	}

	sort.Slice(layers, func(i, j int) bool { return layers[i].Index < layers[j].Index })
	return layers, nil
}
