// Package fixture provides canned response payloads for stubbed calls.
package fixture

import (
	"path"
	"strings"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Source loads a fixture payload by name. ok is false when the fixture does
// not exist.
type Source interface {
	Load(name string) (payload []byte, ok bool)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(name string) ([]byte, bool)

func (f SourceFunc) Load(name string) ([]byte, bool) { return f(name) }

// DefaultExtension is appended to fixture names that carry none.
const DefaultExtension = ".json"

// FS serves fixtures from a directory on an afero file system.
type FS struct {
	fs  afero.Fs
	dir string
	ext string
}

// NewFS returns a Source resolving name to dir/name+ext. An empty ext
// defaults to DefaultExtension; names that already have an extension are
// used as is.
func NewFS(fs afero.Fs, dir, ext string) *FS {
	if ext == "" {
		ext = DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &FS{fs: fs, dir: dir, ext: ext}
}

// NewDir serves fixtures from dir on the OS file system.
func NewDir(dir string) *FS {
	return NewFS(afero.NewOsFs(), dir, "")
}

// Path returns the file a fixture name resolves to.
func (s *FS) Path(name string) string {
	file := name
	if path.Ext(name) == "" {
		file += s.ext
	}
	return path.Join(s.dir, file)
}

// Load reads the fixture. Names escaping the fixture directory are rejected.
// YAML fixtures (.yaml, .yml) are served as JSON; one that does not convert
// counts as missing.
func (s *FS) Load(name string) ([]byte, bool) {
	if name == "" || strings.Contains(name, "..") {
		return nil, false
	}
	p := s.Path(name)
	b, err := afero.ReadFile(s.fs, p)
	if err != nil {
		return nil, false
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		if b, err = yaml.YAMLToJSON(b); err != nil {
			return nil, false
		}
	}
	return b, true
}

// Map is an in-memory Source.
type Map map[string][]byte

func (m Map) Load(name string) ([]byte, bool) {
	b, ok := m[name]
	return b, ok
}

// Chain tries each source in order.
func Chain(sources ...Source) Source {
	return SourceFunc(func(name string) ([]byte, bool) {
		for _, s := range sources {
			if b, ok := s.Load(name); ok {
				return b, true
			}
		}
		return nil, false
	})
}

// None is a Source without fixtures.
var None Source = Map(nil)
