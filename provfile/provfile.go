// Package provfile implements the provenance index: the record of which
// original resource file(s) each string key came from.
//
// On-disk format is UTF-8 plain text, one record per line:
//
//	name::relative/path
//
// sorted by name, then by path. A name may map to several paths
// (multi-origin); each record names one origin. The separator may not occur
// inside names or paths.
package provfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Separator divides name from path in each record.
const Separator = "::"

// Map records, per string key, the ordered set of relative paths where the
// key originally appeared. It is built by one flatten pass and read-only
// afterwards.
type Map struct {
	paths map[string][]string
}

// NewMap returns an empty provenance map.
func NewMap() *Map {
	return &Map{paths: make(map[string][]string)}
}

// Add records that name appeared at relPath. Duplicate (name, path) pairs
// collapse into one. The separator is rejected in both fields.
func (m *Map) Add(name, relPath string) error {
	if strings.Contains(name, Separator) {
		return fmt.Errorf("name %q contains separator %q", name, Separator)
	}
	if strings.Contains(relPath, Separator) {
		return fmt.Errorf("path %q contains separator %q", relPath, Separator)
	}
	for _, p := range m.paths[name] {
		if p == relPath {
			return nil
		}
	}
	m.paths[name] = append(m.paths[name], relPath)
	return nil
}

// Paths returns the origin paths for a name, in insertion order.
func (m *Map) Paths(name string) []string {
	return m.paths[name]
}

// Names returns all recorded names sorted lexicographically.
func (m *Map) Names() []string {
	names := make([]string, 0, len(m.paths))
	for name := range m.paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of distinct names.
func (m *Map) Len() int { return len(m.paths) }

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Save writes the index to path, sorted by name then path, creating missing
// parent directories.
func (m *Map) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	var b strings.Builder
	for _, name := range m.Names() {
		paths := append([]string(nil), m.paths[name]...)
		sort.Strings(paths)
		for _, p := range paths {
			b.WriteString(name)
			b.WriteString(Separator)
			b.WriteString(p)
			b.WriteString("\n")
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Load reads an index from path. Malformed lines are skipped with a warning
// through onLog (may be nil).
func Load(path string, onLog func(format string, args ...any)) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	m := NewMap()
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, relPath, ok := strings.Cut(line, Separator)
		if !ok || name == "" || relPath == "" {
			if onLog != nil {
				onLog("skipping malformed line %d in %s: %q", lineNo, path, line)
			}
			continue
		}
		m.paths[name] = append(m.paths[name], relPath)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return m, nil
}
