// Package scan discovers resource files under an extracted bundle root.
//
// Traversal order is deterministic: matching paths are collected and sorted
// lexicographically before decoding. Files that fail to decode are skipped
// with a warning through the injected log callback — an individual bad file
// never aborts the walk.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/resbundle/resbundle/resfile"
)

// Source is one discovered resource file.
type Source struct {
	// Path is the file's path relative to the walk root, slash-separated.
	Path string
	// File holds the decoded entries.
	File *resfile.File
}

// Options controls a walk.
type Options struct {
	// Ext is the resource file extension (default resfile.Ext).
	Ext string
	// OnLog receives warnings about skipped files. May be nil.
	OnLog func(format string, args ...any)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) ext() string {
	if o.Ext != "" {
		return o.Ext
	}
	return resfile.Ext
}

// Walk decodes every resource file under root in sorted path order and
// passes it to fn. A non-nil error from fn stops the walk and is returned.
// A missing root is an error; an undecodable file is a logged skip.
func Walk(root string, opts Options, fn func(Source) error) error {
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("resource root %s: %w", root, err)
	}

	paths, err := findResourceFiles(root, opts.ext())
	if err != nil {
		return err
	}

	for _, path := range paths {
		f, err := resfile.ParseFile(path)
		if err != nil {
			opts.log("skipping %s: %v", path, err)
			continue
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relativizing %s: %w", path, err)
		}
		if err := fn(Source{Path: filepath.ToSlash(rel), File: f}); err != nil {
			return err
		}
	}
	return nil
}

// findResourceFiles collects all files with the given extension under root,
// sorted for reproducible traversal.
func findResourceFiles(root, ext string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ext) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}
