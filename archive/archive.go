// Package archive provides zip extraction and creation for resource
// bundles. The pipeline only needs recursive enumeration on extract and
// plain deflate-compressed files on create.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Extract unpacks zipPath into destDir, creating it if needed. Entry names
// escaping the destination (absolute paths, "..") are rejected.
func Extract(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", zipPath, err)
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", destDir, err)
	}

	for _, f := range r.File {
		if err := extractFile(f, destDir); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, destDir string) error {
	name := filepath.FromSlash(f.Name)
	if !filepath.IsLocal(name) {
		return fmt.Errorf("archive entry %q escapes destination", f.Name)
	}
	target := filepath.Join(destDir, name)

	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		return os.MkdirAll(target, 0755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", target, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening archive entry %s: %w", f.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	return dst.Close()
}

// Create packs every file under srcDir into zipPath with slash-separated
// names relative to srcDir, deflate-compressed. Returns the number of files
// packed.
func Create(srcDir, zipPath string) (int, error) {
	if _, err := os.Stat(srcDir); err != nil {
		return 0, fmt.Errorf("source directory %s: %w", srcDir, err)
	}
	if err := os.MkdirAll(filepath.Dir(zipPath), 0755); err != nil {
		return 0, fmt.Errorf("creating directory for %s: %w", zipPath, err)
	}

	out, err := os.Create(zipPath)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", zipPath, err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	packed := 0

	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		entry, err := w.Create(filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("adding %s: %w", rel, err)
		}
		src, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		_, err = io.Copy(entry, src)
		src.Close()
		if err != nil {
			return fmt.Errorf("packing %s: %w", rel, err)
		}
		packed++
		return nil
	})
	if err != nil {
		w.Close()
		return packed, err
	}
	if err := w.Close(); err != nil {
		return packed, fmt.Errorf("finalizing %s: %w", zipPath, err)
	}
	if err := out.Close(); err != nil {
		return packed, fmt.Errorf("flushing %s: %w", zipPath, err)
	}
	return packed, nil
}
