// Package lockfile implements resbundle.lock — a lock file that tracks MD5
// checksums of source ledger texts per target language. This enables
// incremental translation: a re-run reuses the previous translated ledger
// for every key whose source text is unchanged and only sends new or
// changed keys to the translation service.
//
// The lock file lives in the work directory next to the ledgers.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "resbundle.lock"

// Version is the lock file format version.
const Version = 1

// LockFile maps target language → key → md5 of the source text that was
// translated for that key.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"`

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// Load reads the lock file from dir, returning an empty lock when the file
// doesn't exist yet.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}
	return lf, nil
}

// Save writes the lock file back to where it was loaded from.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshalling lock file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lf.path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", lf.path, err)
	}
	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}
	return nil
}

// Checksum returns the md5 hex digest of a source text.
func Checksum(text string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(text)))
}

// IsChanged reports whether the source text for key differs from what was
// last translated for target. Unknown keys count as changed.
func (lf *LockFile) IsChanged(target, key, text string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	keys, ok := lf.Checksums[target]
	if !ok {
		return true
	}
	sum, ok := keys[key]
	return !ok || sum != Checksum(text)
}

// Update records that key's source text was translated for target.
func (lf *LockFile) Update(target, key, text string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[target] == nil {
		lf.Checksums[target] = make(map[string]string)
	}
	lf.Checksums[target][key] = Checksum(text)
}

// Prune drops recorded keys for target that are no longer in keep.
func (lf *LockFile) Prune(target string, keep map[string]bool) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	for key := range lf.Checksums[target] {
		if !keep[key] {
			delete(lf.Checksums[target], key)
		}
	}
}
