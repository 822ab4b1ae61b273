// Package locale implements locale tags and the locale-marker path rewrite
// used when regenerating a resource tree for a new language.
//
// A tag is a base language code plus an optional region. The Android
// directory qualifier for pt + BR is "pt-rBR" (region upper-cased,
// r-prefixed), so "res/values/strings.xml" rewrites to
// "res/values-pt-rBR/strings.xml". No locale grammar beyond "non-empty
// base" is validated.
package locale

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Marker is the directory-name prefix identifying a locale-specific
// resource folder. Any segment starting with it ("values", "values-en", …)
// is rewritten.
const Marker = "values"

// Tag is a base language code plus optional region code.
type Tag struct {
	Base   string
	Region string
}

// New builds a tag, requiring a non-empty base.
func New(base, region string) (Tag, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return Tag{}, fmt.Errorf("empty language code")
	}
	return Tag{Base: base, Region: strings.ToUpper(strings.TrimSpace(region))}, nil
}

// Parse accepts "zh", "zh-TW", and the Android form "zh-rTW".
func Parse(s string) (Tag, error) {
	base, region, found := strings.Cut(strings.TrimSpace(s), "-")
	if !found {
		return New(base, "")
	}
	if len(region) > 1 && region[0] == 'r' {
		region = region[1:]
	}
	return New(base, region)
}

// Suffix returns the directory qualifier appended after the locale marker:
// "zh" or "zh-rTW".
func (t Tag) Suffix() string {
	if t.Region == "" {
		return t.Base
	}
	return t.Base + "-r" + t.Region
}

// String returns the plain form: "zh" or "zh-TW".
func (t Tag) String() string {
	if t.Region == "" {
		return t.Base
	}
	return t.Base + "-" + t.Region
}

// DirName returns the full locale directory name, e.g. "values-zh-rTW".
func (t Tag) DirName() string {
	return Marker + "-" + t.Suffix()
}

// Rewrite derives the output path for a provenance path: every directory
// segment starting with the locale marker gets "-" + the tag suffix
// appended; the filename and all other segments pass through unchanged.
// matched reports whether any segment was rewritten — an unmatched path
// would silently collide with the source locale, so callers warn on false.
func Rewrite(relPath string, t Tag) (target string, matched bool) {
	segs := strings.Split(path.Clean(filepath.ToSlash(relPath)), "/")
	for i := 0; i < len(segs)-1; i++ {
		if strings.HasPrefix(segs[i], Marker) {
			segs[i] = segs[i] + "-" + t.Suffix()
			matched = true
		}
	}
	return strings.Join(segs, "/"), matched
}
