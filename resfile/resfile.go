// Package resfile implements reading and writing of Android-style
// string-resource XML files (<resources> with <string name="…"> children).
//
// Parsing preserves embedded markup: a value with inline child elements
// such as <b> or <xliff:g> is captured as a well-formed XML fragment —
// tags reconstructed, character data and attribute values kept escaped —
// while a plain value is captured decoded. CDATA sections are unwrapped.
// Only leading and trailing whitespace of a value is trimmed.
//
// Marshal output is deterministic: entries are emitted sorted by name, one
// per line, escaped so that Parse(Marshal(f)) yields the same values.
package resfile

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Ext is the file extension of resource files handled by this codec.
const Ext = ".xml"

// Entry is a single key/value string record.
type Entry struct {
	// Name is the resource key (attribute name="…"), unique within a file.
	Name string
	// Text is the string value. May be empty.
	Text string
}

// File is an ordered set of entries parsed from, or destined for, one
// resource file.
type File struct {
	entries []*Entry
	byName  map[string]int
}

// NewFile returns an empty resource file.
func NewFile() *File {
	return &File{byName: make(map[string]int)}
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses a resource file from disk.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// Parse parses resource XML data. Only <string> elements directly under
// <resources> are collected; everything else is skipped. A duplicate name
// within one file replaces the text of the earlier entry, keeping names
// unique per file.
func Parse(data []byte) (*File, error) {
	f := NewFile()

	dec := xml.NewDecoder(strings.NewReader(string(data)))
	inResources := false

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			// Syntax error anywhere in the document poisons the whole file —
			// callers treat it as "skip this file".
			return nil, fmt.Errorf("malformed resource XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "resources" {
				inResources = true
				continue
			}
			if !inResources {
				continue
			}
			if t.Name.Local != "string" {
				dec.Skip()
				continue
			}

			var name string
			for _, attr := range t.Attr {
				if attr.Name.Local == "name" {
					name = attr.Value
					break
				}
			}

			inner, err := readElementContent(dec)
			if err != nil {
				return nil, fmt.Errorf("reading <string name=%q>: %w", name, err)
			}
			if name == "" {
				continue
			}
			f.Add(name, strings.TrimSpace(inner))

		case xml.EndElement:
			if t.Name.Local == "resources" {
				inResources = false
			}
		}
	}

	return f, nil
}

// readElementContent reads the full inner content of an XML element until
// its matching close tag. When the content carries inline child elements
// (e.g., <xliff:g>, <b>) the result is a well-formed XML fragment — tags
// reconstructed, character data and attribute values re-escaped — so
// markup survives the round trip. Plain content is returned decoded.
// CDATA sections (surfaced as xml.CharData by encoding/xml) are unwrapped.
func readElementContent(dec *xml.Decoder) (string, error) {
	var plain, raw strings.Builder
	markup := false
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			plain.WriteString(string(t))
			raw.WriteString(escapeText(string(t)))
		case xml.Comment, xml.ProcInst:
			// skipped inside values
		case xml.StartElement:
			markup = true
			depth++
			raw.WriteString("<")
			if t.Name.Space != "" {
				raw.WriteString(t.Name.Space)
				raw.WriteString(":")
			}
			raw.WriteString(t.Name.Local)
			for _, attr := range t.Attr {
				raw.WriteString(" ")
				raw.WriteString(attr.Name.Local)
				raw.WriteString(`="`)
				raw.WriteString(escapeAttr(attr.Value))
				raw.WriteString(`"`)
			}
			raw.WriteString(">")
		case xml.EndElement:
			depth--
			if depth > 0 {
				raw.WriteString("</")
				if t.Name.Space != "" {
					raw.WriteString(t.Name.Space)
					raw.WriteString(":")
				}
				raw.WriteString(t.Name.Local)
				raw.WriteString(">")
			}
		}
	}
	if markup {
		return raw.String(), nil
	}
	return plain.String(), nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Add inserts an entry, replacing the text of an existing entry with the
// same name.
func (f *File) Add(name, text string) {
	if idx, ok := f.byName[name]; ok {
		f.entries[idx].Text = text
		return
	}
	f.byName[name] = len(f.entries)
	f.entries = append(f.entries, &Entry{Name: name, Text: text})
}

// Get returns the text for a name.
func (f *File) Get(name string) (string, bool) {
	idx, ok := f.byName[name]
	if !ok {
		return "", false
	}
	return f.entries[idx].Text, true
}

// Set updates the text of an existing entry. Returns false if the name is
// not present.
func (f *File) Set(name, text string) bool {
	idx, ok := f.byName[name]
	if !ok {
		return false
	}
	f.entries[idx].Text = text
	return true
}

// Has reports whether a name is present.
func (f *File) Has(name string) bool {
	_, ok := f.byName[name]
	return ok
}

// Len returns the number of entries.
func (f *File) Len() int { return len(f.entries) }

// Names returns all entry names sorted lexicographically.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

// Entries returns the entries in document order. The returned slice is
// shared with the file; callers must not reorder it.
func (f *File) Entries() []*Entry { return f.entries }

// Clone returns a deep copy of the file.
func (f *File) Clone() *File {
	c := NewFile()
	for _, e := range f.entries {
		c.Add(e.Name, e.Text)
	}
	return c
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Marshal produces deterministic resource XML: entries sorted by name, one
// <string> element per line.
func (f *File) Marshal() []byte {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	b.WriteString("<resources>\n")
	for _, name := range f.Names() {
		text, _ := f.Get(name)
		b.WriteString(fmt.Sprintf("    <string name=\"%s\">%s</string>\n", name, escapeValue(text)))
	}
	b.WriteString("</resources>\n")
	return []byte(b.String())
}

// WriteFile writes the marshalled file to disk, creating missing parent
// directories first.
func (f *File) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, f.Marshal(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// escapeValue encodes a value for XML element content. Values captured
// with inline markup are well-formed XML fragments (readElementContent
// keeps their character data escaped) and pass through verbatim so tags
// like <xliff:g id="…"> survive; everything else gets standard escaping.
func escapeValue(s string) string {
	if isMarkupFragment(s) {
		return s
	}
	return escapeText(s)
}

// isMarkupFragment reports whether s is well-formed XML content containing
// at least one element. Decoded plain text that merely mentions angle
// brackets ("a < b") fails the parse and gets escaped instead.
func isMarkupFragment(s string) bool {
	if !strings.Contains(s, "<") {
		return false
	}
	dec := xml.NewDecoder(strings.NewReader("<v>" + s + "</v>"))
	elems := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return elems > 1
			}
			return false
		}
		if _, ok := tok.(xml.StartElement); ok {
			elems++
		}
	}
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func escapeAttr(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
