package reconstruct

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/resbundle/resbundle/flatten"
	"github.com/resbundle/resbundle/locale"
	"github.com/resbundle/resbundle/provfile"
	"github.com/resbundle/resbundle/resfile"
)

func ledger(pairs ...string) *resfile.File {
	f := resfile.NewFile()
	for i := 0; i+1 < len(pairs); i += 2 {
		f.Add(pairs[i], pairs[i+1])
	}
	return f
}

func prov(t *testing.T, records ...string) *provfile.Map {
	t.Helper()
	m := provfile.NewMap()
	for i := 0; i+1 < len(records); i += 2 {
		if err := m.Add(records[i], records[i+1]); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func mustParse(t *testing.T, path string) *resfile.File {
	t.Helper()
	f, err := resfile.ParseFile(path)
	if err != nil {
		t.Fatalf("parsing %s: %v", path, err)
	}
	return f
}

func TestReconstruct_Scenario(t *testing.T) {
	translated := ledger("k1", "你好", "k2", "再見")
	p := prov(t, "k1", "a/values/s.xml", "k2", "b/values-en/s2.xml")
	tag, _ := locale.Parse("zh-rCN")
	out := t.TempDir()

	stats, err := Reconstruct(translated, nil, p, tag, out, Options{})
	if err != nil {
		t.Fatalf("Reconstruct error: %v", err)
	}
	if stats.Processed != 2 || stats.Missing != 0 || stats.Files != 2 {
		t.Errorf("stats = %+v", stats)
	}

	f1 := mustParse(t, filepath.Join(out, "a", "values-zh-rCN", "s.xml"))
	if v, _ := f1.Get("k1"); v != "你好" {
		t.Errorf("k1 = %q", v)
	}
	f2 := mustParse(t, filepath.Join(out, "b", "values-en-zh-rCN", "s2.xml"))
	if v, _ := f2.Get("k2"); v != "再見" {
		t.Errorf("k2 = %q", v)
	}
}

func TestReconstruct_MissingTranslationFallsBack(t *testing.T) {
	translated := ledger("k1", "你好")
	source := ledger("k1", "Hi", "k2", "Bye")
	p := prov(t, "k1", "a/values/s.xml", "k2", "a/values/s.xml")
	tag, _ := locale.Parse("fr")
	out := t.TempDir()

	var warnings []string
	stats, err := Reconstruct(translated, source, p, tag, out, Options{
		OnError: func(format string, args ...any) {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		},
	})
	if err != nil {
		t.Fatalf("Reconstruct error: %v", err)
	}
	if stats.Missing != 1 {
		t.Errorf("Missing = %d, want 1", stats.Missing)
	}

	f := mustParse(t, filepath.Join(out, "a", "values-fr", "s.xml"))
	if v, _ := f.Get("k2"); v != "Bye" {
		t.Errorf("k2 fallback = %q, want source text", v)
	}
	if len(warnings) == 0 {
		t.Error("expected a missing-translation warning")
	}
}

func TestReconstruct_SkipsWhenNoSourceEither(t *testing.T) {
	translated := ledger("k1", "你好")
	p := prov(t, "k1", "a/values/s.xml", "k2", "a/values/s.xml")
	tag, _ := locale.Parse("fr")
	out := t.TempDir()

	stats, err := Reconstruct(translated, nil, p, tag, out, Options{})
	if err != nil {
		t.Fatalf("Reconstruct error: %v", err)
	}
	if stats.Missing != 1 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want one missing and one skipped", stats)
	}
	f := mustParse(t, filepath.Join(out, "a", "values-fr", "s.xml"))
	if f.Has("k2") {
		t.Error("skipped entry was emitted")
	}
}

func TestReconstruct_MergesSameTarget(t *testing.T) {
	// Two origins rewrite to the same target file; entries merge, names
	// stay unique per file.
	translated := ledger("k1", "one", "k2", "two")
	p := prov(t, "k1", "res/values/a.xml", "k2", "res/values/a.xml")
	tag, _ := locale.Parse("de")
	out := t.TempDir()

	stats, err := Reconstruct(translated, nil, p, tag, out, Options{})
	if err != nil {
		t.Fatalf("Reconstruct error: %v", err)
	}
	if stats.Files != 1 {
		t.Errorf("Files = %d, want 1 merged file", stats.Files)
	}
	data, err := os.ReadFile(filepath.Join(out, "res", "values-de", "a.xml"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(data), `name="k1"`) != 1 || strings.Count(string(data), `name="k2"`) != 1 {
		t.Errorf("entries duplicated or lost:\n%s", data)
	}
}

func TestReconstruct_UnmatchedMarkerWarns(t *testing.T) {
	translated := ledger("k", "v")
	p := prov(t, "k", "res/layout/x.xml")
	tag, _ := locale.Parse("fr")
	out := t.TempDir()

	var warnings []string
	stats, err := Reconstruct(translated, nil, p, tag, out, Options{
		OnError: func(format string, args ...any) {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		},
	})
	if err != nil {
		t.Fatalf("Reconstruct error: %v", err)
	}
	if stats.Unmatched != 1 {
		t.Errorf("Unmatched = %d, want 1", stats.Unmatched)
	}
	if _, err := os.Stat(filepath.Join(out, "res", "layout", "x.xml")); err != nil {
		t.Errorf("file should be written at unchanged path: %v", err)
	}
	if len(warnings) == 0 {
		t.Error("expected an unmatched-marker warning")
	}
}

func TestReconstruct_MultiOriginEmitsEachPath(t *testing.T) {
	translated := ledger("k", "v")
	p := prov(t, "k", "a/values/s.xml")
	if err := p.Add("k", "b/values/s.xml"); err != nil {
		t.Fatal(err)
	}
	tag, _ := locale.Parse("fr")
	out := t.TempDir()

	stats, err := Reconstruct(translated, nil, p, tag, out, Options{})
	if err != nil {
		t.Fatalf("Reconstruct error: %v", err)
	}
	if stats.Processed != 2 || stats.Files != 2 {
		t.Errorf("stats = %+v, want both origins regenerated", stats)
	}
}

func TestReconstruct_EmptyProvenance(t *testing.T) {
	tag, _ := locale.Parse("fr")
	if _, err := Reconstruct(ledger("k", "v"), nil, provfile.NewMap(), tag, t.TempDir(), Options{}); err == nil {
		t.Fatal("expected error for empty provenance map")
	}
}

// ---------------------------------------------------------------------------
// Round trip: flatten → reconstruct restores every text at rewritten paths
// ---------------------------------------------------------------------------

func TestRoundTrip(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"a/values/s.xml": "<resources>\n    <string name=\"k1\">Hi</string>\n    <string name=\"k3\">Tom &amp; Jerry</string>\n</resources>",
		"b/values/t.xml": "<resources>\n    <string name=\"k2\">Bye</string>\n</resources>",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	res, err := flatten.Flatten(root, flatten.Options{})
	if err != nil {
		t.Fatalf("Flatten error: %v", err)
	}

	tag, _ := locale.Parse("fr")
	out := t.TempDir()
	// Identity "translation": reconstruct from the source ledger itself.
	if _, err := Reconstruct(res.Ledger, nil, res.Prov, tag, out, Options{}); err != nil {
		t.Fatalf("Reconstruct error: %v", err)
	}

	checks := map[string]map[string]string{
		"a/values-fr/s.xml": {"k1": "Hi", "k3": "Tom & Jerry"},
		"b/values-fr/t.xml": {"k2": "Bye"},
	}
	for rel, want := range checks {
		f := mustParse(t, filepath.Join(out, filepath.FromSlash(rel)))
		for name, text := range want {
			if got, _ := f.Get(name); got != text {
				t.Errorf("%s %s = %q, want %q", rel, name, got, text)
			}
		}
	}
}
