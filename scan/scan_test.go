package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func resXML(pairs ...string) string {
	var b strings.Builder
	b.WriteString("<resources>\n")
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(&b, "    <string name=%q>%s</string>\n", pairs[i], pairs[i+1])
	}
	b.WriteString("</resources>\n")
	return b.String()
}

func TestWalk_SortedSlashPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b/values/s2.xml", resXML("k2", "Bye"))
	writeFile(t, root, "a/values/s1.xml", resXML("k1", "Hi"))
	writeFile(t, root, "a/values/notes.txt", "not a resource")

	var got []string
	err := Walk(root, Options{}, func(src Source) error {
		got = append(got, src.Path)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk error: %v", err)
	}
	want := []string{"a/values/s1.xml", "b/values/s2.xml"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("path %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWalk_SkipsMalformedWithWarning(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "values/good.xml", resXML("k", "v"))
	writeFile(t, root, "values/bad.xml", "<resources><string name='k'>oops</resources>")

	var warnings []string
	var seen []string
	err := Walk(root, Options{OnLog: func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}}, func(src Source) error {
		seen = append(seen, src.Path)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk error: %v", err)
	}
	if len(seen) != 1 || seen[0] != "values/good.xml" {
		t.Errorf("seen = %v, want only the good file", seen)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "bad.xml") {
		t.Errorf("warnings = %v, want one naming bad.xml", warnings)
	}
}

func TestWalk_MissingRoot(t *testing.T) {
	err := Walk(filepath.Join(t.TempDir(), "absent"), Options{}, func(Source) error { return nil })
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestWalk_CallbackErrorStops(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "values/a.xml", resXML("a", "1"))
	writeFile(t, root, "values/b.xml", resXML("b", "2"))

	calls := 0
	err := Walk(root, Options{}, func(Source) error {
		calls++
		return fmt.Errorf("stop")
	})
	if err == nil || calls != 1 {
		t.Fatalf("err=%v calls=%d, want error after first call", err, calls)
	}
}
