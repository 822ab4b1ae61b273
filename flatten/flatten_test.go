package flatten

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

func TestFlatten_Scenario(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/values/s.xml", resXML("k1", "Hi"))
	writeFile(t, root, "b/values-en/s2.xml", resXML("k2", "Bye"))

	res, err := Flatten(root, Options{})
	if err != nil {
		t.Fatalf("Flatten error: %v", err)
	}
	if res.Files != 2 || res.Entries != 2 || res.Conflicts != 0 {
		t.Errorf("counts = %+v", res)
	}
	if v, _ := res.Ledger.Get("k1"); v != "Hi" {
		t.Errorf("k1 = %q", v)
	}
	if v, _ := res.Ledger.Get("k2"); v != "Bye" {
		t.Errorf("k2 = %q", v)
	}
	if p := res.Prov.Paths("k1"); len(p) != 1 || p[0] != "a/values/s.xml" {
		t.Errorf("k1 provenance = %v", p)
	}
	if p := res.Prov.Paths("k2"); len(p) != 1 || p[0] != "b/values-en/s2.xml" {
		t.Errorf("k2 provenance = %v", p)
	}
}

func TestFlatten_ConflictCountedOnce(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/values/s.xml", resXML("k", "first"))
	writeFile(t, root, "b/values/s.xml", resXML("k", "second"))

	var warnings []string
	res, err := Flatten(root, Options{OnError: func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}})
	if err != nil {
		t.Fatalf("Flatten error: %v", err)
	}
	if res.Conflicts != 1 {
		t.Errorf("Conflicts = %d, want 1", res.Conflicts)
	}
	// Later text wins; both origins kept.
	if v, _ := res.Ledger.Get("k"); v != "second" {
		t.Errorf("ledger text = %q, want %q", v, "second")
	}
	if p := res.Prov.Paths("k"); len(p) != 2 {
		t.Errorf("provenance = %v, want both origins", p)
	}
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "a/values/s.xml") && strings.Contains(w, "b/values/s.xml") {
			found = true
		}
	}
	if !found {
		t.Errorf("conflict warning should name both origins: %v", warnings)
	}
}

func TestFlatten_IdenticalDuplicateMergesSilently(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/values/s.xml", resXML("k", "same"))
	writeFile(t, root, "b/values/s.xml", resXML("k", "same"))

	res, err := Flatten(root, Options{})
	if err != nil {
		t.Fatalf("Flatten error: %v", err)
	}
	if res.Conflicts != 0 {
		t.Errorf("Conflicts = %d, want 0", res.Conflicts)
	}
	if p := res.Prov.Paths("k"); len(p) != 2 {
		t.Errorf("provenance = %v, want both origins", p)
	}
}

func TestFlatten_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/values/s.xml", resXML("k1", "Hi", "k3", "Three"))
	writeFile(t, root, "b/values/s.xml", resXML("k2", "Bye"))

	out := t.TempDir()
	run := func(n int) (string, string) {
		res, err := Flatten(root, Options{})
		if err != nil {
			t.Fatal(err)
		}
		ledger := filepath.Join(out, fmt.Sprintf("ledger%d.xml", n))
		prov := filepath.Join(out, fmt.Sprintf("mapping%d", n))
		if err := res.WriteLedger(ledger); err != nil {
			t.Fatal(err)
		}
		if err := res.WriteProvenance(prov); err != nil {
			t.Fatal(err)
		}
		l, _ := os.ReadFile(ledger)
		p, _ := os.ReadFile(prov)
		return string(l), string(p)
	}

	l1, p1 := run(1)
	l2, p2 := run(2)
	if l1 != l2 {
		t.Error("ledger output not byte-identical across runs")
	}
	if p1 != p2 {
		t.Error("provenance output not byte-identical across runs")
	}
}

func TestFlatten_MissingRoot(t *testing.T) {
	if _, err := Flatten(filepath.Join(t.TempDir(), "absent"), Options{}); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestFlatten_NoResourceFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "readme.txt", "nothing here")
	if _, err := Flatten(root, Options{}); err == nil {
		t.Fatal("expected error when no resource files are found")
	}
}
