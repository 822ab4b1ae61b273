// Package flatten merges every string entry discovered under an extracted
// bundle root into one ledger (name → text) plus a provenance map
// (name → origin paths).
//
// Duplicate policy: provenance is multi-origin — a name keeps every path it
// appeared in, and each origin is regenerated independently on
// reconstruction. When the same name arrives with *different* text, a
// conflict is logged naming both origin paths and the later text wins in
// the ledger.
package flatten

import (
	"fmt"

	"github.com/resbundle/resbundle/provfile"
	"github.com/resbundle/resbundle/resfile"
	"github.com/resbundle/resbundle/scan"
)

// Options controls a flatten pass.
type Options struct {
	// Ext overrides the resource file extension (default resfile.Ext).
	Ext string
	// OnLog receives informational messages and skip warnings. May be nil.
	OnLog func(format string, args ...any)
	// OnError receives conflict and skip warnings. Falls back to OnLog.
	OnError func(format string, args ...any)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
		return
	}
	o.log(format, args...)
}

// Result is the outcome of one flatten pass. Ledger and Prov are produced
// together and treated as immutable afterwards.
type Result struct {
	// Ledger maps every name to its text, keyed by name alone.
	Ledger *resfile.File
	// Prov records the origin path(s) of every name.
	Prov *provfile.Map
	// Files is the number of resource files merged.
	Files int
	// Entries is the number of (name, file) entry occurrences seen.
	Entries int
	// Conflicts counts duplicate names that arrived with differing text.
	Conflicts int
}

// Flatten walks root and builds the ledger and provenance map. The stage
// fails only when the root is absent or no resource files decode; an
// individual unreadable file is a logged skip inside the walk.
func Flatten(root string, opts Options) (*Result, error) {
	res := &Result{
		Ledger: resfile.NewFile(),
		Prov:   provfile.NewMap(),
	}
	firstOrigin := make(map[string]string)

	err := scan.Walk(root, scan.Options{Ext: opts.Ext, OnLog: opts.logError}, func(src scan.Source) error {
		res.Files++
		if src.File.Len() == 0 {
			opts.log("no entries in %s", src.Path)
			return nil
		}
		for _, e := range src.File.Entries() {
			res.Entries++
			if prev, ok := res.Ledger.Get(e.Name); ok && prev != e.Text {
				res.Conflicts++
				opts.logError("conflicting text for %q: %s differs from %s, keeping later text",
					e.Name, src.Path, firstOrigin[e.Name])
			}
			if _, ok := firstOrigin[e.Name]; !ok {
				firstOrigin[e.Name] = src.Path
			}
			res.Ledger.Add(e.Name, e.Text)
			if err := res.Prov.Add(e.Name, src.Path); err != nil {
				// Unrepresentable in the index format — recoverable skip.
				opts.logError("skipping %q from %s: %v", e.Name, src.Path, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Files == 0 {
		return nil, fmt.Errorf("no resource files found under %s", root)
	}
	return res, nil
}

// WriteLedger persists the ledger through the resource codec (entries
// sorted by name for byte-identical re-runs).
func (r *Result) WriteLedger(path string) error {
	return r.Ledger.WriteFile(path)
}

// WriteProvenance persists the provenance index (sorted by name then path).
func (r *Result) WriteProvenance(path string) error {
	return r.Prov.Save(path)
}
