// Package reconstruct regenerates a per-file resource tree from a
// translated ledger plus the provenance map produced by flatten.
//
// Every (name, origin path) provenance pair is rewritten to its target
// locale path and grouped; multiple origins mapping to the same target
// merge into one output file, so names stay unique per file. A name absent
// from the translated ledger falls back to the source ledger's text and is
// counted as a missing translation; a name absent from both is skipped.
package reconstruct

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/resbundle/resbundle/locale"
	"github.com/resbundle/resbundle/provfile"
	"github.com/resbundle/resbundle/resfile"
)

// Options controls a reconstruction pass.
type Options struct {
	// OnLog receives informational messages. May be nil.
	OnLog func(format string, args ...any)
	// OnError receives warnings and write failures. Falls back to OnLog.
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

// Stats reports what a reconstruction pass did.
type Stats struct {
	// Processed counts (name, path) provenance pairs emitted.
	Processed int
	// Missing counts names absent from the translated ledger (emitted with
	// source text instead).
	Missing int
	// Skipped counts names absent from both ledgers.
	Skipped int
	// Files is the number of output files written.
	Files int
	// Unmatched counts origin paths with no locale-marker segment.
	Unmatched int
	// WriteFailures counts output files that could not be written.
	WriteFailures int
}

// Reconstruct writes the translated resource tree under outRoot. source may
// be nil, in which case names missing from the translated ledger are
// skipped rather than falling back.
//
// Missing translations are warnings; any write failure fails the whole
// reconstruction (the output archive would be inconsistent), though files
// already written remain on disk for inspection.
func Reconstruct(translated, source *resfile.File, prov *provfile.Map, tag locale.Tag, outRoot string, opts Options) (*Stats, error) {
	if translated == nil {
		return nil, fmt.Errorf("no translated ledger")
	}
	if prov == nil || prov.Len() == 0 {
		return nil, fmt.Errorf("empty provenance map")
	}

	stats := &Stats{}
	groups := make(map[string]*resfile.File)

	for _, name := range prov.Names() {
		text, ok := translated.Get(name)
		if !ok {
			stats.Missing++
			if source != nil {
				if orig, found := source.Get(name); found {
					opts.logError("no translation for %q, keeping source text", name)
					text = orig
					ok = true
				}
			}
			if !ok {
				opts.logError("no translation or source text for %q, skipping", name)
				stats.Skipped++
				continue
			}
		}

		for _, origin := range prov.Paths(name) {
			target, matched := locale.Rewrite(origin, tag)
			if !matched {
				stats.Unmatched++
				opts.logError("no %q segment in %s, keeping original path", locale.Marker, origin)
			}
			g, exists := groups[target]
			if !exists {
				g = resfile.NewFile()
				groups[target] = g
			}
			g.Add(name, text)
			stats.Processed++
		}
	}

	targets := make([]string, 0, len(groups))
	for t := range groups {
		targets = append(targets, t)
	}
	sort.Strings(targets)

	for _, target := range targets {
		outPath := filepath.Join(outRoot, filepath.FromSlash(target))
		if err := groups[target].WriteFile(outPath); err != nil {
			stats.WriteFailures++
			opts.logError("writing %s: %v", outPath, err)
			continue
		}
		stats.Files++
	}

	if stats.WriteFailures > 0 {
		return stats, fmt.Errorf("failed to write %d of %d output files", stats.WriteFailures, len(targets))
	}
	opts.log("reconstructed %d files (%d entries, %d missing translations)",
		stats.Files, stats.Processed, stats.Missing)
	return stats, nil
}
