// resbundle — round-trips localized string-resource bundles: unpack an
// archive of per-locale resource files, flatten everything into one ledger,
// machine-translate it, and reconstruct an archive with the same directory
// structure for the target locale.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/resbundle/resbundle/archive"
	"github.com/resbundle/resbundle/config"
	"github.com/resbundle/resbundle/fetch"
	"github.com/resbundle/resbundle/flatten"
	"github.com/resbundle/resbundle/i18n"
	"github.com/resbundle/resbundle/langmeta"
	"github.com/resbundle/resbundle/locale"
	"github.com/resbundle/resbundle/lockfile"
	"github.com/resbundle/resbundle/provfile"
	"github.com/resbundle/resbundle/reconstruct"
	"github.com/resbundle/resbundle/resfile"
	"github.com/resbundle/resbundle/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "resbundle",
		Short: "Round-trip translator for localized string-resource bundles",
		Long: `resbundle — round-trip translator for localized string-resource bundles.

Downloads a source-language zip of Android-style strings.xml files, flattens
every entry into one ledger plus a provenance index, machine-translates the
ledger, and reconstructs a zip with the same directory layout for the target
locale (values/ → values-<tag>/).

Pipeline stages (each re-runnable on its own):
  fetch        Download the source bundle
  unpack       Extract the bundle
  flatten      Merge all entries into ledger + provenance index
  translate    Machine-translate the ledger (incremental via resbundle.lock)
  reconstruct  Regenerate the per-file tree for the target locale
  pack         Zip the reconstructed tree

  run          All of the above in order`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")

	root.AddCommand(
		newStatusCmd(),
		newInitCmd(),
		newFetchCmd(),
		newUnpackCmd(),
		newFlattenCmd(),
		newTranslateCmd(),
		newReconstructCmd(),
		newPackCmd(),
		newRunCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// signalContext returns a context cancelled by Ctrl-C.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func loadConfig() (*config.Config, error) {
	return config.Load(rootDir)
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("resbundle version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// init (write default configuration)
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default " + config.FileName,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(filepath.Join(rootDir, config.FileName)); err == nil {
				return fmt.Errorf("%s already exists", config.FileName)
			}
			if err := config.Default().Save(rootDir); err != nil {
				return err
			}
			logSuccess("wrote %s", config.FileName)
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// status (read-only: project info + stage progress)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show project configuration and pipeline progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n%sProject%s\n", colorBlue, colorReset)
	fmt.Fprintf(os.Stderr, "  Source:  %s (%s)\n", cfg.SourceLang, langmeta.Name(cfg.SourceLang))
	fmt.Fprintf(os.Stderr, "  Target:  %s (%s)\n", cfg.TargetLang, langmeta.Name(cfg.TargetLang))
	fmt.Fprintf(os.Stderr, "  URL:     %s\n", cfg.SourceURL)
	fmt.Fprintf(os.Stderr, "  WorkDir: %s\n", cfg.WorkDir)

	fmt.Fprintf(os.Stderr, "\n%sStages%s\n", colorBlue, colorReset)
	stage := func(name, path string) {
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(os.Stderr, "  %s[done]%s %-12s %s\n", colorGreen, colorReset, name, path)
		} else {
			fmt.Fprintf(os.Stderr, "  %s[todo]%s %-12s %s\n", colorYellow, colorReset, name, path)
		}
	}
	stage("fetch", cfg.ArchivePath())
	stage("unpack", cfg.ExtractDir())
	stage("flatten", cfg.LedgerPath())
	stage("translate", cfg.TranslatedPath())
	stage("reconstruct", cfg.OutputDir())
	stage("pack", cfg.OutputArchivePath())

	if ledger, err := resfile.ParseFile(cfg.LedgerPath()); err == nil {
		fmt.Fprintf(os.Stderr, "\n  Ledger entries: %d\n", ledger.Len())
	}
	if prov, err := provfile.Load(cfg.ProvenancePath(), nil); err == nil {
		fmt.Fprintf(os.Stderr, "  Provenance keys: %d\n", prov.Len())
	}
	fmt.Fprintln(os.Stderr)
	return nil
}

// ---------------------------------------------------------------------------
// fetch
// ---------------------------------------------------------------------------

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download the source-language bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			return runFetch(ctx, cfg)
		},
	}
}

func runFetch(ctx context.Context, cfg *config.Config) error {
	logInfo("downloading %s", cfg.SourceURL)
	if err := fetch.Download(ctx, nil, cfg.SourceURL, cfg.ArchivePath()); err != nil {
		return err
	}
	logSuccess(i18n.T("Downloaded source bundle to %s"), cfg.ArchivePath())
	return nil
}

// ---------------------------------------------------------------------------
// unpack
// ---------------------------------------------------------------------------

func newUnpackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unpack",
		Short: "Extract the source bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runUnpack(cfg)
		},
	}
}

func runUnpack(cfg *config.Config) error {
	if err := archive.Extract(cfg.ArchivePath(), cfg.ExtractDir()); err != nil {
		return err
	}
	logSuccess(i18n.T("Unpacked %s to %s"), cfg.ArchivePath(), cfg.ExtractDir())
	return nil
}

// ---------------------------------------------------------------------------
// flatten
// ---------------------------------------------------------------------------

func newFlattenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flatten",
		Short: "Merge all resource entries into one ledger + provenance index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runFlatten(cfg)
		},
	}
}

func runFlatten(cfg *config.Config) error {
	res, err := flatten.Flatten(cfg.ExtractDir(), flatten.Options{
		OnLog:   logInfo,
		OnError: logWarning,
	})
	if err != nil {
		return err
	}
	if err := res.WriteLedger(cfg.LedgerPath()); err != nil {
		return err
	}
	if err := res.WriteProvenance(cfg.ProvenancePath()); err != nil {
		return err
	}
	logInfo(i18n.T("Flattened %d files: %d entries, %d conflicts"),
		res.Files, res.Ledger.Len(), res.Conflicts)
	logSuccess(i18n.T("Ledger written to %s"), cfg.LedgerPath())
	logSuccess(i18n.T("Provenance index written to %s"), cfg.ProvenancePath())
	return nil
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

type translateArgs struct {
	retranslate bool
	delayMS     int
	retries     int
}

func newTranslateCmd() *cobra.Command {
	var a translateArgs
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Machine-translate the ledger",
		Long: `Translate every non-blank ledger entry to the target language.

Incremental by default: entries whose source text is unchanged since the
last run (tracked in resbundle.lock) reuse the previous translation.
Ctrl-C stops after the in-flight entry; the partial ledger is kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if a.delayMS > 0 {
				cfg.RequestDelayMS = a.delayMS
			}
			if a.retries > 0 {
				cfg.MaxRetries = a.retries
			}
			ctx, cancel := signalContext()
			defer cancel()
			return runTranslate(ctx, cfg, a.retranslate)
		},
	}
	cmd.Flags().BoolVar(&a.retranslate, "retranslate", false, "Ignore the lock file and retranslate everything")
	cmd.Flags().IntVar(&a.delayMS, "delay", 0, "Minimum delay between service calls (ms)")
	cmd.Flags().IntVar(&a.retries, "retries", 0, "Retries per entry on transient failures")
	return cmd
}

func runTranslate(ctx context.Context, cfg *config.Config, retranslate bool) error {
	ledger, err := resfile.ParseFile(cfg.LedgerPath())
	if err != nil {
		return fmt.Errorf("no usable ledger (run flatten first): %w", err)
	}

	tag, err := locale.Parse(cfg.TargetLang)
	if err != nil {
		return err
	}

	lock, err := lockfile.Load(cfg.WorkDirPath())
	if err != nil {
		return err
	}

	// Reuse previous translations for unchanged keys.
	reuse := make(map[string]string)
	if !retranslate {
		if prev, err := resfile.ParseFile(cfg.TranslatedPath()); err == nil {
			for _, name := range ledger.Names() {
				text, _ := ledger.Get(name)
				if lock.IsChanged(cfg.TargetLang, name, text) {
					continue
				}
				if t, ok := prev.Get(name); ok {
					reuse[name] = t
				}
			}
		}
	}

	client := translate.NewGoogle(cfg.Proxy, 0)
	logInfo("translating %d entries %s → %s (%s)", ledger.Len(),
		cfg.SourceLang, cfg.TargetLang, langmeta.Name(cfg.TargetLang))
	if len(reuse) > 0 {
		logInfo("reusing %d unchanged translations", len(reuse))
	}

	translated, stats, terr := translate.Ledger(ctx, client, ledger, translate.Options{
		Source:     cfg.SourceLang,
		Target:     tag.String(),
		Delay:      time.Duration(cfg.RequestDelayMS) * time.Millisecond,
		MaxRetries: cfg.MaxRetries,
		Reuse:      reuse,
		OnLog:      logInfo,
		OnError:    logWarning,
	})

	// Even a cancelled run leaves a well-formed partial ledger.
	if err := translated.WriteFile(cfg.TranslatedPath()); err != nil {
		return err
	}

	syncLock(lock, cfg.TargetLang, ledger, translated, reuse)
	if err := lock.Save(); err != nil {
		return err
	}

	logInfo("translated %d, reused %d, blank %d, failed %d (of %d)",
		stats.Translated, stats.Reused, stats.Blank, stats.Failed, stats.Total)
	if terr != nil {
		if errors.Is(terr, context.Canceled) {
			logWarning(i18n.T("Translation cancelled, partial ledger kept"))
			return nil
		}
		return terr
	}
	logSuccess(i18n.T("Translated ledger written to %s"), cfg.TranslatedPath())
	return nil
}

// syncLock records which ledger entries are now translated for target and
// drops stale keys. Whitespace-only entries never enter the lock; the
// translator skips them. An entry whose output equals its source text is a
// failed translation and stays unrecorded so the next run retries it.
func syncLock(lock *lockfile.LockFile, target string, ledger, translated *resfile.File, reuse map[string]string) {
	keep := make(map[string]bool)
	for _, name := range ledger.Names() {
		text, _ := ledger.Get(name)
		if strings.TrimSpace(text) == "" {
			continue
		}
		keep[name] = true
		if _, ok := reuse[name]; ok {
			lock.Update(target, name, text)
			continue
		}
		if got, _ := translated.Get(name); got != text {
			lock.Update(target, name, text)
		}
	}
	lock.Prune(target, keep)
}

// ---------------------------------------------------------------------------
// reconstruct
// ---------------------------------------------------------------------------

func newReconstructCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconstruct",
		Short: "Regenerate the per-file resource tree for the target locale",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runReconstruct(cfg)
		},
	}
}

func runReconstruct(cfg *config.Config) error {
	translated, err := resfile.ParseFile(cfg.TranslatedPath())
	if err != nil {
		return fmt.Errorf("no usable translated ledger (run translate first): %w", err)
	}
	prov, err := provfile.Load(cfg.ProvenancePath(), logWarning)
	if err != nil {
		return fmt.Errorf("no usable provenance index (run flatten first): %w", err)
	}
	tag, err := locale.Parse(cfg.TargetLang)
	if err != nil {
		return err
	}

	// Source ledger is optional: with it, missing translations fall back to
	// the original text instead of being dropped.
	source, err := resfile.ParseFile(cfg.LedgerPath())
	if err != nil {
		logWarning("source ledger unavailable, missing translations will be skipped: %v", err)
		source = nil
	}

	stats, err := reconstruct.Reconstruct(translated, source, prov, tag, cfg.OutputDir(), reconstruct.Options{
		OnLog:   logInfo,
		OnError: logWarning,
	})
	if err != nil {
		return err
	}
	if stats.Missing > 0 {
		logWarning("%d entries had no translation", stats.Missing)
	}
	logSuccess(i18n.T("Reconstructed tree written to %s"), cfg.OutputDir())
	return nil
}

// ---------------------------------------------------------------------------
// pack
// ---------------------------------------------------------------------------

func newPackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pack",
		Short: "Zip the reconstructed tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runPack(cfg)
		},
	}
}

func runPack(cfg *config.Config) error {
	n, err := archive.Create(cfg.OutputDir(), cfg.OutputArchivePath())
	if err != nil {
		return err
	}
	logSuccess(i18n.T("Packed %d files into %s"), n, cfg.OutputArchivePath())
	return nil
}

// ---------------------------------------------------------------------------
// run (all stages)
// ---------------------------------------------------------------------------

func newRunCmd() *cobra.Command {
	var retranslate bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the whole pipeline: fetch, unpack, flatten, translate, reconstruct, pack",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			if _, err := os.Stat(cfg.ArchivePath()); err == nil {
				logInfo("archive %s already present, skipping fetch", cfg.ArchivePath())
			} else if err := runFetch(ctx, cfg); err != nil {
				return err
			}
			if err := runUnpack(cfg); err != nil {
				return err
			}
			if err := runFlatten(cfg); err != nil {
				return err
			}
			if err := runTranslate(ctx, cfg, retranslate); err != nil {
				return err
			}
			if ctx.Err() != nil {
				logWarning("pipeline interrupted before reconstruction")
				return nil
			}
			if err := runReconstruct(cfg); err != nil {
				return err
			}
			return runPack(cfg)
		},
	}
	cmd.Flags().BoolVar(&retranslate, "retranslate", false, "Ignore the lock file and retranslate everything")
	return cmd
}
