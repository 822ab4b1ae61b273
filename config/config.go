// Package config — .resbundle.yaml project configuration.
//
// When the file is absent every field falls back to defaults that mirror
// the FBReader strings bundle this tool was built around; an explicit file
// overrides any subset of fields.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file name.
const FileName = ".resbundle.yaml"

// Config holds the project settings for one round trip.
type Config struct {
	// SourceURL is where the source-language bundle is downloaded from.
	SourceURL string `yaml:"source_url,omitempty"`
	// SourceLang is the source language code.
	SourceLang string `yaml:"source_lang,omitempty"`
	// TargetLang is the target locale tag ("zh-TW", "zh-rTW" or plain "fr").
	TargetLang string `yaml:"target_lang,omitempty"`
	// WorkDir is where archives, extracted trees and ledgers live,
	// relative to the project root.
	WorkDir string `yaml:"work_dir,omitempty"`
	// LedgerFile is the flattened source ledger file name.
	LedgerFile string `yaml:"ledger_file,omitempty"`
	// TranslatedFile is the translated ledger file name.
	TranslatedFile string `yaml:"translated_file,omitempty"`
	// ProvenanceFile is the provenance index file name.
	ProvenanceFile string `yaml:"provenance_file,omitempty"`
	// RequestDelayMS is the minimum delay between translation calls.
	RequestDelayMS int `yaml:"request_delay_ms,omitempty"`
	// MaxRetries bounds retries per entry on transient service failures.
	MaxRetries int `yaml:"max_retries,omitempty"`
	// Proxy is an optional HTTP/HTTPS proxy URL for all network calls.
	Proxy string `yaml:"proxy,omitempty"`

	root string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SourceURL:      "https://fbreader.org/static/strings/android/en.zip",
		SourceLang:     "en",
		TargetLang:     "zh-rTW",
		WorkDir:        "work",
		LedgerFile:     "ledger.xml",
		TranslatedFile: "translated.xml",
		ProvenanceFile: "mapping",
		RequestDelayMS: 600,
		MaxRetries:     3,
		root:           ".",
	}
}

// Load reads root/.resbundle.yaml, filling unset fields from Default().
// A missing file yields the defaults.
func Load(root string) (*Config, error) {
	cfg := Default()
	cfg.root = root

	data, err := os.ReadFile(filepath.Join(root, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	cfg.merge(&file)
	return cfg, nil
}

// Save writes the configuration to root/.resbundle.yaml.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	path := filepath.Join(root, FileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (c *Config) merge(o *Config) {
	if o.SourceURL != "" {
		c.SourceURL = o.SourceURL
	}
	if o.SourceLang != "" {
		c.SourceLang = o.SourceLang
	}
	if o.TargetLang != "" {
		c.TargetLang = o.TargetLang
	}
	if o.WorkDir != "" {
		c.WorkDir = o.WorkDir
	}
	if o.LedgerFile != "" {
		c.LedgerFile = o.LedgerFile
	}
	if o.TranslatedFile != "" {
		c.TranslatedFile = o.TranslatedFile
	}
	if o.ProvenanceFile != "" {
		c.ProvenanceFile = o.ProvenanceFile
	}
	if o.RequestDelayMS > 0 {
		c.RequestDelayMS = o.RequestDelayMS
	}
	if o.MaxRetries > 0 {
		c.MaxRetries = o.MaxRetries
	}
	if o.Proxy != "" {
		c.Proxy = o.Proxy
	}
}

// ---------------------------------------------------------------------------
// Derived paths
// ---------------------------------------------------------------------------

// WorkDirPath is the resolved work directory.
func (c *Config) WorkDirPath() string {
	return filepath.Join(c.root, c.WorkDir)
}

func (c *Config) workPath(name string) string {
	return filepath.Join(c.WorkDirPath(), name)
}

// ArchivePath is the downloaded source bundle, e.g. work/en.zip.
func (c *Config) ArchivePath() string {
	return c.workPath(c.SourceLang + ".zip")
}

// ExtractDir is where the source bundle is unpacked.
func (c *Config) ExtractDir() string {
	return c.workPath(c.SourceLang)
}

// LedgerPath is the flattened source ledger.
func (c *Config) LedgerPath() string { return c.workPath(c.LedgerFile) }

// TranslatedPath is the translated ledger.
func (c *Config) TranslatedPath() string { return c.workPath(c.TranslatedFile) }

// ProvenancePath is the provenance index.
func (c *Config) ProvenancePath() string { return c.workPath(c.ProvenanceFile) }

// OutputDir is the reconstructed tree for the target locale.
func (c *Config) OutputDir() string {
	return c.workPath(strings.ReplaceAll(c.TargetLang, "/", "_"))
}

// OutputArchivePath is the re-packed target bundle, e.g. work/zh-rTW.zip.
func (c *Config) OutputArchivePath() string {
	return c.workPath(strings.ReplaceAll(c.TargetLang, "/", "_") + ".zip")
}
