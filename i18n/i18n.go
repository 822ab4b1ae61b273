// Package i18n localizes resbundle's own user-facing CLI messages.
//
// It wraps the gotext library behind a simple T() function. Translations
// are embedded in the binary via go:embed and loaded at startup by Init().
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales embeds the translation catalogs.
// Directory structure: locales/{lang}/LC_MESSAGES/resbundle.po
//
//go:embed all:locales
var locales embed.FS

// domain is the gettext domain name.
const domain = "resbundle"

var catalog *gotext.Locale

// Init initializes the i18n system. If lang is empty, it auto-detects from
// LANGUAGE, LC_ALL, LC_MESSAGES, LANG (in that order, matching GNU gettext
// behavior). Call once at program startup, before any T().
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}
	catalog = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	catalog.AddDomain(domain)
	catalog.SetDomain(domain)
}

// T translates a message. Without a matching catalog the original string is
// returned unchanged (standard gettext passthrough behavior).
func T(msgid string) string {
	if catalog == nil {
		return msgid
	}
	return catalog.Get(msgid)
}

// detectLanguage reads the locale from the environment.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(env)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		// "ru_RU.UTF-8" → "ru_RU"
		if idx := strings.IndexAny(v, ".@:"); idx >= 0 {
			v = v[:idx]
		}
		if v != "" {
			return v
		}
	}
	return "en"
}
