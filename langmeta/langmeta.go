// Package langmeta provides a small language metadata registry (native
// names) used by the CLI status output and translation logs.
package langmeta

import "strings"

// Meta describes language display metadata.
type Meta struct {
	Name string
}

// Registry contains canonical language metadata. Locale variants fall back
// to their base language in Resolve.
var Registry = map[string]Meta{
	"ar":    {Name: "العربية"},
	"cs":    {Name: "Čeština"},
	"de":    {Name: "Deutsch"},
	"el":    {Name: "Ελληνικά"},
	"en":    {Name: "English"},
	"es":    {Name: "Español"},
	"fa":    {Name: "فارسی"},
	"fi":    {Name: "Suomi"},
	"fr":    {Name: "Français"},
	"he":    {Name: "עברית"},
	"hu":    {Name: "Magyar"},
	"id":    {Name: "Bahasa Indonesia"},
	"it":    {Name: "Italiano"},
	"ja":    {Name: "日本語"},
	"ko":    {Name: "한국어"},
	"nl":    {Name: "Nederlands"},
	"pl":    {Name: "Polski"},
	"pt":    {Name: "Português"},
	"pt-BR": {Name: "Português (Brasil)"},
	"ro":    {Name: "Română"},
	"ru":    {Name: "Русский"},
	"sv":    {Name: "Svenska"},
	"th":    {Name: "ไทย"},
	"tr":    {Name: "Türkçe"},
	"uk":    {Name: "Українська"},
	"vi":    {Name: "Tiếng Việt"},
	"zh":    {Name: "中文"},
	"zh-CN": {Name: "简体中文"},
	"zh-TW": {Name: "繁體中文"},
}

// Resolve returns metadata for a language code, normalizing case and the
// Android region form ("zh-rTW" → "zh-TW") and falling back to the base
// language when the exact variant is unknown.
func Resolve(code string) (Meta, bool) {
	code = normalize(code)
	if m, ok := Registry[code]; ok {
		return m, true
	}
	if base, _, found := strings.Cut(code, "-"); found {
		if m, ok := Registry[base]; ok {
			return m, true
		}
	}
	return Meta{}, false
}

// Name returns the native language name, or the code itself when unknown.
func Name(code string) string {
	if m, ok := Resolve(code); ok {
		return m.Name
	}
	return code
}

func normalize(code string) string {
	base, region, found := strings.Cut(strings.TrimSpace(code), "-")
	base = strings.ToLower(base)
	if !found {
		return base
	}
	region = strings.TrimPrefix(region, "r")
	return base + "-" + strings.ToUpper(region)
}
