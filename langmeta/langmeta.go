// Package langmeta provides display metadata for the shim's languages
// (English names, native names, emoji flags and dashboard colours) and
// resolves user-supplied language tokens to configured codes.
package langmeta

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// CoreKey is the statistics key of untranslated invocations.
const CoreKey = "__core__"

// DefaultColor is used for languages without a registry entry.
const DefaultColor = "45"

// ErrUnknownLanguage is returned by ResolveCodes for a token that names no
// configured language.
var ErrUnknownLanguage = errors.New("unknown language")

// Meta describes language display metadata.
type Meta struct {
	Name   string
	Native string
	Flag   string
	// Color is an ANSI 256-colour index.
	Color string
}

// Registry contains the metadata of the built-in languages, keyed by
// lower-case code.
var Registry = map[string]Meta{
	"es":    {Name: "Spanish", Native: "Español", Flag: "🇪🇸", Color: "208"},
	"fr":    {Name: "French", Native: "Français", Flag: "🇫🇷", Color: "177"},
	"de":    {Name: "German", Native: "Deutsch", Flag: "🇩🇪", Color: "70"},
	"pt":    {Name: "Portuguese", Native: "Português", Flag: "🇵🇹", Color: "39"},
	"ru":    {Name: "Russian", Native: "Русский", Flag: "🇷🇺", Color: "33"},
	"ja":    {Name: "Japanese", Native: "日本語", Flag: "🇯🇵", Color: "176"},
	"en-gb": {Name: "English (UK)", Native: "English (UK)", Flag: "🇬🇧", Color: "33"},
	CoreKey: {Name: "Core (English)", Native: "English", Flag: "", Color: "246"},
}

// Canonicalize normalizes a language code to lower-case BCP 47 form, so
// en_GB, en-GB and EN-gb all become en-gb.
func Canonicalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if tag, err := language.Parse(code); err == nil {
		return strings.ToLower(tag.String())
	}
	return strings.ToLower(strings.ReplaceAll(code, "_", "-"))
}

// Resolve returns best-effort metadata for a language code, falling back
// to the base language and then to the code itself.
func Resolve(code string) Meta {
	if m, ok := Registry[code]; ok {
		return m
	}
	normalized := Canonicalize(code)
	if m, ok := Registry[normalized]; ok {
		return m
	}
	if base, _, ok := strings.Cut(normalized, "-"); ok {
		if m, ok := Registry[base]; ok {
			m.Name = code
			return m
		}
	}
	return Meta{Name: code, Native: code, Color: DefaultColor}
}

// DisplayName is the English name of a language.
func DisplayName(code string) string {
	if m, ok := Registry[strings.ToLower(code)]; ok {
		return m.Name
	}
	return code
}

// Label renders a code for people, e.g. "Spanish (es)".
func Label(code string) string {
	if code == CoreKey {
		return Registry[CoreKey].Name
	}
	return fmt.Sprintf("%s (%s)", DisplayName(code), code)
}

// ResolveCodes maps tokens (codes or English names, any case) onto the
// available codes, without duplicates. The token "all" selects every
// available code.
func ResolveCodes(tokens, available []string) ([]string, error) {
	byKey := make(map[string]string, 2*len(available))
	for _, code := range available {
		byKey[strings.ToLower(code)] = code
		byKey[strings.ToLower(DisplayName(code))] = code
	}

	var resolved []string
	seen := make(map[string]bool)
	for _, tok := range tokens {
		key := strings.ToLower(strings.TrimSpace(tok))
		if key == "all" {
			return append([]string(nil), available...), nil
		}
		code, ok := byKey[key]
		if !ok {
			code, ok = byKey[Canonicalize(tok)]
		}
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownLanguage, tok)
		}
		if !seen[code] {
			seen[code] = true
			resolved = append(resolved, code)
		}
	}
	return resolved, nil
}
