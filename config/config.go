// Package config loads the translation tables: the built-in defaults
// merged with an optional user override file, reduced to the maps of the
// currently active languages.
//
// The user file is looked up at:
//
//	$GLOBAL_GIT_CONFIG
//	$XDG_CONFIG_HOME/global-git/config.{yaml,yml,json}  (default: ~/.config/global-git/)
//
// JSON is accepted as a subset of YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/global-git/global-git/execenv"
	"github.com/global-git/global-git/translate"
)

const dirName = "global-git"

// GlobalSource attributes entries that come from the top-level override
// section rather than from a language.
const GlobalSource = "__global__"

// userFileNames are tried in order inside Dir().
var userFileNames = []string{"config.yaml", "config.yml", "config.json"}

// ---------------------------------------------------------------------------
// Resolved configuration
// ---------------------------------------------------------------------------

// Config is the configuration in effect for one invocation.
type Config struct {
	// Languages are all known languages, built-in ones first.
	Languages []Language
	// Active are the codes whose tables are merged into the maps below,
	// in merge order.
	Active []string

	Commands map[string]string
	Flags    map[string]string
	Output   map[string]string

	// CommandSources and FlagSources map each key of Commands and Flags to
	// the language code that contributed it, or GlobalSource.
	CommandSources map[string]string
	FlagSources    map[string]string
}

// Maps returns the argument translation tables.
func (c *Config) Maps() translate.Maps {
	return translate.Maps{
		Commands:       c.Commands,
		Flags:          c.Flags,
		CommandSources: c.CommandSources,
		FlagSources:    c.FlagSources,
	}
}

// Codes lists every known language code.
func (c *Config) Codes() []string {
	codes := make([]string, len(c.Languages))
	for i, l := range c.Languages {
		codes[i] = l.Code
	}
	return codes
}

// Language returns the language with the given code.
func (c *Config) Language(code string) (Language, bool) {
	return findLanguage(c.Languages, code)
}

// HelpLanguage reports which language, if any, maps token to --help.
// Plain --help and -h belong to no language.
func (c *Config) HelpLanguage(token string) (string, bool) {
	if token == "--help" || token == "-h" {
		return "", false
	}
	key := lower(token)
	for _, l := range c.Languages {
		if target, ok := l.Flags[key]; ok && target == "--help" {
			return l.Code, true
		}
	}
	return "", false
}

// ActiveFunc picks the active codes out of the available ones.
type ActiveFunc func(available []string) []string

// Load builds the configuration from the defaults and the user file at
// userPath (empty or missing: defaults only). When the user file cannot be
// read or parsed, the configuration without it is returned together with
// the error.
func Load(userPath string, active ActiveFunc) (*Config, error) {
	base, err := Default()
	if err != nil {
		return nil, fmt.Errorf("parsing built-in configuration: %w", err)
	}

	merged := base
	var userErr error
	if userPath != "" {
		user, err := ReadFile(userPath)
		switch {
		case err != nil:
			userErr = err
		case user != nil:
			merged = base.Merge(user)
		}
	}

	codes := merged.Codes()
	selected := codes
	if active != nil {
		selected = active(codes)
	}
	return merged.Build(selected), userErr
}

// Build reduces f to the maps of the given languages. Languages later in
// active override earlier ones; the top-level section overrides all.
// Unknown codes are skipped.
func (f *File) Build(active []string) *Config {
	cfg := &Config{
		Languages:      f.Languages,
		Commands:       make(map[string]string),
		Flags:          make(map[string]string),
		Output:         make(map[string]string),
		CommandSources: make(map[string]string),
		FlagSources:    make(map[string]string),
	}

	for _, code := range active {
		l, ok := f.Language(code)
		if !ok {
			continue
		}
		cfg.Active = append(cfg.Active, l.Code)
		apply(cfg, l.Section, l.Code)
	}
	apply(cfg, f.Global, GlobalSource)
	return cfg
}

func apply(cfg *Config, s Section, source string) {
	for k, v := range s.Commands {
		cfg.Commands[k] = v
		cfg.CommandSources[k] = source
	}
	for k, v := range s.Flags {
		cfg.Flags[k] = v
		cfg.FlagSources[k] = source
	}
	for k, v := range s.Output {
		cfg.Output[k] = v
	}
}

// ---------------------------------------------------------------------------
// File locations
// ---------------------------------------------------------------------------

// Dir returns the global-git configuration directory.
// Respects $XDG_CONFIG_HOME (falls back to ~/.config).
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, dirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", dirName), nil
}

// UserPath returns the user override file to load, or "" when there is
// none.
func UserPath() string {
	if p := os.Getenv(execenv.EnvConfig); p != "" {
		return p
	}
	dir, err := Dir()
	if err != nil {
		return ""
	}
	for _, name := range userFileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
