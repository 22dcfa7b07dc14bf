// Package state implements state.json: the user's active languages,
// usage statistics of translated commands and earned achievements.
//
// The file lives next to the user configuration:
//
//	$GLOBAL_GIT_STATE  (default: ~/.config/global-git/state.json)
//
// Keys the package does not know are preserved on write. A missing or
// unreadable file reads as empty; sections with an unexpected shape are
// reset.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/global-git/global-git/config"
	"github.com/global-git/global-git/execenv"
)

// FileName is the default state file name.
const FileName = "state.json"

// DefaultLanguageKey counts invocations that used no translated command.
const DefaultLanguageKey = "__core__"

// Top-level keys of state.json.
const (
	keyActive       = "active_languages"
	keyUsage        = "usage_stats"
	keyAchievements = "achievements"
)

// timeLayout renders timestamps as UTC with an explicit offset.
const timeLayout = "2006-01-02T15:04:05-07:00"

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Alias tracks one localized command as the user typed it.
type Alias struct {
	Count       int    `json:"count"`
	Label       string `json:"label"`
	Language    string `json:"language"`
	Command     string `json:"command"`
	FirstUsedAt string `json:"first_used_at"`
	LastUsedAt  string `json:"last_used_at"`
}

// Usage is the usage_stats section.
type Usage struct {
	TotalInvocations int              `json:"total_invocations"`
	Commands         map[string]int   `json:"commands"`
	Languages        map[string]int   `json:"languages"`
	Aliases          map[string]Alias `json:"aliases"`
	// LanguageCommandCounts maps language -> base command -> count.
	LanguageCommandCounts map[string]map[string]int `json:"language_command_counts"`
}

// Award records when an achievement was earned.
type Award struct {
	AwardedAt string `json:"awarded_at"`
}

// Achievements is the achievements section.
type Achievements struct {
	Earned   map[string]Award `json:"earned"`
	Notified []string         `json:"notified"`
}

func (u *Usage) ensure() {
	if u.Commands == nil {
		u.Commands = make(map[string]int)
	}
	if u.Languages == nil {
		u.Languages = make(map[string]int)
	}
	if u.Aliases == nil {
		u.Aliases = make(map[string]Alias)
	}
	if u.LanguageCommandCounts == nil {
		u.LanguageCommandCounts = make(map[string]map[string]int)
	}
}

func (a *Achievements) ensure() {
	if a.Earned == nil {
		a.Earned = make(map[string]Award)
	}
	if a.Notified == nil {
		a.Notified = []string{}
	}
}

// ---------------------------------------------------------------------------
// Store
// ---------------------------------------------------------------------------

// Store reads and writes one state file.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// Open returns a store backed by path. The file is created on first write.
func Open(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// DefaultPath returns $GLOBAL_GIT_STATE, or state.json in the
// configuration directory.
func DefaultPath() (string, error) {
	if p := os.Getenv(execenv.EnvState); p != "" {
		return p, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

type document map[string]json.RawMessage

func (s *Store) read() document {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return document{}
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		return document{}
	}
	return doc
}

func (s *Store) write(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(s.path), err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return nil
}

func (doc document) set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	doc[key] = raw
	return nil
}

// usage decodes usage_stats field by field. A field or entry of the wrong
// shape is dropped on its own; the rest of the section survives.
func (doc document) usage() Usage {
	var u Usage
	if o := object(doc[keyUsage]); o != nil {
		_ = json.Unmarshal(o["total_invocations"], &u.TotalInvocations)
		u.Commands = entries[int](o["commands"])
		u.Languages = entries[int](o["languages"])
		u.Aliases = entries[Alias](o["aliases"])
		u.LanguageCommandCounts = make(map[string]map[string]int)
		for lang, raw := range object(o["language_command_counts"]) {
			if object(raw) != nil {
				u.LanguageCommandCounts[lang] = entries[int](raw)
			}
		}
	}
	u.ensure()
	return u
}

func (doc document) achievements() Achievements {
	var a Achievements
	if o := object(doc[keyAchievements]); o != nil {
		a.Earned = entries[Award](o["earned"])
		a.Notified = stringList(o["notified"])
	}
	a.ensure()
	return a
}

// object decodes a JSON object into its raw members, or returns nil.
func object(raw json.RawMessage) map[string]json.RawMessage {
	var o map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &o) != nil {
		return nil
	}
	return o
}

// entries decodes the members of a JSON object that fit T.
func entries[T any](raw json.RawMessage) map[string]T {
	out := make(map[string]T)
	for k, v := range object(raw) {
		var x T
		if json.Unmarshal(v, &x) == nil {
			out[k] = x
		}
	}
	return out
}

// stringList decodes the string elements of a JSON array.
func stringList(raw json.RawMessage) []string {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	var out []string
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

func (s *Store) timestamp() string {
	return s.now().UTC().Truncate(time.Second).Format(timeLayout)
}

// ---------------------------------------------------------------------------
// Active languages
// ---------------------------------------------------------------------------

// ActiveLanguages returns the saved selection restricted to available
// codes, compared case-insensitively and returned in their available
// spelling. With no usable selection every available code is active.
func (s *Store) ActiveLanguages(available []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	byLower := make(map[string]string, len(available))
	for _, code := range available {
		byLower[strings.ToLower(code)] = code
	}

	saved := stringList(s.read()[keyActive])

	var active []string
	seen := make(map[string]bool)
	for _, entry := range saved {
		code, ok := byLower[strings.ToLower(entry)]
		if !ok || seen[code] {
			continue
		}
		seen[code] = true
		active = append(active, code)
	}
	if len(active) == 0 {
		return append([]string(nil), available...)
	}
	return active
}

// SaveActiveLanguages stores codes, lower-cased and without duplicates.
func (s *Store) SaveActiveLanguages(codes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ordered := []string{}
	seen := make(map[string]bool)
	for _, code := range codes {
		code = strings.ToLower(code)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		ordered = append(ordered, code)
	}

	doc := s.read()
	if err := doc.set(keyActive, ordered); err != nil {
		return err
	}
	return s.write(doc)
}

// ---------------------------------------------------------------------------
// Usage statistics
// ---------------------------------------------------------------------------

// RecordUsage counts one invocation of base (may be empty) issued through
// alias in language. An empty language counts under DefaultLanguageKey;
// an empty alias is not tracked. The updated statistics are returned.
func (s *Store) RecordUsage(base, language, alias string) (Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	u := doc.usage()
	now := s.timestamp()

	u.TotalInvocations++

	langKey := language
	if langKey == "" {
		langKey = DefaultLanguageKey
	}
	u.Languages[langKey]++

	if base != "" {
		u.Commands[base]++
		bucket := u.LanguageCommandCounts[langKey]
		if bucket == nil {
			bucket = make(map[string]int)
			u.LanguageCommandCounts[langKey] = bucket
		}
		bucket[base]++
	}

	if alias != "" {
		key := strings.ToLower(alias)
		entry := u.Aliases[key]
		entry.Count++
		entry.Label = alias
		entry.Language = language
		entry.Command = base
		if entry.FirstUsedAt == "" {
			entry.FirstUsedAt = now
		}
		entry.LastUsedAt = now
		u.Aliases[key] = entry
	}

	if err := doc.set(keyUsage, u); err != nil {
		return u, err
	}
	return u, s.write(doc)
}

// Usage returns the recorded statistics.
func (s *Store) Usage() Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().usage()
}

// ---------------------------------------------------------------------------
// Achievements
// ---------------------------------------------------------------------------

// Achievements returns the achievements section.
func (s *Store) Achievements() Achievements {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().achievements()
}

// Award marks ids as earned now and returns the ones that were not earned
// before, in the given order.
func (s *Store) Award(ids []string) ([]string, Achievements, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	a := doc.achievements()

	var awarded []string
	now := s.timestamp()
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := a.Earned[id]; ok {
			continue
		}
		a.Earned[id] = Award{AwardedAt: now}
		awarded = append(awarded, id)
	}
	if len(awarded) == 0 {
		return nil, a, nil
	}

	if err := doc.set(keyAchievements, a); err != nil {
		return nil, a, err
	}
	return awarded, a, s.write(doc)
}

// MarkNotified records that the user has been shown ids.
func (s *Store) MarkNotified(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	a := doc.achievements()
	known := make(map[string]bool, len(a.Notified))
	for _, id := range a.Notified {
		known[id] = true
	}
	for _, id := range ids {
		if !known[id] {
			known[id] = true
			a.Notified = append(a.Notified, id)
		}
	}
	if err := doc.set(keyAchievements, a); err != nil {
		return err
	}
	return s.write(doc)
}
