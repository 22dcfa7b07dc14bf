// Package achievements defines the milestones unlocked by using localized
// commands and decides which ones a set of statistics has earned.
package achievements

import (
	"strings"

	"github.com/global-git/global-git/state"
)

// Criterion is a condition on usage statistics.
type Criterion interface {
	Met(u state.Usage) bool
}

// AliasThreshold is met once Alias has been used Threshold times, through
// Language when one is given.
type AliasThreshold struct {
	Alias     string
	Language  string
	Threshold int
}

// Met implements Criterion.
func (c AliasThreshold) Met(u state.Usage) bool {
	entry, ok := u.Aliases[strings.ToLower(c.Alias)]
	if !ok {
		return false
	}
	if c.Language != "" && entry.Language != c.Language {
		return false
	}
	return entry.Count >= c.Threshold
}

// LanguageDiversity is met once at least MinLanguages languages have each
// been used MinEach times. Untranslated invocations do not count.
type LanguageDiversity struct {
	MinLanguages int
	MinEach      int
}

// Met implements Criterion.
func (c LanguageDiversity) Met(u state.Usage) bool {
	n := 0
	for code, count := range u.Languages {
		if code == state.DefaultLanguageKey {
			continue
		}
		if count >= c.MinEach {
			n++
		}
	}
	return n >= c.MinLanguages
}

// Achievement is one milestone.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Emoji       string
	// Color is an ANSI 256-colour index.
	Color    string
	Criteria Criterion
}

// All is the catalogue, in display order.
var All = []Achievement{
	{
		ID:          "fr_pull_marathon",
		Name:        "French Pull Marathon",
		Description: "Call `git tirer` one hundred times to truly master the art of syncing.",
		Emoji:       "🗼",
		Color:       "219",
		Criteria:    AliasThreshold{Alias: "tirer", Language: "fr", Threshold: 100},
	},
	{
		ID:          "es_commit_conquistador",
		Name:        "Commit Conquistador",
		Description: "Confirm your work with `git cometer` at least seventy-five times.",
		Emoji:       "🪶",
		Color:       "208",
		Criteria:    AliasThreshold{Alias: "cometer", Language: "es", Threshold: 75},
	},
	{
		ID:          "de_push_dynamo",
		Name:        "Push Dynamo",
		Description: "Launch code skyward with `git schieben` sixty times.",
		Emoji:       "🚀",
		Color:       "40",
		Criteria:    AliasThreshold{Alias: "schieben", Language: "de", Threshold: 60},
	},
	{
		ID:          "pt_pull_wave",
		Name:        "Atlântico Pull Wave",
		Description: "Ride the tides with fifty uses of `git puxar`.",
		Emoji:       "🌊",
		Color:       "33",
		Criteria:    AliasThreshold{Alias: "puxar", Language: "pt", Threshold: 50},
	},
	{
		ID:          "polyglot_trailblazer",
		Name:        "Polyglot Trailblazer",
		Description: "Use translated commands in at least three languages forty times each.",
		Emoji:       "🧭",
		Color:       "201",
		Criteria:    LanguageDiversity{MinLanguages: 3, MinEach: 40},
	},
}

// Lookup returns the achievement with the given id.
func Lookup(id string) (Achievement, bool) {
	for _, a := range All {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// NewlyEarned returns, in catalogue order, the ids met by u that are not
// in earned.
func NewlyEarned(u state.Usage, earned map[string]state.Award) []string {
	var ids []string
	for _, a := range All {
		if _, ok := earned[a.ID]; ok {
			continue
		}
		if a.Criteria != nil && a.Criteria.Met(u) {
			ids = append(ids, a.ID)
		}
	}
	return ids
}
