// Package translate rewrites git argument vectors from localized aliases
// into git's canonical vocabulary, and rewrites git's textual output
// through a phrase map.
//
// Only two kinds of tokens are understood: the subcommand candidate (the
// first token that is not option-like, after skipping the values of a few
// global options) and individual flag tokens. Everything else passes
// through untouched.
package translate

import "strings"

// valueOptions are git global options that take their value as the next
// token ("git -C repo status").
var valueOptions = map[string]bool{
	"-C": true,
	"-c": true,
	"-I": true,
	"-i": true,
	"-X": true,
}

// ---------------------------------------------------------------------------
// Result types
// ---------------------------------------------------------------------------

// Command describes a subcommand alias that was rewritten.
type Command struct {
	Original   string
	Translated string
	// Language is the contributing language code, empty when unknown.
	Language string
	Index    int
}

// Flag describes a flag alias that was rewritten.
type Flag struct {
	// Original is the flag name as typed, without any "=value" part.
	Original   string
	Translated string
	Language   string
	Index      int
	// Value is the part after "=" for --name=value tokens.
	Value    string
	HasValue bool
}

// Result is the outcome of translating one argument vector.
type Result struct {
	Args    []string
	Command *Command
	Flags   []Flag
}

// Alias returns the original subcommand text, or "" when no subcommand
// was translated.
func (r Result) Alias() string {
	if r.Command == nil {
		return ""
	}
	return r.Command.Original
}

// Language returns the language that contributed the subcommand, or "".
func (r Result) Language() string {
	if r.Command == nil {
		return ""
	}
	return r.Command.Language
}

// ---------------------------------------------------------------------------
// Argument translation
// ---------------------------------------------------------------------------

// Maps bundles the lookup tables consumed by Args. Keys of Commands and
// Flags are expected lower-cased; the Sources maps attribute each key to
// the language that contributed it and may be nil.
type Maps struct {
	Commands       map[string]string
	Flags          map[string]string
	CommandSources map[string]string
	FlagSources    map[string]string
}

// Args translates argv. The input slice is never modified.
func Args(argv []string, m Maps) Result {
	out := make([]string, len(argv))
	copy(out, argv)

	res := Result{Args: out}

	if idx := SubcommandIndex(argv); idx >= 0 {
		original := argv[idx]
		key := strings.ToLower(original)
		if mapped, ok := m.Commands[key]; ok && mapped != "" {
			out[idx] = mapped
			res.Command = &Command{
				Original:   original,
				Translated: mapped,
				Language:   m.CommandSources[key],
				Index:      idx,
			}
		}
	}

	// Flags are matched against the original tokens so that a rewritten
	// subcommand is never looked up a second time.
	for i, tok := range argv {
		if !strings.HasPrefix(tok, "-") {
			continue
		}
		name, value, hasValue := splitFlag(tok)
		key := strings.ToLower(name)
		mapped, ok := m.Flags[key]
		if !ok || mapped == "" {
			continue
		}
		if hasValue {
			out[i] = mapped + "=" + value
		} else {
			out[i] = mapped
		}
		res.Flags = append(res.Flags, Flag{
			Original:   name,
			Translated: mapped,
			Language:   m.FlagSources[key],
			Index:      i,
			Value:      value,
			HasValue:   hasValue,
		})
	}

	return res
}

// SubcommandIndex returns the position of the subcommand candidate in
// args, or -1 when every token is option-like.
func SubcommandIndex(args []string) int {
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if !strings.HasPrefix(tok, "-") {
			return i
		}
		if valueOptions[tok] && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
		}
	}
	return -1
}

// BaseCommand returns the subcommand candidate of args, or "".
func BaseCommand(args []string) string {
	if idx := SubcommandIndex(args); idx >= 0 {
		return args[idx]
	}
	return ""
}

// splitFlag splits "--name=value" into its parts. Single-dash tokens are
// never split, "-cfoo=bar" style values belong to the option.
func splitFlag(tok string) (name, value string, hasValue bool) {
	if strings.HasPrefix(tok, "--") {
		if i := strings.IndexByte(tok, '='); i >= 0 {
			return tok[:i], tok[i+1:], true
		}
	}
	return tok, "", false
}
