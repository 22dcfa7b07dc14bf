package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// Section is one set of translation tables.
type Section struct {
	// Commands maps a localized subcommand to git's.
	Commands map[string]string `yaml:"commands,omitempty"`
	// Flags maps a localized option to git's.
	Flags map[string]string `yaml:"flags,omitempty"`
	// Output maps a phrase of git's output to its replacement.
	Output map[string]string `yaml:"output,omitempty"`
}

// Language is the Section of one language.
type Language struct {
	Code string
	Section
}

// File is a parsed configuration file. Languages keep the order in which
// the file declares them.
type File struct {
	Languages []Language
	// Global is the top-level section; it applies whatever the active
	// languages are.
	Global Section
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the built-in configuration.
func Default() (*File, error) {
	return Parse(defaultYAML)
}

// ReadFile loads a configuration file.
// Returns nil if the file doesn't exist.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a YAML or JSON configuration. Command and flag keys are
// lower-cased; output phrases are kept as written. Sections, language
// entries and table values of the wrong shape are ignored one by one.
func Parse(data []byte) (*File, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	f := &File{Global: decodeSection(nil)}
	top := mapping(&root)
	if top == nil {
		return f, nil
	}
	f.Global = decodeSection(top)

	langs := mapping(lookup(top, "languages"))
	if langs == nil {
		return f, nil
	}
	for i := 0; i+1 < len(langs.Content); i += 2 {
		key, val := langs.Content[i], mapping(langs.Content[i+1])
		if val == nil || key.Kind != yaml.ScalarNode || key.Value == "" {
			continue
		}
		f.add(Language{Code: key.Value, Section: decodeSection(val)})
	}
	return f, nil
}

// mapping returns n as a mapping node, unwrapping documents and aliases,
// or nil when it is something else.
func mapping(n *yaml.Node) *yaml.Node {
	for n != nil && (n.Kind == yaml.DocumentNode || n.Kind == yaml.AliasNode) {
		if n.Kind == yaml.AliasNode {
			n = n.Alias
			continue
		}
		if len(n.Content) == 0 {
			return nil
		}
		n = n.Content[0]
	}
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	return n
}

// lookup returns the value of key in mapping node n.
func lookup(n *yaml.Node, key string) *yaml.Node {
	if n == nil {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func decodeSection(n *yaml.Node) Section {
	return Section{
		Commands: lowerKeys(decodeTable(lookup(n, "commands"))),
		Flags:    lowerKeys(decodeTable(lookup(n, "flags"))),
		Output:   decodeTable(lookup(n, "output")),
	}
}

// decodeTable reads a mapping of scalars. Anything that is not a mapping
// yields an empty table; non-scalar entries are skipped.
func decodeTable(n *yaml.Node) map[string]string {
	out := make(map[string]string)
	n = mapping(n)
	if n == nil {
		return out
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if v.Kind == yaml.AliasNode {
			v = v.Alias
		}
		if k.Kind != yaml.ScalarNode || v == nil || v.Kind != yaml.ScalarNode {
			continue
		}
		out[k.Value] = v.Value
	}
	return out
}

// add appends l, or merges it into an existing language of the same code.
func (f *File) add(l Language) {
	for i := range f.Languages {
		if strings.EqualFold(f.Languages[i].Code, l.Code) {
			f.Languages[i].Section = mergeSection(f.Languages[i].Section, l.Section)
			return
		}
	}
	f.Languages = append(f.Languages, l)
}

// Merge returns f with override applied on top. Tables of languages known
// to both are merged key by key; languages only in override are appended.
func (f *File) Merge(override *File) *File {
	out := &File{Global: mergeSection(f.Global, Section{})}
	for _, l := range f.Languages {
		out.Languages = append(out.Languages, Language{Code: l.Code, Section: mergeSection(l.Section, Section{})})
	}
	if override == nil {
		return out
	}
	for _, l := range override.Languages {
		out.add(l)
	}
	out.Global = mergeSection(out.Global, override.Global)
	return out
}

// Codes lists the language codes in declaration order.
func (f *File) Codes() []string {
	codes := make([]string, len(f.Languages))
	for i, l := range f.Languages {
		codes[i] = l.Code
	}
	return codes
}

// Language returns the language with the given code, compared
// case-insensitively.
func (f *File) Language(code string) (Language, bool) {
	return findLanguage(f.Languages, code)
}

func findLanguage(langs []Language, code string) (Language, bool) {
	for _, l := range langs {
		if strings.EqualFold(l.Code, code) {
			return l, true
		}
	}
	return Language{}, false
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func mergeSection(base, override Section) Section {
	return Section{
		Commands: mergeMaps(base.Commands, override.Commands),
		Flags:    mergeMaps(base.Flags, override.Flags),
		Output:   mergeMaps(base.Output, override.Output),
	}
}

func mergeMaps(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[lower(k)] = v
	}
	return out
}

func lower(s string) string {
	return strings.ToLower(s)
}
