package langmeta

import (
	"errors"
	"reflect"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "en_GB", want: "en-gb"},
		{in: " EN-gb ", want: "en-gb"},
		{in: "ES", want: "es"},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		got := Canonicalize(tc.in)
		if got != tc.want {
			t.Fatalf("Canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Run("exact match", func(t *testing.T) {
		got := Resolve("en-gb")
		if got.Name != "English (UK)" || got.Flag == "" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("normalized match", func(t *testing.T) {
		got := Resolve("en_GB")
		if got.Name != "English (UK)" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("base fallback", func(t *testing.T) {
		got := Resolve("fr-CA")
		if got.Name != "fr-CA" || got.Flag != Registry["fr"].Flag || got.Color != Registry["fr"].Color {
			t.Fatalf("unexpected fallback result: %#v", got)
		}
	})

	t.Run("unknown passthrough", func(t *testing.T) {
		got := Resolve("it")
		if got.Name != "it" || got.Flag != "" || got.Color != DefaultColor {
			t.Fatalf("unexpected unknown result: %#v", got)
		}
	})
}

func TestLabel(t *testing.T) {
	if got := Label("es"); got != "Spanish (es)" {
		t.Fatalf("Label(es) = %q", got)
	}
	if got := Label(CoreKey); got != "Core (English)" {
		t.Fatalf("Label(core) = %q", got)
	}
	if got := Label("it"); got != "it (it)" {
		t.Fatalf("Label(it) = %q", got)
	}
}

func TestResolveCodes(t *testing.T) {
	available := []string{"es", "fr", "de", "en-gb"}

	tests := []struct {
		name   string
		tokens []string
		want   []string
	}{
		{"codes", []string{"fr", "es"}, []string{"fr", "es"}},
		{"names", []string{"German", "spanish"}, []string{"de", "es"}},
		{"duplicates", []string{"es", "ES", "Spanish"}, []string{"es"}},
		{"locale spelling", []string{"en_GB"}, []string{"en-gb"}},
		{"all", []string{"fr", "all"}, available},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveCodes(tt.tokens, available)
			if err != nil {
				t.Fatalf("ResolveCodes() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ResolveCodes() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := ResolveCodes([]string{"es", "klingon"}, available); !errors.Is(err, ErrUnknownLanguage) {
		t.Fatalf("ResolveCodes(klingon) error = %v, want ErrUnknownLanguage", err)
	}
}
