package runner

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/global-git/global-git/translate"
)

func collect() (*strings.Builder, func(string)) {
	var b strings.Builder
	return &b, func(s string) { b.WriteString(s) }
}

func TestPumpPhraseSplitAcrossReads(t *testing.T) {
	rw := translate.NewRewriter(map[string]string{"git status": "estado"})
	out, emit := collect()
	p := newPump(rw, emit)

	for _, chunk := range []string{"run git st", "atus now", " please"} {
		p.push(chunk)
	}
	p.flush()

	if got, want := out.String(), "run estado now please"; got != want {
		t.Fatalf("pump output = %q, want %q", got, want)
	}
}

func TestPumpKeepsTailOfMaxKeyLenMinusOne(t *testing.T) {
	rw := translate.NewRewriter(map[string]string{"abcde": "X"})
	out, emit := collect()
	p := newPump(rw, emit)

	p.push("0123456789")
	// 10 characters buffered, 4 kept back.
	if got := out.String(); got != "012345" {
		t.Fatalf("emitted %q, want %q", got, "012345")
	}
	if p.pending() != 4 {
		t.Fatalf("pending() = %d, want 4", p.pending())
	}

	p.push("ab")
	if p.pending() != 4 {
		t.Fatalf("pending() = %d, want 4", p.pending())
	}
	p.flush()
	if got := out.String(); got != "0123456789ab" {
		t.Fatalf("after flush %q, want %q", got, "0123456789ab")
	}
}

func TestPumpNeverEmitsLessThanBound(t *testing.T) {
	rw := translate.NewRewriter(map[string]string{"needle": "N", "ne": "n"})
	keep := rw.MaxKeyLen() - 1
	p := newPump(rw, func(string) {})

	chunks := []string{"haystack ne", "edle and more hay", "stack", "n", "eedle"}
	for _, c := range chunks {
		total := p.pending() + utf8.RuneCountInString(c)
		p.push(c)
		consumed := total - p.pending()
		if bound := total - keep; bound > 0 && consumed < bound {
			t.Fatalf("push(%q) consumed %d characters, want at least %d", c, consumed, bound)
		}
		if p.pending() > keep {
			t.Fatalf("push(%q) kept %d characters, want at most %d", c, p.pending(), keep)
		}
	}
}

func TestPumpMultibyte(t *testing.T) {
	rw := translate.NewRewriter(map[string]string{"ñandú": "rhea"})
	out, emit := collect()
	p := newPump(rw, emit)

	p.push("el ña")
	p.push("ndú corre")
	p.flush()
	if got, want := out.String(), "el rhea corre"; got != want {
		t.Fatalf("pump output = %q, want %q", got, want)
	}
}

func TestRuneOffset(t *testing.T) {
	s := "añb"
	tests := map[int]int{0: 0, 1: 1, 2: 3, 3: 4, 9: 4}
	for n, want := range tests {
		if got := runeOffset(s, n); got != want {
			t.Fatalf("runeOffset(%q, %d) = %d, want %d", s, n, got, want)
		}
	}
}
