package translate

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Rewriter replaces mapped phrases in output text.
//
// Replacement is literal and single-pass: the text is scanned once from the
// left and, at each position, the longest key that matches is replaced.
// Replacement text is never scanned again, so the result is not idempotent
// when a replacement is itself a key. Phrase maps must be written with that
// in mind; there is no word-boundary awareness either.
type Rewriter struct {
	m       map[string]string
	byFirst map[byte][]string
	maxLen  int
}

// NewRewriter prepares m for repeated use. Empty keys are ignored.
func NewRewriter(m map[string]string) *Rewriter {
	rw := &Rewriter{
		m:       m,
		byFirst: make(map[byte][]string),
	}
	for k := range m {
		if k == "" {
			continue
		}
		rw.byFirst[k[0]] = append(rw.byFirst[k[0]], k)
		if n := utf8.RuneCountInString(k); n > rw.maxLen {
			rw.maxLen = n
		}
	}
	for _, keys := range rw.byFirst {
		sort.Slice(keys, func(i, j int) bool {
			if len(keys[i]) != len(keys[j]) {
				return len(keys[i]) > len(keys[j])
			}
			return keys[i] < keys[j]
		})
	}
	return rw
}

// Empty reports whether the rewriter has no phrases.
func (rw *Rewriter) Empty() bool {
	return rw == nil || len(rw.byFirst) == 0
}

// MaxKeyLen is the length, in characters, of the longest phrase.
func (rw *Rewriter) MaxKeyLen() int {
	if rw == nil {
		return 0
	}
	return rw.maxLen
}

// Rewrite applies the phrase map to text.
func (rw *Rewriter) Rewrite(text string) string {
	out, _ := rw.RewriteUntil(text, len(text))
	return out
}

// RewriteUntil rewrites the first limit bytes of text. A phrase that
// starts before limit is replaced whole even when it ends past limit, so
// the number of bytes consumed from text can exceed limit. limit must fall
// on a character boundary.
func (rw *Rewriter) RewriteUntil(text string, limit int) (string, int) {
	if limit > len(text) {
		limit = len(text)
	}
	if limit <= 0 {
		return "", 0
	}
	if rw.Empty() {
		return text[:limit], limit
	}

	var b strings.Builder
	changed := false
	last := 0
	i := 0
	for i < limit {
		key, ok := rw.match(text[i:])
		if !ok {
			i++
			continue
		}
		if !changed {
			b.Grow(limit)
			changed = true
		}
		b.WriteString(text[last:i])
		b.WriteString(rw.m[key])
		i += len(key)
		last = i
	}
	if !changed {
		return text[:i], i
	}
	b.WriteString(text[last:i])
	return b.String(), i
}

func (rw *Rewriter) match(s string) (string, bool) {
	for _, k := range rw.byFirst[s[0]] {
		if strings.HasPrefix(s, k) {
			return k, true
		}
	}
	return "", false
}

// Output is a convenience wrapper around NewRewriter(m).Rewrite(text).
func Output(text string, m map[string]string) string {
	if text == "" || len(m) == 0 {
		return text
	}
	return NewRewriter(m).Rewrite(text)
}
