package runner

import (
	"unicode/utf8"

	"github.com/global-git/global-git/translate"
)

// pump buffers decoded terminal output and releases it rewritten.
//
// Each push releases at least len(buf)-(maxKeyLen-1) characters and keeps
// the rest, so a phrase split across two reads is still seen whole. A
// phrase that starts inside the released part is always complete in the
// buffer (the tail is one character shorter than the longest phrase), and
// is released whole.
type pump struct {
	rw   *translate.Rewriter
	keep int
	buf  string
	emit func(string)
}

func newPump(rw *translate.Rewriter, emit func(string)) *pump {
	keep := rw.MaxKeyLen() - 1
	if keep < 0 {
		keep = 0
	}
	return &pump{rw: rw, keep: keep, emit: emit}
}

// push appends decoded text and emits what is ready.
func (p *pump) push(text string) {
	if text == "" {
		return
	}
	p.buf += text
	n := utf8.RuneCountInString(p.buf) - p.keep
	if n <= 0 {
		return
	}
	out, used := p.rw.RewriteUntil(p.buf, runeOffset(p.buf, n))
	p.buf = p.buf[used:]
	if out != "" {
		p.emit(out)
	}
}

// flush emits everything still buffered.
func (p *pump) flush() {
	if p.buf == "" {
		return
	}
	out := p.rw.Rewrite(p.buf)
	p.buf = ""
	if out != "" {
		p.emit(out)
	}
}

// pending is the number of characters held back.
func (p *pump) pending() int {
	return utf8.RuneCountInString(p.buf)
}

// runeOffset returns the byte offset of the n-th character of s.
func runeOffset(s string, n int) int {
	i := 0
	for off := range s {
		if i == n {
			return off
		}
		i++
	}
	return len(s)
}
