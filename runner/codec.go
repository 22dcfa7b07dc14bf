package runner

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// errInvalidText is returned by Codec.Decode for bytes that are not valid
// in the stream's charset.
var errInvalidText = errors.New("output is not valid in the terminal charset")

// CharsetFromEnv returns the charset named by the locale environment
// (LC_ALL, LC_CTYPE, LANG, first non-empty wins), "UTF-8" by default.
func CharsetFromEnv(getenv func(string) string) string {
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		val := getenv(key)
		if val == "" {
			continue
		}
		_, charset, ok := strings.Cut(val, ".")
		if !ok {
			break
		}
		if i := strings.IndexByte(charset, '@'); i >= 0 {
			charset = charset[:i]
		}
		if charset != "" {
			return charset
		}
		break
	}
	return "UTF-8"
}

// Codec converts between a stream's byte encoding and text.
type Codec struct {
	name string
	enc  encoding.Encoding
	utf8 bool
}

// NewCodec returns the codec for charset. Unknown charsets fall back to
// UTF-8.
func NewCodec(charset string) Codec {
	enc, err := htmlindex.Get(charset)
	if err != nil || enc == unicode.UTF8 {
		return Codec{name: "utf-8", enc: unicode.UTF8, utf8: true}
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = strings.ToLower(charset)
	}
	return Codec{name: name, enc: enc, utf8: name == "utf-8"}
}

// Name is the canonical charset name.
func (c Codec) Name() string { return c.name }

// Decode converts b to text. It fails on input that is not valid in the
// charset; callers then pass the raw bytes through.
func (c Codec) Decode(b []byte) (string, error) {
	if c.utf8 || c.enc == nil {
		if !utf8.Valid(b) {
			return "", errInvalidText
		}
		return string(b), nil
	}
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Encode converts text back to the stream's charset. Characters the
// charset cannot represent are replaced.
func (c Codec) Encode(s string) []byte {
	if c.utf8 || c.enc == nil {
		return []byte(s)
	}
	out, err := encoding.ReplaceUnsupported(c.enc.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}

// StreamDecoder decodes a byte stream chunk by chunk. A multi-byte
// sequence split across chunks is held back until it completes; invalid
// bytes decode to U+FFFD.
type StreamDecoder struct {
	t       transform.Transformer
	pending []byte
	dst     []byte
}

// NewStreamDecoder returns a stateful decoder for the codec's charset.
func (c Codec) NewStreamDecoder() *StreamDecoder {
	enc := c.enc
	if enc == nil {
		enc = unicode.UTF8
	}
	return &StreamDecoder{
		t:   enc.NewDecoder(),
		dst: make([]byte, 4096),
	}
}

// Decode consumes p and returns the text that is complete so far.
func (d *StreamDecoder) Decode(p []byte) string {
	return d.run(p, false)
}

// Flush returns whatever is still held back, decoding incomplete trailing
// sequences as U+FFFD.
func (d *StreamDecoder) Flush() string {
	s := d.run(nil, true)
	d.t.Reset()
	return s
}

func (d *StreamDecoder) run(p []byte, atEOF bool) string {
	src := make([]byte, 0, len(d.pending)+len(p))
	src = append(src, d.pending...)
	src = append(src, p...)
	d.pending = d.pending[:0]

	var out strings.Builder
	for len(src) > 0 {
		nDst, nSrc, err := d.t.Transform(d.dst, src, atEOF)
		out.Write(d.dst[:nDst])
		src = src[nSrc:]
		switch {
		case err == nil:
			continue
		case errors.Is(err, transform.ErrShortDst):
			continue
		case errors.Is(err, transform.ErrShortSrc) && !atEOF:
			d.pending = append(d.pending, src...)
			return out.String()
		default:
			// Skip one undecodable byte and carry on.
			out.WriteRune(utf8.RuneError)
			if len(src) > 0 {
				src = src[1:]
			}
		}
	}
	return out.String()
}
