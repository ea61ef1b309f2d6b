// Package atascii renders ATASCII bytes as terminal text. ATASCII is
// mostly ASCII with two twists: bit 7 marks inverse video, and the
// first 32 codes are graphics characters instead of controls. Plain
// rendering strips the inverse bit and dots out anything that is not
// printable ASCII; rich rendering wraps inverse runs in ANSI reverse
// video and substitutes Unicode glyphs for the graphics set.
package atascii

import (
	"io"
	"strings"

	"golang.org/x/text/transform"
)

// ANSI escapes for an inverse video run.
const (
	reverseOn  = "\x1b[7m"
	reverseOff = "\x1b[27m"
)

// glyphs holds the display forms of the 32 ATASCII graphics codes,
// indexed by the code itself.
var glyphs = [32]string{
	"♥", // $00 heart
	"├", // $01 left junction
	"▕", // $02 right bar
	"┘", // $03 bottom right corner
	"┤", // $04 right junction
	"┐", // $05 top right corner
	"╱", // $06 rising diagonal
	"╲", // $07 falling diagonal
	"◢", // $08 lower right triangle
	"▗", // $09 lower right block
	"◣", // $0A lower left triangle
	"▝", // $0B upper right block
	"▘", // $0C upper left block
	"▔", // $0D top bar
	"▂", // $0E bottom bar
	"▖", // $0F lower left block
	"♣", // $10 club
	"┌", // $11 top left corner
	"─", // $12 horizontal rule
	"┼", // $13 cross
	"●", // $14 ball
	"▄", // $15 lower half block
	"▎", // $16 left bar
	"┬", // $17 top junction
	"┴", // $18 bottom junction
	"▌", // $19 left half block
	"└", // $1A bottom left corner
	"␛", // $1B escape
	"↑", // $1C up arrow
	"↓", // $1D down arrow
	"←", // $1E left arrow
	"→", // $1F right arrow
}

// Renderer converts ATASCII to displayable text. It implements
// transform.Transformer so it can sit in an io pipeline; inverse video
// state carries across Transform calls until Reset.
type Renderer struct {
	Rich bool

	inverse bool
}

// Transform implements transform.Transformer.
func (r *Renderer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		chunk, inv := r.render(src[nSrc])
		if nDst+len(chunk) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], chunk)
		nSrc++
		r.inverse = inv
	}
	if atEOF && r.inverse {
		if nDst+len(reverseOff) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], reverseOff)
		r.inverse = false
	}
	return nDst, nSrc, nil
}

// Reset implements transform.Transformer.
func (r *Renderer) Reset() {
	r.inverse = false
}

// render returns the output for one byte plus the inverse state after
// it. The chunk includes any ANSI transition so the caller can commit
// text and state together.
func (r *Renderer) render(b byte) (string, bool) {
	inv := b&0x80 != 0
	c := b & 0x7F

	if !r.Rich {
		if c >= 0x20 && c < 0x7F {
			return string(rune(c)), false
		}
		return ".", false
	}

	var sb strings.Builder
	if inv != r.inverse {
		if inv {
			sb.WriteString(reverseOn)
		} else {
			sb.WriteString(reverseOff)
		}
	}
	switch {
	case c < 0x20:
		sb.WriteString(glyphs[c])
	case c == '`':
		sb.WriteString("♦") // diamond, where ASCII has a backquote
	case c == '{':
		sb.WriteString("♠") // spade, where ASCII has a left brace
	case c < 0x7F:
		sb.WriteByte(c)
	default:
		sb.WriteString(".") // $7F is the tab control, no printable form
	}
	return sb.String(), inv
}

// Render returns buf in rich form: glyphs for graphics codes and ANSI
// reverse video around inverse runs.
func Render(buf []byte) string {
	s, _, _ := transform.String(&Renderer{Rich: true}, string(buf))
	return s
}

// RenderPlain returns buf with the inverse bit stripped and anything
// outside printable ASCII shown as a dot.
func RenderPlain(buf []byte) string {
	s, _, _ := transform.String(&Renderer{}, string(buf))
	return s
}

// NewWriter wraps w so ATASCII bytes written to it come out rendered.
// Close flushes any trailing inverse video reset.
func NewWriter(w io.Writer, rich bool) io.WriteCloser {
	return transform.NewWriter(w, &Renderer{Rich: rich})
}
