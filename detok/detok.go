// Package detok renders stored token bytes back into listing text.
// The decoder never trusts its input: token bytes from a damaged file
// degrade to placeholders and a damaged line drops out of a program
// listing without taking the rest of the program with it.
package detok

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/atticemu/atbasic/atascii"
	"github.com/atticemu/atbasic/bcd"
	"github.com/atticemu/atbasic/token"
	"github.com/atticemu/atbasic/vartab"
)

// DetokenizedLine is one listed line. ByteLength is the stored record
// size, header and EOL included, which is what a walker advances by.
type DetokenizedLine struct {
	LineNumber int
	Text       string
	ByteLength int
}

// LineRange bounds a listing. A nil endpoint leaves that side open.
type LineRange struct {
	First *int
	Last  *int
}

// All returns the unbounded range.
func All() LineRange {
	return LineRange{}
}

// Only returns the range holding a single line.
func Only(n int) LineRange {
	return LineRange{First: &n, Last: &n}
}

// Span returns the inclusive range from first to last.
func Span(first, last int) LineRange {
	return LineRange{First: &first, Last: &last}
}

// Contains reports whether n falls inside the range.
func (r LineRange) Contains(n int) bool {
	if r.First != nil && n < *r.First {
		return false
	}
	if r.Last != nil && n > *r.Last {
		return false
	}
	return true
}

// Detokenizer holds the listing options. The zero value lists in plain
// ASCII; Rich renders string and comment bytes with ATASCII glyphs and
// inverse video.
type Detokenizer struct {
	Rich bool
}

// Line decodes one stored line. It returns nil when the record is
// structurally broken: too short, a length byte past the buffer, or a
// missing EOL terminator.
func (d Detokenizer) Line(buf []byte, vars *vartab.Table) *DetokenizedLine {
	if len(buf) < token.HeaderLength+1 {
		return nil
	}
	num := int(buf[0]) | int(buf[1])<<8
	total := int(buf[2])
	if total < token.HeaderLength+1 || total > len(buf) {
		return nil
	}
	if buf[total-1] != token.EOL {
		return nil
	}

	w := &writer{}
	w.emit(strconv.Itoa(num), false, true)
	d.content(w, buf[token.HeaderLength:total-1], vars)

	return &DetokenizedLine{LineNumber: num, Text: w.String(), ByteLength: total}
}

// Program decodes consecutive stored lines until a zero line number, a
// truncated record, or the end of the buffer. The immediate mode line
// never lists; rng drops everything outside it.
func (d Detokenizer) Program(buf []byte, vars *vartab.Table, rng LineRange) []DetokenizedLine {
	var out []DetokenizedLine
	pos := 0
	for {
		rem := buf[pos:]
		if len(rem) < 2 {
			return out
		}
		num := int(rem[0]) | int(rem[1])<<8
		if num == 0 {
			return out
		}
		if len(rem) < token.HeaderLength+1 {
			return out
		}
		total := int(rem[2])
		if total < token.HeaderLength+1 || total > len(rem) {
			return out
		}
		if num != token.ImmediateLine && rng.Contains(num) {
			if dl := d.Line(rem[:total], vars); dl != nil {
				out = append(out, *dl)
			}
		}
		pos += total
	}
}

// content walks the token bytes between the header and the EOL.
// Statement and operator tokens share byte values; the position flag
// picks the table, flipping back to statement position after each
// colon the same way the encoder set it.
func (d Detokenizer) content(w *writer, content []byte, vars *vartab.Table) {
	expectStatement := true
	pos := 0

	for pos < len(content) {
		b := content[pos]

		if expectStatement {
			pos++
			expectStatement = false
			switch {
			case b == token.StmtRem, b == token.StmtGarbled:
				name, _ := token.StatementName(b)
				w.emit(name, false, true)
				w.emit(d.text(content[pos:]), false, false)
				return
			case b == token.StmtImpliedLet:
				// assignment with no keyword, lists as nothing
			case token.IsStatement(b):
				name, _ := token.StatementName(b)
				w.emit(name, false, true)
			default:
				w.emit(placeholder(b), false, false)
			}
			continue
		}

		switch {
		case token.IsVariable(b):
			idx := int(b - token.VariableBase)
			if v, ok := varAt(vars, idx); ok {
				w.emit(listName(v), false, false)
			} else {
				w.emit(fmt.Sprintf("?VAR%d", idx), false, false)
			}
			pos++

		case b == token.SmallIntPrefix:
			if pos+1 >= len(content) {
				w.emit(placeholder(b), false, false)
				pos++
				continue
			}
			w.emit(strconv.Itoa(int(content[pos+1])), false, false)
			pos += 2

		case b == token.NumberPrefix:
			if pos+bcd.Length >= len(content) {
				w.emit(placeholder(b), false, false)
				pos++
				continue
			}
			var f bcd.Float
			copy(f[:], content[pos+1:pos+1+bcd.Length])
			w.emit(f.String(), false, false)
			pos += 1 + bcd.Length

		case b == token.StringPrefix:
			if pos+1 >= len(content) || pos+2+int(content[pos+1]) > len(content) {
				w.emit(placeholder(b), false, false)
				pos++
				continue
			}
			n := int(content[pos+1])
			w.emit(`"`+d.text(content[pos+2:pos+2+n])+`"`, false, false)
			pos += 2 + n

		case b == token.OpColon:
			w.emit(":", false, false)
			pos += 2 // the separator carries a next statement offset
			expectStatement = true

		case token.IsOperator(b):
			if name, ok := token.OperatorName(b); ok {
				spaced := token.IsWordOperator(b)
				w.emit(name, spaced, spaced)
			} else {
				w.emit(placeholder(b), false, false)
			}
			pos++

		case token.IsFunction(b):
			name, _ := token.FunctionName(b)
			w.emit(name, false, false)
			pos++

		default:
			w.emit(placeholder(b), false, false)
			pos++
		}
	}
}

// text renders raw stored bytes, the string and comment payloads.
func (d Detokenizer) text(b []byte) string {
	if d.Rich {
		return atascii.Render(b)
	}
	return atascii.RenderPlain(b)
}

// listName is the form a listing uses: strings get their $ back but
// arrays do not show the parenthesis, that byte is its own token.
func listName(v vartab.Variable) string {
	if v.Kind == vartab.Str {
		return v.Name + "$"
	}
	return v.Name
}

func varAt(vars *vartab.Table, idx int) (vartab.Variable, bool) {
	if vars == nil {
		return vartab.Variable{}, false
	}
	return vars.At(idx)
}

func placeholder(b byte) string {
	return fmt.Sprintf("?$%02X", b)
}

// writer assembles listing text. A token that wants a trailing space
// leaves it pending, so the space only lands when something follows
// and a line never ends ragged.
type writer struct {
	sb      strings.Builder
	pending bool
}

func (w *writer) emit(text string, spaceBefore, spaceAfter bool) {
	if text == "" {
		return
	}
	if w.sb.Len() > 0 && (w.pending || spaceBefore) {
		w.sb.WriteByte(' ')
	}
	w.sb.WriteString(text)
	w.pending = spaceAfter
}

func (w *writer) String() string {
	return w.sb.String()
}
