// Package program keeps a tokenized BASIC program the way the
// interpreter's memory does: line records sorted by number, one shared
// variable table, and a terminator when the bytes leave the building.
// Nothing here is safe for concurrent use; serialization belongs to
// whoever owns the Program.
package program

import (
	"math"
	"sort"

	"github.com/atticemu/atbasic/bcd"
	"github.com/atticemu/atbasic/berrors"
	"github.com/atticemu/atbasic/detok"
	"github.com/atticemu/atbasic/token"
	"github.com/atticemu/atbasic/tokenizer"
	"github.com/atticemu/atbasic/vartab"
)

// storedLine is one record as stored, header and EOL included.
type storedLine struct {
	num int
	rec []byte
}

// Program is an editable tokenized program.
type Program struct {
	lines []storedLine
	vars  *vartab.Table
}

// Info summarizes a program for status displays. Lines excludes the
// immediate mode entry; Bytes counts the full stored image with its
// terminator.
type Info struct {
	Lines     int
	Bytes     int
	Variables int
}

// New returns an empty program with a fresh variable table.
func New() *Program {
	return &Program{vars: vartab.New()}
}

// FromBytes rebuilds a program from a stored image, stopping at the
// zero line number terminator. Records are validated the hard way; a
// broken one fails the whole load, unlike listing which just skips it.
func FromBytes(buf []byte, vars *vartab.Table) (*Program, error) {
	p := &Program{vars: vars}
	if p.vars == nil {
		p.vars = vartab.New()
	}

	pos := 0
	for {
		rem := buf[pos:]
		if len(rem) < 2 {
			return p, nil
		}
		num := int(rem[0]) | int(rem[1])<<8
		if num == 0 {
			return p, nil
		}
		if len(rem) < token.HeaderLength+1 {
			return nil, berrors.Newf(berrors.LoadFileError, "line %d is cut short", num)
		}
		total := int(rem[2])
		if total < token.HeaderLength+1 || total > len(rem) {
			return nil, berrors.Newf(berrors.LoadFileError, "line %d has length %d", num, total)
		}
		if rem[total-1] != token.EOL {
			return nil, berrors.Newf(berrors.LoadFileError, "line %d is missing its end mark", num)
		}
		if num > token.ImmediateLine {
			return nil, berrors.Newf(berrors.LoadFileError, "line number %d is out of range", num)
		}
		rec := make([]byte, total)
		copy(rec, rem[:total])
		p.store(num, rec)
		pos += total
	}
}

// Enter tokenizes one source line and stores it. A bare line number
// deletes that line instead; the second return is false in that case.
func (p *Program) Enter(source string) (int, bool, error) {
	tl, err := tokenizer.Tokenize(source, p.vars)
	if err != nil {
		return 0, false, err
	}
	if tl.Empty() {
		p.Delete(tl.LineNumber, tl.LineNumber)
		return tl.LineNumber, false, nil
	}
	for _, v := range tl.NewVariables {
		if _, err := p.vars.Append(v); err != nil {
			return 0, false, err
		}
	}
	p.store(tl.LineNumber, tl.Bytes)
	return tl.LineNumber, true, nil
}

// store inserts a record at its sorted slot, replacing any line with
// the same number.
func (p *Program) store(num int, rec []byte) {
	i := sort.Search(len(p.lines), func(i int) bool { return p.lines[i].num >= num })
	if i < len(p.lines) && p.lines[i].num == num {
		p.lines[i].rec = rec
		return
	}
	p.lines = append(p.lines, storedLine{})
	copy(p.lines[i+1:], p.lines[i:])
	p.lines[i] = storedLine{num: num, rec: rec}
}

// Delete removes every line from first through last inclusive and
// returns how many went away.
func (p *Program) Delete(first, last int) int {
	kept := p.lines[:0]
	removed := 0
	for _, ln := range p.lines {
		if ln.num >= first && ln.num <= last {
			removed++
			continue
		}
		kept = append(kept, ln)
	}
	p.lines = kept
	return removed
}

// Clear drops the whole program and its variables, the NEW command.
func (p *Program) Clear() {
	p.lines = nil
	p.vars.Clear()
}

// Len returns the number of stored records, the immediate mode line
// included.
func (p *Program) Len() int {
	return len(p.lines)
}

// MaxLineNum returns the highest program line number, zero when no
// program lines are stored.
func (p *Program) MaxLineNum() int {
	for i := len(p.lines) - 1; i >= 0; i-- {
		if p.lines[i].num <= token.MaxProgramLine {
			return p.lines[i].num
		}
	}
	return 0
}

// LineBytes returns a copy of one stored record.
func (p *Program) LineBytes(num int) ([]byte, bool) {
	i := sort.Search(len(p.lines), func(i int) bool { return p.lines[i].num >= num })
	if i >= len(p.lines) || p.lines[i].num != num {
		return nil, false
	}
	rec := make([]byte, len(p.lines[i].rec))
	copy(rec, p.lines[i].rec)
	return rec, true
}

// Vars exposes the program's variable table.
func (p *Program) Vars() *vartab.Table {
	return p.vars
}

// Bytes returns the stored image: every record in line order followed
// by the zero terminator.
func (p *Program) Bytes() []byte {
	size := 2
	for _, ln := range p.lines {
		size += len(ln.rec)
	}
	buf := make([]byte, 0, size)
	for _, ln := range p.lines {
		buf = append(buf, ln.rec...)
	}
	return append(buf, 0, 0)
}

// ReplaceWith adopts the lines and variables of src, keeping p's
// identity for anyone holding the pointer.
func (p *Program) ReplaceWith(src *Program) {
	p.lines = src.lines
	p.vars = src.vars
}

// List renders the program lines inside rng.
func (p *Program) List(rng detok.LineRange, rich bool) []detok.DetokenizedLine {
	return detok.Detokenizer{Rich: rich}.Program(p.Bytes(), p.vars, rng)
}

// ListLine renders a single line.
func (p *Program) ListLine(num int, rich bool) (detok.DetokenizedLine, bool) {
	lines := p.List(detok.Only(num), rich)
	if len(lines) == 0 {
		return detok.DetokenizedLine{}, false
	}
	return lines[0], true
}

// Info returns the program summary.
func (p *Program) Info() Info {
	n := len(p.lines)
	if n > 0 && p.lines[n-1].num == token.ImmediateLine {
		n--
	}
	return Info{Lines: n, Bytes: len(p.Bytes()), Variables: p.vars.Len()}
}

// Renumber rewrites line numbers as start, start+step, and so on, and
// patches every constant jump target it can prove is a line reference.
// Targets that point at no current line come back in the first return
// so the caller can warn about them; computed targets stay untouched.
func (p *Program) Renumber(start, step int) ([]int, error) {
	if start < 1 || step < 1 {
		return nil, berrors.Newf(berrors.ValueError, "renumber needs a positive start and step, got %d and %d", start, step)
	}

	remap := map[int]int{}
	next := start
	for _, ln := range p.lines {
		if ln.num == token.ImmediateLine {
			continue
		}
		if next > token.MaxProgramLine {
			return nil, berrors.Newf(berrors.BadLineNumber, "renumber runs past line %d", token.MaxProgramLine)
		}
		remap[ln.num] = next
		next += step
	}

	missing := map[int]bool{}
	for i := range p.lines {
		ln := &p.lines[i]
		content := ln.rec[token.HeaderLength : len(ln.rec)-1]
		for _, target := range remapTargets(content, remap) {
			missing[target] = true
		}
		if ln.num != token.ImmediateLine {
			ln.num = remap[ln.num]
			ln.rec[0] = byte(ln.num & 0xFF)
			ln.rec[1] = byte(ln.num >> 8)
		}
	}

	unmapped := make([]int, 0, len(missing))
	for n := range missing {
		unmapped = append(unmapped, n)
	}
	sort.Ints(unmapped)
	return unmapped, nil
}

// remapTargets walks one line's content and rewrites the BCD constants
// sitting in jump target position. A constant only counts as a target
// when a jump token leads to it and a statement boundary, comma, or
// the line end follows it; anything folded into arithmetic is somebody
// computing a line number and not ours to rewrite.
func remapTargets(content []byte, remap map[int]int) []int {
	var unmapped []int
	pos := 0
	stmt := true
	target := false

	for pos < len(content) {
		b := content[pos]

		if stmt {
			stmt = false
			pos++
			switch b {
			case token.StmtRem, token.StmtGarbled:
				return unmapped
			case token.StmtGoto, token.StmtGoTo, token.StmtGosub,
				token.StmtTrap, token.StmtRestore, token.StmtList:
				target = true
			}
			continue
		}

		switch {
		case b == token.NumberPrefix:
			if pos+bcd.Length >= len(content) {
				return unmapped
			}
			if target && atBoundary(content, pos+1+bcd.Length) {
				var f bcd.Float
				copy(f[:], content[pos+1:pos+1+bcd.Length])
				v := bcd.Decode(f)
				if v == math.Trunc(v) && v >= 0 && v <= float64(token.MaxProgramLine) {
					if n, ok := remap[int(v)]; ok {
						nf := bcd.Encode(float64(n))
						copy(content[pos+1:pos+1+bcd.Length], nf[:])
					} else {
						unmapped = append(unmapped, int(v))
					}
				}
			}
			pos += 1 + bcd.Length

		case b == token.SmallIntPrefix:
			pos += 2
			target = false

		case b == token.StringPrefix:
			if pos+1 >= len(content) {
				return unmapped
			}
			pos += 2 + int(content[pos+1])
			target = false

		case b == token.OpColon:
			pos += 2
			stmt = true
			target = false

		case b == token.OpComma:
			pos++ // a comma keeps an ON or LIST target list going

		case b == token.OpGoto || b == token.OpGosub || b == token.OpThen:
			pos++
			target = true

		default:
			pos++
			target = false
		}
	}
	return unmapped
}

// atBoundary reports whether the byte at pos ends a statement, which
// is what separates GOTO 100 from GOTO 100+N.
func atBoundary(content []byte, pos int) bool {
	if pos >= len(content) {
		return true
	}
	return content[pos] == token.OpColon || content[pos] == token.OpComma
}
