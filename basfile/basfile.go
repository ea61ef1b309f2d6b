// Package basfile reads and writes tokenized program files in the
// classic SAVE layout: a seven word header, the variable name table,
// the variable value table, and the statement table. The header words
// are memory pointers biased by 256, which is why the name table
// always claims to start at 0x0100. Text listings move through
// ExportText and ImportText.
package basfile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/atticemu/atbasic/berrors"
	"github.com/atticemu/atbasic/detok"
	"github.com/atticemu/atbasic/program"
	"github.com/atticemu/atbasic/token"
	"github.com/atticemu/atbasic/vartab"
)

const (
	headerLen = 14  // seven little endian words
	bias      = 256 // header pointers pretend memory starts here
	vvtEntry  = 8   // one value table slot
)

// Save writes p in the tokenized file layout.
func Save(w io.Writer, p *program.Program) error {
	vars := p.Vars().Variables()

	vnt := make([]byte, 0, 16)
	for _, v := range vars {
		name := v.Display()
		vnt = append(vnt, name...)
		vnt[len(vnt)-1] |= 0x80 // last character carries the end mark
	}
	vnt = append(vnt, 0)

	vvt := make([]byte, len(vars)*vvtEntry)
	for i, v := range vars {
		vvt[i*vvtEntry] = byte(v.Kind)
		vvt[i*vvtEntry+1] = byte(i)
	}

	stm := p.Bytes()
	stmcur := immediateOffset(stm)

	vntAt := bias
	vvtAt := vntAt + len(vnt)
	stmAt := vvtAt + len(vvt)

	header := make([]byte, headerLen)
	words := []int{0, vntAt, vvtAt - 1, vvtAt, stmAt, stmAt + stmcur, stmAt + len(stm)}
	for i, word := range words {
		binary.LittleEndian.PutUint16(header[i*2:], uint16(word))
	}

	for _, chunk := range [][]byte{header, vnt, vvt, stm} {
		if _, err := w.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}

// immediateOffset finds where the current statement pointer should
// aim: the immediate mode line when one is stored, otherwise the
// terminator.
func immediateOffset(stm []byte) int {
	pos := 0
	for {
		rem := stm[pos:]
		if len(rem) < 2 {
			return pos
		}
		num := int(rem[0]) | int(rem[1])<<8
		if num == 0 || num == token.ImmediateLine {
			return pos
		}
		if len(rem) < token.HeaderLength+1 {
			return pos
		}
		pos += int(rem[2])
	}
}

// Load reads a tokenized file back into a fresh program.
func Load(r io.Reader) (*program.Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < headerLen {
		return nil, berrors.New(berrors.LoadFileError, "file is too short for a header")
	}

	var w [7]int
	for i := range w {
		w[i] = int(binary.LittleEndian.Uint16(data[i*2:]))
	}
	lomem, vntAt, vnteAt, vvtAt, stmAt, stmcur, starp := w[0], w[1], w[2], w[3], w[4], w[5], w[6]

	switch {
	case lomem != 0:
		return nil, berrors.New(berrors.LoadFileError, "not a tokenized BASIC file")
	case vntAt != bias:
		return nil, berrors.Newf(berrors.LoadFileError, "name table starts at %d, want %d", vntAt, bias)
	case vnteAt != vvtAt-1:
		return nil, berrors.New(berrors.LoadFileError, "name table end pointer is off")
	case vvtAt < vntAt+1 || stmAt < vvtAt || starp < stmAt:
		return nil, berrors.New(berrors.LoadFileError, "header pointers are out of order")
	case stmcur < stmAt || stmcur > starp:
		return nil, berrors.New(berrors.LoadFileError, "current statement pointer is out of range")
	case (stmAt-vvtAt)%vvtEntry != 0:
		return nil, berrors.New(berrors.LoadFileError, "value table is not whole entries")
	}

	payload := data[headerLen:]
	if len(payload) < starp-bias {
		return nil, berrors.Newf(berrors.LoadFileError, "file is cut short, %d bytes missing", starp-bias-len(payload))
	}

	names, err := readNames(payload[:vvtAt-vntAt])
	if err != nil {
		return nil, err
	}

	count := (stmAt - vvtAt) / vvtEntry
	if len(names) != count {
		return nil, berrors.Newf(berrors.LoadFileError, "%d names for %d value slots", len(names), count)
	}

	vvt := payload[vvtAt-vntAt : stmAt-vntAt]
	vars := make([]vartab.Variable, 0, count)
	for i := 0; i < count; i++ {
		v, err := readVariable(names[i], vvt[i*vvtEntry:(i+1)*vvtEntry], i)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	table, err := vartab.FromVariables(vars)
	if err != nil {
		return nil, err
	}

	return program.FromBytes(payload[stmAt-vntAt:starp-vntAt], table)
}

// readNames splits the variable name table. Each name ends on the
// character with the high bit set; a lone zero byte closes the table.
func readNames(vnt []byte) ([]string, error) {
	var names []string
	var cur []byte
	for i, b := range vnt {
		if b == 0 && len(cur) == 0 {
			if i != len(vnt)-1 {
				return nil, berrors.New(berrors.LoadFileError, "name table ends before its slot does")
			}
			return names, nil
		}
		cur = append(cur, b&0x7F)
		if b&0x80 != 0 {
			names = append(names, string(cur))
			cur = nil
		}
	}
	return nil, berrors.New(berrors.LoadFileError, "name table has no terminator")
}

// readVariable checks one value table entry against its name and
// rebuilds the table entry.
func readVariable(name string, entry []byte, i int) (vartab.Variable, error) {
	kind := vartab.Kind(entry[0])
	if int(entry[1]) != i {
		return vartab.Variable{}, berrors.Newf(berrors.LoadFileError, "value slot %d numbered %d", i, entry[1])
	}

	switch kind {
	case vartab.Numeric:
		if strings.HasSuffix(name, "$") || strings.HasSuffix(name, "(") {
			return vartab.Variable{}, berrors.Newf(berrors.LoadFileError, "scalar %q has a typed name", name)
		}
		return vartab.Variable{Name: name, Kind: kind}, nil
	case vartab.Str:
		base, ok := strings.CutSuffix(name, "$")
		if !ok {
			return vartab.Variable{}, berrors.Newf(berrors.LoadFileError, "string variable %q has no $ in its name", name)
		}
		return vartab.Variable{Name: base, Kind: kind}, nil
	case vartab.Array:
		base, ok := strings.CutSuffix(name, "(")
		if !ok {
			return vartab.Variable{}, berrors.Newf(berrors.LoadFileError, "array %q has no ( in its name", name)
		}
		return vartab.Variable{Name: base, Kind: kind}, nil
	}
	return vartab.Variable{}, berrors.Newf(berrors.LoadFileError, "unknown variable kind $%02X", entry[0])
}

// ExportText writes the listing, one line each, with a trailing
// newline on the last one too.
func ExportText(w io.Writer, p *program.Program, rich bool) error {
	for _, dl := range p.List(detok.All(), rich) {
		if _, err := io.WriteString(w, dl.Text+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// ImportText builds a fresh program from listing text. The first bad
// source line stops the import and names itself in the error.
func ImportText(r io.Reader) (*program.Program, error) {
	p := program.New()
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if _, _, err := p.Enter(line); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return p, nil
}
