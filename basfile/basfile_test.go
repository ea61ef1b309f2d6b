package basfile

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atticemu/atbasic/berrors"
	"github.com/atticemu/atbasic/detok"
	"github.com/atticemu/atbasic/program"
	"github.com/atticemu/atbasic/vartab"
)

func build(t *testing.T, srcs ...string) *program.Program {
	t.Helper()
	p := program.New()
	for _, src := range srcs {
		_, _, err := p.Enter(src)
		require.NoErrorf(t, err, "Enter(%q)", src)
	}
	return p
}

func save(t *testing.T, p *program.Program) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, p))
	return buf.Bytes()
}

// The header for 10 A=1 works out by hand: a two byte name table, one
// eight byte value slot, and a sixteen byte statement table.
func TestSaveHeader(t *testing.T) {
	data := save(t, build(t, "10 A=1"))
	require.Equal(t, 40, len(data))

	want := []int{0, 256, 257, 258, 266, 280, 282}
	for i, w := range want {
		got := int(binary.LittleEndian.Uint16(data[i*2:]))
		assert.Equalf(t, w, got, "header word %d", i)
	}

	assert.Equal(t, []byte{0xC1, 0x00}, data[14:16], "name table")
	assert.Equal(t, byte(vartab.Numeric), data[16], "value slot kind")
	assert.Equal(t, byte(0), data[17], "value slot index")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := build(t,
		"10 DIM A$(20),M(5)",
		"20 A$=\"HI\"",
		"30 M(1)=X",
		"40 PRINT A$",
		"50 GOTO 40",
	)

	back, err := Load(bytes.NewReader(save(t, p)))
	require.NoError(t, err)

	if diff := cmp.Diff(p.Bytes(), back.Bytes()); diff != "" {
		t.Errorf("image mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, p.Vars().Variables(), back.Vars().Variables())
}

// The current statement pointer aims at the terminator normally and at
// the immediate line when one is stored.
func TestSaveCurrentStatement(t *testing.T) {
	plain := save(t, build(t, "10 A=1"))
	stmAt := int(binary.LittleEndian.Uint16(plain[8:]))
	stmcur := int(binary.LittleEndian.Uint16(plain[10:]))
	starp := int(binary.LittleEndian.Uint16(plain[12:]))
	assert.Equal(t, starp-2, stmcur, "no immediate line, pointer sits on the terminator")
	assert.Equal(t, stmAt+14, stmcur)

	withImm := save(t, build(t, "10 A=1", "32768 RUN"))
	stmcur = int(binary.LittleEndian.Uint16(withImm[10:]))
	starp = int(binary.LittleEndian.Uint16(withImm[12:]))
	imm := starp - 2 - 5 // five byte immediate record ahead of the terminator
	assert.Equal(t, imm, stmcur)

	back, err := Load(bytes.NewReader(withImm))
	require.NoError(t, err)
	_, ok := back.LineBytes(32768)
	assert.True(t, ok, "immediate line survives the trip")
}

func TestLoadRejectsDamage(t *testing.T) {
	// fixture: name table A$ (3 bytes), one value slot at 17..24
	data := save(t, build(t, "10 A$=\"X\""))

	corrupt := func(mutate func([]byte)) error {
		bad := append([]byte{}, data...)
		mutate(bad)
		_, err := Load(bytes.NewReader(bad))
		return err
	}

	tests := []struct {
		name   string
		mutate func([]byte)
	}{
		{name: "nonzero lomem", mutate: func(b []byte) { b[0] = 1 }},
		{name: "name table pointer", mutate: func(b []byte) { b[2] = 0xFF }},
		{name: "name table end pointer", mutate: func(b []byte) { binary.LittleEndian.PutUint16(b[4:], 300) }},
		{name: "ragged value table", mutate: func(b []byte) { binary.LittleEndian.PutUint16(b[8:], 268) }},
		{name: "kind without suffix", mutate: func(b []byte) { b[17] = byte(vartab.Numeric) }},
		{name: "slot misnumbered", mutate: func(b []byte) { b[18] = 5 }},
		{name: "unknown kind", mutate: func(b []byte) { b[17] = 0x33 }},
		{name: "name table unterminated", mutate: func(b []byte) { b[16] = 0x42 }},
	}

	for _, tt := range tests {
		err := corrupt(tt.mutate)
		require.Errorf(t, err, tt.name)
		assert.Equalf(t, berrors.LoadFileError, berrors.CodeOf(err), "%s: %v", tt.name, err)
	}

	_, err := Load(bytes.NewReader(data[:20]))
	assert.Equal(t, berrors.LoadFileError, berrors.CodeOf(err), "truncated payload")

	_, err = Load(bytes.NewReader(data[:8]))
	assert.Equal(t, berrors.LoadFileError, berrors.CodeOf(err), "truncated header")
}

func TestLoadEmptyProgram(t *testing.T) {
	back, err := Load(bytes.NewReader(save(t, program.New())))
	require.NoError(t, err)
	assert.Zero(t, back.Len())
	assert.Zero(t, back.Vars().Len())
}

func TestExportText(t *testing.T) {
	p := build(t, "10 PRINT \"HI\"", "20 GOTO 10")

	var buf bytes.Buffer
	require.NoError(t, ExportText(&buf, p, false))
	assert.Equal(t, "10 PRINT \"HI\"\n20 GOTO 10\n", buf.String())
}

func TestImportText(t *testing.T) {
	src := "10 PRINT \"HI\"\n\n20 GOTO 10\n"
	p, err := ImportText(strings.NewReader(src))
	require.NoError(t, err)

	lines := p.List(detok.All(), false)
	require.Len(t, lines, 2)
	assert.Equal(t, "10 PRINT \"HI\"", lines[0].Text)
	assert.Equal(t, "20 GOTO 10", lines[1].Text)
}

func TestImportTextReportsLine(t *testing.T) {
	src := "10 PRINT X\n20 PRANT Y\n30 END\n"
	_, err := ImportText(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2:")
	assert.Equal(t, berrors.GarbledLine, berrors.CodeOf(err))
	assert.Equal(t, "PRINT", berrors.SuggestionOf(err))
}

func TestExportImportRoundTrip(t *testing.T) {
	p := build(t,
		"10 DIM B$(10)",
		"20 B$=\"OK\"",
		"30 FOR I=1 TO 10",
		"40 PRINT B$;I",
		"50 NEXT I",
	)

	var buf bytes.Buffer
	require.NoError(t, ExportText(&buf, p, false))
	back, err := ImportText(&buf)
	require.NoError(t, err)

	if diff := cmp.Diff(p.Bytes(), back.Bytes()); diff != "" {
		t.Errorf("image mismatch (-want +got):\n%s", diff)
	}
}
