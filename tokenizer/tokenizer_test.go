package tokenizer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atticemu/atbasic/bcd"
	"github.com/atticemu/atbasic/berrors"
	"github.com/atticemu/atbasic/token"
	"github.com/atticemu/atbasic/vartab"
)

// num builds the byte form of a numeric constant for expected content.
func num(v float64) []byte {
	f := bcd.Encode(v)
	return append([]byte{token.NumberPrefix}, f[:]...)
}

func str(s string) []byte {
	out := []byte{token.StringPrefix, byte(len(s))}
	return append(out, s...)
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestTokenizeContent(t *testing.T) {
	tests := []struct {
		inp  string
		line int
		exp  []byte
	}{
		{
			inp:  "10 PRINT X",
			line: 10,
			exp:  []byte{token.StmtPrint, 0x80},
		},
		{
			inp:  "10 X=5",
			line: 10,
			exp:  cat([]byte{token.StmtImpliedLet, 0x80, token.OpAssign}, num(5)),
		},
		{
			inp:  "20 LET A$=\"HI\"",
			line: 20,
			exp:  cat([]byte{token.StmtLet, 0x80, token.OpAssignStr}, str("HI")),
		},
		{
			inp:  "30 IF X=1 THEN 100",
			line: 30,
			exp: cat([]byte{token.StmtIf, 0x80, token.OpEq}, num(1),
				[]byte{token.OpThen}, num(100)),
		},
		{
			inp:  "40 FOR I=1 TO 10 STEP 2",
			line: 40,
			exp: cat([]byte{token.StmtFor, 0x80, token.OpAssign}, num(1),
				[]byte{token.OpTo}, num(10), []byte{token.OpStep}, num(2)),
		},
		{
			inp:  "50 ON X GOTO 100,200",
			line: 50,
			exp: cat([]byte{token.StmtOn, 0x80, token.OpGoto}, num(100),
				[]byte{token.OpComma}, num(200)),
		},
		{
			inp:  "60 X(3)=5",
			line: 60,
			exp: cat([]byte{token.StmtImpliedLet, 0x80, token.OpLparen}, num(3),
				[]byte{token.OpRparen, token.OpAssign}, num(5)),
		},
		{
			inp:  "70 X=Y=Z",
			line: 70,
			exp:  []byte{token.StmtImpliedLet, 0x80, token.OpAssign, 0x81, token.OpEq, 0x82},
		},
		{
			inp:  "80 POKE 710,$C8",
			line: 80,
			exp: cat([]byte{token.StmtPoke}, num(710),
				[]byte{token.OpComma}, num(200)),
		},
		{
			inp:  "90 REM HELLO, WORLD",
			line: 90,
			exp:  append([]byte{token.StmtRem}, "HELLO, WORLD"...),
		},
		{
			inp:  "95 DIM A(10)",
			line: 95,
			exp: cat([]byte{token.StmtDim, 0x80, token.OpLparen}, num(10),
				[]byte{token.OpRparen}),
		},
		{
			inp:  "99 PR. N<=3",
			line: 99,
			exp: cat([]byte{token.StmtPrint, 0x80, token.OpLessEq}, num(3)),
		},
		{
			inp:  "100 G. 10",
			line: 100,
			exp:  cat([]byte{token.StmtGoto}, num(10)),
		},
		{
			inp:  "110 GO TO 10",
			line: 110,
			exp:  cat([]byte{token.StmtGoTo}, num(10)),
		},
		{
			inp:  "120 A$=\"héllo\"",
			line: 120,
			exp:  cat([]byte{token.StmtImpliedLet, 0x80, token.OpAssignStr}, str("h?llo")),
		},
	}

	for _, tt := range tests {
		tl, err := Tokenize(tt.inp, vartab.New())
		require.NoErrorf(t, err, "Tokenize(%q)", tt.inp)

		assert.Equalf(t, tt.line, tl.LineNumber, "line number of %q", tt.inp)

		want := make([]byte, 0, len(tt.exp)+4)
		total := token.HeaderLength + len(tt.exp) + 1
		want = append(want, byte(tt.line&0xFF), byte(tt.line>>8), byte(total))
		want = append(want, tt.exp...)
		want = append(want, token.EOL)
		if !assert.Equalf(t, want, tl.Bytes, "bytes of %q", tt.inp) {
			t.Log(spew.Sdump(tl.Bytes))
		}
	}
}

// The byte after each colon holds the record offset just past the
// statement the colon opens, so a scanner can hop statement to
// statement without decoding.
func TestTokenizeColonOffsets(t *testing.T) {
	tl, err := Tokenize("50 A=1:PRINT A:B=2", vartab.New())
	require.NoError(t, err)

	// content: 36 80 2D 0E +6 | 14 off 20 80 | 14 off 36 81 2D 0E +6
	rec := tl.Bytes
	require.Equal(t, byte(len(rec)), rec[2], "length byte")

	first := 3 + 10 // first colon token
	require.Equal(t, token.OpColon, rec[first])
	assert.Equal(t, byte(first+2+2), rec[first+1], "first offset points at the second colon")

	second := first + 2 + 2
	require.Equal(t, token.OpColon, rec[second])
	assert.Equal(t, byte(len(rec)-1), rec[second+1], "last offset points at the EOL byte")
}

func TestTokenizeVariables(t *testing.T) {
	vars := vartab.New()

	tl, err := Tokenize("10 A=B+C", vars)
	require.NoError(t, err)

	assert.Equal(t, []vartab.Variable{
		{Name: "A", Kind: vartab.Numeric},
		{Name: "B", Kind: vartab.Numeric},
		{Name: "C", Kind: vartab.Numeric},
	}, tl.NewVariables)
	assert.Zero(t, vars.Len(), "caller table must stay untouched")

	for _, v := range tl.NewVariables {
		_, err := vars.Append(v)
		require.NoError(t, err)
	}

	// known names resolve to their existing slots, no new entries
	tl, err = Tokenize("20 C=A", vars)
	require.NoError(t, err)
	assert.Empty(t, tl.NewVariables)
	assert.Equal(t, []byte{token.StmtImpliedLet, 0x82, token.OpAssign, 0x80}, tl.Bytes[3:len(tl.Bytes)-1])
}

func TestTokenizeVariableKinds(t *testing.T) {
	tl, err := Tokenize("10 DIM A(10),B$(20)", vartab.New())
	require.NoError(t, err)

	assert.Equal(t, []vartab.Variable{
		{Name: "A", Kind: vartab.Array},
		{Name: "B", Kind: vartab.Str},
	}, tl.NewVariables)
}

// The same letter can name a scalar, an array, and a string at once;
// they get separate table slots.
func TestTokenizeKindsShareNames(t *testing.T) {
	vars := vartab.New()
	tl, err := Tokenize("10 A=A(1)+LEN(A$)", vars)
	require.NoError(t, err)

	assert.Len(t, tl.NewVariables, 3)
	assert.Equal(t, vartab.Numeric, tl.NewVariables[0].Kind)
	assert.Equal(t, vartab.Array, tl.NewVariables[1].Kind)
	assert.Equal(t, vartab.Str, tl.NewVariables[2].Kind)
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		inp  string
		code int
		col  int
	}{
		{inp: "PRINT X", code: berrors.GarbledLine, col: 1},
		{inp: "0 PRINT X", code: berrors.BadLineNumber, col: 1},
		{inp: "40000 X=1", code: berrors.BadLineNumber, col: 1},
		{inp: "10 PRANT \"X\"", code: berrors.GarbledLine, col: 4},
		{inp: "10 X", code: berrors.GarbledLine, col: 4},
		{inp: "10 A$=\"unterminated", code: berrors.InvalidString, col: 7},
	}

	for _, tt := range tests {
		_, err := Tokenize(tt.inp, vartab.New())
		if err == nil {
			t.Fatalf("Tokenize(%q) did not fail", tt.inp)
		}
		var be *berrors.BasicError
		require.ErrorAsf(t, err, &be, "Tokenize(%q)", tt.inp)
		assert.Equalf(t, tt.code, be.Code, "code for %q: %s", tt.inp, err)
		assert.Equalf(t, tt.col, be.Column, "column for %q: %s", tt.inp, err)
	}
}

func TestTokenizeSuggestion(t *testing.T) {
	_, err := Tokenize("10 PRANT \"X\"", vartab.New())
	require.Error(t, err)
	assert.Equal(t, "PRINT", berrors.SuggestionOf(err))
	assert.Contains(t, err.Error(), "did you mean PRINT?")
}

func TestTokenizeLineTooLong(t *testing.T) {
	inp := fmt.Sprintf("10 A$=\"%s\"", strings.Repeat("X", 250))
	_, err := Tokenize(inp, vartab.New())
	assert.Equal(t, berrors.LineTooLong, berrors.CodeOf(err))

	// one statement under the limit still fits
	inp = fmt.Sprintf("10 A$=\"%s\"", strings.Repeat("X", 240))
	tl, err := Tokenize(inp, vartab.New())
	require.NoError(t, err)
	assert.Equal(t, 249, len(tl.Bytes))
}

func TestTokenizeLineNumberRange(t *testing.T) {
	tl, err := Tokenize("32767 END", vartab.New())
	require.NoError(t, err)
	assert.Equal(t, token.MaxProgramLine, tl.LineNumber)

	// the immediate mode line is storable, one past the program range
	tl, err = Tokenize("32768 PRINT X", vartab.New())
	require.NoError(t, err)
	assert.Equal(t, token.ImmediateLine, tl.LineNumber)
	assert.Equal(t, []byte{0x00, 0x80}, tl.Bytes[:2])
}

func TestTokenizeBareNumberIsEmpty(t *testing.T) {
	tl, err := Tokenize("10", vartab.New())
	require.NoError(t, err)
	assert.True(t, tl.Empty())
	assert.Equal(t, []byte{10, 0, 4, token.EOL}, tl.Bytes)

	tl, err = Tokenize("10 PRINT", vartab.New())
	require.NoError(t, err)
	assert.False(t, tl.Empty())
}

func TestTokenizeTableFull(t *testing.T) {
	var seed []vartab.Variable
	for i := 0; i < vartab.Max; i++ {
		seed = append(seed, vartab.Variable{Name: fmt.Sprintf("V%d", i)})
	}
	vars, err := vartab.FromVariables(seed)
	require.NoError(t, err)

	// an existing name still tokenizes
	_, err = Tokenize("10 V0=1", vars)
	assert.NoError(t, err)

	_, err = Tokenize("10 ZZ=1", vars)
	assert.Equal(t, berrors.TooManyVariables, berrors.CodeOf(err))
}

// A numeric constant even float64 cannot hold must not kill the line;
// it stores as zero. Anything in float range but past the BCD format
// saturates inside Encode instead.
func TestTokenizeNumberOverflow(t *testing.T) {
	tl, err := Tokenize("10 X=1E+400", vartab.New())
	require.NoError(t, err)

	var zero bcd.Float
	exp := cat([]byte{token.StmtImpliedLet, 0x80, token.OpAssign, token.NumberPrefix}, zero[:])
	assert.Equal(t, exp, tl.Bytes[3:len(tl.Bytes)-1])
}
