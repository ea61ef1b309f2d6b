package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableValues(t *testing.T) {
	// spot check the byte values against the interpreter's ROM tables
	tests := []struct {
		want byte
		got  byte
	}{
		{0x00, StmtRem},
		{0x01, StmtData},
		{0x06, StmtLet},
		{0x0A, StmtGoto},
		{0x0B, StmtGoTo},
		{0x20, StmtPrint},
		{0x2D, StmtPosition},
		{0x36, StmtImpliedLet},
		{0x37, StmtGarbled},
		{0x12, OpComma},
		{0x14, OpColon},
		{0x16, EOL},
		{0x17, OpGoto},
		{0x1B, OpThen},
		{0x22, OpEq},
		{0x2D, OpAssign},
		{0x2E, OpAssignStr},
		{0x3C, OpCommaArray},
		{0x3D, FuncStr},
		{0x42, FuncLen},
		{0x54, FuncStrig},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.got)
	}

	assert.Len(t, statementNames, 0x38)
	assert.Len(t, operatorNames, 0x3C-0x12+1)
	assert.Len(t, functionNames, 0x54-0x3D+1)
}

func TestLookupStatement(t *testing.T) {
	tests := []struct {
		word string
		want byte
		ok   bool
	}{
		{word: "PRINT", want: StmtPrint, ok: true},
		{word: "print", want: StmtPrint, ok: true},
		{word: "GOTO", want: StmtGoto, ok: true},
		{word: "POSITION", want: StmtPosition, ok: true},
		{word: "G.", want: StmtGoto, ok: true}, // GOTO sits before GOSUB
		{word: "GOS.", want: StmtGosub, ok: true},
		{word: "PR.", want: StmtPrint, ok: true}, // POKE and POINT lose on the R
		{word: "P.", want: StmtPoint, ok: true},
		{word: "L.", want: StmtList, ok: true},
		{word: "REM.", want: StmtRem, ok: true},
		{word: ".", want: StmtRem, ok: true}, // empty prefix matches the first entry
		{word: "GO", ok: false},              // only GO TO with the space, or GOTO
		{word: "PRANT", ok: false},
		{word: "?", ok: false}, // list-only alias
		{word: "XYZ.", ok: false},
	}

	for _, tt := range tests {
		got, ok := LookupStatement(tt.word)
		if assert.Equalf(t, tt.ok, ok, "LookupStatement(%q)", tt.word) && ok {
			assert.Equalf(t, tt.want, got, "LookupStatement(%q)", tt.word)
		}
	}
}

func TestLookupFunction(t *testing.T) {
	got, ok := LookupFunction("LEN")
	assert.True(t, ok)
	assert.Equal(t, FuncLen, got)

	got, ok = LookupFunction("str$")
	assert.True(t, ok)
	assert.Equal(t, FuncStr, got)

	_, ok = LookupFunction("LEN.")
	assert.False(t, ok, "functions have no abbreviations")
}

func TestLookupOperatorWord(t *testing.T) {
	tests := []struct {
		word string
		want byte
	}{
		{"GOTO", OpGoto},
		{"GOSUB", OpGosub},
		{"TO", OpTo},
		{"STEP", OpStep},
		{"THEN", OpThen},
		{"NOT", OpNot},
		{"OR", OpOr},
		{"AND", OpAnd},
	}

	for _, tt := range tests {
		got, ok := LookupOperatorWord(tt.word)
		assert.Truef(t, ok, "LookupOperatorWord(%q)", tt.word)
		assert.Equal(t, tt.want, got)
	}

	_, ok := LookupOperatorWord("XOR")
	assert.False(t, ok)
}

func TestLookupSymbol(t *testing.T) {
	tests := []struct {
		sym  string
		want byte
	}{
		{"<=", OpLessEq},
		{"<>", OpNotEq},
		{">=", OpGreaterEq},
		{"=", OpEq},
		{"^", OpPower},
		{"(", OpLparen},
		{",", OpComma},
		{"#", OpHash},
	}

	for _, tt := range tests {
		got, ok := LookupSymbol(tt.sym)
		assert.Truef(t, ok, "LookupSymbol(%q)", tt.sym)
		assert.Equal(t, tt.want, got)
	}
}

func TestNames(t *testing.T) {
	name, ok := StatementName(StmtPrint)
	assert.True(t, ok)
	assert.Equal(t, "PRINT", name)

	name, ok = StatementName(StmtImpliedLet)
	assert.True(t, ok)
	assert.Empty(t, name, "implied LET lists as nothing")

	name, ok = OperatorName(OpAssignStr)
	assert.True(t, ok)
	assert.Equal(t, "=", name)

	_, ok = OperatorName(EOL)
	assert.False(t, ok, "EOL never renders")

	name, ok = FunctionName(FuncChr)
	assert.True(t, ok)
	assert.Equal(t, "CHR$", name)

	_, ok = StatementName(0x40)
	assert.False(t, ok)
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{word: "PRANT", want: "PRINT"},
		{word: "GOTTO", want: "GOTO"},
		{word: "PEK", want: "PEEK"},
		{word: "RESTOR", want: "RESTORE"},
		{word: "print", want: "PRINT"},
		{word: "STIK", want: "STICK"},
		{word: "QQQQQQ", want: ""},
	}

	for _, tt := range tests {
		assert.Equalf(t, tt.want, Suggest(tt.word), "Suggest(%q)", tt.word)
	}
}

func TestClassifiers(t *testing.T) {
	assert.True(t, IsStatement(StmtCload))
	assert.True(t, IsOperator(OpCommaArray))
	assert.False(t, IsOperator(FuncStr))
	assert.True(t, IsFunction(FuncStrig))
	assert.False(t, IsFunction(FuncStrig+1))
	assert.True(t, IsVariable(0x80))
	assert.True(t, IsVariable(0xFF))
	assert.False(t, IsVariable(0x7F))

	for _, b := range []byte{OpGoto, OpGosub, OpTo, OpStep, OpThen, OpNot, OpOr, OpAnd} {
		assert.Truef(t, IsWordOperator(b), "IsWordOperator($%02X)", b)
	}
	assert.False(t, IsWordOperator(OpPlus))
}
