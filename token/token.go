package token

// Layout constants for a tokenized line. Every stored line is
// [numLo, numHi, length, content..., EOL] where length counts the
// whole record including the header and the EOL byte.
const (
	HeaderLength   = 3
	MaxLineLength  = 255
	MaxProgramLine = 32767 // highest storable line number
	ImmediateLine  = 32768 // line number used for immediate mode entry
	MaxVariables   = 128
)

// Prefix bytes inside line content. SmallIntPrefix sits in a gap the
// original interpreter never used in expression context; it introduces
// a single-byte unsigned constant instead of a full six byte float.
const (
	SmallIntPrefix byte = 0x0D
	NumberPrefix   byte = 0x0E // six byte BCD float follows
	StringPrefix   byte = 0x0F // length byte plus raw characters follow
	VariableBase   byte = 0x80 // variable tokens are VariableBase+index
)

// Statement tokens, $00 through $37. A statement byte is only valid in
// statement position: the first content byte of a line or the byte
// after a colon's offset byte.
const (
	StmtRem        byte = iota // $00
	StmtData                   // $01
	StmtInput                  // $02
	StmtColor                  // $03
	StmtList                   // $04
	StmtEnter                  // $05
	StmtLet                    // $06
	StmtIf                     // $07
	StmtFor                    // $08
	StmtNext                   // $09
	StmtGoto                   // $0A
	StmtGoTo                   // $0B the two word "GO TO" spelling
	StmtGosub                  // $0C
	StmtTrap                   // $0D
	StmtBye                    // $0E
	StmtCont                   // $0F
	StmtCom                    // $10
	StmtClose                  // $11
	StmtClr                    // $12
	StmtDeg                    // $13
	StmtDim                    // $14
	StmtEnd                    // $15
	StmtNew                    // $16
	StmtOpen                   // $17
	StmtLoad                   // $18
	StmtSave                   // $19
	StmtStatus                 // $1A
	StmtNote                   // $1B
	StmtPoint                  // $1C
	StmtXio                    // $1D
	StmtOn                     // $1E
	StmtPoke                   // $1F
	StmtPrint                  // $20
	StmtRad                    // $21
	StmtRead                   // $22
	StmtRestore                // $23
	StmtReturn                 // $24
	StmtRun                    // $25
	StmtStop                   // $26
	StmtPop                    // $27
	StmtPrintAlias             // $28 the ? shorthand, decode only
	StmtGet                    // $29
	StmtPut                    // $2A
	StmtGraphics               // $2B
	StmtPlot                   // $2C
	StmtPosition               // $2D
	StmtDos                    // $2E
	StmtDrawto                 // $2F
	StmtSetcolor               // $30
	StmtLocate                 // $31
	StmtSound                  // $32
	StmtLprint                 // $33
	StmtCsave                  // $34
	StmtCload                  // $35
	StmtImpliedLet             // $36 assignment with no LET keyword
	StmtGarbled                // $37 unparsable line kept as raw text
)

// Operator tokens, $12 through $3C. These are only valid in expression
// position, so they can share byte values with the statement table.
// The encoder emits the plain comma, equals, and parenthesis forms;
// the typed variants past $2E come out of the original interpreter's
// syntax pass and are handled on decode only.
const (
	OpComma          byte = iota + 0x12 // $12 ,
	OpStringType                        // $13 $
	OpColon                             // $14 : statement separator
	OpSemicolon                         // $15 ;
	OpEOL                               // $16 end of line
	OpGoto                              // $17 GOTO inside ON
	OpGosub                             // $18 GOSUB inside ON
	OpTo                                // $19 TO
	OpStep                              // $1A STEP
	OpThen                              // $1B THEN
	OpHash                              // $1C # device number
	OpLessEq                            // $1D <=
	OpNotEq                             // $1E <>
	OpGreaterEq                         // $1F >=
	OpLess                              // $20 <
	OpGreater                           // $21 >
	OpEq                                // $22 = comparison
	OpPower                             // $23 ^
	OpMultiply                          // $24 *
	OpPlus                              // $25 +
	OpMinus                             // $26 -
	OpDivide                            // $27 /
	OpNot                               // $28 NOT
	OpOr                                // $29 OR
	OpAnd                               // $2A AND
	OpLparen                            // $2B (
	OpRparen                            // $2C )
	OpAssign                            // $2D = numeric assignment
	OpAssignStr                         // $2E = string assignment
	OpLessEqStr                         // $2F <= string comparison
	OpNotEqStr                          // $30 <> string comparison
	OpGreaterEqStr                      // $31 >= string comparison
	OpLessStr                           // $32 < string comparison
	OpGreaterStr                        // $33 > string comparison
	OpEqStr                             // $34 = string comparison
	OpUnaryPlus                         // $35 + unary
	OpUnaryMinus                        // $36 - unary
	OpLparenStr                         // $37 ( string subscript
	OpLparenArray                       // $38 ( array subscript
	OpLparenDimArray                    // $39 ( DIM array
	OpLparenFunc                        // $3A ( function argument
	OpLparenDimStr                      // $3B ( DIM string
	OpCommaArray                        // $3C , array subscript
)

// EOL terminates every stored line.
const EOL = OpEOL

// Function tokens, $3D through $54.
const (
	FuncStr    byte = iota + 0x3D // $3D STR$
	FuncChr                       // $3E CHR$
	FuncUsr                       // $3F
	FuncAsc                       // $40
	FuncVal                       // $41
	FuncLen                       // $42
	FuncAdr                       // $43
	FuncAtn                       // $44
	FuncCos                       // $45
	FuncPeek                      // $46
	FuncSin                       // $47
	FuncRnd                       // $48
	FuncFre                       // $49
	FuncExp                       // $4A
	FuncLog                       // $4B
	FuncClog                      // $4C
	FuncSqr                       // $4D
	FuncSgn                       // $4E
	FuncAbs                       // $4F
	FuncInt                       // $50
	FuncPaddle                    // $51
	FuncStick                     // $52
	FuncPtrig                     // $53
	FuncStrig                     // $54
)

// IsStatement reports whether b is in the statement token range. Only
// meaningful when the decoder is in statement position.
func IsStatement(b byte) bool {
	return b <= StmtGarbled
}

// IsOperator reports whether b is in the operator token range.
func IsOperator(b byte) bool {
	return b >= OpComma && b <= OpCommaArray
}

// IsFunction reports whether b is in the function token range.
func IsFunction(b byte) bool {
	return b >= FuncStr && b <= FuncStrig
}

// IsVariable reports whether b references the variable table.
func IsVariable(b byte) bool {
	return b >= VariableBase
}

// IsWordOperator reports whether b lists as a word rather than a
// symbol and therefore needs spaces around it.
func IsWordOperator(b byte) bool {
	switch b {
	case OpGoto, OpGosub, OpTo, OpStep, OpThen, OpNot, OpOr, OpAnd:
		return true
	}
	return false
}
