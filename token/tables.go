package token

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// The name tables mirror the original interpreter's ROM tables byte
// for byte. Table order matters: a period abbreviation resolves to the
// first entry its prefix matches, so G. means GOTO and not GOSUB.

var statementNames = [...]string{
	"REM", "DATA", "INPUT", "COLOR", "LIST", "ENTER", "LET", "IF",
	"FOR", "NEXT", "GOTO", "GO TO", "GOSUB", "TRAP", "BYE", "CONT",
	"COM", "CLOSE", "CLR", "DEG", "DIM", "END", "NEW", "OPEN",
	"LOAD", "SAVE", "STATUS", "NOTE", "POINT", "XIO", "ON", "POKE",
	"PRINT", "RAD", "READ", "RESTORE", "RETURN", "RUN", "STOP", "POP",
	"?", "GET", "PUT", "GRAPHICS", "PLOT", "POSITION", "DOS", "DRAWTO",
	"SETCOLOR", "LOCATE", "SOUND", "LPRINT", "CSAVE", "CLOAD",
	"",       // $36 implied LET lists as nothing
	"ERROR-", // $37 lists ahead of the raw line text
}

// operatorNames is indexed by token byte minus OpComma. Entries that
// never appear in listings are empty.
var operatorNames = [...]string{
	",", "$", ":", ";", "",
	"GOTO", "GOSUB", "TO", "STEP", "THEN", "#",
	"<=", "<>", ">=", "<", ">", "=",
	"^", "*", "+", "-", "/",
	"NOT", "OR", "AND", "(", ")",
	"=", "=",
	"<=", "<>", ">=", "<", ">", "=",
	"+", "-",
	"(", "(", "(", "(", "(", ",",
}

// functionNames is indexed by token byte minus FuncStr.
var functionNames = [...]string{
	"STR$", "CHR$", "USR", "ASC", "VAL", "LEN", "ADR", "ATN",
	"COS", "PEEK", "SIN", "RND", "FRE", "EXP", "LOG", "CLOG",
	"SQR", "SGN", "ABS", "INT", "PADDLE", "STICK", "PTRIG", "STRIG",
}

// symbolOperators maps the punctuation the scanner can produce to the
// plain operator forms the encoder emits.
var symbolOperators = map[string]byte{
	",":  OpComma,
	":":  OpColon,
	";":  OpSemicolon,
	"#":  OpHash,
	"<=": OpLessEq,
	"<>": OpNotEq,
	">=": OpGreaterEq,
	"<":  OpLess,
	">":  OpGreater,
	"=":  OpEq,
	"^":  OpPower,
	"*":  OpMultiply,
	"+":  OpPlus,
	"-":  OpMinus,
	"/":  OpDivide,
	"(":  OpLparen,
	")":  OpRparen,
}

var (
	statementWords = map[string]byte{}
	operatorWords  = map[string]byte{}
	functionWords  = map[string]byte{}
)

func init() {
	for i, name := range statementNames {
		if isKeywordWord(name) {
			statementWords[name] = byte(i)
		}
	}
	for i, name := range operatorNames {
		if isKeywordWord(name) {
			operatorWords[name] = OpComma + byte(i)
		}
	}
	for i, name := range functionNames {
		functionWords[name] = FuncStr + byte(i)
	}
}

// isKeywordWord filters the table entries the scanner could actually
// read as a word. That drops symbols, the two word GO TO spelling, and
// the decode-only entries.
func isKeywordWord(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// StatementName returns the listing text for a statement token.
func StatementName(b byte) (string, bool) {
	if int(b) >= len(statementNames) {
		return "", false
	}
	return statementNames[b], true
}

// OperatorName returns the listing text for an operator token.
func OperatorName(b byte) (string, bool) {
	if !IsOperator(b) {
		return "", false
	}
	name := operatorNames[b-OpComma]
	return name, name != ""
}

// FunctionName returns the listing text for a function token.
func FunctionName(b byte) (string, bool) {
	if !IsFunction(b) {
		return "", false
	}
	return functionNames[b-FuncStr], true
}

// LookupStatement resolves a word to a statement token. The word may
// be a full keyword or a period abbreviation: the shortest prefix plus
// a period names the first statement in table order with that prefix,
// the same way the original keyboard shortcuts worked.
func LookupStatement(word string) (byte, bool) {
	w := strings.ToUpper(word)
	if b, ok := statementWords[w]; ok {
		return b, true
	}
	if prefix, ok := strings.CutSuffix(w, "."); ok {
		for i, name := range statementNames {
			if name == "" || byte(i) == StmtGarbled {
				continue
			}
			if strings.HasPrefix(name, prefix) {
				return byte(i), true
			}
		}
	}
	return 0, false
}

// LookupFunction resolves a word to a function token. Functions have
// no abbreviated forms.
func LookupFunction(word string) (byte, bool) {
	b, ok := functionWords[strings.ToUpper(word)]
	return b, ok
}

// LookupOperatorWord resolves the word shaped operators: NOT, OR, AND,
// TO, STEP, THEN, and the GOTO and GOSUB that follow ON.
func LookupOperatorWord(word string) (byte, bool) {
	b, ok := operatorWords[strings.ToUpper(word)]
	return b, ok
}

// LookupSymbol resolves a punctuation or operator symbol to its plain
// token form.
func LookupSymbol(sym string) (byte, bool) {
	b, ok := symbolOperators[sym]
	return b, ok
}

// Suggest returns the keyword closest to word when the distance is
// small enough to look like a typo, or "" when nothing is close. Ties
// go to the earliest table entry, statements first.
func Suggest(word string) string {
	w := strings.ToUpper(word)
	best := ""
	bestDist := 3 // anything further than 2 edits is not a typo

	consider := func(name string) {
		if d := fuzzy.LevenshteinDistance(w, name); d < bestDist {
			best, bestDist = name, d
		}
	}

	for _, name := range statementNames {
		if isKeywordWord(name) {
			consider(name)
		}
	}
	for _, name := range functionNames {
		consider(name)
	}
	for _, name := range []string{"NOT", "OR", "AND", "TO", "STEP", "THEN"} {
		consider(name)
	}
	return best
}
