// Package tokenizer turns one line of BASIC source into the stored
// byte form: a three byte header, the token content, and the EOL byte.
// Statement and operator tokens share byte values, so the encoder
// tracks whether it sits at a statement boundary the same way the
// decoder does, and picks the table that position calls for.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/atticemu/atbasic/bcd"
	"github.com/atticemu/atbasic/berrors"
	"github.com/atticemu/atbasic/lexer"
	"github.com/atticemu/atbasic/token"
	"github.com/atticemu/atbasic/vartab"
)

// TokenizedLine is the result of encoding one source line. Bytes holds
// the complete record, header and EOL included. NewVariables lists the
// variables the line introduced, in first use order; the caller owns
// the table and decides whether to commit them.
type TokenizedLine struct {
	LineNumber   int
	Bytes        []byte
	NewVariables []vartab.Variable
}

// Empty reports whether the line carries no content, which is how the
// editor asks for a deletion: a bare line number.
func (tl TokenizedLine) Empty() bool {
	return len(tl.Bytes) == token.HeaderLength+1
}

// Tokenize encodes one source line against an existing variable table.
// The table itself is never touched; new names come back on the result
// so a failed line cannot leak entries into the caller's table.
func Tokenize(source string, vars *vartab.Table) (TokenizedLine, error) {
	toks, err := lexer.New(source).Scan()
	if err != nil {
		return TokenizedLine{}, err
	}

	if toks[0].Kind != lexer.LineNumber {
		return TokenizedLine{}, berrors.AtColumn(berrors.GarbledLine, toks[0].Col, "must start with a line number")
	}
	num := toks[0].Num
	if num < 1 || num > token.ImmediateLine {
		return TokenizedLine{}, berrors.AtColumn(berrors.BadLineNumber, toks[0].Col,
			fmt.Sprintf("line number %d is out of range", num))
	}

	enc := &encoder{
		vars:        vars.Clone(),
		atStatement: true,
	}
	if err := enc.run(toks[1:]); err != nil {
		return TokenizedLine{}, err
	}

	rec, err := enc.assemble(num)
	if err != nil {
		return TokenizedLine{}, err
	}
	return TokenizedLine{LineNumber: num, Bytes: rec, NewVariables: enc.newVars}, nil
}

// encoder walks the lexical tokens and grows the content bytes. The
// three state flags mirror the decoder: atStatement picks between the
// statement and expression tables, inAssignment decides whether the
// next = is an assignment or a comparison, and strTarget remembers the
// assignment target kind so string assignment gets its own token.
type encoder struct {
	content []byte
	colons  []int // content index of each statement separator

	vars    *vartab.Table
	newVars []vartab.Variable

	atStatement  bool
	inAssignment bool
	targetSeen   bool
	strTarget    bool
}

func (e *encoder) run(toks []lexer.Token) error {
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		var err error

		switch tok.Kind {
		case lexer.EOL:
			return nil
		case lexer.Keyword:
			i, err = e.keyword(toks, i)
		case lexer.Identifier:
			i, err = e.identifier(toks, i)
		case lexer.Number:
			e.number(tok.Text)
		case lexer.String:
			err = e.stringLiteral(tok)
		case lexer.Operator:
			err = e.operator(tok)
		case lexer.Punct:
			err = e.punct(tok)
		case lexer.Comment:
			e.comment(tok.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// keyword encodes a word the lexer found in the tables. Position picks
// the lookup order: a statement boundary wants statements first, while
// expression position prefers functions and word operators so THEN,
// and the GOTO and GOSUB inside an ON, land on their operator bytes.
func (e *encoder) keyword(toks []lexer.Token, i int) (int, error) {
	word := toks[i].Text

	if e.atStatement {
		if b, ok := token.LookupStatement(word); ok {
			e.statementByte(b)
			return i, nil
		}
	}
	if b, ok := token.LookupFunction(word); ok {
		e.emit(b)
		return i, nil
	}
	if b, ok := token.LookupOperatorWord(word); ok {
		e.emit(b)
		return i, nil
	}
	if b, ok := token.LookupStatement(word); ok {
		e.emit(b)
		return i, nil
	}
	// not reachable while the lexer and the tables agree on the word set
	return i, unknownWord(toks[i])
}

// identifier encodes a variable reference, with two wrinkles: GO ahead
// of TO at a statement boundary is the two word GOTO spelling, and a
// name that opens a statement must be an assignment target.
func (e *encoder) identifier(toks []lexer.Token, i int) (int, error) {
	tok := toks[i]
	next := toks[i+1] // Scan always terminates with an EOL token

	if e.atStatement {
		if strings.EqualFold(tok.Text, "GO") && next.Kind == lexer.Keyword && strings.EqualFold(next.Text, "TO") {
			e.statementByte(token.StmtGoTo)
			return i + 1, nil
		}
		if !(next.Kind == lexer.Operator && next.Text == "=") &&
			!(next.Kind == lexer.Punct && next.Text == "(") {
			return i, unknownWord(tok)
		}
		e.statementByte(token.StmtImpliedLet)
	}

	v := vartab.Variable{Name: strings.TrimSuffix(strings.ToUpper(tok.Text), "$")}
	switch {
	case strings.HasSuffix(tok.Text, "$"):
		v.Kind = vartab.Str
	case next.Kind == lexer.Punct && next.Text == "(":
		v.Kind = vartab.Array
	}

	idx, ok := e.vars.Lookup(v)
	if !ok {
		var err error
		idx, err = e.vars.Append(v)
		if err != nil {
			return i, err
		}
		e.newVars = append(e.newVars, v)
	}
	e.emit(token.VariableBase + byte(idx))

	if e.inAssignment && !e.targetSeen {
		e.targetSeen = true
		e.strTarget = v.Kind == vartab.Str
	}
	return i, nil
}

// number encodes a constant as the BCD prefix plus six bytes. A value
// the format cannot carry degrades to zero rather than failing the
// whole line.
func (e *encoder) number(lit string) {
	f, err := bcd.Parse(lit)
	if err != nil {
		f = bcd.Float{}
	}
	e.emit(token.NumberPrefix)
	e.content = append(e.content, f[:]...)
}

func (e *encoder) stringLiteral(tok lexer.Token) error {
	if len(tok.Text) > token.MaxLineLength {
		return berrors.AtColumn(berrors.LineTooLong, tok.Col, "string constant too long")
	}
	e.emit(token.StringPrefix)
	e.content = append(e.content, byte(len(tok.Text)))
	e.content = append(e.content, sanitize(tok.Text)...)
	return nil
}

func (e *encoder) operator(tok lexer.Token) error {
	if tok.Text == "=" {
		if e.inAssignment {
			e.inAssignment = false
			if e.strTarget {
				e.emit(token.OpAssignStr)
			} else {
				e.emit(token.OpAssign)
			}
			return nil
		}
		e.emit(token.OpEq)
		return nil
	}
	b, ok := token.LookupSymbol(tok.Text)
	if !ok {
		return berrors.AtColumn(berrors.GarbledLine, tok.Col, "unexpected "+tok.Text)
	}
	e.emit(b)
	return nil
}

func (e *encoder) punct(tok lexer.Token) error {
	if tok.Text == ":" {
		e.emit(token.OpColon)
		e.colons = append(e.colons, len(e.content)-1)
		e.content = append(e.content, 0) // next statement offset, patched at assembly
		e.atStatement = true
		e.inAssignment = false
		e.targetSeen = false
		e.strTarget = false
		return nil
	}
	b, ok := token.LookupSymbol(tok.Text)
	if !ok {
		return berrors.AtColumn(berrors.GarbledLine, tok.Col, "unexpected "+tok.Text)
	}
	e.emit(b)
	return nil
}

// comment stores the REM byte and the raw text. Nothing after a REM is
// tokenized, which is also why decoding one consumes the rest of the
// line.
func (e *encoder) comment(text string) {
	e.emit(token.StmtRem)
	e.content = append(e.content, sanitize(text)...)
}

// statementByte emits a statement token and resets the per statement
// flags. LET, FOR, and the implied LET open an assignment.
func (e *encoder) statementByte(b byte) {
	e.content = append(e.content, b)
	e.atStatement = false
	e.inAssignment = b == token.StmtLet || b == token.StmtFor || b == token.StmtImpliedLet
	e.targetSeen = false
	e.strTarget = false
}

func (e *encoder) emit(b byte) {
	e.content = append(e.content, b)
	e.atStatement = false
}

// assemble wraps the content in the line header and EOL byte, then
// patches each separator's offset byte with the record index just past
// the statement it opens: the next separator, or the EOL byte.
func (e *encoder) assemble(num int) ([]byte, error) {
	total := token.HeaderLength + len(e.content) + 1
	if total > token.MaxLineLength {
		return nil, berrors.Newf(berrors.LineTooLong, "line %d tokenizes to %d bytes, limit is %d", num, total, token.MaxLineLength)
	}

	for i, cpos := range e.colons {
		next := token.HeaderLength + len(e.content)
		if i+1 < len(e.colons) {
			next = token.HeaderLength + e.colons[i+1]
		}
		e.content[cpos+1] = byte(next)
	}

	rec := make([]byte, 0, total)
	rec = append(rec, byte(num&0xFF), byte(num>>8), byte(total))
	rec = append(rec, e.content...)
	rec = append(rec, token.EOL)
	return rec, nil
}

// sanitize maps source text to stored bytes. Storage is plain ASCII;
// anything wider becomes a question mark.
func sanitize(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r < 0x80 {
			out = append(out, byte(r))
		} else {
			out = append(out, '?')
		}
	}
	return out
}

func unknownWord(tok lexer.Token) error {
	return &berrors.BasicError{
		Code:       berrors.GarbledLine,
		Message:    fmt.Sprintf("unknown keyword %s", strings.ToUpper(tok.Text)),
		Column:     tok.Col,
		Suggestion: token.Suggest(tok.Text),
	}
}
